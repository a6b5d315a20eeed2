package agent

import (
	"encoding/json"
	"fmt"

	"github.com/ariahq/callbridge/pkg/bridge/pstn"
)

// Defaults used when the dial side did not attach a parameter; the persona
// still needs something sayable.
const (
	fallbackClientName = "the client"
	fallbackInvoiceRef = "on file"
	fallbackAmount     = "an outstanding amount"
	fallbackDueDate    = "recently"
	fallbackEmail      = "not available"
)

// InitMessage builds the single conversation_initiation_client_data frame
// sent when the agent socket opens: the call's dynamic variables plus the
// collections persona override.
func InitMessage(callCtx pstn.CallContext) ([]byte, error) {
	clientName := orDefault(callCtx.ClientName, fallbackClientName)
	invoiceNumber := orDefault(callCtx.InvoiceNumber, fallbackInvoiceRef)
	amount := orDefault(callCtx.Amount, fallbackAmount)
	dueDate := orDefault(callCtx.DueDate, fallbackDueDate)
	clientEmail := orDefault(callCtx.ClientEmail, fallbackEmail)

	payload := map[string]any{
		"type": "conversation_initiation_client_data",
		"dynamic_variables": map[string]string{
			"client_name":    clientName,
			"invoice_number": invoiceNumber,
			"amount":         amount,
			"due_date":       dueDate,
			"client_email":   clientEmail,
		},
		"conversation_config_override": map[string]any{
			"agent": map[string]any{
				"prompt": map[string]any{
					"prompt": personaPrompt(clientName, invoiceNumber, amount, dueDate),
				},
				"first_message": firstMessage(clientName, invoiceNumber, amount),
			},
		},
	}
	return json.Marshal(payload)
}

func personaPrompt(clientName, invoiceNumber, amount, dueDate string) string {
	return fmt.Sprintf(`You are Aria, a warm and professional accounts receivable assistant calling on behalf of a business. You are calling %s about overdue invoice %s for %s, which was due %s.

VOICE AND DELIVERY:
- Sound calm, human, and reassuring.
- Use natural contractions (for example: "we're", "that's", "let's").
- Keep a medium pace with short pauses between key points.
- Use plain, simple wording. Avoid scripted or robotic phrasing.
- Keep each turn brief (1-2 short sentences where possible).

Your goals (in order):
1. Greet the customer politely and confirm you're speaking with the right person.
2. Remind them about the overdue invoice and ask if they can arrange payment today.
3. If they agree to pay now by card, collect their card details one at a time:
   - Card number (16 digits)
   - Expiry month (2 digits, e.g. 01-12)
   - Expiry year (2 digits, e.g. 26 for 2026)
   - CVC / security code (3 digits on the back of the card)
4. Once you have all four details, use the "process_payment" tool to process the payment.
5. After the tool responds, tell the customer whether the payment was successful or failed.
6. If they do not want to pay by card right now, ask: "Would you like me to email a secure payment link now?"
7. If they say yes, use the "send_payment_link" tool immediately.
8. After the tool responds, confirm whether the email was sent successfully.
9. If they decline, ask when they expect to pay and thank them for their time.

IMPORTANT RULES:
- Be polite, empathetic, and professional at all times.
- Collect card details ONE FIELD AT A TIME. Confirm each before moving to the next.
- Read back the card number to confirm it before proceeding.
- NEVER repeat the full card number or CVC back after collecting it, just confirm "got it".
- Keep responses SHORT since this is a phone call.
- If the payment fails, apologise and suggest they try a different card or call back.`,
		clientName, invoiceNumber, amount, dueDate)
}

func firstMessage(clientName, invoiceNumber, amount string) string {
	return fmt.Sprintf("Hi, this is Aria calling on behalf of your supplier. Am I speaking with %s? I'm calling about invoice %s for %s, which is now overdue. Is this a good time for a quick chat?",
		clientName, invoiceNumber, amount)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
