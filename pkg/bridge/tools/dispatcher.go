package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ariahq/callbridge/pkg/bridge/agent"
	"github.com/ariahq/callbridge/pkg/bridge/pstn"
)

const ToolProcessPayment = "process_payment"

// paymentLinkNames are the accepted spellings of the link-delivery tool.
var paymentLinkNames = map[string]struct{}{
	"send_payment_link":         {},
	"send_payment_invoice":      {},
	"send_invoice_payment_link": {},
}

// Result is the agent-consumable outcome of one dispatched tool call.
type Result struct {
	Text    string
	IsError bool
}

// Dispatcher resolves tool invocations against the enumerated action set.
type Dispatcher struct {
	Charge      *ActionClient
	PaymentLink *ActionClient
	Timeout     time.Duration
	Logger      *slog.Logger
}

// Handles reports whether the named tool is one the dispatcher claims to
// support. Names outside the set are not errors; the protocol only
// mandates a response to supported calls.
func (d *Dispatcher) Handles(name string) bool {
	if name == ToolProcessPayment {
		return true
	}
	_, ok := paymentLinkNames[name]
	return ok
}

// Dispatch runs one tool invocation and renders its outcome. The second
// return is false when the tool name is unsupported, in which case no
// result message is owed. Every supported invocation yields exactly one
// Result, negative on any failure; errors never escape.
func (d *Dispatcher) Dispatch(ctx context.Context, call agent.ToolCall, callCtx pstn.CallContext) (Result, bool) {
	if !d.Handles(call.Name) {
		return Result{}, false
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if call.Name == ToolProcessPayment {
		return d.processPayment(ctx, call, callCtx), true
	}
	return d.sendPaymentLink(ctx, call, callCtx), true
}

func (d *Dispatcher) processPayment(ctx context.Context, call agent.ToolCall, callCtx pstn.CallContext) Result {
	req := ChargeRequest{
		CardNumber:  paramString(call.Parameters, "card_number"),
		ExpMonth:    paramString(call.Parameters, "exp_month"),
		ExpYear:     paramString(call.Parameters, "exp_year"),
		CVC:         paramString(call.Parameters, "cvc"),
		InvoiceID:   fallback(paramString(call.Parameters, "invoice_id"), callCtx.InvoiceID),
		AmountCents: fallbackCents(paramCents(call.Parameters, "amount_cents"), callCtx.AmountCents),
		ClientName:  fallback(paramString(call.Parameters, "client_name"), callCtx.ClientName),
	}

	result, err := d.Charge.Post(ctx, req)
	if err != nil {
		d.logDispatch(call, "charge action failed", err)
		return Result{
			Text:    "Payment processing failed due to a technical error. Please try again later.",
			IsError: true,
		}
	}
	if !result.Success {
		reason := fallback(result.Error, result.Message)
		d.logDispatch(call, "charge declined: "+reason, nil)
		return Result{Text: "Payment failed: " + reason, IsError: true}
	}
	return Result{Text: strings.TrimSpace("Payment successful! " + result.Message)}
}

func (d *Dispatcher) sendPaymentLink(ctx context.Context, call agent.ToolCall, callCtx pstn.CallContext) Result {
	req := PaymentLinkRequest{
		InvoiceID:     fallback(paramString(call.Parameters, "invoice_id"), callCtx.InvoiceID),
		InvoiceNumber: fallback(paramString(call.Parameters, "invoice_number"), callCtx.InvoiceNumber),
		ClientName:    fallback(paramString(call.Parameters, "client_name"), callCtx.ClientName),
		ClientEmail:   fallback(paramString(call.Parameters, "client_email"), callCtx.ClientEmail),
		AmountCents:   fallbackCents(paramCents(call.Parameters, "amount_cents"), callCtx.AmountCents),
		Currency:      fallback(paramString(call.Parameters, "currency"), "eur"),
		CallID:        fallback(paramString(call.Parameters, "call_id"), callCtx.CallID),
	}

	result, err := d.PaymentLink.Post(ctx, req)
	if err != nil {
		d.logDispatch(call, "payment-link action failed", err)
		return Result{Text: "Payment link sending failed due to a technical error.", IsError: true}
	}
	if !result.Success {
		reason := fallback(result.Error, "Unknown error")
		d.logDispatch(call, "payment-link rejected: "+reason, nil)
		return Result{Text: "Could not send payment link: " + reason, IsError: true}
	}
	email := fallback(result.ClientEmail, req.ClientEmail)
	return Result{Text: fmt.Sprintf("Payment link sent to %s.", email)}
}

func (d *Dispatcher) logDispatch(call agent.ToolCall, msg string, err error) {
	if d.Logger == nil {
		return
	}
	if err != nil {
		d.Logger.Warn(msg, "tool", call.Name, "tool_call_id", call.ID, "error", err)
		return
	}
	d.Logger.Info(msg, "tool", call.Name, "tool_call_id", call.ID)
}

func paramString(params map[string]any, key string) string {
	switch v := params[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func paramCents(params map[string]any, key string) int64 {
	switch v := params[key].(type) {
	case float64:
		return int64(v)
	case string:
		if cents, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return cents
		}
	}
	return 0
}

func fallback(value, alt string) string {
	if strings.TrimSpace(value) == "" {
		return alt
	}
	return value
}

func fallbackCents(value, alt int64) int64 {
	if value == 0 {
		return alt
	}
	return value
}
