package pstn

import (
	"strconv"
	"strings"
)

// CallContext is the call-specific dynamic context captured once from the
// start frame's customParameters and reused for every tool dispatch on the
// session. Unrecognized parameters are kept in Extra so new dial-side
// fields survive the trip without a code change.
type CallContext struct {
	ClientName    string
	InvoiceNumber string
	Amount        string // display string, e.g. "€120.00"
	DueDate       string
	ClientEmail   string
	InvoiceID     string
	AmountCents   int64
	CallID        string

	Extra map[string]string
}

// NewCallContext extracts the known fields from a customParameters map.
func NewCallContext(params map[string]string) CallContext {
	ctx := CallContext{}
	for key, value := range params {
		value = strings.TrimSpace(value)
		switch key {
		case "clientName":
			ctx.ClientName = value
		case "invoiceNumber":
			ctx.InvoiceNumber = value
		case "amount":
			ctx.Amount = value
		case "dueDate":
			ctx.DueDate = value
		case "clientEmail":
			ctx.ClientEmail = value
		case "invoiceId":
			ctx.InvoiceID = value
		case "amountCents":
			if cents, err := strconv.ParseInt(value, 10, 64); err == nil {
				ctx.AmountCents = cents
			}
		case "callId":
			ctx.CallID = value
		default:
			if ctx.Extra == nil {
				ctx.Extra = make(map[string]string)
			}
			ctx.Extra[key] = value
		}
	}
	return ctx
}
