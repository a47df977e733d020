package core

import (
	"github.com/shopspring/decimal"
)

// ApplyInvoiceAction runs accept, reject, pay or partial_pay against an invoice,
// mutating status and the paid/remaining pair. It returns the amount that was
// applied as payment (zero for accept and reject).
//
// After every successful call PaidAmount + RemainingAmount == TotalAmount.
func ApplyInvoiceAction(inv *Document, action Action, amount *decimal.Decimal, receiptRef string) (decimal.Decimal, error) {
	if inv.Type != DocInvoice {
		return zero, validationError("apply invoice action", "type", "%s is not an invoice", inv.Code)
	}
	tr, err := Plan(inv, action)
	if err != nil {
		return zero, err
	}

	switch action {
	case ActionAccept, ActionReject:
		inv.Status = tr.To
		return zero, nil

	case ActionPay:
		applied := inv.TotalAmount.Sub(inv.PaidAmount)
		settle(inv)
		return applied, nil

	case ActionPartialPay:
		if amount == nil {
			return zero, validationError("partial payment", "amount", "amount is required")
		}
		amt := round2(*amount)
		if !amt.IsPositive() {
			return zero, validationError("partial payment", "amount", "amount must be greater than zero")
		}
		if receiptRef == "" {
			return zero, validationError("partial payment", "receipt_ref", "a payment receipt is required")
		}
		outstanding := inv.TotalAmount.Sub(inv.PaidAmount)
		if amt.GreaterThanOrEqual(outstanding) {
			settle(inv)
			return outstanding, nil
		}
		inv.PaidAmount = round2(inv.PaidAmount.Add(amt))
		inv.RemainingAmount = round2(inv.TotalAmount.Sub(inv.PaidAmount))
		return amt, nil
	}
	return zero, validationError("apply invoice action", "action", "%q is not an invoice action", action)
}

func settle(inv *Document) {
	inv.PaidAmount = round2(inv.TotalAmount)
	inv.RemainingAmount = zero
	inv.Status = InvoicePaid
}

// resetLedger initialises paid/remaining for a freshly priced invoice.
func resetLedger(inv *Document) {
	inv.PaidAmount = zero
	inv.RemainingAmount = round2(inv.TotalAmount)
}
