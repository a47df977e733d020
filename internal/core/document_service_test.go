package core_test

import (
	"errors"
	"testing"
	"time"

	"trade-docs/internal/core"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDocument_CodeAndTotals(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex Trading", core.CompanyKindBuyer)
	seller := f.register(t, "Acme Bright Corp", core.CompanyKindSeller)

	po, err := f.docs.CreateDocument(f.ctx, buyer, core.DocPurchaseOrder, core.CreateInput{
		CounterCompanyID: &seller.CompanyID,
		Items:            []core.ItemInput{item("Bolts", "100", "0.25"), item("Nuts", "100", "0.10")},
		DiscountPct:      decp("10"),
		TaxPct:           decp("20"),
		Dates:            core.DateFields{ExpectedDeliveryDate: day(14)},
	})
	require.NoError(t, err)

	assert.Equal(t, "GT PO-001", po.Code)
	assert.Equal(t, core.POPending, po.Status)
	assert.Equal(t, "35.00", po.SubTotal.StringFixed(2))
	assert.Equal(t, "6.30", po.TaxAmount.StringFixed(2))
	assert.Equal(t, "37.80", po.TotalAmount.StringFixed(2))
	assert.Equal(t, 2, po.Items[1].Line)

	second, err := f.docs.CreateDocument(f.ctx, buyer, core.DocPurchaseOrder, core.CreateInput{
		CounterCompanyID: &seller.CompanyID,
		Draft:            true,
		Items:            []core.ItemInput{item("Bolts", "1", "1")},
		Dates:            core.DateFields{ExpectedDeliveryDate: day(14)},
	})
	require.NoError(t, err)
	assert.Equal(t, "GT PO-002", second.Code)
	assert.Equal(t, core.PODraft, second.Status)
}

func TestCreateDocument_WrongKindForbidden(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)

	_, err := f.docs.CreateDocument(f.ctx, buyer, core.DocInvoice, core.CreateInput{
		CounterCompanyName: "Acme",
		Items:              []core.ItemInput{item("x", "1", "1")},
		Dates:              core.DateFields{DueDate: day(1)},
	})
	assert.True(t, errors.Is(err, core.ErrForbidden), "got %v", err)
}

func TestCreateDocument_Validation(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)
	otherBuyer := f.register(t, "Umbrella", core.CompanyKindBuyer)

	tests := []struct {
		name  string
		in    core.CreateInput
		field string
	}{
		{"no counter-party", core.CreateInput{Items: []core.ItemInput{item("x", "1", "1")}, Dates: core.DateFields{ExpectedDeliveryDate: day(3)}}, "counter_company_name"},
		{"no items", core.CreateInput{CounterCompanyName: "Acme", Dates: core.DateFields{ExpectedDeliveryDate: day(3)}}, "items"},
		{"blank product", core.CreateInput{CounterCompanyName: "Acme", Items: []core.ItemInput{item("", "1", "1")}, Dates: core.DateFields{ExpectedDeliveryDate: day(3)}}, "items[0].product_name"},
		{"missing delivery date", core.CreateInput{CounterCompanyName: "Acme", Items: []core.ItemInput{item("x", "1", "1")}}, "dates.expected_delivery_date"},
		{"delivery before issue", core.CreateInput{CounterCompanyName: "Acme", Items: []core.ItemInput{item("x", "1", "1")}, Dates: core.DateFields{ExpectedDeliveryDate: day(-1)}}, "dates.expected_delivery_date"},
		{"same-kind counter", core.CreateInput{CounterCompanyID: &otherBuyer.CompanyID, Items: []core.ItemInput{item("x", "1", "1")}, Dates: core.DateFields{ExpectedDeliveryDate: day(3)}}, "counter_company_id"},
		{"self by name", core.CreateInput{CounterCompanyName: "GLOBEX", Items: []core.ItemInput{item("x", "1", "1")}, Dates: core.DateFields{ExpectedDeliveryDate: day(3)}}, "counter_company_name"},
		{"negative override", core.CreateInput{CounterCompanyName: "Acme", Items: []core.ItemInput{item("x", "1", "1")}, TotalAmount: decp("-1"), Dates: core.DateFields{ExpectedDeliveryDate: day(3)}}, "total_amount"},
		{"disallowed parent", core.CreateInput{Parents: core.ParentRefs{SalesOrder: ptr(uuid.New())}, CounterCompanyName: "Acme", Items: []core.ItemInput{item("x", "1", "1")}, Dates: core.DateFields{ExpectedDeliveryDate: day(3)}}, "parents.sales_order_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.docs.CreateDocument(f.ctx, buyer, core.DocPurchaseOrder, tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrValidation), "got %v", err)
			assert.Equal(t, tt.field, core.FieldOf(err))
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestCreateDocument_TotalOverride(t *testing.T) {
	f := newFixture(t)
	seller := f.register(t, "Acme", core.CompanyKindSeller)

	inv, err := f.docs.CreateDocument(f.ctx, seller, core.DocInvoice, core.CreateInput{
		CounterCompanyName: "Globex",
		Items:              []core.ItemInput{item("x", "3", "10")},
		TotalAmount:        decp("25"),
		Dates:              core.DateFields{DueDate: day(7)},
	})
	require.NoError(t, err)
	assert.True(t, inv.TotalOverridden)
	assert.Equal(t, "30.00", inv.SubTotal.StringFixed(2))
	assert.Equal(t, "25.00", inv.TotalAmount.StringFixed(2))
	assert.Equal(t, "25.00", inv.RemainingAmount.StringFixed(2))
}

func TestOwnershipInvariant(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)
	seller := f.register(t, "Acme", core.CompanyKindSeller)
	stranger := f.register(t, "Initech", core.CompanyKindSeller)

	rfq, err := f.docs.CreateDocument(f.ctx, buyer, core.DocRFQ, core.CreateInput{
		CounterCompanyID: &seller.CompanyID,
		Items:            []core.ItemInput{item("Widgets", "10", "2")},
	})
	require.NoError(t, err)

	_, err = f.docs.FetchDocument(f.ctx, stranger, core.DocRFQ, rfq.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound), "stranger fetch: %v", err)

	_, err = f.docs.ApplyAction(f.ctx, stranger, core.DocRFQ, rfq.ID, core.ActionInput{Action: core.ActionApprove})
	assert.True(t, errors.Is(err, core.ErrNotFound), "stranger action: %v", err)

	err = f.docs.DeleteDocument(f.ctx, stranger, core.DocRFQ, rfq.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound), "stranger delete: %v", err)

	list, err := f.docs.ListDocuments(f.ctx, stranger, core.ListFilter{Type: core.DocRFQ})
	require.NoError(t, err)
	assert.Empty(t, list)

	// The issuer cannot take the counter-party's actions and vice versa.
	_, err = f.docs.ApplyAction(f.ctx, buyer, core.DocRFQ, rfq.ID, core.ActionInput{Action: core.ActionApprove})
	assert.True(t, errors.Is(err, core.ErrForbidden), "issuer approving: %v", err)

	err = f.docs.DeleteDocument(f.ctx, seller, core.DocRFQ, rfq.ID)
	assert.True(t, errors.Is(err, core.ErrForbidden), "counter deleting: %v", err)

	_, err = f.docs.UpdateDocumentFields(f.ctx, seller, core.DocRFQ, rfq.ID, core.UpdateInput{Notes: ptr("hi")})
	assert.True(t, errors.Is(err, core.ErrForbidden), "counter editing: %v", err)

	// Wrong type in the path is indistinguishable from a missing document.
	_, err = f.docs.FetchDocument(f.ctx, buyer, core.DocContract, rfq.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestApplyAction_RFQAcceptTwice(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)
	seller := f.register(t, "Acme", core.CompanyKindSeller)

	rfq, err := f.docs.CreateDocument(f.ctx, buyer, core.DocRFQ, core.CreateInput{
		CounterCompanyID: &seller.CompanyID,
		Items:            []core.ItemInput{item("Widgets", "10", "2")},
	})
	require.NoError(t, err)

	accepted, err := f.docs.ApplyAction(f.ctx, seller, core.DocRFQ, rfq.ID, core.ActionInput{Action: core.ActionApprove})
	require.NoError(t, err)
	assert.Equal(t, core.RFQApproved, accepted.Status)

	_, err = f.docs.ApplyAction(f.ctx, seller, core.DocRFQ, rfq.ID, core.ActionInput{Action: core.ActionApprove})
	assert.True(t, errors.Is(err, core.ErrInvalidTransition), "got %v", err)

	events, err := f.docs.ListEvents(f.ctx, buyer, core.DocRFQ, rfq.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "create", events[0].Action)
	assert.Equal(t, core.RFQPending, events[1].FromStatus)
	assert.Equal(t, core.RFQApproved, events[1].ToStatus)
}

func TestChain_QuotationToPurchaseOrderToSalesOrder(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)
	seller := f.register(t, "Acme", core.CompanyKindSeller)

	rfq, err := f.docs.CreateDocument(f.ctx, buyer, core.DocRFQ, core.CreateInput{
		CounterCompanyID: &seller.CompanyID,
		Items:            []core.ItemInput{item("Widgets", "10", "2")},
	})
	require.NoError(t, err)

	quo, err := f.docs.CreateDocument(f.ctx, seller, core.DocQuotation, core.CreateInput{
		Parents: core.ParentRefs{RFQ: &rfq.ID},
		Items:   []core.ItemInput{item("Widgets", "10", "1.80")},
		TaxPct:  decp("10"),
		Dates:   core.DateFields{ValidUntil: day(30)},
	})
	require.NoError(t, err)
	assert.Equal(t, core.QuotationSent, quo.Status)
	assert.Equal(t, &buyer.CompanyID, core.CounterID(quo.Counter))

	// The PO names no counter-party and no items: both come from the quotation.
	po, err := f.docs.CreateDocument(f.ctx, buyer, core.DocPurchaseOrder, core.CreateInput{
		Parents: core.ParentRefs{Quotation: &quo.ID},
		Dates:   core.DateFields{ExpectedDeliveryDate: day(10)},
	})
	require.NoError(t, err)
	assert.Equal(t, &seller.CompanyID, core.CounterID(po.Counter))
	assert.Equal(t, quo.TotalAmount.String(), po.TotalAmount.String())
	assert.Equal(t, &quo.ID, po.Parents.Quotation)

	so, err := f.docs.CreateDocument(f.ctx, seller, core.DocSalesOrder, core.CreateInput{
		Parents: core.ParentRefs{PurchaseOrder: &po.ID},
		Dates:   core.DateFields{PlannedShipDate: day(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, &buyer.CompanyID, core.CounterID(so.Counter))
	assert.Equal(t, "A SO-001", so.Code)

	// A parent the actor cannot see is reported as missing.
	stranger := f.register(t, "Initech", core.CompanyKindSeller)
	_, err = f.docs.CreateDocument(f.ctx, stranger, core.DocSalesOrder, core.CreateInput{
		Parents: core.ParentRefs{PurchaseOrder: &po.ID},
		Dates:   core.DateFields{PlannedShipDate: day(2)},
	})
	assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)

	// A PO with children cannot be deleted.
	err = f.docs.DeleteDocument(f.ctx, buyer, core.DocPurchaseOrder, po.ID)
	assert.True(t, errors.Is(err, core.ErrConflict), "got %v", err)
}

func TestChain_ContractTakesPrecedenceOverQuotation(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)
	sellerA := f.register(t, "Acme", core.CompanyKindSeller)
	sellerB := f.register(t, "Bravo Supplies", core.CompanyKindSeller)

	quo, err := f.docs.CreateDocument(f.ctx, sellerA, core.DocQuotation, core.CreateInput{
		CounterCompanyID: &buyer.CompanyID,
		Items:            []core.ItemInput{item("x", "1", "5")},
	})
	require.NoError(t, err)
	con, err := f.docs.CreateDocument(f.ctx, sellerB, core.DocContract, core.CreateInput{
		CounterCompanyID: &buyer.CompanyID,
		Items:            []core.ItemInput{item("y", "2", "7")},
		Dates:            core.DateFields{StartDate: day(0), EndDate: day(365)},
	})
	require.NoError(t, err)

	po, err := f.docs.CreateDocument(f.ctx, buyer, core.DocPurchaseOrder, core.CreateInput{
		Parents: core.ParentRefs{Quotation: &quo.ID, Contract: &con.ID},
		Dates:   core.DateFields{ExpectedDeliveryDate: day(5)},
	})
	require.NoError(t, err)
	assert.Equal(t, &sellerB.CompanyID, core.CounterID(po.Counter))
	assert.Equal(t, "14.00", po.TotalAmount.StringFixed(2))
}

func TestInvoice_PartialPaymentScenario(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)
	seller := f.register(t, "Acme", core.CompanyKindSeller)

	po, err := f.docs.CreateDocument(f.ctx, buyer, core.DocPurchaseOrder, core.CreateInput{
		CounterCompanyID: &seller.CompanyID,
		Items:            []core.ItemInput{item("Service", "1", "100")},
		Dates:            core.DateFields{ExpectedDeliveryDate: day(5)},
	})
	require.NoError(t, err)
	po = f.act(t, seller, po, core.ActionAccept)
	require.Equal(t, core.POApproved, po.Status)

	inv, err := f.docs.CreateDocument(f.ctx, seller, core.DocInvoice, core.CreateInput{
		Parents: core.ParentRefs{PurchaseOrder: &po.ID},
		Dates:   core.DateFields{DueDate: day(30)},
	})
	require.NoError(t, err)
	assert.Equal(t, "100.00", inv.TotalAmount.StringFixed(2))
	inv = f.act(t, buyer, inv, core.ActionAccept)

	// The seller cannot pay its own invoice.
	_, err = f.docs.ApplyAction(f.ctx, seller, core.DocInvoice, inv.ID, core.ActionInput{Action: core.ActionPay})
	assert.True(t, errors.Is(err, core.ErrForbidden))

	inv, err = f.docs.ApplyAction(f.ctx, buyer, core.DocInvoice, inv.ID, core.ActionInput{
		Action: core.ActionPartialPay, Amount: decp("40"), ReceiptRef: "receipts/1.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, core.InvoicePending, inv.Status)
	assert.Equal(t, "40.00", inv.PaidAmount.StringFixed(2))
	assert.Equal(t, "60.00", inv.RemainingAmount.StringFixed(2))

	// Edits are locked once money has moved.
	_, err = f.docs.UpdateDocumentFields(f.ctx, seller, core.DocInvoice, inv.ID, core.UpdateInput{Notes: ptr("x")})
	assert.True(t, errors.Is(err, core.ErrInvalidTransition))

	inv, err = f.docs.ApplyAction(f.ctx, buyer, core.DocInvoice, inv.ID, core.ActionInput{
		Action: core.ActionPartialPay, Amount: decp("60"), ReceiptRef: "receipts/2.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, core.InvoicePaid, inv.Status)
	assert.True(t, inv.RemainingAmount.IsZero())

	payments, err := f.docs.ListPayments(f.ctx, seller, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "40.00", payments[0].Amount.StringFixed(2))
	assert.Equal(t, "60.00", payments[1].Amount.StringFixed(2))

	// Paying the invoice completed the approved PO.
	po, err = f.docs.FetchDocument(f.ctx, buyer, core.DocPurchaseOrder, po.ID)
	require.NoError(t, err)
	assert.Equal(t, core.POCompleted, po.Status)

	_, err = f.docs.ApplyAction(f.ctx, buyer, core.DocInvoice, inv.ID, core.ActionInput{
		Action: core.ActionPartialPay, Amount: decp("1"), ReceiptRef: "r",
	})
	assert.True(t, errors.Is(err, core.ErrInvalidTransition))
}

func TestInvoice_FailedPaymentLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)
	seller := f.register(t, "Acme", core.CompanyKindSeller)
	inv := f.invoice(t, seller, buyer, "100")

	_, err := f.docs.ApplyAction(f.ctx, buyer, core.DocInvoice, inv.ID, core.ActionInput{
		Action: core.ActionPartialPay, Amount: decp("40"),
	})
	require.Error(t, err)
	assert.Equal(t, "receipt_ref", core.FieldOf(err))

	got, err := f.docs.FetchDocument(f.ctx, buyer, core.DocInvoice, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.IsZero())
	payments, err := f.docs.ListPayments(f.ctx, buyer, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestNameFallbackOwnership(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)

	// Addressed before the seller registered, by name only.
	rfq, err := f.docs.CreateDocument(f.ctx, buyer, core.DocRFQ, core.CreateInput{
		CounterCompanyName: "acme corp",
		Items:              []core.ItemInput{item("Widgets", "1", "1")},
	})
	require.NoError(t, err)
	assert.Nil(t, core.CounterID(rfq.Counter))

	seller := f.register(t, "Acme Corp", core.CompanyKindSeller)
	other := f.register(t, "Acme Corporation", core.CompanyKindSeller)

	got, err := f.docs.FetchDocument(f.ctx, seller, core.DocRFQ, rfq.ID)
	require.NoError(t, err)
	assert.Equal(t, rfq.Code, got.Code)

	received, err := f.docs.ListDocuments(f.ctx, seller, core.ListFilter{Type: core.DocRFQ, Owner: core.OwnerReceived})
	require.NoError(t, err)
	require.Len(t, received, 1)

	_, err = f.docs.FetchDocument(f.ctx, other, core.DocRFQ, rfq.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	approved, err := f.docs.ApplyAction(f.ctx, seller, core.DocRFQ, rfq.ID, core.ActionInput{Action: core.ActionApprove})
	require.NoError(t, err)
	assert.Equal(t, &seller.CompanyID, core.CounterID(approved.Counter), "acting binds the name to the company")
	assert.Equal(t, "acme corp", approved.Counter.DisplayName())
}

func TestListDocuments_Filters(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)
	seller := f.register(t, "Acme", core.CompanyKindSeller)

	for _, notes := range []string{"steel beams", "copper wire", "steel plates"} {
		_, err := f.docs.CreateDocument(f.ctx, buyer, core.DocRFQ, core.CreateInput{
			CounterCompanyID: &seller.CompanyID,
			Items:            []core.ItemInput{item("x", "1", "1")},
			Notes:            notes,
		})
		require.NoError(t, err)
	}
	_, err := f.docs.CreateDocument(f.ctx, seller, core.DocContract, core.CreateInput{
		CounterCompanyID: &buyer.CompanyID,
		Items:            []core.ItemInput{item("x", "1", "1")},
	})
	require.NoError(t, err)

	issued, err := f.docs.ListDocuments(f.ctx, buyer, core.ListFilter{Type: core.DocRFQ, Owner: core.OwnerIssued})
	require.NoError(t, err)
	assert.Len(t, issued, 3)

	received, err := f.docs.ListDocuments(f.ctx, buyer, core.ListFilter{Type: core.DocRFQ, Owner: core.OwnerReceived})
	require.NoError(t, err)
	assert.Empty(t, received)

	steel, err := f.docs.ListDocuments(f.ctx, seller, core.ListFilter{Type: core.DocRFQ, Search: "STEEL"})
	require.NoError(t, err)
	assert.Len(t, steel, 2)

	_, err = f.docs.ListDocuments(f.ctx, buyer, core.ListFilter{Type: core.DocRFQ, Status: "SHIPPED"})
	assert.Equal(t, "status", core.FieldOf(err))

	_, err = f.docs.ListDocuments(f.ctx, buyer, core.ListFilter{Type: core.DocRFQ, Owner: "mine"})
	assert.Equal(t, "owner", core.FieldOf(err))
}

func TestContract_SuggestChangesAndResubmit(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)
	seller := f.register(t, "Acme", core.CompanyKindSeller)

	con, err := f.docs.CreateDocument(f.ctx, seller, core.DocContract, core.CreateInput{
		CounterCompanyID: &buyer.CompanyID,
		Items:            []core.ItemInput{item("Supply", "12", "1000")},
		Dates:            core.DateFields{StartDate: day(0), EndDate: day(365)},
	})
	require.NoError(t, err)

	_, err = f.docs.ApplyAction(f.ctx, buyer, core.DocContract, con.ID, core.ActionInput{Action: core.ActionSuggestChanges})
	assert.Equal(t, "note", core.FieldOf(err))

	con, err = f.docs.ApplyAction(f.ctx, buyer, core.DocContract, con.ID, core.ActionInput{
		Action: core.ActionSuggestChanges, Note: "extend to 24 months",
	})
	require.NoError(t, err)
	assert.Equal(t, core.ContractPendingChanges, con.Status)
	assert.Equal(t, "extend to 24 months", con.StatusNote)

	con, err = f.docs.UpdateDocumentFields(f.ctx, seller, core.DocContract, con.ID, core.UpdateInput{
		Dates: core.DateFields{EndDate: day(730)},
	})
	require.NoError(t, err)
	con = f.act(t, seller, con, core.ActionSubmit)
	assert.Equal(t, core.ContractPending, con.Status)
	assert.Empty(t, con.StatusNote)

	con, err = f.docs.ApplyAction(f.ctx, buyer, core.DocContract, con.ID, core.ActionInput{
		Action: core.ActionAccept, SignatureRef: "signatures/globex.png",
	})
	require.NoError(t, err)
	assert.Equal(t, core.ContractApproved, con.Status)
	assert.Equal(t, "signatures/globex.png", con.SignatureRef)

	_, err = f.docs.UpdateDocumentFields(f.ctx, seller, core.DocContract, con.ID, core.UpdateInput{Notes: ptr("late")})
	assert.True(t, errors.Is(err, core.ErrInvalidTransition))
}

func TestUpdateDocumentFields_Reprices(t *testing.T) {
	f := newFixture(t)
	seller := f.register(t, "Acme", core.CompanyKindSeller)
	inv, err := f.docs.CreateDocument(f.ctx, seller, core.DocInvoice, core.CreateInput{
		CounterCompanyName: "Globex",
		Items:              []core.ItemInput{item("x", "1", "100")},
		Dates:              core.DateFields{DueDate: day(10)},
	})
	require.NoError(t, err)

	inv, err = f.docs.UpdateDocumentFields(f.ctx, seller, core.DocInvoice, inv.ID, core.UpdateInput{TaxPct: decp("19")})
	require.NoError(t, err)
	assert.Equal(t, "119.00", inv.TotalAmount.StringFixed(2))
	assert.Equal(t, "119.00", inv.RemainingAmount.StringFixed(2))
}

func TestDeleteDocument(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)
	seller := f.register(t, "Acme", core.CompanyKindSeller)

	rfq, err := f.docs.CreateDocument(f.ctx, buyer, core.DocRFQ, core.CreateInput{
		CounterCompanyID: &seller.CompanyID,
		Items:            []core.ItemInput{item("x", "1", "1")},
	})
	require.NoError(t, err)
	require.NoError(t, f.docs.DeleteDocument(f.ctx, buyer, core.DocRFQ, rfq.ID))

	_, err = f.docs.FetchDocument(f.ctx, buyer, core.DocRFQ, rfq.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	inv := f.invoice(t, seller, buyer, "10")
	err = f.docs.DeleteDocument(f.ctx, seller, core.DocInvoice, inv.ID)
	assert.True(t, errors.Is(err, core.ErrInvalidTransition), "pending invoices are kept: %v", err)
}

func TestSweepOverdueInvoices(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)
	seller := f.register(t, "Acme", core.CompanyKindSeller)

	inv := f.invoice(t, seller, buyer, "50")
	draft, err := f.docs.CreateDocument(f.ctx, seller, core.DocInvoice, core.CreateInput{
		CounterCompanyID: &buyer.CompanyID,
		Items:            []core.ItemInput{item("x", "1", "1")},
		Dates:            core.DateFields{DueDate: day(1)},
	})
	require.NoError(t, err)

	n, err := f.docs.SweepOverdueInvoices(f.ctx, time.Now().AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, n, "not yet due")

	n, err = f.docs.SweepOverdueInvoices(f.ctx, time.Now().AddDate(0, 0, 31))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.docs.FetchDocument(f.ctx, buyer, core.DocInvoice, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, core.InvoiceOverdue, got.Status)

	got, err = f.docs.FetchDocument(f.ctx, buyer, core.DocInvoice, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, core.InvoiceDraft, got.Status)

	// OVERDUE invoices can still be paid.
	settled, err := f.docs.ApplyAction(f.ctx, buyer, core.DocInvoice, inv.ID, core.ActionInput{Action: core.ActionPay})
	require.NoError(t, err)
	assert.Equal(t, core.InvoicePaid, settled.Status)
}

func TestUnauthenticated(t *testing.T) {
	f := newFixture(t)
	_, err := f.docs.ListDocuments(f.ctx, core.Actor{}, core.ListFilter{Type: core.DocRFQ})
	assert.True(t, errors.Is(err, core.ErrUnauthenticated))

	_, err = f.docs.FetchDocument(f.ctx, core.Actor{CompanyID: uuid.New(), Kind: core.CompanyKindBuyer}, core.DocRFQ, uuid.New())
	assert.True(t, errors.Is(err, core.ErrUnauthenticated))
}

func TestApplyAction_CounterCannotAnswerDraft(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)
	seller := f.register(t, "Acme", core.CompanyKindSeller)

	po, err := f.docs.CreateDocument(f.ctx, buyer, core.DocPurchaseOrder, core.CreateInput{
		CounterCompanyID: &seller.CompanyID,
		Draft:            true,
		Items:            []core.ItemInput{item("Bolts", "10", "1")},
		Dates:            core.DateFields{ExpectedDeliveryDate: day(7)},
	})
	require.NoError(t, err)
	require.Equal(t, core.PODraft, po.Status)

	for _, a := range []core.Action{core.ActionAccept, core.ActionReject} {
		_, err = f.docs.ApplyAction(f.ctx, seller, core.DocPurchaseOrder, po.ID, core.ActionInput{Action: a})
		assert.True(t, errors.Is(err, core.ErrInvalidTransition), "%s: %v", a, err)
	}

	po = f.act(t, buyer, po, core.ActionSubmit)
	assert.Equal(t, core.POPending, po.Status)
	po = f.act(t, seller, po, core.ActionAccept)
	assert.Equal(t, core.POApproved, po.Status)
}

func TestApplyAction_WrongSideOnFinalDocumentIsForbidden(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)
	seller := f.register(t, "Acme", core.CompanyKindSeller)

	rfq, err := f.docs.CreateDocument(f.ctx, buyer, core.DocRFQ, core.CreateInput{
		CounterCompanyID: &seller.CompanyID,
		Items:            []core.ItemInput{item("Widgets", "1", "1")},
	})
	require.NoError(t, err)
	rfq = f.act(t, seller, rfq, core.ActionApprove)

	_, err = f.docs.ApplyAction(f.ctx, buyer, core.DocRFQ, rfq.ID, core.ActionInput{Action: core.ActionDecline})
	assert.True(t, errors.Is(err, core.ErrForbidden), "got %v", err)

	// The right side still learns the document is final.
	_, err = f.docs.ApplyAction(f.ctx, seller, core.DocRFQ, rfq.ID, core.ActionInput{Action: core.ActionDecline})
	assert.True(t, errors.Is(err, core.ErrInvalidTransition), "got %v", err)
}

func TestChain_RefusedParentCannotBeContinued(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "Globex", core.CompanyKindBuyer)
	seller := f.register(t, "Acme", core.CompanyKindSeller)

	rfq, err := f.docs.CreateDocument(f.ctx, buyer, core.DocRFQ, core.CreateInput{
		CounterCompanyID: &seller.CompanyID,
		Items:            []core.ItemInput{item("Widgets", "10", "2")},
	})
	require.NoError(t, err)
	quo, err := f.docs.CreateDocument(f.ctx, seller, core.DocQuotation, core.CreateInput{
		Parents: core.ParentRefs{RFQ: &rfq.ID},
		Dates:   core.DateFields{ValidUntil: day(30)},
	})
	require.NoError(t, err)
	quo = f.act(t, buyer, quo, core.ActionReject)
	require.Equal(t, core.QuotationRejected, quo.Status)

	_, err = f.docs.CreateDocument(f.ctx, buyer, core.DocPurchaseOrder, core.CreateInput{
		Parents: core.ParentRefs{Quotation: &quo.ID},
		Dates:   core.DateFields{ExpectedDeliveryDate: day(10)},
	})
	assert.True(t, errors.Is(err, core.ErrInvalidTransition), "got %v", err)
	assert.Equal(t, "parents.quotation_id", core.FieldOf(err))

	po, err := f.docs.CreateDocument(f.ctx, buyer, core.DocPurchaseOrder, core.CreateInput{
		CounterCompanyID: &seller.CompanyID,
		Items:            []core.ItemInput{item("Widgets", "10", "2")},
		Dates:            core.DateFields{ExpectedDeliveryDate: day(10)},
	})
	require.NoError(t, err)
	po = f.act(t, seller, po, core.ActionReject)

	_, err = f.docs.CreateDocument(f.ctx, seller, core.DocInvoice, core.CreateInput{
		Parents: core.ParentRefs{PurchaseOrder: &po.ID},
		Dates:   core.DateFields{DueDate: day(30)},
	})
	assert.True(t, errors.Is(err, core.ErrInvalidTransition), "got %v", err)
	assert.Equal(t, "parents.purchase_order_id", core.FieldOf(err))
}
