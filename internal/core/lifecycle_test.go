package core_test

import (
	"errors"
	"testing"

	"trade-docs/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_TerminalStatusesRejectEveryAction(t *testing.T) {
	for _, dt := range core.AllDocumentTypes {
		for _, st := range core.Statuses(dt) {
			if !core.IsTerminal(dt, st) {
				continue
			}
			for _, a := range core.Actions(dt) {
				_, err := core.Plan(&core.Document{Type: dt, Status: st, Code: "X"}, a)
				assert.True(t, errors.Is(err, core.ErrInvalidTransition), "%s %s %s: %v", dt, st, a, err)
			}
		}
	}
}

func TestPlan_Transitions(t *testing.T) {
	tests := []struct {
		docType core.DocumentType
		from    core.Status
		action  core.Action
		role    core.Role
		to      core.Status
		wantErr error
	}{
		{core.DocRFQ, core.RFQPending, core.ActionApprove, core.RoleCounter, core.RFQApproved, nil},
		{core.DocRFQ, core.RFQPending, core.ActionDecline, core.RoleCounter, core.RFQRejected, nil},
		{core.DocRFQ, core.RFQDraft, core.ActionDecline, 0, "", core.ErrInvalidTransition},
		{core.DocRFQ, core.RFQDraft, core.ActionApprove, 0, "", core.ErrInvalidTransition},
		{core.DocRFQ, core.RFQPending, core.ActionSubmit, 0, "", core.ErrInvalidTransition},
		{core.DocQuotation, core.QuotationSent, core.ActionAccept, core.RoleCounter, core.QuotationAccepted, nil},
		{core.DocQuotation, core.QuotationDraft, core.ActionAccept, 0, "", core.ErrInvalidTransition},
		{core.DocContract, core.ContractDraft, core.ActionAccept, 0, "", core.ErrInvalidTransition},
		{core.DocContract, core.ContractPendingChanges, core.ActionReject, 0, "", core.ErrInvalidTransition},
		{core.DocContract, core.ContractPendingChanges, core.ActionSubmit, core.RoleIssuer, core.ContractPending, nil},
		{core.DocContract, core.ContractPending, core.ActionSuggestChanges, core.RoleCounter, core.ContractPendingChanges, nil},
		{core.DocPurchaseOrder, core.POPending, core.ActionAccept, core.RoleCounter, core.POApproved, nil},
		{core.DocPurchaseOrder, core.PODraft, core.ActionAccept, 0, "", core.ErrInvalidTransition},
		{core.DocPurchaseOrder, core.PODraft, core.ActionReject, 0, "", core.ErrInvalidTransition},
		{core.DocSalesOrder, core.SODraft, core.ActionShip, 0, "", core.ErrInvalidTransition},
		{core.DocSalesOrder, core.SOProcessing, core.ActionShip, core.RoleIssuer, core.SOShipped, nil},
		{core.DocSalesOrder, core.SOShipped, core.ActionCancel, 0, "", core.ErrInvalidTransition},
		{core.DocDeliveryNote, core.DNPending, core.ActionDispute, core.RoleCounter, core.DNDisputed, nil},
		{core.DocPackingList, core.PLPending, core.ActionReject, core.RoleCounter, core.PLRejected, nil},
		{core.DocInvoice, core.InvoiceDraft, core.ActionPay, 0, "", core.ErrInvalidTransition},
		{core.DocInvoice, core.InvoiceDraft, core.ActionAccept, core.RoleCounter, core.InvoicePending, nil},
		{core.DocInvoice, core.InvoiceOverdue, core.ActionPay, core.RoleCounter, core.InvoicePaid, nil},
		{core.DocInvoice, core.InvoicePending, core.ActionShip, 0, "", core.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(string(tt.docType)+"/"+string(tt.action), func(t *testing.T) {
			tr, err := core.Plan(&core.Document{Type: tt.docType, Status: tt.from, Code: "X"}, tt.action)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.role, tr.Role)
			assert.Equal(t, tt.to, tr.To)
		})
	}
}

func TestIsRefused(t *testing.T) {
	assert.True(t, core.IsRefused(core.DocQuotation, core.QuotationRejected))
	assert.True(t, core.IsRefused(core.DocSalesOrder, core.SOCancelled))
	assert.True(t, core.IsRefused(core.DocDeliveryNote, core.DNDisputed))
	assert.False(t, core.IsRefused(core.DocPurchaseOrder, core.POApproved))
	assert.False(t, core.IsRefused(core.DocInvoice, core.InvoicePaid))
}

func TestActionRole(t *testing.T) {
	role, ok := core.ActionRole(core.DocRFQ, core.ActionDecline)
	require.True(t, ok)
	assert.Equal(t, core.RoleCounter, role)

	role, ok = core.ActionRole(core.DocSalesOrder, core.ActionShip)
	require.True(t, ok)
	assert.Equal(t, core.RoleIssuer, role)

	_, ok = core.ActionRole(core.DocDeliveryNote, core.ActionPay)
	assert.False(t, ok)
}

func TestParseAction(t *testing.T) {
	a, err := core.ParseAction(core.DocRFQ, "accept")
	require.NoError(t, err)
	assert.Equal(t, core.ActionApprove, a)

	a, err = core.ParseAction(core.DocInvoice, "partial_pay")
	require.NoError(t, err)
	assert.Equal(t, core.ActionPartialPay, a)

	_, err = core.ParseAction(core.DocDeliveryNote, "pay")
	assert.True(t, errors.Is(err, core.ErrValidation))
	assert.Equal(t, "action", core.FieldOf(err))
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, core.RFQPending, core.InitialStatus(core.DocRFQ, false, false))
	assert.Equal(t, core.RFQDraft, core.InitialStatus(core.DocRFQ, true, false))
	assert.Equal(t, core.QuotationDraft, core.InitialStatus(core.DocQuotation, false, false))
	assert.Equal(t, core.QuotationSent, core.InitialStatus(core.DocQuotation, false, true))
	assert.Equal(t, core.QuotationDraft, core.InitialStatus(core.DocQuotation, true, true))
	assert.Equal(t, core.SODraft, core.InitialStatus(core.DocSalesOrder, true, true))
	assert.Equal(t, core.InvoiceDraft, core.InitialStatus(core.DocInvoice, false, true))
}

func TestDeletePolicy(t *testing.T) {
	p := core.DefaultDeletePolicy()
	require.NoError(t, p.Validate())
	assert.True(t, p.Allows(core.DocInvoice, core.InvoiceDraft))
	assert.False(t, p.Allows(core.DocInvoice, core.InvoicePending))
	assert.False(t, p.Allows(core.DocPurchaseOrder, core.POApproved))

	bad := core.DeletePolicy{core.DocSalesOrder: {core.Status("SHIPPED_ISH")}}
	assert.Error(t, bad.Validate())
}
