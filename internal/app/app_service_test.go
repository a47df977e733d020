package app_test

import (
	"context"
	"errors"
	"testing"

	"trade-docs/internal/app"
	"trade-docs/internal/core"
	"trade-docs/internal/memstore"
	"trade-docs/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) app.ApplicationService {
	t.Helper()
	store := memstore.New()
	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return app.NewAppService(core.NewDocumentService(store, nil), core.NewCompanyService(store), files)
}

func register(t *testing.T, svc app.ApplicationService, name, kind string) core.Actor {
	t.Helper()
	c, err := svc.RegisterCompany(context.Background(), app.RegisterCompanyRequest{Name: name, Kind: kind})
	require.NoError(t, err)
	return core.Actor{CompanyID: c.ID, Kind: c.Kind}
}

func TestCreateAndAct_BySlug(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	buyer := register(t, svc, "Globex", "buyer")
	seller := register(t, svc, "Acme", "SELLER")

	po, err := svc.CreateDocument(ctx, buyer, app.CreateDocumentRequest{
		Type:             "purchase-order",
		CounterCompanyID: &seller.CompanyID,
		Items: []app.ItemRequest{
			{ProductName: "Bolts", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.RequireFromString("2.50")},
		},
		Dates: app.DatesRequest{IssueDate: "2030-01-10", ExpectedDeliveryDate: "2030-01-20"},
	})
	require.NoError(t, err)
	assert.Equal(t, "G PO-001", po.Code)
	assert.Equal(t, "2030-01-20", po.Dates.ExpectedDeliveryDate)
	assert.Equal(t, "10.00", po.TotalAmount.StringFixed(2))
	assert.Nil(t, po.PaidAmount, "only invoices carry a payment ledger")
	assert.ElementsMatch(t, []core.Action{core.ActionAccept, core.ActionReject, core.ActionSubmit}, po.Actions)

	got, err := svc.ApplyAction(ctx, seller, app.ActionRequest{Type: "purchase-order", ID: po.ID.String(), Action: "ACCEPT"})
	require.NoError(t, err)
	assert.Equal(t, core.POApproved, got.Status)
	assert.Empty(t, got.Actions)

	list, err := svc.ListDocuments(ctx, seller, app.ListDocumentsRequest{Type: "purchase-order", Owner: "Received", Status: "approved"})
	require.NoError(t, err)
	require.Len(t, list.Documents, 1)
	assert.Equal(t, po.ID, list.Documents[0].ID)
}

func TestCreate_BadDate(t *testing.T) {
	svc := newService(t)
	seller := register(t, svc, "Acme", "SELLER")
	_, err := svc.CreateDocument(context.Background(), seller, app.CreateDocumentRequest{
		Type:               "invoice",
		CounterCompanyName: "Globex",
		Items:              []app.ItemRequest{{ProductName: "x", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}},
		Dates:              app.DatesRequest{DueDate: "31/12/2030"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrValidation))
	assert.Equal(t, "dates.due_date", core.FieldOf(err))
}

func TestGetDocument_BadIDIsNotFound(t *testing.T) {
	svc := newService(t)
	buyer := register(t, svc, "Globex", "BUYER")

	_, err := svc.GetDocument(context.Background(), buyer, "rfq", "not-a-uuid")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	_, err = svc.GetDocument(context.Background(), buyer, "waybill", "not-a-uuid")
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestUploadFile(t *testing.T) {
	svc := newService(t)
	buyer := register(t, svc, "Globex", "BUYER")
	pdf := []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")

	res, err := svc.UploadFile(context.Background(), buyer, "receipt", pdf)
	require.NoError(t, err)
	assert.Equal(t, "receipts", res.Kind)
	assert.NotEmpty(t, res.Ref)

	_, err = svc.UploadFile(context.Background(), buyer, "logo", pdf)
	assert.Equal(t, "kind", core.FieldOf(err))

	_, err = svc.UploadFile(context.Background(), core.Actor{}, "receipt", pdf)
	assert.True(t, errors.Is(err, core.ErrUnauthenticated))
}

func TestDocumentSchema(t *testing.T) {
	svc := newService(t)
	schema, err := svc.DocumentSchema("invoice")
	require.NoError(t, err)
	assert.Equal(t, "Create invoice", schema.Title)

	items, ok := schema.Properties.Get("items")
	require.True(t, ok)
	require.NotNil(t, items.Items)
	qty, ok := items.Items.Properties.Get("quantity")
	require.True(t, ok)
	assert.Equal(t, "string", qty.Type)

	counter, ok := schema.Properties.Get("counter_company_id")
	require.True(t, ok)
	assert.Equal(t, "uuid", counter.Format)

	_, ok = schema.Properties.Get("Type")
	assert.False(t, ok, "path-only fields are not part of the payload")
}

func TestPartialPay_ReceiptMustBeUploaded(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	buyer := register(t, svc, "Globex", "BUYER")
	seller := register(t, svc, "Acme", "SELLER")

	inv, err := svc.CreateDocument(ctx, seller, app.CreateDocumentRequest{
		Type:             "invoice",
		CounterCompanyID: &buyer.CompanyID,
		Items:            []app.ItemRequest{{ProductName: "Freight", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)}},
		Dates:            app.DatesRequest{IssueDate: "2030-01-10", DueDate: "2030-02-10"},
	})
	require.NoError(t, err)
	_, err = svc.ApplyAction(ctx, buyer, app.ActionRequest{Type: "invoice", ID: inv.ID.String(), Action: "accept"})
	require.NoError(t, err)

	logo, err := svc.SetCompanyLogo(ctx, buyer, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89"))
	require.NoError(t, err)

	amount := decimal.NewFromInt(40)
	for _, ref := range []string{"logos/not-a-receipt-that-exists.png", "receipts/never-uploaded.pdf", logo.LogoRef} {
		_, err = svc.ApplyAction(ctx, buyer, app.ActionRequest{
			Type: "invoice", ID: inv.ID.String(), Action: "partial_pay", Amount: &amount, ReceiptRef: ref,
		})
		assert.True(t, errors.Is(err, core.ErrValidation), "%s: %v", ref, err)
		assert.Equal(t, "receipt_ref", core.FieldOf(err), ref)
	}

	receipt, err := svc.UploadFile(ctx, buyer, "receipt", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<< /Type /Catalog >>\nendobj\n"))
	require.NoError(t, err)
	paid, err := svc.ApplyAction(ctx, buyer, app.ActionRequest{
		Type: "invoice", ID: inv.ID.String(), Action: "partial_pay", Amount: &amount, ReceiptRef: receipt.Ref,
	})
	require.NoError(t, err)
	assert.Equal(t, core.InvoicePending, paid.Status)
	require.NotNil(t, paid.PaidAmount)
	assert.Equal(t, "40.00", paid.PaidAmount.StringFixed(2))
}

func TestSignatureRef_MustBeUploadedSignature(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	buyer := register(t, svc, "Globex", "BUYER")
	seller := register(t, svc, "Acme", "SELLER")

	receipt, err := svc.UploadFile(ctx, seller, "receipt", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<< /Type /Catalog >>\nendobj\n"))
	require.NoError(t, err)

	for _, ref := range []string{"signatures/forged.png", receipt.Ref} {
		_, err = svc.CreateDocument(ctx, seller, app.CreateDocumentRequest{
			Type:             "contract",
			CounterCompanyID: &buyer.CompanyID,
			Items:            []app.ItemRequest{{ProductName: "Steel", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)}},
			SignatureRef:     ref,
		})
		assert.True(t, errors.Is(err, core.ErrValidation), "%s: %v", ref, err)
		assert.Equal(t, "signature_ref", core.FieldOf(err), ref)
	}
}
