package app

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"trade-docs/internal/core"
	"trade-docs/internal/storage"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

type appService struct {
	docService     core.DocumentService
	companyService core.CompanyService
	files          storage.FileStore
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(docService core.DocumentService, companyService core.CompanyService, files storage.FileStore) ApplicationService {
	return &appService{
		docService:     docService,
		companyService: companyService,
		files:          files,
	}
}

func (s *appService) GetDocument(ctx context.Context, actor core.Actor, docType, id string) (*DocumentResult, error) {
	t, docID, err := parseRef(docType, id)
	if err != nil {
		return nil, err
	}
	d, err := s.docService.FetchDocument(ctx, actor, t, docID)
	if err != nil {
		return nil, err
	}
	return toDocumentResult(d), nil
}

func (s *appService) ListDocuments(ctx context.Context, actor core.Actor, req ListDocumentsRequest) (*DocumentListResult, error) {
	t, err := core.ParseDocumentType(req.Type)
	if err != nil {
		return nil, err
	}
	docs, err := s.docService.ListDocuments(ctx, actor, core.ListFilter{
		Type:   t,
		Owner:  core.OwnerFilter(strings.ToLower(req.Owner)),
		Status: core.Status(strings.ToUpper(req.Status)),
		Search: req.Search,
		Limit:  req.Limit,
	})
	if err != nil {
		return nil, err
	}
	out := &DocumentListResult{Type: t, Documents: make([]DocumentResult, 0, len(docs))}
	for i := range docs {
		out.Documents = append(out.Documents, *toDocumentResult(&docs[i]))
	}
	return out, nil
}

func (s *appService) CreateDocument(ctx context.Context, actor core.Actor, req CreateDocumentRequest) (*DocumentResult, error) {
	t, err := core.ParseDocumentType(req.Type)
	if err != nil {
		return nil, err
	}
	dates, err := parseDates(req.Dates)
	if err != nil {
		return nil, err
	}
	if err := s.verifyRefs(ctx, "", req.SignatureRef); err != nil {
		return nil, err
	}
	d, err := s.docService.CreateDocument(ctx, actor, t, core.CreateInput{
		Parents:            req.Parents,
		CounterCompanyID:   req.CounterCompanyID,
		CounterCompanyName: req.CounterCompanyName,
		Draft:              req.Draft,
		Items:              toItemInputs(req.Items),
		DiscountPct:        req.DiscountPct,
		AdditionalCharges:  req.AdditionalCharges,
		TaxPct:             req.TaxPct,
		TotalAmount:        req.TotalAmount,
		Dates:              dates,
		Notes:              req.Notes,
		Terms:              req.Terms,
		SignatureRef:       req.SignatureRef,
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResult(d), nil
}

func (s *appService) UpdateDocument(ctx context.Context, actor core.Actor, req UpdateDocumentRequest) (*DocumentResult, error) {
	t, docID, err := parseRef(req.Type, req.ID)
	if err != nil {
		return nil, err
	}
	dates, err := parseDates(req.Dates)
	if err != nil {
		return nil, err
	}
	in := core.UpdateInput{
		DiscountPct:       req.DiscountPct,
		AdditionalCharges: req.AdditionalCharges,
		TaxPct:            req.TaxPct,
		TotalAmount:       req.TotalAmount,
		Dates:             dates,
		Notes:             req.Notes,
		Terms:             req.Terms,
	}
	if req.Items != nil {
		items := toItemInputs(*req.Items)
		in.Items = &items
	}
	d, err := s.docService.UpdateDocumentFields(ctx, actor, t, docID, in)
	if err != nil {
		return nil, err
	}
	return toDocumentResult(d), nil
}

func (s *appService) ApplyAction(ctx context.Context, actor core.Actor, req ActionRequest) (*DocumentResult, error) {
	t, docID, err := parseRef(req.Type, req.ID)
	if err != nil {
		return nil, err
	}
	action, err := core.ParseAction(t, strings.ToLower(req.Action))
	if err != nil {
		return nil, err
	}
	if err := s.verifyRefs(ctx, req.ReceiptRef, req.SignatureRef); err != nil {
		return nil, err
	}
	d, err := s.docService.ApplyAction(ctx, actor, t, docID, core.ActionInput{
		Action:       action,
		Amount:       req.Amount,
		ReceiptRef:   req.ReceiptRef,
		Note:         req.Note,
		SignatureRef: req.SignatureRef,
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResult(d), nil
}

// verifyRefs checks that non-empty file references name stored uploads of the
// matching kind.
func (s *appService) verifyRefs(ctx context.Context, receiptRef, signatureRef string) error {
	if receiptRef != "" {
		if err := storage.Verify(ctx, s.files, storage.ReceiptPolicy, receiptRef, "receipt_ref"); err != nil {
			return err
		}
	}
	if signatureRef != "" {
		if err := storage.Verify(ctx, s.files, storage.SignaturePolicy, signatureRef, "signature_ref"); err != nil {
			return err
		}
	}
	return nil
}

func (s *appService) DeleteDocument(ctx context.Context, actor core.Actor, docType, id string) error {
	t, docID, err := parseRef(docType, id)
	if err != nil {
		return err
	}
	return s.docService.DeleteDocument(ctx, actor, t, docID)
}

func (s *appService) ListEvents(ctx context.Context, actor core.Actor, docType, id string) (*EventListResult, error) {
	t, docID, err := parseRef(docType, id)
	if err != nil {
		return nil, err
	}
	events, err := s.docService.ListEvents(ctx, actor, t, docID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []core.Event{}
	}
	return &EventListResult{DocumentID: docID, Events: events}, nil
}

func (s *appService) ListPayments(ctx context.Context, actor core.Actor, invoiceID string) (*PaymentListResult, error) {
	_, docID, err := parseRef(string(core.DocInvoice), invoiceID)
	if err != nil {
		return nil, err
	}
	payments, err := s.docService.ListPayments(ctx, actor, docID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []core.Payment{}
	}
	return &PaymentListResult{InvoiceID: docID, Payments: payments}, nil
}

func (s *appService) SweepOverdueInvoices(ctx context.Context, asOf time.Time) (int, error) {
	return s.docService.SweepOverdueInvoices(ctx, asOf)
}

func (s *appService) RegisterCompany(ctx context.Context, req RegisterCompanyRequest) (*CompanyResult, error) {
	c, err := s.companyService.RegisterCompany(ctx, req.Name, core.CompanyKind(strings.ToUpper(req.Kind)))
	if err != nil {
		return nil, err
	}
	return toCompanyResult(c), nil
}

func (s *appService) GetCompany(ctx context.Context, id uuid.UUID) (*CompanyResult, error) {
	c, err := s.companyService.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCompanyResult(c), nil
}

func (s *appService) ListCompanies(ctx context.Context) ([]CompanyResult, error) {
	companies, err := s.companyService.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CompanyResult, 0, len(companies))
	for i := range companies {
		out = append(out, *toCompanyResult(&companies[i]))
	}
	return out, nil
}

func (s *appService) UploadFile(ctx context.Context, actor core.Actor, kind string, data []byte) (*UploadResult, error) {
	if actor.CompanyID == uuid.Nil {
		return nil, &core.Error{Op: "upload file", Kind: core.ErrUnauthenticated}
	}
	policy, ok := storage.PolicyFor(kind)
	if !ok || policy.Kind == storage.LogoPolicy.Kind {
		return nil, &core.Error{Op: "upload file", Kind: core.ErrValidation, Field: "kind", Detail: fmt.Sprintf("unknown upload kind %q", kind)}
	}
	ref, err := s.files.Store(ctx, data, policy)
	if err != nil {
		return nil, err
	}
	return &UploadResult{Kind: policy.Kind, Ref: ref}, nil
}

func (s *appService) SetCompanyLogo(ctx context.Context, actor core.Actor, data []byte) (*CompanyResult, error) {
	if actor.CompanyID == uuid.Nil {
		return nil, &core.Error{Op: "set company logo", Kind: core.ErrUnauthenticated}
	}
	ref, err := s.files.Store(ctx, data, storage.LogoPolicy)
	if err != nil {
		return nil, err
	}
	c, err := s.companyService.SetCompanyLogo(ctx, actor, ref)
	if err != nil {
		return nil, err
	}
	return toCompanyResult(c), nil
}

func (s *appService) DocumentSchema(docType string) (*jsonschema.Schema, error) {
	t, err := core.ParseDocumentType(docType)
	if err != nil {
		return nil, err
	}
	r := &jsonschema.Reflector{
		DoNotReference: true,
		Mapper: func(rt reflect.Type) *jsonschema.Schema {
			switch rt {
			case reflect.TypeOf(decimal.Decimal{}):
				return &jsonschema.Schema{Type: "string", Pattern: `^-?\d+(\.\d+)?$`}
			case reflect.TypeOf(uuid.UUID{}):
				return &jsonschema.Schema{Type: "string", Format: "uuid"}
			}
			return nil
		},
	}
	schema := r.Reflect(&CreateDocumentRequest{})
	schema.Title = "Create " + t.Label()
	schema.Description = fmt.Sprintf("Payload for POST /api/documents/%s. Issued by %s companies.", t.Slug(), strings.ToLower(string(t.IssuerKind())))
	return schema, nil
}

func parseRef(docType, id string) (core.DocumentType, uuid.UUID, error) {
	t, err := core.ParseDocumentType(docType)
	if err != nil {
		return "", uuid.Nil, err
	}
	docID, err := uuid.Parse(id)
	if err != nil {
		return "", uuid.Nil, &core.Error{Op: "parse document id", Kind: core.ErrNotFound, Detail: fmt.Sprintf("%s %q not found", t.Label(), id)}
	}
	return t, docID, nil
}

func parseDates(req DatesRequest) (core.DateFields, error) {
	var out core.DateFields
	fields := []struct {
		name string
		raw  string
		dst  **time.Time
	}{
		{"issue_date", req.IssueDate, &out.IssueDate},
		{"valid_until", req.ValidUntil, &out.ValidUntil},
		{"start_date", req.StartDate, &out.StartDate},
		{"end_date", req.EndDate, &out.EndDate},
		{"expected_delivery_date", req.ExpectedDeliveryDate, &out.ExpectedDeliveryDate},
		{"planned_ship_date", req.PlannedShipDate, &out.PlannedShipDate},
		{"ship_date", req.ShipDate, &out.ShipDate},
		{"due_date", req.DueDate, &out.DueDate},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		t, err := time.Parse(dateLayout, f.raw)
		if err != nil {
			return out, &core.Error{Op: "parse dates", Kind: core.ErrValidation, Field: "dates." + f.name, Detail: "date must be YYYY-MM-DD"}
		}
		*f.dst = &t
	}
	return out, nil
}

func toItemInputs(items []ItemRequest) []core.ItemInput {
	out := make([]core.ItemInput, len(items))
	for i, it := range items {
		out[i] = core.ItemInput{
			ProductName: it.ProductName,
			Description: it.Description,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	}
	return out
}
