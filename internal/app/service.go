package app

import (
	"context"
	"time"

	"trade-docs/internal/core"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It turns wire-shaped requests into core inputs and core documents into results.
// Implementations must contain no display logic of any kind.
type ApplicationService interface {
	// GetDocument returns one document visible to actor.
	GetDocument(ctx context.Context, actor core.Actor, docType, id string) (*DocumentResult, error)

	// ListDocuments returns documents of one type the actor issued and/or received.
	ListDocuments(ctx context.Context, actor core.Actor, req ListDocumentsRequest) (*DocumentListResult, error)

	// CreateDocument issues a new document, optionally chained from parent documents.
	CreateDocument(ctx context.Context, actor core.Actor, req CreateDocumentRequest) (*DocumentResult, error)

	// UpdateDocument edits fields of a non-final document.
	UpdateDocument(ctx context.Context, actor core.Actor, req UpdateDocumentRequest) (*DocumentResult, error)

	// ApplyAction runs a named status action such as accept, reject or partial_pay.
	ApplyAction(ctx context.Context, actor core.Actor, req ActionRequest) (*DocumentResult, error)

	// DeleteDocument removes a document while its status allows deletion.
	DeleteDocument(ctx context.Context, actor core.Actor, docType, id string) error

	// ListEvents returns the audit trail of a document.
	ListEvents(ctx context.Context, actor core.Actor, docType, id string) (*EventListResult, error)

	// ListPayments returns the payments recorded against an invoice.
	ListPayments(ctx context.Context, actor core.Actor, invoiceID string) (*PaymentListResult, error)

	// SweepOverdueInvoices marks pending invoices due before asOf as OVERDUE.
	SweepOverdueInvoices(ctx context.Context, asOf time.Time) (int, error)

	RegisterCompany(ctx context.Context, req RegisterCompanyRequest) (*CompanyResult, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*CompanyResult, error)
	ListCompanies(ctx context.Context) ([]CompanyResult, error)

	// UploadFile stores a receipt or signature and returns its reference.
	UploadFile(ctx context.Context, actor core.Actor, kind string, data []byte) (*UploadResult, error)

	// SetCompanyLogo stores an image as the actor company's logo.
	SetCompanyLogo(ctx context.Context, actor core.Actor, data []byte) (*CompanyResult, error)

	// DocumentSchema returns the JSON schema of the create payload for docType.
	DocumentSchema(docType string) (*jsonschema.Schema, error)
}
