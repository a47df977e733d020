package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompanyKind is the side a company plays in the trade chain.
type CompanyKind string

const (
	CompanyKindBuyer  CompanyKind = "BUYER"
	CompanyKindSeller CompanyKind = "SELLER"
)

func (k CompanyKind) IsValid() bool {
	return k == CompanyKindBuyer || k == CompanyKindSeller
}

// Opposite returns the kind on the other side of a trade.
func (k CompanyKind) Opposite() CompanyKind {
	if k == CompanyKindBuyer {
		return CompanyKindSeller
	}
	return CompanyKindBuyer
}

type Company struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Kind      CompanyKind `json:"kind"`
	LogoRef   string      `json:"logo_ref,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Actor is the authenticated identity on whose behalf an operation runs.
// It is always passed explicitly; nothing in core reads identity from ambient state.
type Actor struct {
	CompanyID uuid.UUID
	Kind      CompanyKind
}

// Item is one line of a document.
type Item struct {
	Line        int             `json:"line"`
	ProductName string          `json:"product_name"`
	Description string          `json:"description,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	SubTotal    decimal.Decimal `json:"sub_total"`
}

// ParentRefs holds the predecessor documents a document was created from.
type ParentRefs struct {
	RFQ           *uuid.UUID `json:"rfq_id,omitempty"`
	Quotation     *uuid.UUID `json:"quotation_id,omitempty"`
	Contract      *uuid.UUID `json:"contract_id,omitempty"`
	PurchaseOrder *uuid.UUID `json:"purchase_order_id,omitempty"`
	SalesOrder    *uuid.UUID `json:"sales_order_id,omitempty"`
	DeliveryNote  *uuid.UUID `json:"delivery_note_id,omitempty"`
}

// Get returns the reference held for the given parent type.
func (p ParentRefs) Get(t DocumentType) *uuid.UUID {
	switch t {
	case DocRFQ:
		return p.RFQ
	case DocQuotation:
		return p.Quotation
	case DocContract:
		return p.Contract
	case DocPurchaseOrder:
		return p.PurchaseOrder
	case DocSalesOrder:
		return p.SalesOrder
	case DocDeliveryNote:
		return p.DeliveryNote
	}
	return nil
}

// Set stores id as the reference for the given parent type.
func (p *ParentRefs) Set(t DocumentType, id *uuid.UUID) {
	switch t {
	case DocRFQ:
		p.RFQ = id
	case DocQuotation:
		p.Quotation = id
	case DocContract:
		p.Contract = id
	case DocPurchaseOrder:
		p.PurchaseOrder = id
	case DocSalesOrder:
		p.SalesOrder = id
	case DocDeliveryNote:
		p.DeliveryNote = id
	}
}

// Present lists the parent types that carry a reference, in chain order.
func (p ParentRefs) Present() []DocumentType {
	var out []DocumentType
	for _, t := range parentTypes {
		if p.Get(t) != nil {
			out = append(out, t)
		}
	}
	return out
}

var parentTypes = []DocumentType{DocRFQ, DocQuotation, DocContract, DocPurchaseOrder, DocSalesOrder, DocDeliveryNote}

// Document is any of the eight trade documents. Type-specific date fields are
// nil for types that do not use them.
type Document struct {
	ID         uuid.UUID    `json:"id"`
	Code       string       `json:"code"`
	Type       DocumentType `json:"type"`
	IssuerID   uuid.UUID    `json:"issuer_company_id"`
	IssuerName string       `json:"issuer_company_name"`
	Counter    CounterParty `json:"-"`
	Status     Status       `json:"status"`
	StatusNote string       `json:"status_note,omitempty"`

	Items             []Item           `json:"items"`
	DiscountPct       *decimal.Decimal `json:"discount_pct,omitempty"`
	AdditionalCharges *decimal.Decimal `json:"additional_charges,omitempty"`
	TaxPct            *decimal.Decimal `json:"tax_pct,omitempty"`
	SubTotal          decimal.Decimal  `json:"sub_total"`
	TaxAmount         decimal.Decimal  `json:"tax_amount"`
	TotalAmount       decimal.Decimal  `json:"total_amount"`
	TotalOverridden   bool             `json:"total_overridden"`
	PaidAmount        decimal.Decimal  `json:"paid_amount"`
	RemainingAmount   decimal.Decimal  `json:"remaining_amount"`

	Parents ParentRefs `json:"parents"`

	IssueDate            time.Time  `json:"issue_date"`
	ValidUntil           *time.Time `json:"valid_until,omitempty"`
	StartDate            *time.Time `json:"start_date,omitempty"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date,omitempty"`
	PlannedShipDate      *time.Time `json:"planned_ship_date,omitempty"`
	ShipDate             *time.Time `json:"ship_date,omitempty"`
	DueDate              *time.Time `json:"due_date,omitempty"`

	Notes        string    `json:"notes,omitempty"`
	Terms        string    `json:"terms,omitempty"`
	SignatureRef string    `json:"signature_ref,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a deep copy safe to mutate independently.
func (d *Document) Clone() *Document {
	c := *d
	c.Items = append([]Item(nil), d.Items...)
	return &c
}

// Event is one entry of a document's audit trail.
type Event struct {
	ID             uuid.UUID  `json:"id"`
	DocumentID     uuid.UUID  `json:"document_id"`
	Action         string     `json:"action"`
	FromStatus     Status     `json:"from_status,omitempty"`
	ToStatus       Status     `json:"to_status"`
	ActorCompanyID *uuid.UUID `json:"actor_company_id,omitempty"`
	Note           string     `json:"note,omitempty"`
	At             time.Time  `json:"at"`
}

// Payment is one recorded invoice payment.
type Payment struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	Amount          decimal.Decimal `json:"amount"`
	ReceiptRef      string          `json:"receipt_ref,omitempty"`
	PaidByCompanyID uuid.UUID       `json:"paid_by_company_id"`
	PaidAt          time.Time       `json:"paid_at"`
}

// sameName is the case-insensitive comparison used by ownership resolution.
// The SQL list filter uses lower() on both sides to match it.
func sameName(a, b string) bool {
	return strings.ToLower(a) == strings.ToLower(b)
}
