package app

import (
	"time"

	"trade-docs/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// CounterPartyResult describes the receiving side of a document.
// CompanyID is nil when the counter-party is known by name only.
type CounterPartyResult struct {
	CompanyID *uuid.UUID `json:"company_id"`
	Name      string     `json:"name"`
}

// DocumentResult is returned by document operations.
type DocumentResult struct {
	ID                uuid.UUID          `json:"id"`
	Code              string             `json:"code"`
	Type              core.DocumentType  `json:"type"`
	Status            core.Status        `json:"status"`
	StatusNote        string             `json:"status_note,omitempty"`
	IssuerID          uuid.UUID          `json:"issuer_company_id"`
	IssuerName        string             `json:"issuer_company_name"`
	Counter           CounterPartyResult `json:"counter_party"`
	Items             []core.Item        `json:"items"`
	DiscountPct       *decimal.Decimal   `json:"discount_pct,omitempty"`
	AdditionalCharges *decimal.Decimal   `json:"additional_charges,omitempty"`
	TaxPct            *decimal.Decimal   `json:"tax_pct,omitempty"`
	SubTotal          decimal.Decimal    `json:"sub_total"`
	TaxAmount         decimal.Decimal    `json:"tax_amount"`
	TotalAmount       decimal.Decimal    `json:"total_amount"`
	TotalOverridden   bool               `json:"total_overridden,omitempty"`
	PaidAmount        *decimal.Decimal   `json:"paid_amount,omitempty"`
	RemainingAmount   *decimal.Decimal   `json:"remaining_amount,omitempty"`
	Parents           core.ParentRefs    `json:"parents"`
	Dates             DatesRequest       `json:"dates"`
	Notes             string             `json:"notes,omitempty"`
	Terms             string             `json:"terms,omitempty"`
	SignatureRef      string             `json:"signature_ref,omitempty"`
	Actions           []core.Action      `json:"actions"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// DocumentListResult is returned by ListDocuments.
type DocumentListResult struct {
	Type      core.DocumentType `json:"type"`
	Documents []DocumentResult  `json:"documents"`
}

// EventListResult is returned by ListEvents.
type EventListResult struct {
	DocumentID uuid.UUID    `json:"document_id"`
	Events     []core.Event `json:"events"`
}

// PaymentListResult is returned by ListPayments.
type PaymentListResult struct {
	InvoiceID uuid.UUID      `json:"invoice_id"`
	Payments  []core.Payment `json:"payments"`
}

// CompanyResult is returned by company operations.
type CompanyResult struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Kind      core.CompanyKind `json:"kind"`
	LogoRef   string           `json:"logo_ref,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// UploadResult is returned by UploadFile.
type UploadResult struct {
	Kind string `json:"kind"`
	Ref  string `json:"ref"`
}

func toDocumentResult(d *core.Document) *DocumentResult {
	r := &DocumentResult{
		ID:                d.ID,
		Code:              d.Code,
		Type:              d.Type,
		Status:            d.Status,
		StatusNote:        d.StatusNote,
		IssuerID:          d.IssuerID,
		IssuerName:        d.IssuerName,
		Counter:           CounterPartyResult{CompanyID: core.CounterID(d.Counter), Name: d.Counter.DisplayName()},
		Items:             d.Items,
		DiscountPct:       d.DiscountPct,
		AdditionalCharges: d.AdditionalCharges,
		TaxPct:            d.TaxPct,
		SubTotal:          d.SubTotal,
		TaxAmount:         d.TaxAmount,
		TotalAmount:       d.TotalAmount,
		TotalOverridden:   d.TotalOverridden,
		Parents:           d.Parents,
		Notes:             d.Notes,
		Terms:             d.Terms,
		SignatureRef:      d.SignatureRef,
		Actions:           core.Actions(d.Type),
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		Dates: DatesRequest{
			IssueDate:            d.IssueDate.Format(dateLayout),
			ValidUntil:           formatDate(d.ValidUntil),
			StartDate:            formatDate(d.StartDate),
			EndDate:              formatDate(d.EndDate),
			ExpectedDeliveryDate: formatDate(d.ExpectedDeliveryDate),
			PlannedShipDate:      formatDate(d.PlannedShipDate),
			ShipDate:             formatDate(d.ShipDate),
			DueDate:              formatDate(d.DueDate),
		},
	}
	if d.Type == core.DocInvoice {
		paid, remaining := d.PaidAmount, d.RemainingAmount
		r.PaidAmount = &paid
		r.RemainingAmount = &remaining
	}
	if core.IsTerminal(d.Type, d.Status) {
		r.Actions = []core.Action{}
	}
	return r
}

func toCompanyResult(c *core.Company) *CompanyResult {
	return &CompanyResult{ID: c.ID, Name: c.Name, Kind: c.Kind, LogoRef: c.LogoRef, CreatedAt: c.CreatedAt}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
