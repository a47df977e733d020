package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemInput is one requested line. Quantity and price positivity is checked by
// Compute so the error names the line.
type ItemInput struct {
	ProductName string          `json:"product_name" validate:"required,max=200"`
	Description string          `json:"description,omitempty" validate:"max=1000"`
	Unit        string          `json:"unit,omitempty" validate:"max=20"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// DateFields carries the optional dates a document type may use. Fields that
// do not apply to the type are ignored.
type DateFields struct {
	IssueDate            *time.Time `json:"issue_date,omitempty"`
	ValidUntil           *time.Time `json:"valid_until,omitempty"`
	StartDate            *time.Time `json:"start_date,omitempty"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date,omitempty"`
	PlannedShipDate      *time.Time `json:"planned_ship_date,omitempty"`
	ShipDate             *time.Time `json:"ship_date,omitempty"`
	DueDate              *time.Time `json:"due_date,omitempty"`
}

// CreateInput is the payload of CreateDocument.
type CreateInput struct {
	Parents            ParentRefs       `json:"parents"`
	CounterCompanyID   *uuid.UUID       `json:"counter_company_id,omitempty"`
	CounterCompanyName string           `json:"counter_company_name,omitempty" validate:"max=200"`
	Draft              bool             `json:"draft,omitempty"`
	Items              []ItemInput      `json:"items" validate:"dive"`
	DiscountPct        *decimal.Decimal `json:"discount_pct,omitempty"`
	AdditionalCharges  *decimal.Decimal `json:"additional_charges,omitempty"`
	TaxPct             *decimal.Decimal `json:"tax_pct,omitempty"`
	// TotalAmount, when set, is stored as the document total instead of the computed one.
	TotalAmount  *decimal.Decimal `json:"total_amount,omitempty"`
	Dates        DateFields       `json:"dates"`
	Notes        string           `json:"notes,omitempty" validate:"max=2000"`
	Terms        string           `json:"terms,omitempty" validate:"max=4000"`
	SignatureRef string           `json:"signature_ref,omitempty" validate:"max=500"`
}

// UpdateInput is the payload of UpdateDocumentFields. Nil fields are left unchanged.
type UpdateInput struct {
	Items             *[]ItemInput     `json:"items,omitempty" validate:"omitempty,dive"`
	DiscountPct       *decimal.Decimal `json:"discount_pct,omitempty"`
	AdditionalCharges *decimal.Decimal `json:"additional_charges,omitempty"`
	TaxPct            *decimal.Decimal `json:"tax_pct,omitempty"`
	TotalAmount       *decimal.Decimal `json:"total_amount,omitempty"`
	Dates             DateFields       `json:"dates"`
	Notes             *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Terms             *string          `json:"terms,omitempty" validate:"omitempty,max=4000"`
}

func (in UpdateInput) changesPrice() bool {
	return in.Items != nil || in.DiscountPct != nil || in.AdditionalCharges != nil || in.TaxPct != nil
}

// ActionInput is the payload of ApplyAction.
type ActionInput struct {
	Action       Action           `json:"action" validate:"required"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	ReceiptRef   string           `json:"receipt_ref,omitempty" validate:"max=500"`
	Note         string           `json:"note,omitempty" validate:"max=2000"`
	SignatureRef string           `json:"signature_ref,omitempty" validate:"max=500"`
}

// ListFilter is the payload of ListDocuments.
type ListFilter struct {
	Type   DocumentType `json:"type"`
	Owner  OwnerFilter  `json:"owner,omitempty"`
	Status Status       `json:"status,omitempty"`
	Search string       `json:"q,omitempty" validate:"max=200"`
	Limit  int          `json:"limit,omitempty" validate:"gte=0,lte=500"`
}
