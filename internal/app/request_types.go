package app

import (
	"trade-docs/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemRequest is one document line.
type ItemRequest struct {
	ProductName string          `json:"product_name" jsonschema:"required"`
	Description string          `json:"description,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Quantity    decimal.Decimal `json:"quantity" jsonschema:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" jsonschema:"required"`
}

// DatesRequest carries dates as YYYY-MM-DD strings. Empty means unset.
type DatesRequest struct {
	IssueDate            string `json:"issue_date,omitempty" jsonschema:"format=date"`
	ValidUntil           string `json:"valid_until,omitempty" jsonschema:"format=date"`
	StartDate            string `json:"start_date,omitempty" jsonschema:"format=date"`
	EndDate              string `json:"end_date,omitempty" jsonschema:"format=date"`
	ExpectedDeliveryDate string `json:"expected_delivery_date,omitempty" jsonschema:"format=date"`
	PlannedShipDate      string `json:"planned_ship_date,omitempty" jsonschema:"format=date"`
	ShipDate             string `json:"ship_date,omitempty" jsonschema:"format=date"`
	DueDate              string `json:"due_date,omitempty" jsonschema:"format=date"`
}

// CreateDocumentRequest is the input for creating a document of Type.
type CreateDocumentRequest struct {
	Type               string           `json:"-"`
	Parents            core.ParentRefs  `json:"parents,omitempty"`
	CounterCompanyID   *uuid.UUID       `json:"counter_company_id,omitempty"`
	CounterCompanyName string           `json:"counter_company_name,omitempty"`
	Draft              bool             `json:"draft,omitempty"`
	Items              []ItemRequest    `json:"items,omitempty"`
	DiscountPct        *decimal.Decimal `json:"discount_pct,omitempty"`
	AdditionalCharges  *decimal.Decimal `json:"additional_charges,omitempty"`
	TaxPct             *decimal.Decimal `json:"tax_pct,omitempty"`
	TotalAmount        *decimal.Decimal `json:"total_amount,omitempty" jsonschema:"description=Overrides the computed total"`
	Dates              DatesRequest     `json:"dates,omitempty"`
	Notes              string           `json:"notes,omitempty"`
	Terms              string           `json:"terms,omitempty"`
	SignatureRef       string           `json:"signature_ref,omitempty"`
}

// UpdateDocumentRequest edits a document. Nil fields are left unchanged.
type UpdateDocumentRequest struct {
	Type              string           `json:"-"`
	ID                string           `json:"-"`
	Items             *[]ItemRequest   `json:"items,omitempty"`
	DiscountPct       *decimal.Decimal `json:"discount_pct,omitempty"`
	AdditionalCharges *decimal.Decimal `json:"additional_charges,omitempty"`
	TaxPct            *decimal.Decimal `json:"tax_pct,omitempty"`
	TotalAmount       *decimal.Decimal `json:"total_amount,omitempty"`
	Dates             DatesRequest     `json:"dates,omitempty"`
	Notes             *string          `json:"notes,omitempty"`
	Terms             *string          `json:"terms,omitempty"`
}

// ActionRequest runs Action on a document.
type ActionRequest struct {
	Type         string           `json:"-"`
	ID           string           `json:"-"`
	Action       string           `json:"-"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	ReceiptRef   string           `json:"receipt_ref,omitempty"`
	Note         string           `json:"note,omitempty"`
	SignatureRef string           `json:"signature_ref,omitempty"`
}

// ListDocumentsRequest filters ListDocuments.
type ListDocumentsRequest struct {
	Type   string
	Owner  string // issued | received | all
	Status string
	Search string
	Limit  int
}

// RegisterCompanyRequest is the input for registering a company.
type RegisterCompanyRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}
