package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// linkedParents holds the loaded parent documents of a new document, keyed by type.
type linkedParents struct {
	byType  map[DocumentType]*Document
	primary *Document
}

// loadParents resolves every referenced parent, rejecting parent types the child
// does not accept and parents that were refused. primary is the first present
// parent in the child's precedence order (PO: contract before quotation).
func loadParents(ctx context.Context, tx Tx, company *Company, child DocumentType, refs ParentRefs) (*linkedParents, error) {
	allowed := child.ParentTypes()
	lp := &linkedParents{byType: make(map[DocumentType]*Document)}

	for _, pt := range refs.Present() {
		if !containsType(allowed, pt) {
			return nil, validationError("link parents", "parents."+parentField(pt),
				"a %s cannot be created from a %s", child.Label(), pt.Label())
		}
		id := *refs.Get(pt)
		parent, err := tx.GetDocument(ctx, id, false)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, notFoundError("link parents", pt, id)
			}
			return nil, fmt.Errorf("load parent %s %s: %w", pt.Label(), id, err)
		}
		if parent.Type != pt || !Visible(parent, company) {
			return nil, notFoundError("link parents", pt, id)
		}
		if IsRefused(pt, parent.Status) {
			return nil, &Error{Op: "link parents", Kind: ErrInvalidTransition, Field: "parents." + parentField(pt),
				Detail: fmt.Sprintf("%s %s is %s and cannot be continued", pt.Label(), parent.Code, parent.Status)}
		}
		lp.byType[pt] = parent
	}

	for _, pt := range allowed {
		if p, ok := lp.byType[pt]; ok {
			lp.primary = p
			break
		}
	}
	return lp, nil
}

// resolveCounter picks the new document's counter-party. Precedence: the
// registered company opposite the actor on the primary parent, then an explicit
// company id, then a name-only party from the parent or the payload.
func resolveCounter(ctx context.Context, tx Tx, company *Company, docType DocumentType, primary *Document, in CreateInput) (CounterParty, error) {
	var inherited CounterParty
	if primary != nil {
		inherited = oppositeParty(primary, company)
		if byID, ok := inherited.(CounterByID); ok {
			if byID.ID == company.ID {
				return nil, validationError("resolve counter-party", "parents", "parent document has no other party")
			}
			return byID, nil
		}
	}

	if in.CounterCompanyID != nil {
		other, err := tx.GetCompany(ctx, *in.CounterCompanyID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, validationError("resolve counter-party", "counter_company_id", "company %s does not exist", in.CounterCompanyID)
			}
			return nil, fmt.Errorf("load counter company: %w", err)
		}
		if other.ID == company.ID {
			return nil, validationError("resolve counter-party", "counter_company_id", "a company cannot trade with itself")
		}
		if other.Kind != docType.IssuerKind().Opposite() {
			return nil, validationError("resolve counter-party", "counter_company_id",
				"a %s must be addressed to a %s company", docType.Label(), strings.ToLower(string(docType.IssuerKind().Opposite())))
		}
		return CounterByID{ID: other.ID, Name: other.Name}, nil
	}

	if inherited != nil && strings.TrimSpace(inherited.DisplayName()) != "" {
		return inherited, nil
	}
	name := strings.TrimSpace(in.CounterCompanyName)
	if name == "" {
		return nil, validationError("resolve counter-party", "counter_company_name", "counter-party is required")
	}
	if sameName(name, company.Name) {
		return nil, validationError("resolve counter-party", "counter_company_name", "a company cannot trade with itself")
	}
	return CounterByName{Name: name}, nil
}

// inheritPricing copies items and percentages from the primary parent when the
// payload brings no items of its own.
func inheritPricing(in *CreateInput, primary *Document) {
	if primary == nil || len(in.Items) > 0 {
		return
	}
	for _, it := range primary.Items {
		in.Items = append(in.Items, ItemInput{
			ProductName: it.ProductName,
			Description: it.Description,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	if in.DiscountPct == nil {
		in.DiscountPct = primary.DiscountPct
	}
	if in.AdditionalCharges == nil {
		in.AdditionalCharges = primary.AdditionalCharges
	}
	if in.TaxPct == nil {
		in.TaxPct = primary.TaxPct
	}
}

func toItems(in []ItemInput) []Item {
	items := make([]Item, len(in))
	for i, it := range in {
		items[i] = Item{
			ProductName: strings.TrimSpace(it.ProductName),
			Description: it.Description,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	}
	return numberItems(items)
}

// price recomputes doc's totals, or applies override as-is.
func price(doc *Document, override *decimal.Decimal) error {
	if len(doc.Items) == 0 {
		return validationError("compute totals", "items", "at least one item is required")
	}
	totals, err := Compute(doc.Items, doc.DiscountPct, doc.AdditionalCharges, doc.TaxPct)
	if err != nil {
		return err
	}
	doc.SubTotal = totals.SubTotal
	doc.TaxAmount = totals.TaxAmount
	doc.TotalAmount = totals.Total
	doc.TotalOverridden = false
	if override != nil {
		if override.IsNegative() {
			return validationError("compute totals", "total_amount", "total must not be negative")
		}
		doc.TotalAmount = round2(*override)
		doc.TotalOverridden = true
	}
	if doc.Type == DocInvoice {
		resetLedger(doc)
	}
	return nil
}

// applyDates copies the dates docType uses from f, leaving unset fields as they are.
func applyDates(doc *Document, f DateFields) {
	if f.IssueDate != nil {
		doc.IssueDate = dateOnly(*f.IssueDate)
	}
	set := func(dst **time.Time, src *time.Time) {
		if src != nil {
			d := dateOnly(*src)
			*dst = &d
		}
	}
	switch doc.Type {
	case DocQuotation:
		set(&doc.ValidUntil, f.ValidUntil)
	case DocContract:
		set(&doc.StartDate, f.StartDate)
		set(&doc.EndDate, f.EndDate)
	case DocPurchaseOrder:
		set(&doc.ExpectedDeliveryDate, f.ExpectedDeliveryDate)
	case DocSalesOrder:
		set(&doc.PlannedShipDate, f.PlannedShipDate)
	case DocDeliveryNote, DocPackingList:
		set(&doc.ShipDate, f.ShipDate)
	case DocInvoice:
		set(&doc.DueDate, f.DueDate)
	}
}

// validateDates enforces per-type required dates and their ordering.
func validateDates(doc *Document) error {
	const op = "validate dates"
	if doc.IssueDate.IsZero() {
		return validationError(op, "dates.issue_date", "issue date is required")
	}
	switch doc.Type {
	case DocQuotation:
		if doc.ValidUntil != nil && doc.ValidUntil.Before(doc.IssueDate) {
			return validationError(op, "dates.valid_until", "valid-until date must not be before the issue date")
		}
	case DocContract:
		if doc.StartDate != nil && doc.EndDate != nil && !doc.EndDate.After(*doc.StartDate) {
			return validationError(op, "dates.end_date", "end date must be after the start date")
		}
	case DocPurchaseOrder:
		if doc.ExpectedDeliveryDate == nil {
			return validationError(op, "dates.expected_delivery_date", "expected delivery date is required")
		}
		if !doc.ExpectedDeliveryDate.After(doc.IssueDate) {
			return validationError(op, "dates.expected_delivery_date", "expected delivery date must be after the issue date")
		}
	case DocSalesOrder:
		if doc.PlannedShipDate == nil {
			return validationError(op, "dates.planned_ship_date", "planned ship date is required")
		}
		if doc.PlannedShipDate.Before(doc.IssueDate) {
			return validationError(op, "dates.planned_ship_date", "planned ship date must not be before the issue date")
		}
	case DocInvoice:
		if doc.DueDate == nil {
			return validationError(op, "dates.due_date", "due date is required")
		}
		if doc.DueDate.Before(doc.IssueDate) {
			return validationError(op, "dates.due_date", "due date must not be before the issue date")
		}
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parentField(t DocumentType) string {
	return strings.ReplaceAll(t.Slug(), "-", "_") + "_id"
}

func containsType(list []DocumentType, t DocumentType) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}
