package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trade-docs/internal/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DocumentService is the document lifecycle engine. Every method runs as one
// transaction: it either fully applies or leaves no trace.
type DocumentService interface {
	// FetchDocument returns a document the actor issued or received. Missing and
	// inaccessible documents both yield ErrNotFound.
	FetchDocument(ctx context.Context, actor Actor, docType DocumentType, id uuid.UUID) (*Document, error)
	ListDocuments(ctx context.Context, actor Actor, f ListFilter) ([]Document, error)
	// CreateDocument issues a new document, optionally chained from its predecessors.
	CreateDocument(ctx context.Context, actor Actor, docType DocumentType, in CreateInput) (*Document, error)
	// UpdateDocumentFields edits a non-final document. Only the issuer may edit.
	UpdateDocumentFields(ctx context.Context, actor Actor, docType DocumentType, id uuid.UUID, in UpdateInput) (*Document, error)
	ApplyAction(ctx context.Context, actor Actor, docType DocumentType, id uuid.UUID, in ActionInput) (*Document, error)
	DeleteDocument(ctx context.Context, actor Actor, docType DocumentType, id uuid.UUID) error

	ListEvents(ctx context.Context, actor Actor, docType DocumentType, id uuid.UUID) ([]Event, error)
	ListPayments(ctx context.Context, actor Actor, invoiceID uuid.UUID) ([]Payment, error)
	// SweepOverdueInvoices moves PENDING invoices due before asOf to OVERDUE.
	SweepOverdueInvoices(ctx context.Context, asOf time.Time) (int, error)
}

type documentService struct {
	store  Store
	policy DeletePolicy
	now    func() time.Time
	log    zerolog.Logger
}

// NewDocumentService constructs a DocumentService over store. A nil policy
// means DefaultDeletePolicy.
func NewDocumentService(store Store, policy DeletePolicy) DocumentService {
	if policy == nil {
		policy = DefaultDeletePolicy()
	}
	return &documentService{
		store:  store,
		policy: policy,
		now:    time.Now,
		log:    logger.WithComponent("documents"),
	}
}

func (s *documentService) FetchDocument(ctx context.Context, actor Actor, docType DocumentType, id uuid.UUID) (*Document, error) {
	var doc *Document
	err := s.store.WithTx(ctx, func(tx Tx) error {
		company, err := loadActor(ctx, tx, actor)
		if err != nil {
			return err
		}
		doc, err = loadVisible(ctx, tx, company, docType, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) ListDocuments(ctx context.Context, actor Actor, f ListFilter) ([]Document, error) {
	if !f.Type.IsValid() {
		return nil, validationError("list documents", "type", "unknown document type %q", f.Type)
	}
	if f.Owner == "" {
		f.Owner = OwnerAll
	}
	if !f.Owner.IsValid() {
		return nil, validationError("list documents", "owner", "owner must be issued, received or all")
	}
	if f.Status != "" && !ValidStatus(f.Type, f.Status) {
		return nil, validationError("list documents", "status", "%s is not a %s status", f.Status, f.Type.Label())
	}
	if err := validateStruct("list documents", f); err != nil {
		return nil, err
	}

	var docs []Document
	err := s.store.WithTx(ctx, func(tx Tx) error {
		company, err := loadActor(ctx, tx, actor)
		if err != nil {
			return err
		}
		docs, err = tx.ListDocuments(ctx, DocumentQuery{
			Type:    f.Type,
			Company: company,
			Owner:   f.Owner,
			Status:  f.Status,
			Search:  strings.TrimSpace(f.Search),
			Limit:   f.Limit,
		})
		if err != nil {
			return fmt.Errorf("list %s documents: %w", f.Type.Label(), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *documentService) CreateDocument(ctx context.Context, actor Actor, docType DocumentType, in CreateInput) (*Document, error) {
	const op = "create document"
	if !docType.IsValid() {
		return nil, validationError(op, "type", "unknown document type %q", docType)
	}
	if err := validateStruct(op, in); err != nil {
		return nil, err
	}

	var doc *Document
	err := s.store.WithTx(ctx, func(tx Tx) error {
		company, err := loadActor(ctx, tx, actor)
		if err != nil {
			return err
		}
		if company.Kind != docType.IssuerKind() {
			return forbiddenError(op, "only %s companies can issue a %s", strings.ToLower(string(docType.IssuerKind())), docType.Label())
		}

		parents, err := loadParents(ctx, tx, company, docType, in.Parents)
		if err != nil {
			return err
		}
		counter, err := resolveCounter(ctx, tx, company, docType, parents.primary, in)
		if err != nil {
			return err
		}
		inheritPricing(&in, parents.primary)

		now := s.now().UTC()
		d := &Document{
			ID:                uuid.New(),
			Type:              docType,
			IssuerID:          company.ID,
			IssuerName:        company.Name,
			Counter:           counter,
			Status:            InitialStatus(docType, in.Draft, parents.primary != nil),
			Items:             toItems(in.Items),
			DiscountPct:       in.DiscountPct,
			AdditionalCharges: in.AdditionalCharges,
			TaxPct:            in.TaxPct,
			IssueDate:         dateOnly(now),
			Notes:             in.Notes,
			Terms:             in.Terms,
			SignatureRef:      in.SignatureRef,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		for pt, p := range parents.byType {
			id := p.ID
			d.Parents.Set(pt, &id)
		}
		applyDates(d, in.Dates)
		if err := validateDates(d); err != nil {
			return err
		}
		if err := price(d, in.TotalAmount); err != nil {
			return err
		}

		seq, err := tx.NextSequence(ctx, company.ID, docType)
		if err != nil {
			return fmt.Errorf("allocate %s number: %w", docType.Label(), err)
		}
		d.Code = FormatCode(company.Name, docType, seq)

		if err := tx.InsertDocument(ctx, d); err != nil {
			return fmt.Errorf("insert %s: %w", docType.Label(), err)
		}
		if err := appendEvent(ctx, tx, d, "create", "", &company.ID, "", now); err != nil {
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("code", doc.Code).Str("type", string(docType)).Str("status", string(doc.Status)).Msg("document created")
	return doc, nil
}

func (s *documentService) UpdateDocumentFields(ctx context.Context, actor Actor, docType DocumentType, id uuid.UUID, in UpdateInput) (*Document, error) {
	const op = "update document"
	if err := validateStruct(op, in); err != nil {
		return nil, err
	}

	var doc *Document
	err := s.store.WithTx(ctx, func(tx Tx) error {
		company, err := loadActor(ctx, tx, actor)
		if err != nil {
			return err
		}
		d, err := loadVisible(ctx, tx, company, docType, id, true)
		if err != nil {
			return err
		}
		if err := Authorize(d, company, RoleIssuer); err != nil {
			return forbiddenError(op, "only the issuer can edit %s %s", docType.Label(), d.Code)
		}
		if IsTerminal(d.Type, d.Status) {
			return transitionError(op, "%s %s cannot be edited: status %s is final", docType.Label(), d.Code, d.Status)
		}
		if d.Type == DocInvoice && d.PaidAmount.IsPositive() {
			return transitionError(op, "invoice %s cannot be edited: payments have been recorded", d.Code)
		}

		if in.Items != nil {
			d.Items = toItems(*in.Items)
		}
		if in.DiscountPct != nil {
			d.DiscountPct = in.DiscountPct
		}
		if in.AdditionalCharges != nil {
			d.AdditionalCharges = in.AdditionalCharges
		}
		if in.TaxPct != nil {
			d.TaxPct = in.TaxPct
		}
		if in.Notes != nil {
			d.Notes = *in.Notes
		}
		if in.Terms != nil {
			d.Terms = *in.Terms
		}
		applyDates(d, in.Dates)
		if err := validateDates(d); err != nil {
			return err
		}

		if in.TotalAmount != nil || in.changesPrice() {
			if err := price(d, in.TotalAmount); err != nil {
				return err
			}
		}

		now := s.now().UTC()
		d.UpdatedAt = now
		if err := tx.UpdateDocument(ctx, d); err != nil {
			return fmt.Errorf("update %s %s: %w", docType.Label(), d.Code, err)
		}
		if err := appendEvent(ctx, tx, d, "update", d.Status, &company.ID, "", now); err != nil {
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) ApplyAction(ctx context.Context, actor Actor, docType DocumentType, id uuid.UUID, in ActionInput) (*Document, error) {
	const op = "apply action"
	if err := validateStruct(op, in); err != nil {
		return nil, err
	}

	var doc *Document
	err := s.store.WithTx(ctx, func(tx Tx) error {
		company, err := loadActor(ctx, tx, actor)
		if err != nil {
			return err
		}
		d, err := loadVisible(ctx, tx, company, docType, id, true)
		if err != nil {
			return err
		}
		// Wrong-side callers get Forbidden even when the document is final.
		if role, ok := ActionRole(d.Type, in.Action); ok {
			if err := Authorize(d, company, role); err != nil {
				return forbiddenError(op, "only the %s can %s %s %s", role, strings.ReplaceAll(string(in.Action), "_", " "), docType.Label(), d.Code)
			}
		}
		tr, err := Plan(d, in.Action)
		if err != nil {
			return err
		}

		from := d.Status
		now := s.now().UTC()

		switch in.Action {
		case ActionSuggestChanges:
			if strings.TrimSpace(in.Note) == "" {
				return validationError(op, "note", "describe the requested changes")
			}
		case ActionAccept:
			if in.SignatureRef != "" && d.Type == DocContract {
				d.SignatureRef = in.SignatureRef
			}
		}

		var payment *Payment
		if d.Type == DocInvoice {
			applied, err := ApplyInvoiceAction(d, in.Action, in.Amount, in.ReceiptRef)
			if err != nil {
				return err
			}
			if applied.IsPositive() {
				payment = &Payment{
					ID:              uuid.New(),
					InvoiceID:       d.ID,
					Amount:          applied,
					ReceiptRef:      in.ReceiptRef,
					PaidByCompanyID: company.ID,
					PaidAt:          now,
				}
			}
		} else {
			d.Status = tr.To
		}

		switch in.Action {
		case ActionReject, ActionDecline, ActionSuggestChanges, ActionDispute:
			d.StatusNote = strings.TrimSpace(in.Note)
		case ActionSubmit:
			d.StatusNote = ""
		}
		if tr.Role == RoleCounter {
			claimCounter(d, company)
		}

		d.UpdatedAt = now
		if err := tx.UpdateDocument(ctx, d); err != nil {
			return fmt.Errorf("update %s %s: %w", docType.Label(), d.Code, err)
		}
		if payment != nil {
			if err := tx.InsertPayment(ctx, payment); err != nil {
				return fmt.Errorf("record payment on invoice %s: %w", d.Code, err)
			}
		}
		if err := appendEvent(ctx, tx, d, string(in.Action), from, &company.ID, eventNote(in, payment), now); err != nil {
			return err
		}
		if d.Type == DocInvoice && d.Status == InvoicePaid && from != InvoicePaid {
			if err := completePurchaseOrder(ctx, tx, d, company, now); err != nil {
				return err
			}
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("code", doc.Code).Str("action", string(in.Action)).Str("status", string(doc.Status)).Msg("document transitioned")
	return doc, nil
}

func (s *documentService) DeleteDocument(ctx context.Context, actor Actor, docType DocumentType, id uuid.UUID) error {
	const op = "delete document"
	return s.store.WithTx(ctx, func(tx Tx) error {
		company, err := loadActor(ctx, tx, actor)
		if err != nil {
			return err
		}
		d, err := loadVisible(ctx, tx, company, docType, id, true)
		if err != nil {
			return err
		}
		if err := Authorize(d, company, RoleIssuer); err != nil {
			return forbiddenError(op, "only the issuer can delete %s %s", docType.Label(), d.Code)
		}
		if !s.policy.Allows(d.Type, d.Status) {
			return transitionError(op, "%s %s cannot be deleted in status %s", docType.Label(), d.Code, d.Status)
		}
		n, err := tx.CountChildren(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("count documents derived from %s: %w", d.Code, err)
		}
		if n > 0 {
			return conflictError(op, "%s %s has %d derived document(s)", docType.Label(), d.Code, n)
		}
		if err := tx.DeleteDocument(ctx, d.ID); err != nil {
			return fmt.Errorf("delete %s %s: %w", docType.Label(), d.Code, err)
		}
		s.log.Info().Str("code", d.Code).Msg("document deleted")
		return nil
	})
}

func (s *documentService) ListEvents(ctx context.Context, actor Actor, docType DocumentType, id uuid.UUID) ([]Event, error) {
	var events []Event
	err := s.store.WithTx(ctx, func(tx Tx) error {
		company, err := loadActor(ctx, tx, actor)
		if err != nil {
			return err
		}
		if _, err := loadVisible(ctx, tx, company, docType, id, false); err != nil {
			return err
		}
		events, err = tx.ListEvents(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *documentService) ListPayments(ctx context.Context, actor Actor, invoiceID uuid.UUID) ([]Payment, error) {
	var payments []Payment
	err := s.store.WithTx(ctx, func(tx Tx) error {
		company, err := loadActor(ctx, tx, actor)
		if err != nil {
			return err
		}
		if _, err := loadVisible(ctx, tx, company, DocInvoice, invoiceID, false); err != nil {
			return err
		}
		payments, err = tx.ListPayments(ctx, invoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *documentService) SweepOverdueInvoices(ctx context.Context, asOf time.Time) (int, error) {
	cutoff := dateOnly(asOf)
	moved := 0
	err := s.store.WithTx(ctx, func(tx Tx) error {
		candidates, err := tx.ListDocuments(ctx, DocumentQuery{Type: DocInvoice, Status: InvoicePending, DueBefore: &cutoff})
		if err != nil {
			return fmt.Errorf("list overdue candidates: %w", err)
		}
		now := s.now().UTC()
		for _, c := range candidates {
			inv, err := tx.GetDocument(ctx, c.ID, true)
			if err != nil {
				return fmt.Errorf("lock invoice %s: %w", c.Code, err)
			}
			if inv.Status != InvoicePending || inv.DueDate == nil || !inv.DueDate.Before(cutoff) {
				continue
			}
			inv.Status = InvoiceOverdue
			inv.UpdatedAt = now
			if err := tx.UpdateDocument(ctx, inv); err != nil {
				return fmt.Errorf("mark invoice %s overdue: %w", inv.Code, err)
			}
			if err := appendEvent(ctx, tx, inv, "overdue", InvoicePending, nil, "", now); err != nil {
				return err
			}
			moved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info().Int("invoices", moved).Time("as_of", cutoff).Msg("overdue sweep finished")
	return moved, nil
}

// completePurchaseOrder closes the approved PO an invoice was raised against
// once that invoice is fully paid.
func completePurchaseOrder(ctx context.Context, tx Tx, inv *Document, payer *Company, now time.Time) error {
	if inv.Parents.PurchaseOrder == nil {
		return nil
	}
	po, err := tx.GetDocument(ctx, *inv.Parents.PurchaseOrder, true)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load purchase order for invoice %s: %w", inv.Code, err)
	}
	if po.Status != POApproved {
		return nil
	}
	po.Status = POCompleted
	po.UpdatedAt = now
	if err := tx.UpdateDocument(ctx, po); err != nil {
		return fmt.Errorf("complete purchase order %s: %w", po.Code, err)
	}
	return appendEvent(ctx, tx, po, "complete", POApproved, &payer.ID, "invoice "+inv.Code+" paid", now)
}

// loadActor turns the authenticated identity into its company record.
func loadActor(ctx context.Context, tx Tx, actor Actor) (*Company, error) {
	if actor.CompanyID == uuid.Nil {
		return nil, &Error{Op: "authenticate", Kind: ErrUnauthenticated, Detail: "no company in session"}
	}
	company, err := tx.GetCompany(ctx, actor.CompanyID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &Error{Op: "authenticate", Kind: ErrUnauthenticated, Detail: "session company no longer exists"}
		}
		return nil, fmt.Errorf("load session company: %w", err)
	}
	return company, nil
}

// loadVisible fetches a document the company is a party to. Missing, wrong-type
// and foreign documents produce the same not-found error.
func loadVisible(ctx context.Context, tx Tx, company *Company, docType DocumentType, id uuid.UUID, forUpdate bool) (*Document, error) {
	d, err := tx.GetDocument(ctx, id, forUpdate)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFoundError("load document", docType, id)
		}
		return nil, fmt.Errorf("load %s %s: %w", docType.Label(), id, err)
	}
	if d.Type != docType || !Visible(d, company) {
		return nil, notFoundError("load document", docType, id)
	}
	return d, nil
}

func appendEvent(ctx context.Context, tx Tx, d *Document, action string, from Status, actorID *uuid.UUID, note string, at time.Time) error {
	e := &Event{
		ID:             uuid.New(),
		DocumentID:     d.ID,
		Action:         action,
		FromStatus:     from,
		ToStatus:       d.Status,
		ActorCompanyID: actorID,
		Note:           note,
		At:             at,
	}
	if err := tx.AppendEvent(ctx, e); err != nil {
		return fmt.Errorf("record %s event on %s: %w", action, d.Code, err)
	}
	return nil
}

func eventNote(in ActionInput, p *Payment) string {
	if p != nil {
		return "paid " + p.Amount.StringFixed(2)
	}
	return strings.TrimSpace(in.Note)
}
