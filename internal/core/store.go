package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store runs units of work. fn's writes are committed together when it returns
// nil and discarded otherwise.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the persistence surface available inside one transaction.
// Lookups by id return an error wrapping ErrNotFound when nothing matches;
// InsertDocument returns one wrapping ErrConflict on a duplicate code.
type Tx interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)
	InsertCompany(ctx context.Context, c *Company) error
	SetCompanyLogo(ctx context.Context, id uuid.UUID, ref string) error

	// GetDocument loads a document; forUpdate locks it until the transaction ends.
	GetDocument(ctx context.Context, id uuid.UUID, forUpdate bool) (*Document, error)
	ListDocuments(ctx context.Context, q DocumentQuery) ([]Document, error)
	InsertDocument(ctx context.Context, d *Document) error
	UpdateDocument(ctx context.Context, d *Document) error
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	// CountChildren returns how many documents reference id as a parent.
	CountChildren(ctx context.Context, id uuid.UUID) (int, error)

	// NextSequence atomically allocates the next number for (company, type).
	NextSequence(ctx context.Context, companyID uuid.UUID, docType DocumentType) (int64, error)

	AppendEvent(ctx context.Context, e *Event) error
	ListEvents(ctx context.Context, documentID uuid.UUID) ([]Event, error)
	InsertPayment(ctx context.Context, p *Payment) error
	ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)
}

// OwnerFilter selects which side of a document the listing company must hold.
type OwnerFilter string

const (
	OwnerIssued   OwnerFilter = "issued"
	OwnerReceived OwnerFilter = "received"
	OwnerAll      OwnerFilter = "all"
)

func (o OwnerFilter) IsValid() bool {
	return o == OwnerIssued || o == OwnerReceived || o == OwnerAll
}

// DocumentQuery is the store-level list filter. A nil Company disables the
// ownership filter; only system jobs such as the overdue sweep do that.
type DocumentQuery struct {
	Type      DocumentType
	Company   *Company
	Owner     OwnerFilter
	Status    Status
	Search    string
	DueBefore *time.Time
	Limit     int
}

// MatchesOwner applies the ownership part of q to d. Stores that filter in
// memory call it; the SQL store expresses the same rule in its WHERE clause.
func (q DocumentQuery) MatchesOwner(d *Document) bool {
	if q.Company == nil {
		return true
	}
	issued := Authorize(d, q.Company, RoleIssuer) == nil
	received := Authorize(d, q.Company, RoleCounter) == nil
	switch q.Owner {
	case OwnerIssued:
		return issued
	case OwnerReceived:
		return received
	default:
		return issued || received
	}
}
