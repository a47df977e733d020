// Package memstore is an in-process core.Store. Transactions are serialized
// behind one mutex and work on a copy of the data that replaces the live state
// only on commit.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"trade-docs/internal/core"

	"github.com/google/uuid"
)

type seqKey struct {
	company uuid.UUID
	docType core.DocumentType
}

type state struct {
	companies map[uuid.UUID]core.Company
	documents map[uuid.UUID]*core.Document
	sequences map[seqKey]int64
	events    []core.Event
	payments  []core.Payment
}

func (s *state) clone() *state {
	c := &state{
		companies: make(map[uuid.UUID]core.Company, len(s.companies)),
		documents: make(map[uuid.UUID]*core.Document, len(s.documents)),
		sequences: make(map[seqKey]int64, len(s.sequences)),
		events:    append([]core.Event(nil), s.events...),
		payments:  append([]core.Payment(nil), s.payments...),
	}
	for k, v := range s.companies {
		c.companies[k] = v
	}
	for k, v := range s.documents {
		c.documents[k] = v.Clone()
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	return c
}

// Store is a core.Store held in memory.
type Store struct {
	mu    sync.Mutex
	state *state
}

func New() *Store {
	return &Store{state: &state{
		companies: make(map[uuid.UUID]core.Company),
		documents: make(map[uuid.UUID]*core.Document),
		sequences: make(map[seqKey]int64),
	}}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx core.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

type tx struct {
	st *state
}

func (t *tx) GetCompany(_ context.Context, id uuid.UUID) (*core.Company, error) {
	c, ok := t.st.companies[id]
	if !ok {
		return nil, fmt.Errorf("company %s: %w", id, core.ErrNotFound)
	}
	return &c, nil
}

func (t *tx) ListCompanies(_ context.Context) ([]core.Company, error) {
	out := make([]core.Company, 0, len(t.st.companies))
	for _, c := range t.st.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *tx) InsertCompany(_ context.Context, c *core.Company) error {
	if _, ok := t.st.companies[c.ID]; ok {
		return fmt.Errorf("company %s already exists: %w", c.ID, core.ErrConflict)
	}
	for _, other := range t.st.companies {
		if strings.ToLower(other.Name) == strings.ToLower(c.Name) {
			return &core.Error{Op: "insert company", Kind: core.ErrConflict, Field: "name",
				Detail: fmt.Sprintf("a company named %q is already registered", c.Name)}
		}
	}
	t.st.companies[c.ID] = *c
	return nil
}

func (t *tx) SetCompanyLogo(_ context.Context, id uuid.UUID, ref string) error {
	c, ok := t.st.companies[id]
	if !ok {
		return fmt.Errorf("company %s: %w", id, core.ErrNotFound)
	}
	c.LogoRef = ref
	t.st.companies[id] = c
	return nil
}

func (t *tx) GetDocument(_ context.Context, id uuid.UUID, _ bool) (*core.Document, error) {
	d, ok := t.st.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, core.ErrNotFound)
	}
	return d.Clone(), nil
}

func (t *tx) ListDocuments(_ context.Context, q core.DocumentQuery) ([]core.Document, error) {
	search := strings.ToLower(q.Search)
	var out []core.Document
	for _, d := range t.st.documents {
		if d.Type != q.Type || !q.MatchesOwner(d) {
			continue
		}
		if q.Status != "" && d.Status != q.Status {
			continue
		}
		if q.DueBefore != nil && (d.DueDate == nil || !d.DueDate.Before(*q.DueBefore)) {
			continue
		}
		if search != "" && !matchesSearch(d, search) {
			continue
		}
		out = append(out, *d.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code > out[j].Code
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matchesSearch(d *core.Document, search string) bool {
	for _, field := range []string{d.Code, d.IssuerName, d.Counter.DisplayName(), d.Notes} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func (t *tx) InsertDocument(_ context.Context, d *core.Document) error {
	for _, other := range t.st.documents {
		if other.IssuerID == d.IssuerID && other.Code == d.Code {
			return fmt.Errorf("document code %q already used: %w", d.Code, core.ErrConflict)
		}
	}
	t.st.documents[d.ID] = d.Clone()
	return nil
}

func (t *tx) UpdateDocument(_ context.Context, d *core.Document) error {
	if _, ok := t.st.documents[d.ID]; !ok {
		return fmt.Errorf("document %s: %w", d.ID, core.ErrNotFound)
	}
	t.st.documents[d.ID] = d.Clone()
	return nil
}

func (t *tx) DeleteDocument(_ context.Context, id uuid.UUID) error {
	if _, ok := t.st.documents[id]; !ok {
		return fmt.Errorf("document %s: %w", id, core.ErrNotFound)
	}
	delete(t.st.documents, id)
	events := t.st.events[:0]
	for _, e := range t.st.events {
		if e.DocumentID != id {
			events = append(events, e)
		}
	}
	t.st.events = events
	return nil
}

func (t *tx) CountChildren(_ context.Context, id uuid.UUID) (int, error) {
	n := 0
	for _, d := range t.st.documents {
		for _, pt := range d.Parents.Present() {
			if *d.Parents.Get(pt) == id {
				n++
				break
			}
		}
	}
	return n, nil
}

func (t *tx) NextSequence(_ context.Context, companyID uuid.UUID, docType core.DocumentType) (int64, error) {
	k := seqKey{company: companyID, docType: docType}
	t.st.sequences[k]++
	return t.st.sequences[k], nil
}

func (t *tx) AppendEvent(_ context.Context, e *core.Event) error {
	t.st.events = append(t.st.events, *e)
	return nil
}

func (t *tx) ListEvents(_ context.Context, documentID uuid.UUID) ([]core.Event, error) {
	var out []core.Event
	for _, e := range t.st.events {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (t *tx) InsertPayment(_ context.Context, p *core.Payment) error {
	t.st.payments = append(t.st.payments, *p)
	return nil
}

func (t *tx) ListPayments(_ context.Context, invoiceID uuid.UUID) ([]core.Payment, error) {
	var out []core.Payment
	for _, p := range t.st.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}
