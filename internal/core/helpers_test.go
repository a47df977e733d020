package core_test

import (
	"context"
	"testing"
	"time"

	"trade-docs/internal/core"
	"trade-docs/internal/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fixture wires both services over a fresh in-memory store.
type fixture struct {
	ctx       context.Context
	docs      core.DocumentService
	companies core.CompanyService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	return &fixture{
		ctx:       context.Background(),
		docs:      core.NewDocumentService(store, nil),
		companies: core.NewCompanyService(store),
	}
}

func (f *fixture) register(t *testing.T, name string, kind core.CompanyKind) core.Actor {
	t.Helper()
	c, err := f.companies.RegisterCompany(f.ctx, name, kind)
	require.NoError(t, err)
	return core.Actor{CompanyID: c.ID, Kind: c.Kind}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func day(offset int) *time.Time {
	d := time.Now().UTC().AddDate(0, 0, offset)
	return &d
}

func item(name, qty, price string) core.ItemInput {
	return core.ItemInput{ProductName: name, Quantity: dec(qty), UnitPrice: dec(price)}
}

func (f *fixture) act(t *testing.T, actor core.Actor, d *core.Document, action core.Action) *core.Document {
	t.Helper()
	out, err := f.docs.ApplyAction(f.ctx, actor, d.Type, d.ID, core.ActionInput{Action: action})
	require.NoError(t, err)
	return out
}

// invoice creates an accepted (PENDING) invoice of the given total from seller to buyer.
func (f *fixture) invoice(t *testing.T, seller, buyer core.Actor, total string) *core.Document {
	t.Helper()
	inv, err := f.docs.CreateDocument(f.ctx, seller, core.DocInvoice, core.CreateInput{
		CounterCompanyID: &buyer.CompanyID,
		Items:            []core.ItemInput{item("Services", "1", total)},
		Dates:            core.DateFields{DueDate: day(30)},
	})
	require.NoError(t, err)
	require.Equal(t, core.InvoiceDraft, inv.Status)
	return f.act(t, buyer, inv, core.ActionAccept)
}
