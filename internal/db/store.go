package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trade-docs/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the PostgreSQL core.Store.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx core.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

// ── Companies ────────────────────────────────────────────────────────────────

func (t *pgTx) GetCompany(ctx context.Context, id uuid.UUID) (*core.Company, error) {
	var c core.Company
	var logo *string
	err := t.tx.QueryRow(ctx,
		"SELECT id, name, kind, logo_ref, created_at FROM companies WHERE id = $1", id,
	).Scan(&c.ID, &c.Name, &c.Kind, &logo, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("query company %s: %w", id, err)
	}
	if logo != nil {
		c.LogoRef = *logo
	}
	return &c, nil
}

func (t *pgTx) ListCompanies(ctx context.Context) ([]core.Company, error) {
	rows, err := t.tx.Query(ctx, "SELECT id, name, kind, COALESCE(logo_ref, ''), created_at FROM companies ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var out []core.Company
	for rows.Next() {
		var c core.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.LogoRef, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *pgTx) InsertCompany(ctx context.Context, c *core.Company) error {
	_, err := t.tx.Exec(ctx,
		"INSERT INTO companies (id, name, kind, logo_ref, created_at) VALUES ($1, $2, $3, NULLIF($4, ''), $5)",
		c.ID, c.Name, string(c.Kind), c.LogoRef, c.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_companies_lower_name" {
		return &core.Error{Op: "insert company", Kind: core.ErrConflict, Field: "name",
			Detail: fmt.Sprintf("a company named %q is already registered", c.Name)}
	}
	return mapWriteError(err, "insert company")
}

func (t *pgTx) SetCompanyLogo(ctx context.Context, id uuid.UUID, ref string) error {
	tag, err := t.tx.Exec(ctx, "UPDATE companies SET logo_ref = $1 WHERE id = $2", ref, id)
	if err != nil {
		return fmt.Errorf("update company logo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("company %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// ── Documents ────────────────────────────────────────────────────────────────

const documentColumns = `
	id, code, doc_type, issuer_company_id, issuer_company_name,
	counter_company_id, counter_company_name, status, status_note,
	discount_pct, additional_charges, tax_pct,
	sub_total, tax_amount, total_amount, total_overridden, paid_amount, remaining_amount,
	issue_date, valid_until, start_date, end_date, expected_delivery_date,
	planned_ship_date, ship_date, due_date,
	notes, terms, signature_ref, created_at, updated_at`

func scanDocument(row pgx.Row) (*core.Document, error) {
	var d core.Document
	var counterID *uuid.UUID
	var counterName string
	err := row.Scan(
		&d.ID, &d.Code, &d.Type, &d.IssuerID, &d.IssuerName,
		&counterID, &counterName, &d.Status, &d.StatusNote,
		&d.DiscountPct, &d.AdditionalCharges, &d.TaxPct,
		&d.SubTotal, &d.TaxAmount, &d.TotalAmount, &d.TotalOverridden, &d.PaidAmount, &d.RemainingAmount,
		&d.IssueDate, &d.ValidUntil, &d.StartDate, &d.EndDate, &d.ExpectedDeliveryDate,
		&d.PlannedShipDate, &d.ShipDate, &d.DueDate,
		&d.Notes, &d.Terms, &d.SignatureRef, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if counterID != nil {
		d.Counter = core.CounterByID{ID: *counterID, Name: counterName}
	} else {
		d.Counter = core.CounterByName{Name: counterName}
	}
	return &d, nil
}

func (t *pgTx) GetDocument(ctx context.Context, id uuid.UUID, forUpdate bool) (*core.Document, error) {
	query := "SELECT " + documentColumns + " FROM documents WHERE id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	d, err := scanDocument(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("query document %s: %w", id, err)
	}
	docs := []*core.Document{d}
	if err := t.loadItems(ctx, docs); err != nil {
		return nil, err
	}
	if err := t.loadLinks(ctx, docs); err != nil {
		return nil, err
	}
	return d, nil
}

// ListDocuments applies the same ownership rule as core.Authorize: the company
// issued the document, or is its counter-party by id, or by case-insensitive
// name when no counter-party id is recorded.
func (t *pgTx) ListDocuments(ctx context.Context, q core.DocumentQuery) ([]core.Document, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	where = append(where, "doc_type = "+arg(string(q.Type)))
	if q.Company != nil {
		issued := "issuer_company_id = " + arg(q.Company.ID)
		received := fmt.Sprintf("(counter_company_id = %s OR (counter_company_id IS NULL AND lower(counter_company_name) = lower(%s)))",
			arg(q.Company.ID), arg(q.Company.Name))
		switch q.Owner {
		case core.OwnerIssued:
			where = append(where, issued)
		case core.OwnerReceived:
			where = append(where, received)
		default:
			where = append(where, "("+issued+" OR "+received+")")
		}
	}
	if q.Status != "" {
		where = append(where, "status = "+arg(string(q.Status)))
	}
	if q.DueBefore != nil {
		where = append(where, "due_date < "+arg(*q.DueBefore))
	}
	if q.Search != "" {
		p := arg("%" + escapeLike(q.Search) + "%")
		where = append(where, fmt.Sprintf("(code ILIKE %[1]s OR issuer_company_name ILIKE %[1]s OR counter_company_name ILIKE %[1]s OR notes ILIKE %[1]s)", p))
	}

	query := "SELECT " + documentColumns + " FROM documents WHERE " + strings.Join(where, " AND ") +
		" ORDER BY created_at DESC, code DESC"
	if q.Limit > 0 {
		query += " LIMIT " + arg(q.Limit)
	}

	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	var docs []*core.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	if err := t.loadItems(ctx, docs); err != nil {
		return nil, err
	}
	if err := t.loadLinks(ctx, docs); err != nil {
		return nil, err
	}
	out := make([]core.Document, len(docs))
	for i, d := range docs {
		out[i] = *d
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (t *pgTx) loadItems(ctx context.Context, docs []*core.Document) error {
	if len(docs) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*core.Document, len(docs))
	ids := make([]uuid.UUID, len(docs))
	for i, d := range docs {
		byID[d.ID] = d
		ids[i] = d.ID
	}
	rows, err := t.tx.Query(ctx, `
		SELECT document_id, line_number, product_name, description, unit, quantity, unit_price, sub_total
		FROM document_items
		WHERE document_id = ANY($1)
		ORDER BY document_id, line_number`, ids)
	if err != nil {
		return fmt.Errorf("query document items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var docID uuid.UUID
		var it core.Item
		if err := rows.Scan(&docID, &it.Line, &it.ProductName, &it.Description, &it.Unit, &it.Quantity, &it.UnitPrice, &it.SubTotal); err != nil {
			return fmt.Errorf("scan document item: %w", err)
		}
		d := byID[docID]
		d.Items = append(d.Items, it)
	}
	return rows.Err()
}

func (t *pgTx) loadLinks(ctx context.Context, docs []*core.Document) error {
	if len(docs) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*core.Document, len(docs))
	ids := make([]uuid.UUID, len(docs))
	for i, d := range docs {
		byID[d.ID] = d
		ids[i] = d.ID
	}
	rows, err := t.tx.Query(ctx, "SELECT child_id, parent_id, parent_type FROM document_links WHERE child_id = ANY($1)", ids)
	if err != nil {
		return fmt.Errorf("query document links: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var childID, parentID uuid.UUID
		var parentType string
		if err := rows.Scan(&childID, &parentID, &parentType); err != nil {
			return fmt.Errorf("scan document link: %w", err)
		}
		pid := parentID
		byID[childID].Parents.Set(core.DocumentType(parentType), &pid)
	}
	return rows.Err()
}

func (t *pgTx) InsertDocument(ctx context.Context, d *core.Document) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		        $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31)`,
		d.ID, d.Code, string(d.Type), d.IssuerID, d.IssuerName,
		core.CounterID(d.Counter), d.Counter.DisplayName(), string(d.Status), d.StatusNote,
		d.DiscountPct, d.AdditionalCharges, d.TaxPct,
		d.SubTotal, d.TaxAmount, d.TotalAmount, d.TotalOverridden, d.PaidAmount, d.RemainingAmount,
		d.IssueDate, d.ValidUntil, d.StartDate, d.EndDate, d.ExpectedDeliveryDate,
		d.PlannedShipDate, d.ShipDate, d.DueDate,
		d.Notes, d.Terms, d.SignatureRef, d.CreatedAt, d.UpdatedAt,
	)
	if err := mapWriteError(err, "insert document "+d.Code); err != nil {
		return err
	}
	if err := t.insertItems(ctx, d); err != nil {
		return err
	}
	for _, pt := range d.Parents.Present() {
		if _, err := t.tx.Exec(ctx,
			"INSERT INTO document_links (child_id, parent_id, parent_type) VALUES ($1, $2, $3)",
			d.ID, *d.Parents.Get(pt), string(pt),
		); err != nil {
			return mapWriteError(err, "link "+d.Code+" to its "+pt.Label())
		}
	}
	return nil
}

func (t *pgTx) insertItems(ctx context.Context, d *core.Document) error {
	for _, it := range d.Items {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO document_items (document_id, line_number, product_name, description, unit, quantity, unit_price, sub_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			d.ID, it.Line, it.ProductName, it.Description, it.Unit, it.Quantity, it.UnitPrice, it.SubTotal,
		); err != nil {
			return fmt.Errorf("insert item %d of %s: %w", it.Line, d.Code, err)
		}
	}
	return nil
}

func (t *pgTx) UpdateDocument(ctx context.Context, d *core.Document) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE documents SET
			counter_company_id = $2, counter_company_name = $3, status = $4, status_note = $5,
			discount_pct = $6, additional_charges = $7, tax_pct = $8,
			sub_total = $9, tax_amount = $10, total_amount = $11, total_overridden = $12,
			paid_amount = $13, remaining_amount = $14,
			issue_date = $15, valid_until = $16, start_date = $17, end_date = $18,
			expected_delivery_date = $19, planned_ship_date = $20, ship_date = $21, due_date = $22,
			notes = $23, terms = $24, signature_ref = $25, updated_at = $26
		WHERE id = $1`,
		d.ID, core.CounterID(d.Counter), d.Counter.DisplayName(), string(d.Status), d.StatusNote,
		d.DiscountPct, d.AdditionalCharges, d.TaxPct,
		d.SubTotal, d.TaxAmount, d.TotalAmount, d.TotalOverridden,
		d.PaidAmount, d.RemainingAmount,
		d.IssueDate, d.ValidUntil, d.StartDate, d.EndDate,
		d.ExpectedDeliveryDate, d.PlannedShipDate, d.ShipDate, d.DueDate,
		d.Notes, d.Terms, d.SignatureRef, d.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "update document "+d.Code)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", d.ID, core.ErrNotFound)
	}
	if _, err := t.tx.Exec(ctx, "DELETE FROM document_items WHERE document_id = $1", d.ID); err != nil {
		return fmt.Errorf("clear items of %s: %w", d.Code, err)
	}
	return t.insertItems(ctx, d)
}

func (t *pgTx) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return mapWriteError(err, "delete document")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (t *pgTx) CountChildren(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	if err := t.tx.QueryRow(ctx, "SELECT COUNT(*) FROM document_links WHERE parent_id = $1", id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count child documents: %w", err)
	}
	return n, nil
}

// NextSequence increments the (company, type) counter in a single upsert, so two
// concurrent transactions can never read the same value.
func (t *pgTx) NextSequence(ctx context.Context, companyID uuid.UUID, docType core.DocumentType) (int64, error) {
	var n int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO document_sequences (company_id, doc_type, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (company_id, doc_type)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number`,
		companyID, string(docType),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("increment document sequence: %w", err)
	}
	return n, nil
}

// ── Audit trail & payments ───────────────────────────────────────────────────

func (t *pgTx) AppendEvent(ctx context.Context, e *core.Event) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO document_events (id, document_id, action, from_status, to_status, actor_company_id, note, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.DocumentID, e.Action, string(e.FromStatus), string(e.ToStatus), e.ActorCompanyID, e.Note, e.At,
	)
	if err != nil {
		return fmt.Errorf("insert document event: %w", err)
	}
	return nil
}

func (t *pgTx) ListEvents(ctx context.Context, documentID uuid.UUID) ([]core.Event, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, document_id, action, from_status, to_status, actor_company_id, note, at
		FROM document_events
		WHERE document_id = $1
		ORDER BY at, id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query document events: %w", err)
	}
	defer rows.Close()

	var out []core.Event
	for rows.Next() {
		var e core.Event
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Action, &e.FromStatus, &e.ToStatus, &e.ActorCompanyID, &e.Note, &e.At); err != nil {
			return nil, fmt.Errorf("scan document event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (t *pgTx) InsertPayment(ctx context.Context, p *core.Payment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO invoice_payments (id, invoice_id, amount, receipt_ref, paid_by_company_id, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.InvoiceID, p.Amount, p.ReceiptRef, p.PaidByCompanyID, p.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice payment: %w", err)
	}
	return nil
}

func (t *pgTx) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]core.Payment, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, invoice_id, amount, receipt_ref, paid_by_company_id, paid_at
		FROM invoice_payments
		WHERE invoice_id = $1
		ORDER BY paid_at, id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("query invoice payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		var p core.Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.ReceiptRef, &p.PaidByCompanyID, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan invoice payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// mapWriteError turns constraint violations into core conflict errors.
func mapWriteError(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &core.Error{Op: op, Kind: core.ErrConflict, Detail: "duplicate " + pgErr.ConstraintName}
		case "23503":
			return &core.Error{Op: op, Kind: core.ErrConflict, Detail: "referenced by " + pgErr.TableName}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var (
	_ core.Store = (*Store)(nil)
	_ core.Tx    = (*pgTx)(nil)
)
