package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/promo-storefront/internal/quote"
)

const (
	createQuoteSQL = `INSERT INTO quotes (id, company, contact, email, item_count, total, document, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	listQuotesSQL = `SELECT id, company, contact, email, item_count, total, generated_at
		FROM quotes ORDER BY generated_at DESC LIMIT $1`

	getQuoteDocumentSQL = `SELECT document FROM quotes WHERE id = $1`
)

var _ quote.ArchiveReader = (*QuoteRepository)(nil)

// QuoteRepository archives exported quotes.
type QuoteRepository struct {
	pool *pgxpool.Pool
}

// NewQuoteRepository returns a QuoteRepository that uses the given pool.
func NewQuoteRepository(pool *pgxpool.Pool) *QuoteRepository {
	return &QuoteRepository{pool: pool}
}

// Save stores doc with its encoded body in the JSONB column.
func (r *QuoteRepository) Save(ctx context.Context, doc quote.Document, body []byte) error {
	_, err := r.pool.Exec(ctx, createQuoteSQL,
		doc.ID,
		doc.Requester.Company,
		doc.Requester.Contact,
		doc.Requester.Email,
		len(doc.Items),
		doc.Total,
		string(body),
		doc.GeneratedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create quote %s", doc.ID)
	}
	return nil
}

// List returns the most recent quotes, newest first.
func (r *QuoteRepository) List(ctx context.Context, limit int) ([]quote.Summary, error) {
	rows, err := r.pool.Query(ctx, listQuotesSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list quotes")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (quote.Summary, error) {
		var q quote.Summary
		err := row.Scan(&q.ID, &q.Company, &q.Contact, &q.Email, &q.ItemCount, &q.Total, &q.GeneratedAt)
		return q, err
	})
}

// Document returns the encoded document of an archived quote.
func (r *QuoteRepository) Document(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var doc string
	err := r.pool.QueryRow(ctx, getQuoteDocumentSQL, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, quote.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get quote %s", id)
	}
	return []byte(doc), nil
}
