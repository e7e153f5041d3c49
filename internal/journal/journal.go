// Package journal keeps a Postgres record of every print job.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const schema = `
CREATE TABLE IF NOT EXISTS print_jobs (
    id          UUID PRIMARY KEY,
    kind        TEXT        NOT NULL,
    printer     TEXT        NOT NULL,
    order_id    BIGINT      NOT NULL,
    item_count  INTEGER     NOT NULL,
    error       TEXT,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertEntry = `
INSERT INTO print_jobs (id, kind, printer, order_id, item_count, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Entry is one dispatched document.
type Entry struct {
	JobID     uuid.UUID
	Kind      string
	Printer   string
	OrderID   int64
	ItemCount int
	Err       error
	CreatedAt time.Time
}

// DBTX is the subset of pgx used by the journal. Satisfied by *pgxpool.Pool,
// *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Postgres writes entries to the print_jobs table.
type Postgres struct {
	db DBTX
}

// NewPostgres creates a journal on db. Call EnsureSchema once at startup.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the print_jobs table when it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create print_jobs: %w", err)
	}
	return nil
}

// Record inserts one entry.
func (p *Postgres) Record(ctx context.Context, e Entry) error {
	var errText *string
	if e.Err != nil {
		s := e.Err.Error()
		errText = &s
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := p.db.Exec(ctx, insertEntry, e.JobID, e.Kind, e.Printer, e.OrderID, e.ItemCount, errText, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert print job %s: %w", e.JobID, err)
	}
	return nil
}

// Nop discards entries. Used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
