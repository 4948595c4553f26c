package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"xdigest/pkg/config"
	"xdigest/pkg/report"
)

const createTweetsTable = `
CREATE TABLE IF NOT EXISTS %s (
	id            TEXT PRIMARY KEY,
	run_id        TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	author_name   TEXT NOT NULL,
	author_handle TEXT NOT NULL,
	text          TEXT NOT NULL,
	permalink     TEXT NOT NULL,
	archived_at   TIMESTAMPTZ NOT NULL
)`

const upsertTweet = `
INSERT INTO %s (id, run_id, created_at, author_name, author_handle, text, permalink, archived_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	run_id = EXCLUDED.run_id,
	author_name = EXCLUDED.author_name,
	author_handle = EXCLUDED.author_handle,
	text = EXCLUDED.text,
	permalink = EXCLUDED.permalink,
	archived_at = EXCLUDED.archived_at`

// PostgreSQLStore archives tweets in one table keyed by tweet id
type PostgreSQLStore struct {
	db     *sql.DB
	upsert string
	now    func() time.Time
}

// NewPostgreSQLStore opens the database and creates the table when missing
func NewPostgreSQLStore(ctx context.Context, cfg config.ArchiveConfig) (*PostgreSQLStore, error) {
	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgresql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgresql: %w", err)
	}
	table := pq.QuoteIdentifier(cfg.TableName)
	if _, err := db.ExecContext(ctx, fmt.Sprintf(createTweetsTable, table)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &PostgreSQLStore{
		db:     db,
		upsert: fmt.Sprintf(upsertTweet, table),
		now:    time.Now,
	}, nil
}

func (p *PostgreSQLStore) Name() string { return "postgresql" }

// Write upserts every record of r inside one transaction
func (p *PostgreSQLStore) Write(ctx context.Context, r *report.Report) (err error) {
	docs := Documents(r, p.now())
	if len(docs) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, p.upsert)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		if _, err = stmt.ExecContext(ctx, doc.ID, doc.RunID, doc.CreatedAt, doc.AuthorName,
			doc.AuthorHandle, doc.Text, doc.Permalink, doc.ArchivedAt); err != nil {
			return fmt.Errorf("failed to store tweet %s: %w", doc.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (p *PostgreSQLStore) Close(context.Context) error {
	return p.db.Close()
}
