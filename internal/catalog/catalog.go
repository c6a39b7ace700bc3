// Package catalog records one row per pipeline invocation in a
// Postgres run ledger: which stage ran, over what input, how many
// documents/terms it touched, when it started and finished, and
// whether it succeeded. Grounded on the teacher's pkg/postgres.Client
// (pkg/postgres/client.go) for connection setup and
// internal/ingestion/publisher's idempotent-insert pattern
// (internal/ingestion/publisher/publisher.go), adapted from
// per-document ingestion bookkeeping to per-run batch bookkeeping.
// Supplements the distilled spec: original_source/ has no persistent
// run history, but the teacher already carries the full Postgres
// stack for exactly this kind of bookkeeping.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/config"
)

// Client wraps a *sql.DB configured for the build_runs table. A nil
// Client is a valid no-op: every binary runs unchanged with Postgres
// unconfigured.
type Client struct {
	db *sql.DB
}

// Open connects to Postgres and verifies it with a ping. Returns nil,
// nil when cfg is not enabled.
func Open(cfg config.PostgresConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{db: db}, nil
}

// Close closes the underlying connection. A nil Client is a no-op.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// Run is one recorded batch invocation.
type Run struct {
	ID         int64
	Stage      string
	InputPath  string
	DocCount   int64
	TermCount  int64
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  bool
	ErrorText  string
}

// EnsureSchema creates the build_runs table if it doesn't already
// exist. Safe to call on every startup.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if c == nil {
		return nil
	}
	const ddl = `
CREATE TABLE IF NOT EXISTS build_runs (
	id SERIAL PRIMARY KEY,
	stage TEXT NOT NULL,
	input_path TEXT NOT NULL,
	doc_count BIGINT NOT NULL DEFAULT 0,
	term_count BIGINT NOT NULL DEFAULT 0,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	succeeded BOOLEAN,
	error_text TEXT
)`
	if _, err := c.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating build_runs table: %w", err)
	}
	return nil
}

// StartRun inserts a new in-progress row and returns its ID. A nil
// Client returns ID 0 with no error; FinishRun on a nil Client is then
// also a no-op.
func (c *Client) StartRun(ctx context.Context, stage, inputPath string) (int64, error) {
	if c == nil {
		return 0, nil
	}
	var id int64
	err := c.db.QueryRowContext(ctx,
		`INSERT INTO build_runs (stage, input_path, started_at) VALUES ($1, $2, $3) RETURNING id`,
		stage, inputPath, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("recording run start: %w", err)
	}
	return id, nil
}

// FinishRun records the outcome of a previously started run. runErr may
// be nil for success.
func (c *Client) FinishRun(ctx context.Context, id int64, docCount, termCount int64, runErr error) error {
	if c == nil || id == 0 {
		return nil
	}
	succeeded := runErr == nil
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	_, err := c.db.ExecContext(ctx,
		`UPDATE build_runs SET doc_count = $1, term_count = $2, finished_at = $3, succeeded = $4, error_text = $5 WHERE id = $6`,
		docCount, termCount, time.Now().UTC(), succeeded, errText, id,
	)
	if err != nil {
		return fmt.Errorf("recording run finish: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent limit runs for a stage, newest
// first.
func (c *Client) RecentRuns(ctx context.Context, stage string, limit int) ([]Run, error) {
	if c == nil {
		return nil, nil
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, stage, input_path, doc_count, term_count, started_at, finished_at, succeeded, error_text
		 FROM build_runs WHERE stage = $1 ORDER BY started_at DESC LIMIT $2`,
		stage, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finishedAt sql.NullTime
		var succeeded sql.NullBool
		var errText sql.NullString
		if err := rows.Scan(&r.ID, &r.Stage, &r.InputPath, &r.DocCount, &r.TermCount, &r.StartedAt, &finishedAt, &succeeded, &errText); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		r.FinishedAt = finishedAt.Time
		r.Succeeded = succeeded.Bool
		r.ErrorText = errText.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run rows: %w", err)
	}
	return runs, nil
}
