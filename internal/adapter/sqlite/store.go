// Package sqlite keeps the previous-day analysis of each locality in a
// local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SummaryStore persists one summary per locality and civil day.
// It implements pipeline.SummaryStore.
type SummaryStore struct {
	conn *sqlx.DB
}

// Open opens or creates the database at path.
func Open(path string) (*SummaryStore, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SummaryStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close() //nolint:errcheck // migrate error takes precedence
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SummaryStore) Close() error {
	return s.conn.Close()
}

func (s *SummaryStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS summaries (
		locality TEXT NOT NULL,
		report_date TEXT NOT NULL,
		summary TEXT NOT NULL,
		PRIMARY KEY (locality, report_date)
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Previous returns the latest summary stored for the locality strictly
// before dateKey (YYYYMMDD), or "" when there is none.
func (s *SummaryStore) Previous(ctx context.Context, localityID, dateKey string) (string, error) {
	var summary string
	err := s.conn.GetContext(ctx, &summary,
		`SELECT summary FROM summaries
		 WHERE locality = ? AND report_date < ?
		 ORDER BY report_date DESC LIMIT 1`,
		localityID, dateKey,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load previous summary for %s: %w", localityID, err)
	}
	return summary, nil
}

// Save stores the day's summary, replacing an earlier run of the same day,
// and drops everything older than the most recent previous day.
func (s *SummaryStore) Save(ctx context.Context, localityID, dateKey, summary string) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO summaries (locality, report_date, summary) VALUES (?, ?, ?)",
		localityID, dateKey, summary,
	); err != nil {
		return fmt.Errorf("save summary for %s: %w", localityID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM summaries
		 WHERE locality = ? AND report_date < (
			SELECT MAX(report_date) FROM summaries WHERE locality = ? AND report_date < ?
		 )`,
		localityID, localityID, dateKey,
	); err != nil {
		return fmt.Errorf("prune summaries for %s: %w", localityID, err)
	}

	return tx.Commit()
}
