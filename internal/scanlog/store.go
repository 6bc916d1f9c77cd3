package scanlog

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"packwatch/internal/config"
)

// ErrLogWrite tags append and patch failures so callers can distinguish a
// degraded log from a classification failure.
var ErrLogWrite = errors.New("scan log write failed")

// Store manages scan log persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the scan log database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "scanlog.db"))
}

// OpenPath connects to the scan log database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Append writes one scan log row and returns its id.
func (s *Store) Append(ctx context.Context, entry Entry) (int64, error) {
	if !entry.Status.Valid() {
		return 0, fmt.Errorf("%w: invalid status %q", ErrLogWrite, entry.Status)
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO scan_log (timestamp, identifier, invoice, status, message, evidence)
         VALUES (?, ?, ?, ?, ?, ?)`,
		ts.UTC().UnixNano(),
		entry.Identifier,
		entry.Invoice,
		string(entry.Status),
		entry.Message,
		entry.Evidence,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: append: %v", ErrLogWrite, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: last insert id: %v", ErrLogWrite, err)
	}
	return id, nil
}

// PatchEvidence sets the evidence filename on every SUCCESS row for the given
// invoice that has no evidence yet, and returns the number of rows updated.
// The patch is a single UPDATE so concurrent readers never observe a partial
// row.
func (s *Store) PatchEvidence(ctx context.Context, invoice, filename string) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE scan_log SET evidence = ?
         WHERE invoice = ? AND status = ? AND evidence = ''`,
		filename,
		invoice,
		string(StatusSuccess),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: patch evidence: %v", ErrLogWrite, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %v", ErrLogWrite, err)
	}
	return rows, nil
}

// TodaysSuccesses returns the identifiers of all SUCCESS rows written on the
// given day. Used at startup to seed the session ledger so a same-day restart
// keeps duplicate detection.
func (s *Store) TodaysSuccesses(ctx context.Context, day time.Time) (map[string]struct{}, error) {
	start, end := dayBounds(day)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT identifier FROM scan_log
         WHERE status = ? AND timestamp >= ? AND timestamp < ?`,
		string(StatusSuccess),
		start.UnixNano(),
		end.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("load successes: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan identifier: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate successes: %w", err)
	}
	return ids, nil
}

// List returns all rows written on the given day in insertion order.
func (s *Store) List(ctx context.Context, day time.Time) ([]Entry, error) {
	start, end := dayBounds(day)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, timestamp, identifier, invoice, status, message, evidence
         FROM scan_log
         WHERE timestamp >= ? AND timestamp < ?
         ORDER BY id`,
		start.UnixNano(),
		end.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry  Entry
			ts     int64
			status string
		)
		if err := rows.Scan(&entry.ID, &ts, &entry.Identifier, &entry.Invoice, &status, &entry.Message, &entry.Evidence); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entry.Timestamp = time.Unix(0, ts).UTC()
		entry.Status = Status(status)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// ExportCSV writes the day's rows in the portable log line format:
// timestamp,identifier,status,message,evidence.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer, day time.Time) error {
	entries, err := s.List(ctx, day)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "identifier", "status", "message", "evidence"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, entry := range entries {
		record := []string{
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Identifier,
			string(entry.Status),
			entry.Message,
			entry.Evidence,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// dayBounds buckets rows by UTC calendar day. Timestamps are stored as unix
// nanoseconds so the range comparison is numeric, never lexicographic.
func dayBounds(day time.Time) (time.Time, time.Time) {
	utc := day.UTC()
	start := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
