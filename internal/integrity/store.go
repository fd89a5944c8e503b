package integrity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"retroref/internal/fileutil"
)

// Entry is one verified destination file. Entries are written only after a
// transfer has been checksummed and committed, never for partial writes.
type Entry struct {
	System     string
	Filename   string
	CRC32      string
	SHA256     string
	Size       int64
	VerifiedAt time.Time
}

// LogRecord is one row of the per-run selection log: a winner, a runner-up,
// or an excluded candidate, distinguished by Selected and Reason.
type LogRecord struct {
	RunID      string
	System     string
	Filename   string
	Title      string
	Region     string
	Revision   int
	Translated bool
	Prototype  bool
	Selected   bool
	Reason     string
}

// Store manages integrity and selection-log persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// DatabaseName is the filename of the store beneath the destination root.
const DatabaseName = "retroref.db"

// Open initializes or connects to the database under dir.
func Open(dir string) (*Store, error) {
	if err := fileutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, DatabaseName)
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

// Path returns the location of the database file.
func (s *Store) Path() string {
	return s.path
}

// Lookup returns the verified entry for a destination filename, or false when
// none exists.
func (s *Store) Lookup(ctx context.Context, system, filename string) (Entry, bool, error) {
	var (
		entry      Entry
		verifiedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT system, filename, crc32, sha256, size, verified_at
         FROM integrity_entries WHERE system = ? AND filename = ?`,
		system, filename,
	).Scan(&entry.System, &entry.Filename, &entry.CRC32, &entry.SHA256, &entry.Size, &verifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("lookup integrity entry: %w", err)
	}
	if ts, parseErr := time.Parse(time.RFC3339Nano, verifiedAt); parseErr == nil {
		entry.VerifiedAt = ts
	}
	return entry, true, nil
}

// Record upserts a verified entry. Called once per committed file, after
// verification succeeds.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	verifiedAt := entry.VerifiedAt
	if verifiedAt.IsZero() {
		verifiedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO integrity_entries (system, filename, crc32, sha256, size, verified_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT (system, filename) DO UPDATE SET
            crc32 = excluded.crc32,
            sha256 = excluded.sha256,
            size = excluded.size,
            verified_at = excluded.verified_at`,
		entry.System, entry.Filename, entry.CRC32, entry.SHA256, entry.Size,
		verifiedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record integrity entry: %w", err)
	}
	return nil
}

// Forget removes entries. An empty system clears the whole cache.
func (s *Store) Forget(ctx context.Context, system string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if system == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM integrity_entries`)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM integrity_entries WHERE system = ?`, system)
	}
	if err != nil {
		return 0, fmt.Errorf("forget integrity entries: %w", err)
	}
	return res.RowsAffected()
}

// Entries lists verified entries, optionally restricted to one system,
// ordered by system then filename.
func (s *Store) Entries(ctx context.Context, system string) ([]Entry, error) {
	query := `SELECT system, filename, crc32, sha256, size, verified_at
              FROM integrity_entries`
	args := []any{}
	if system != "" {
		query += ` WHERE system = ?`
		args = append(args, system)
	}
	query += ` ORDER BY system, filename`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list integrity entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			verifiedAt string
		)
		if err := rows.Scan(&entry.System, &entry.Filename, &entry.CRC32, &entry.SHA256,
			&entry.Size, &verifiedAt); err != nil {
			return nil, fmt.Errorf("scan integrity entry: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, verifiedAt); parseErr == nil {
			entry.VerifiedAt = ts
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// AppendLog writes selection-log rows for one run in a single transaction.
func (s *Store) AppendLog(ctx context.Context, records []LogRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin selection log tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO selection_log (
            run_id, system, filename, title, region, revision,
            translated, prototype, selected, reason, logged_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare selection log insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.RunID, rec.System, rec.Filename, rec.Title, rec.Region, rec.Revision,
			boolInt(rec.Translated), boolInt(rec.Prototype), boolInt(rec.Selected),
			rec.Reason, now,
		); err != nil {
			return fmt.Errorf("insert selection log row: %w", err)
		}
	}
	return tx.Commit()
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
