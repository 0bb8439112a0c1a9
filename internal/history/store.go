// Package history persists one immutable record per completed
// destination, as an ordered, size-bounded log.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"downtube/internal/domain/consts"
	"downtube/internal/models"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

const tableHistory = "history"

// Column names
const (
	qID          = "id"
	qTitle       = "title"
	qPath        = "path"
	qFormat      = "format"
	qSize        = "size"
	qCompletedAt = "completed_at"
)

// Store is the sqlite-backed completion log. Append is safe under
// concurrent completions; writes serialize on the database handle.
type Store struct {
	db        *sql.DB
	retention int
}

// NewStore opens (creating if needed) the history database inside dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to make directories: %w", err)
	}

	path := filepath.Join(dir, "downtube.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at path %q: %w", path, err)
	}

	if err := initTable(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, retention: consts.HistoryRetention}, nil
}

func initTable(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS ` + tableHistory + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		path TEXT NOT NULL,
		format TEXT NOT NULL,
		size TEXT,
		completed_at TIMESTAMP NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize history table: %w", err)
	}
	return nil
}

// Append inserts one completion record, then prunes entries beyond the
// retention cap (oldest first).
func (s *Store) Append(ctx context.Context, rec models.HistoryRecord) error {
	ctx, cancel := context.WithTimeout(ctx, consts.DatabaseTimeout)
	defer cancel()

	query := squirrel.
		Insert(tableHistory).
		Columns(qTitle, qPath, qFormat, qSize, qCompletedAt).
		Values(rec.Title, rec.Path, string(rec.Mode), rec.Size, rec.CompletedAt).
		RunWith(s.db)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to append history record for %q: %w", rec.Path, err)
	}

	return s.prune(ctx)
}

func (s *Store) prune(ctx context.Context) error {
	prune := squirrel.
		Delete(tableHistory).
		Where(squirrel.Expr(
			qID+" NOT IN (SELECT "+qID+" FROM "+tableHistory+" ORDER BY "+qID+" DESC LIMIT ?)",
			s.retention,
		)).
		RunWith(s.db)

	if _, err := prune.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	return nil
}

// List returns all retained records, oldest first.
func (s *Store) List(ctx context.Context) ([]models.HistoryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, consts.DatabaseTimeout)
	defer cancel()

	query := squirrel.
		Select(qID, qTitle, qPath, qFormat, qSize, qCompletedAt).
		From(tableHistory).
		OrderBy(qID + " ASC").
		RunWith(s.db)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []models.HistoryRecord
	for rows.Next() {
		var (
			rec  models.HistoryRecord
			mode string
			size sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Path, &mode, &size, &rec.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		rec.Mode = consts.DownloadMode(mode)
		rec.Size = size.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear deletes every retained record.
func (s *Store) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, consts.DatabaseTimeout)
	defer cancel()

	query := squirrel.Delete(tableHistory).RunWith(s.db)
	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
