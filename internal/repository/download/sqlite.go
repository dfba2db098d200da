package download

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ahmethakanbesel/cotahist/internal/archive"
)

// Entry is a stored download.
type Entry struct {
	ID    int64
	RunID string
	archive.Download
	CreatedAt time.Time
}

// Repository is the download ledger. It implements archive.Recorder; rows are
// tagged with the run that produced them.
type Repository struct {
	db    *sql.DB
	runID string
}

func NewRepository(db *sql.DB, runID string) *Repository {
	return &Repository{db: db, runID: runID}
}

func (r *Repository) Record(ctx context.Context, d archive.Download) error {
	const query = `INSERT INTO downloads (run_id, year, url, path, bytes, partial, attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, r.runID, d.Year, d.URL, d.Path, d.Bytes, d.Partial, d.Attempts)
	if err != nil {
		return fmt.Errorf("record download: %w", err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]Entry, error) {
	const query = `SELECT id, run_id, year, url, path, bytes, partial, attempts, created_at
		FROM downloads ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdStr string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Year, &e.URL, &e.Path, &e.Bytes, &e.Partial, &e.Attempts, &createdStr); err != nil {
			return nil, fmt.Errorf("scan download: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
