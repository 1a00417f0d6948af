package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Processing outcomes recorded per listing URL. A URL is written exactly
// once; reprocessing the same link is a no-op at this layer.
const (
	StatusCreated        = "created"
	StatusDuplicate      = "duplicate"
	StatusBelowThreshold = "below_threshold"
	StatusRejected       = "rejected"
	StatusFailed         = "failed"
)

// Record is one processed listing as persisted locally. Detail carries the
// reject warnings or the error text depending on status.
type Record struct {
	ID           int64  `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	Price        int    `json:"price"`
	Address      string `json:"address"`
	RoomType     string `json:"roomType"`
	Total        int    `json:"total"`
	Suitability  string `json:"suitability"`
	Status       string `json:"status"`
	NotionPageID string `json:"notionPageId"`
	Detail       string `json:"detail"`
	ProcessedAt  string `json:"processedAt"`
}

type ListOpts struct {
	Status   string // filter by status, empty = all
	MinTotal int
	Window   string // 24h | 7d | all
	Limit    int
}

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS listings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  url TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  price INTEGER NOT NULL DEFAULT 0,
  address TEXT NOT NULL DEFAULT '',
  room_type TEXT NOT NULL DEFAULT '',
  total INTEGER NOT NULL DEFAULT 0,
  suitability TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  notion_page_id TEXT NOT NULL DEFAULT '',
  detail TEXT NOT NULL DEFAULT '',
  processed_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_listings_url
ON listings(url);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_listings_processed_at
ON listings(processed_at);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

// Seen reports whether this URL was already processed.
func Seen(db *sql.DB, url string) (bool, error) {
	var one int
	err := db.QueryRow(`SELECT 1 FROM listings WHERE url = ? LIMIT 1;`, url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seen check: %w", err)
	}
	return true, nil
}

// InsertIfNew records one outcome, keyed by URL. Returns whether the row
// was newly added; an existing row is left untouched.
func InsertIfNew(db *sql.DB, r Record) (added bool, err error) {
	if r.ProcessedAt == "" {
		r.ProcessedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err = db.Exec(`
INSERT OR IGNORE INTO listings (url, title, price, address, room_type, total, suitability, status, notion_page_id, detail, processed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.URL, r.Title, r.Price, r.Address, r.RoomType, r.Total, r.Suitability, r.Status, r.NotionPageID, r.Detail, r.ProcessedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert listing: %w", err)
	}

	// changes() distinguishes a fresh insert from an ignored duplicate
	var changes int
	if e := db.QueryRow(`SELECT changes();`).Scan(&changes); e == nil {
		return changes > 0, nil
	}
	return true, nil
}

// UpdateStatus rewrites the status (and optionally the Notion page id) of
// an already-recorded URL.
func UpdateStatus(db *sql.DB, url, status, notionPageID string) error {
	res, err := db.Exec(`
UPDATE listings SET status = ?, notion_page_id = CASE WHEN ? != '' THEN ? ELSE notion_page_id END
WHERE url = ?;`,
		status, notionPageID, notionPageID, url)
	if err != nil {
		return fmt.Errorf("update listing status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update listing status: unknown url %s", url)
	}
	return nil
}

func ListRecords(ctx context.Context, db *sql.DB, opts ListOpts) ([]Record, error) {
	if opts.Limit <= 0 || opts.Limit > 2000 {
		opts.Limit = 200
	}

	where := "WHERE 1=1"
	args := []any{}
	switch opts.Window {
	case "24h":
		where += " AND processed_at >= datetime('now','-24 hours')"
	case "all", "":
	default:
		where += " AND processed_at >= datetime('now','-7 days')"
	}
	if opts.Status != "" {
		where += " AND status = ?"
		args = append(args, opts.Status)
	}
	if opts.MinTotal > 0 {
		where += " AND total >= ?"
		args = append(args, opts.MinTotal)
	}
	args = append(args, opts.Limit)

	query := fmt.Sprintf(`
SELECT id, url, title, price, address, room_type, total, suitability, status, notion_page_id, detail, processed_at
FROM listings
%s
ORDER BY total DESC, processed_at DESC
LIMIT ?;`, where)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.URL, &r.Title, &r.Price, &r.Address, &r.RoomType,
			&r.Total, &r.Suitability, &r.Status, &r.NotionPageID, &r.Detail, &r.ProcessedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats counts processed listings per status.
func Stats(ctx context.Context, db *sql.DB) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM listings GROUP BY status;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func CleanupOld(db *sql.DB) (deleted int64, err error) {
	res, err := db.Exec(`
DELETE FROM listings
WHERE processed_at < datetime('now', '-3 months');
`)
	if err != nil {
		return 0, fmt.Errorf("cleanup old listings: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
