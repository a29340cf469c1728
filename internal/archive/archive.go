// Package archive appends fetched envelopes to a local SQLite log so past
// snapshots can be listed later. Nothing here deduplicates or diffs.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"streamliner/internal/item"
)

// timeLayout is fixed width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func Open(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// Snapshot is one archived invocation.
type Snapshot struct {
	ID         int64
	Command    string
	RequestURL string
	FetchedAt  time.Time
	ItemCount  int
}

// Entry is an archived item together with the snapshot it belongs to.
type Entry struct {
	SnapshotID int64
	Command    string
	RequestURL string
	FetchedAt  time.Time
	Item       item.Item
}

// SaveSnapshot stores env in upstream order and returns the snapshot id.
func SaveSnapshot(ctx context.Context, db *sql.DB, command, requestURL string, env item.Envelope, at time.Time) (int64, error) {
	if strings.TrimSpace(command) == "" || strings.TrimSpace(requestURL) == "" {
		return 0, errors.New("missing command or url")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO snapshots (command, request_url, fetched_at, item_count) VALUES (?, ?, ?, ?)`,
		command, requestURL, formatTime(at), len(env.Items))
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot_items
        (snapshot_id, position, url, title, content, needs_further_processing, source, timestamp)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, it := range env.Items {
		var ts any
		if it.Timestamp != nil {
			ts = formatTime(*it.Timestamp)
		}
		if _, err := stmt.ExecContext(ctx, id, i, it.URL, it.Title, it.Content, boolInt(it.NeedsFurtherProcessing), string(it.Source), ts); err != nil {
			return 0, fmt.Errorf("insert item %d: %w", i, err)
		}
	}
	return id, tx.Commit()
}

// Snapshots lists the newest snapshots first.
func Snapshots(ctx context.Context, db *sql.DB, limit int) ([]Snapshot, error) {
	q := `SELECT id, command, request_url, fetched_at, item_count FROM snapshots ORDER BY id DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Snapshot
	for rows.Next() {
		var (
			s  Snapshot
			at string
		)
		if err := rows.Scan(&s.ID, &s.Command, &s.RequestURL, &at, &s.ItemCount); err != nil {
			return nil, err
		}
		s.FetchedAt = parseTime(at)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Recent returns items archived at or after since, newest snapshot first and
// upstream order within a snapshot. An empty source matches every source.
func Recent(ctx context.Context, db *sql.DB, since time.Time, source item.Source, limit int) ([]Entry, error) {
	q := `SELECT s.id, s.command, s.request_url, s.fetched_at,
       i.url, i.title, i.content, i.needs_further_processing, i.source, i.timestamp
FROM snapshot_items i JOIN snapshots s ON s.id = i.snapshot_id
WHERE s.fetched_at >= ?`
	args := []any{formatTime(since)}
	if source != "" {
		q += " AND i.source = ?"
		args = append(args, string(source))
	}
	q += " ORDER BY s.id DESC, i.position ASC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			at, src string
			nfp     int
			ts      sql.NullString
		)
		if err := rows.Scan(&e.SnapshotID, &e.Command, &e.RequestURL, &at,
			&e.Item.URL, &e.Item.Title, &e.Item.Content, &nfp, &src, &ts); err != nil {
			return nil, err
		}
		e.FetchedAt = parseTime(at)
		e.Item.NeedsFurtherProcessing = nfp != 0
		e.Item.Source = item.Source(src)
		if ts.Valid {
			t := parseTime(ts.String)
			e.Item.Timestamp = &t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
