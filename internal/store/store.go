// Package store persists the last-seen snapshot of each monitored
// source in sqlite. Item lists only ever grow: once a title has been
// seen for a source, its record (including first_seen) is immutable.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pagewatch/pagewatch/internal/news"

	_ "modernc.org/sqlite"
)

// nowFunc returns the current time; overridden in tests.
var nowFunc = time.Now

type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Snapshot is the captured state of a source at one point in time.
// Items carries the full merged history for the source when read back,
// and the freshly extracted list when written.
type Snapshot struct {
	URL        string
	Content    string
	Items      []news.Item
	CapturedAt time.Time
	StoredAt   time.Time
}

// Analysis is one stored analyzer verdict for a source.
type Analysis struct {
	ID              int64
	SourceID        string
	URL             string
	SiteName        string
	Rating          int // 0 when the analyzer produced no rating
	Text            string
	ChangesDetected bool
	AnalyzedAt      time.Time
}

func Open(path string, log *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the current snapshot for a source. Absence is a valid,
// expected state (first observation), so Get reports found=false rather
// than an error; unreadable rows degrade to found=false as well.
func (s *Store) Get(ctx context.Context, sourceID string) (Snapshot, bool) {
	if s == nil || s.db == nil {
		return Snapshot{}, false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT url, content, captured_at, stored_at
		FROM snapshots
		WHERE source_id = ?
	`, sourceID)

	var (
		snap                 Snapshot
		capturedAt, storedAt string
	)
	err := row.Scan(&snap.URL, &snap.Content, &capturedAt, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false
	}
	if err != nil {
		s.log.Warn("snapshot unreadable, treating as first observation",
			zap.String("source_id", sourceID), zap.Error(err))
		return Snapshot{}, false
	}

	if snap.CapturedAt, err = parseTime(capturedAt); err != nil {
		s.log.Warn("snapshot has bad captured_at, treating as first observation",
			zap.String("source_id", sourceID), zap.Error(err))
		return Snapshot{}, false
	}
	if snap.StoredAt, err = parseTime(storedAt); err != nil {
		s.log.Warn("snapshot has bad stored_at, treating as first observation",
			zap.String("source_id", sourceID), zap.Error(err))
		return Snapshot{}, false
	}

	items, err := s.Items(ctx, sourceID)
	if err != nil {
		s.log.Warn("snapshot items unreadable, treating as first observation",
			zap.String("source_id", sourceID), zap.Error(err))
		return Snapshot{}, false
	}
	snap.Items = items

	return snap, true
}

// Put replaces the stored content for a source and merges the incoming
// item list into the persisted one. An item whose trimmed title is
// already on record is dropped; the existing record, first_seen
// included, stays untouched. Safe to call when no prior snapshot exists.
func (s *Store) Put(ctx context.Context, sourceID string, snap Snapshot) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(sourceID) == "" {
		return errors.New("source id is required")
	}

	capturedAt := snap.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = nowFunc()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (source_id, url, content, captured_at, stored_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			url = excluded.url,
			content = excluded.content,
			captured_at = excluded.captured_at,
			stored_at = excluded.stored_at
	`, sourceID, snap.URL, snap.Content, formatTime(capturedAt), formatTime(nowFunc()))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	for _, item := range snap.Items {
		firstSeen := item.FirstSeen
		if firstSeen.IsZero() {
			firstSeen = nowFunc()
		}
		var rating sql.NullInt64
		if item.Rating > 0 {
			rating = sql.NullInt64{Int64: int64(item.Rating), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO news_items (source_id, title, date, url, snippet, rating, first_seen)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(source_id, title) DO NOTHING
		`, sourceID, item.Key(), item.Date, item.URL, item.Snippet, rating, formatTime(firstSeen))
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("merge item %q: %w", item.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	return nil
}

// Items returns the merged item history for a source in insertion order.
func (s *Store) Items(ctx context.Context, sourceID string) ([]news.Item, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT title, date, url, snippet, rating, first_seen
		FROM news_items
		WHERE source_id = ?
		ORDER BY id
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []news.Item
	for rows.Next() {
		var (
			item      news.Item
			rating    sql.NullInt64
			firstSeen string
		)
		if err := rows.Scan(&item.Title, &item.Date, &item.URL, &item.Snippet, &rating, &firstSeen); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if rating.Valid {
			item.Rating = int(rating.Int64)
		}
		if item.FirstSeen, err = parseTime(firstSeen); err != nil {
			return nil, fmt.Errorf("parse first_seen: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return items, nil
}

// SaveAnalysis appends an analyzer verdict to the history.
func (s *Store) SaveAnalysis(ctx context.Context, a Analysis) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(a.SourceID) == "" {
		return errors.New("source id is required")
	}
	if a.AnalyzedAt.IsZero() {
		a.AnalyzedAt = nowFunc()
	}

	var rating sql.NullInt64
	if a.Rating > 0 {
		rating = sql.NullInt64{Int64: int64(a.Rating), Valid: true}
	}

	changed := 0
	if a.ChangesDetected {
		changed = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (source_id, url, site_name, rating, analysis, changes_detected, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.SourceID, a.URL, a.SiteName, rating, a.Text, changed, formatTime(a.AnalyzedAt))
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}

	return nil
}

// Analyses returns the most recent analyses for a source, newest first.
func (s *Store) Analyses(ctx context.Context, sourceID string, limit int) ([]Analysis, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_id, url, site_name, rating, analysis, changes_detected, analyzed_at
		FROM analyses
		WHERE source_id = ?
		ORDER BY analyzed_at DESC, id DESC
		LIMIT ?
	`, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var analyses []Analysis
	for rows.Next() {
		var (
			a          Analysis
			rating     sql.NullInt64
			changed    int
			analyzedAt string
		)
		if err := rows.Scan(&a.ID, &a.SourceID, &a.URL, &a.SiteName, &rating, &a.Text, &changed, &analyzedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		if rating.Valid {
			a.Rating = int(rating.Int64)
		}
		a.ChangesDetected = changed != 0
		if a.AnalyzedAt, err = parseTime(analyzedAt); err != nil {
			return nil, fmt.Errorf("parse analyzed_at: %w", err)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}

	return analyses, nil
}

// CountSnapshots returns the number of sources with a stored snapshot.
func (s *Store) CountSnapshots(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots").Scan(&count); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return count, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return time.Time{}.UTC().Format(time.RFC3339Nano)
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}
