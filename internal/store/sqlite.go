package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// HeadlineRecord is one persisted headline, keeping the news cache warm
// across restarts.
type HeadlineRecord struct {
	InstrumentID string `json:"instrument_id"`
	Title        string `json:"title"`
	Link         string `json:"link"`
	PubDate      string `json:"pub_date"`
	UpdatedAt    string `json:"updated_at"`
}

func Open(path string) (*Store, error) {
	if path == "" {
		path = "data/app.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=3000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS headlines (
			instrument_id TEXT PRIMARY KEY,
			title TEXT,
			link TEXT,
			pub_date TEXT,
			updated_at TEXT
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) UpsertHeadline(rec HeadlineRecord) error {
	if rec.InstrumentID == "" {
		return fmt.Errorf("empty instrument id")
	}
	if rec.UpdatedAt == "" {
		rec.UpdatedAt = time.Now().Format(time.RFC3339)
	}
	_, err := s.db.Exec(
		`INSERT INTO headlines (instrument_id, title, link, pub_date, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(instrument_id) DO UPDATE SET
			title = excluded.title,
			link = excluded.link,
			pub_date = excluded.pub_date,
			updated_at = excluded.updated_at;`,
		rec.InstrumentID, rec.Title, rec.Link, rec.PubDate, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert headline: %w", err)
	}
	return nil
}

// SaveHeadline implements the news poller's persister.
func (s *Store) SaveHeadline(id, title, link, pubDate string) error {
	return s.UpsertHeadline(HeadlineRecord{
		InstrumentID: id,
		Title:        title,
		Link:         link,
		PubDate:      pubDate,
	})
}

func (s *Store) LoadHeadlines() ([]HeadlineRecord, error) {
	rows, err := s.db.Query(`SELECT instrument_id, title, link, pub_date, updated_at FROM headlines;`)
	if err != nil {
		return nil, fmt.Errorf("load headlines: %w", err)
	}
	defer rows.Close()

	var out []HeadlineRecord
	for rows.Next() {
		var rec HeadlineRecord
		if err := rows.Scan(&rec.InstrumentID, &rec.Title, &rec.Link, &rec.PubDate, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan headline: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate headlines: %w", err)
	}
	return out, nil
}
