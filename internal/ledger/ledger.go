// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger persists conversion history in a per-directory SQLite
// database, one row per attempted conversion.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mellery/pdftocbz/pkg/types"
)

// dbFile is the ledger filename placed inside the scanned directory.
const dbFile = ".pdftocbz.db"

// DefaultPath returns the ledger database path for a scanned directory.
func DefaultPath(dir string) string {
	return filepath.Join(dir, dbFile)
}

// Store manages the conversion-history SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the ledger database at cfg.Path and ensures the
// schema exists.
func Open(cfg types.LedgerConfig) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			archive TEXT NOT NULL,
			status TEXT NOT NULL,
			pages INTEGER,
			images INTEGER,
			dpi INTEGER,
			format TEXT,
			rasterizer TEXT,
			archiver TEXT,
			duration_ms INTEGER,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_source ON conversions(source)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_created_at ON conversions(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts one conversion record.
func (s *Store) Record(rec types.ConversionRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO conversions
			(source, archive, status, pages, images, dpi, format, rasterizer, archiver, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Source, rec.Archive, string(rec.Status), rec.Pages, rec.Images,
		rec.DPI, string(rec.Format), rec.Rasterizer, rec.Archiver,
		rec.Duration.Milliseconds(), rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting conversion record: %w", err)
	}
	return nil
}

// Recent returns the most recent conversion records, newest first. A limit of
// 0 or less uses the store's configured maximum.
func (s *Store) Recent(ctx context.Context, limit int) ([]types.ConversionRecord, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source, archive, status, pages, images, dpi, format, rasterizer, archiver, duration_ms, created_at
		 FROM conversions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying conversion history: %w", err)
	}
	defer rows.Close()

	var records []types.ConversionRecord
	for rows.Next() {
		var (
			rec        types.ConversionRecord
			status     string
			format     string
			durationMS int64
			createdAt  string
		)
		if err := rows.Scan(&rec.Source, &rec.Archive, &status, &rec.Pages, &rec.Images,
			&rec.DPI, &format, &rec.Rasterizer, &rec.Archiver, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning conversion record: %w", err)
		}
		rec.Status = types.ConversionStatus(status)
		rec.Format = types.ImageFormat(format)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			rec.CreatedAt = ts
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
