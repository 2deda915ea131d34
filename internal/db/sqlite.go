package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jonathan/privacy-lens/internal/types"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLiteStore is a single-file store for local and CLI use.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FindByURL retrieves the stored analysis for url.
func (s *SQLiteStore) FindByURL(ctx context.Context, url string) (*types.Site, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE url = ?`, url)
	site, err := scanSQLiteSite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get site %s: %w", url, err)
	}
	return site, nil
}

// UpsertByURL inserts or overwrites the analysis for url.
func (s *SQLiteStore) UpsertByURL(ctx context.Context, url string, site *types.Site) (*types.Site, error) {
	trackers, summary, err := encodeSite(site)
	if err != nil {
		return nil, err
	}

	var summaryArg any
	if summary != nil {
		summaryArg = string(summary)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sites (id, url, score, grade, category, trackers, policy_text, ai_summary, last_analyzed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
			score = excluded.score,
			grade = excluded.grade,
			category = excluded.category,
			trackers = excluded.trackers,
			policy_text = excluded.policy_text,
			ai_summary = excluded.ai_summary,
			last_analyzed = excluded.last_analyzed,
			updated_at = CURRENT_TIMESTAMP`,
		uuid.New().String(), url, site.Score, site.Grade, site.Category,
		string(trackers), site.PolicyText, summaryArg,
		site.LastAnalyzed.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert site %s: %w", url, err)
	}

	stored, err := s.FindByURL(ctx, url)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("failed to upsert site %s: row missing after write", url)
	}
	return stored, nil
}

func scanSQLiteSite(row *sql.Row) (*types.Site, error) {
	var (
		site         types.Site
		id           string
		trackers     string
		summary      sql.NullString
		lastAnalyzed string
	)
	err := row.Scan(&id, &site.URL, &site.Score, &site.Grade, &site.Category,
		&trackers, &site.PolicyText, &summary, &lastAnalyzed)
	if err != nil {
		return nil, err
	}

	if site.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid site id %q: %w", id, err)
	}
	if site.LastAnalyzed, err = time.Parse(time.RFC3339Nano, lastAnalyzed); err != nil {
		return nil, fmt.Errorf("invalid last_analyzed %q: %w", lastAnalyzed, err)
	}

	var summaryBytes []byte
	if summary.Valid {
		summaryBytes = []byte(summary.String)
	}
	if err := decodeSite(&site, []byte(trackers), summaryBytes); err != nil {
		return nil, err
	}
	return &site, nil
}
