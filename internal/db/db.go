// Package db persists analysed sites. PostgreSQL (pgx), SQLite (modernc) and
// in-memory stores share the FindByURL/UpsertByURL contract: FindByURL
// returns nil, nil when the URL has never been stored, and UpsertByURL keeps
// the existing ID when it overwrites a row.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/privacy-lens/internal/types"
)

//go:embed schema_postgres.sql
var postgresSchema string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the sites table if it does not exist
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

const siteColumns = `id, url, score, grade, category, trackers, policy_text, ai_summary, last_analyzed`

// FindByURL retrieves the stored analysis for url
func (db *DB) FindByURL(ctx context.Context, url string) (*types.Site, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE url = $1`,
		url,
	)
	site, err := scanPostgresSite(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get site %s: %w", url, err)
	}
	return site, nil
}

// UpsertByURL inserts or overwrites the analysis for url and returns the
// stored row
func (db *DB) UpsertByURL(ctx context.Context, url string, site *types.Site) (*types.Site, error) {
	trackers, summary, err := encodeSite(site)
	if err != nil {
		return nil, err
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO sites (url, score, grade, category, trackers, policy_text, ai_summary, last_analyzed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (url) DO UPDATE SET
			score = EXCLUDED.score,
			grade = EXCLUDED.grade,
			category = EXCLUDED.category,
			trackers = EXCLUDED.trackers,
			policy_text = EXCLUDED.policy_text,
			ai_summary = EXCLUDED.ai_summary,
			last_analyzed = EXCLUDED.last_analyzed,
			updated_at = NOW()
		 RETURNING `+siteColumns,
		url, site.Score, site.Grade, site.Category, trackers, site.PolicyText, summary, site.LastAnalyzed.UTC(),
	)
	stored, err := scanPostgresSite(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert site %s: %w", url, err)
	}
	return stored, nil
}

func scanPostgresSite(row pgx.Row) (*types.Site, error) {
	var (
		site         types.Site
		trackers     []byte
		summary      []byte
		lastAnalyzed time.Time
	)
	err := row.Scan(&site.ID, &site.URL, &site.Score, &site.Grade, &site.Category,
		&trackers, &site.PolicyText, &summary, &lastAnalyzed)
	if err != nil {
		return nil, err
	}
	site.LastAnalyzed = lastAnalyzed.UTC()
	if err := decodeSite(&site, trackers, summary); err != nil {
		return nil, err
	}
	return &site, nil
}
