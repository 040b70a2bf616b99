package seo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"storefront-seo-router/internal/model"
)

// Schema creates the metadata table read by Store.
const Schema = `CREATE TABLE IF NOT EXISTS seo_pages (
	domain        TEXT NOT NULL,
	path          TEXT NOT NULL,
	title         TEXT,
	description   TEXT,
	canonical_url TEXT,
	image         TEXT,
	keywords      TEXT,
	robots        TEXT,
	author        TEXT,
	language      TEXT,
	site_name     TEXT,
	og_type       TEXT,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (domain, path)
)`

// lookupQuery prefers the host-specific row over the wildcard one.
const lookupQuery = `SELECT
	COALESCE(title, ''), COALESCE(description, ''), COALESCE(canonical_url, ''),
	COALESCE(image, ''), COALESCE(keywords, ''), COALESCE(robots, ''),
	COALESCE(author, ''), COALESCE(language, ''), COALESCE(site_name, ''),
	COALESCE(og_type, '')
FROM seo_pages
WHERE path = $2 AND domain IN ($1, '*')
ORDER BY (domain = '*')
LIMIT 1`

// querier is the subset of *pgxpool.Pool used by Store.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store reads metadata records from PostgreSQL.
type Store struct {
	db querier
}

// NewStore creates a Store on top of a pgx pool or connection.
func NewStore(db querier) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the metadata table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create seo_pages: %w", err)
	}
	return nil
}

// Lookup implements Provider.
func (s *Store) Lookup(ctx context.Context, key PageKey) (*model.PageMetadata, error) {
	var m model.PageMetadata
	err := s.db.QueryRow(ctx, lookupQuery, key.Host, key.Path).Scan(
		&m.Title, &m.Description, &m.CanonicalURL,
		&m.Image, &m.Keywords, &m.Robots,
		&m.Author, &m.Language, &m.SiteName,
		&m.Type,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query seo_pages %s%s: %w", key.Host, key.Path, err)
	}
	return &m, nil
}
