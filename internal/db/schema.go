package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

// schemaLockKey serializes schema creation between processes sharing a database.
const schemaLockKey = 7_310_420_001

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS admin_users (
		id            SERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'editor',
		active        BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS admin_sessions (
		id         SERIAL PRIMARY KEY,
		admin_id   INTEGER NOT NULL REFERENCES admin_users(id) ON DELETE CASCADE,
		token      TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_admin_sessions_admin_id ON admin_sessions(admin_id)`,
	`CREATE TABLE IF NOT EXISTS company_info (
		id        INTEGER PRIMARY KEY CHECK (id = 1),
		name      TEXT NOT NULL DEFAULT '',
		tagline   TEXT NOT NULL DEFAULT '',
		phone     TEXT NOT NULL DEFAULT '',
		email     TEXT NOT NULL DEFAULT '',
		address   TEXT NOT NULL DEFAULT '',
		linkedin  TEXT NOT NULL DEFAULT '',
		facebook  TEXT NOT NULL DEFAULT '',
		instagram TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS page_settings (
		page       TEXT PRIMARY KEY,
		enabled    BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS hero_slides (
		id              SERIAL PRIMARY KEY,
		page            TEXT NOT NULL,
		position        INTEGER NOT NULL DEFAULT 0,
		title           TEXT NOT NULL DEFAULT '',
		description     TEXT NOT NULL DEFAULT '',
		primary_label   TEXT NOT NULL DEFAULT '',
		primary_href    TEXT NOT NULL DEFAULT '',
		secondary_label TEXT NOT NULL DEFAULT '',
		secondary_href  TEXT NOT NULL DEFAULT '',
		image_url       TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_hero_page_position ON hero_slides(page, position)`,
	`CREATE TABLE IF NOT EXISTS page_story (
		page         TEXT PRIMARY KEY,
		title        TEXT NOT NULL DEFAULT '',
		paragraphs   JSONB NOT NULL DEFAULT '[]'::jsonb,
		content_html TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS page_about (
		page            TEXT PRIMARY KEY,
		title           TEXT NOT NULL DEFAULT '',
		content         TEXT NOT NULL DEFAULT '',
		image_url       TEXT NOT NULL DEFAULT '',
		primary_label   TEXT NOT NULL DEFAULT '',
		primary_href    TEXT NOT NULL DEFAULT '',
		secondary_label TEXT NOT NULL DEFAULT '',
		secondary_href  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS team_members (
		id        SERIAL PRIMARY KEY,
		page      TEXT NOT NULL,
		position  INTEGER NOT NULL DEFAULT 0,
		name      TEXT NOT NULL DEFAULT '',
		role      TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		linkedin  TEXT NOT NULL DEFAULT '',
		more_url  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_team_page_position ON team_members(page, position)`,
	`CREATE TABLE IF NOT EXISTS team_meta (
		page     TEXT PRIMARY KEY,
		title    TEXT NOT NULL DEFAULT '',
		subtitle TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS services_items (
		id          SERIAL PRIMARY KEY,
		page        TEXT NOT NULL,
		position    INTEGER NOT NULL DEFAULT 0,
		title       TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		bullets     JSONB NOT NULL DEFAULT '[]'::jsonb
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_services_page_position ON services_items(page, position)`,
	`CREATE TABLE IF NOT EXISTS services_meta (
		page     TEXT PRIMARY KEY,
		title    TEXT NOT NULL DEFAULT '',
		subtitle TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id   SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS publications (
		id             SERIAL PRIMARY KEY,
		title          TEXT NOT NULL,
		slug           TEXT NOT NULL UNIQUE,
		excerpt        TEXT NOT NULL DEFAULT '',
		content_html   TEXT NOT NULL DEFAULT '',
		author         TEXT NOT NULL DEFAULT '',
		hero_title     TEXT NOT NULL DEFAULT '',
		hero_subtitle  TEXT NOT NULL DEFAULT '',
		hero_image_url TEXT NOT NULL DEFAULT '',
		hero_cta_label TEXT NOT NULL DEFAULT '',
		hero_cta_href  TEXT NOT NULL DEFAULT '',
		category_id    INTEGER REFERENCES categories(id) ON DELETE SET NULL,
		published_at   DATE,
		active         BOOLEAN NOT NULL DEFAULT TRUE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_publications_published_at ON publications(published_at DESC)`,
	`CREATE TABLE IF NOT EXISTS kdbweb_entries (
		id                   SERIAL PRIMARY KEY,
		position             INTEGER NOT NULL DEFAULT 0,
		slug                 TEXT NOT NULL UNIQUE,
		parent_slug          TEXT,
		title                TEXT NOT NULL,
		card_title           TEXT NOT NULL DEFAULT '',
		summary              TEXT NOT NULL DEFAULT '',
		hero_kicker          TEXT NOT NULL DEFAULT '',
		hero_title           TEXT NOT NULL DEFAULT '',
		hero_subtitle        TEXT NOT NULL DEFAULT '',
		hero_image_url       TEXT NOT NULL DEFAULT '',
		hero_primary_label   TEXT NOT NULL DEFAULT '',
		hero_primary_href    TEXT NOT NULL DEFAULT '',
		hero_secondary_label TEXT NOT NULL DEFAULT '',
		hero_secondary_href  TEXT NOT NULL DEFAULT '',
		content_html         TEXT NOT NULL DEFAULT '',
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id         SERIAL PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS contact_messages (
		id         SERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		phone      TEXT NOT NULL DEFAULT '',
		subject    TEXT NOT NULL DEFAULT '',
		message    TEXT NOT NULL,
		ip         TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		status     TEXT NOT NULL DEFAULT 'new',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Schema creates the tables and seeds default content. Ensure is safe to
// call any number of times and from concurrent goroutines; the work is done
// at most once per process after the first success.
type Schema struct {
	db *pgxpool.Pool

	mu    sync.Mutex
	ready bool

	// SeedDefaults inserts the default site content after table creation.
	SeedDefaults bool
}

func NewSchema(db *pgxpool.Pool) *Schema {
	return &Schema{
		db:           db,
		SeedDefaults: true,
	}
}

func (s *Schema) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *Schema) Ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	if err := s.apply(ctx); err != nil {
		return err
	}

	s.ready = true
	log.Debugf("db schema ready, %d statements applied", len(schemaStatements))
	return nil
}

func (s *Schema) apply(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "db.schema.ensure")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	for i, stmt := range schemaStatements {
		if _, err = tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}

	if s.SeedDefaults {
		if err = seed(ctx, tx); err != nil {
			return fmt.Errorf("seed defaults: %w", err)
		}
	}

	return nil
}
