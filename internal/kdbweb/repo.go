package kdbweb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var _ entriesRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const entryColumns = `id, position, slug, parent_slug, title, card_title, summary,
	hero_kicker, hero_title, hero_subtitle, hero_image_url,
	hero_primary_label, hero_primary_href, hero_secondary_label, hero_secondary_href,
	content_html`

func scanEntry(row pgx.Row) (*Entry, error) {
	e := &Entry{}
	if err := row.Scan(
		&e.ID,
		&e.Position,
		&e.Slug,
		&e.ParentSlug,
		&e.Title,
		&e.CardTitle,
		&e.Summary,
		&e.HeroKicker,
		&e.HeroTitle,
		&e.HeroSubtitle,
		&e.HeroImageURL,
		&e.HeroPrimaryLabel,
		&e.HeroPrimaryHref,
		&e.HeroSecondaryLabel,
		&e.HeroSecondaryHref,
		&e.ContentHTML,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *Repo) List(ctx context.Context) (_ []*Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.kdbweb.list")
	defer func() { tracing.EndSpan(span, err) }()

	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM kdbweb_entries ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *Repo) BySlug(ctx context.Context, slug string) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.kdbweb.by-slug")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.String("slug", slug))

	return scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM kdbweb_entries WHERE slug = $1`, slug))
}

// ReplaceAll swaps the whole tree in one transaction.
func (r *Repo) ReplaceAll(ctx context.Context, entries []*Entry) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.kdbweb.replace-all")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("entries", len(entries)))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
			return
		}
		err = tx.Commit(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM kdbweb_entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	now := time.Now()
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO kdbweb_entries (
				position, slug, parent_slug, title, card_title, summary,
				hero_kicker, hero_title, hero_subtitle, hero_image_url,
				hero_primary_label, hero_primary_href, hero_secondary_label, hero_secondary_href,
				content_html, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)`,
			e.Position, e.Slug, e.ParentSlug, e.Title, e.CardTitle, e.Summary,
			e.HeroKicker, e.HeroTitle, e.HeroSubtitle, e.HeroImageURL,
			e.HeroPrimaryLabel, e.HeroPrimaryHref, e.HeroSecondaryLabel, e.HeroSecondaryHref,
			e.ContentHTML, now,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}

	return nil
}
