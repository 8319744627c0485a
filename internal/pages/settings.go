package pages

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

var _ settingsStore = (*SettingsRepo)(nil)

// SettingsRepo stores the page visibility flags. A page without a row is
// enabled.
type SettingsRepo struct {
	db *pgxpool.Pool
}

func NewSettingsRepo(db *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{
		db: db,
	}
}

func (r *SettingsRepo) All(ctx context.Context) (_ map[string]bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.pages.settings.all")
	defer func() { tracing.EndSpan(span, err) }()

	rows, err := r.db.Query(ctx, `SELECT page, enabled FROM page_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flags := make(map[string]bool)
	for rows.Next() {
		var page string
		var enabled bool
		if err := rows.Scan(&page, &enabled); err != nil {
			return nil, err
		}
		flags[page] = enabled
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return flags, nil
}

func (r *SettingsRepo) Enabled(ctx context.Context, page string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.pages.settings.enabled")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.String("page", page))

	var enabled bool
	if err := r.db.QueryRow(ctx, `SELECT enabled FROM page_settings WHERE page = $1`, page).Scan(&enabled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return true, nil
		}
		return false, err
	}

	return enabled, nil
}

func (r *SettingsRepo) Save(ctx context.Context, flags map[string]bool) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.pages.settings.save")
	defer func() { tracing.EndSpan(span, err) }()

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

	now := time.Now()
	for page, enabled := range flags {
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO page_settings (page, enabled, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (page) DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = EXCLUDED.updated_at`,
			page, enabled, now,
		); err != nil {
			return fmt.Errorf("save page [%s]: %w", page, err)
		}
	}

	return nil
}
