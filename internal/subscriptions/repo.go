package subscriptions

import (
	"context"
	"errors"
	"fmt"

	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var _ subscriptionsRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add stores the email and reports whether it was new.
func (r *Repo) Add(ctx context.Context, email string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.subscriptions.add")
	defer func() { tracing.EndSpan(span, err) }()

	var id int
	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO subscriptions (email) VALUES ($1)
		ON CONFLICT (email) DO NOTHING
		RETURNING id`,
		email,
	).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	span.SetAttributes(attribute.Int("id", id))
	return true, nil
}

func (r *Repo) List(ctx context.Context, limit int) (_ []*Subscription, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.subscriptions.list")
	defer func() { tracing.EndSpan(span, err) }()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, email, created_at FROM subscriptions
		ORDER BY created_at DESC, id DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.ID, &s.Email, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, &s)
	}

	return subs, rows.Err()
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.subscriptions.delete")
	defer func() { tracing.EndSpan(span, err) }()

	tag, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
