package contact

import (
	"context"
	"fmt"

	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var _ messagesRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Save(ctx context.Context, msg *Message) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.contact.save")
	defer func() { tracing.EndSpan(span, err) }()

	var id int
	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO contact_messages (name, email, phone, subject, message, ip, user_agent, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		msg.Name, msg.Email, msg.Phone, msg.Subject, msg.Message, msg.IP, msg.UserAgent, msg.Status,
	).Scan(&id); err != nil {
		return -1, fmt.Errorf("insert contact message: %w", err)
	}

	span.SetAttributes(attribute.Int("id", id))
	return id, nil
}

func (r *Repo) List(ctx context.Context, limit int) (_ []*Message, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.contact.list")
	defer func() { tracing.EndSpan(span, err) }()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, email, phone, subject, message, ip, user_agent, status, created_at
		FROM contact_messages
		ORDER BY created_at DESC, id DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query contact messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.Email,
			&m.Phone,
			&m.Subject,
			&m.Message,
			&m.IP,
			&m.UserAgent,
			&m.Status,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}

	return messages, rows.Err()
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.contact.delete")
	defer func() { tracing.EndSpan(span, err) }()

	tag, err := r.db.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
