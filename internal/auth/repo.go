package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"
	"github.com/kdblegal/kdbweb/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// bootstrapLockKey serializes concurrent bootstrap attempts.
const bootstrapLockKey = 7_310_420_002

var _ adminRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const adminColumns = `id, username, password_hash, role, active, created_at, updated_at`

func scanAdmin(row pgx.Row) (*Admin, error) {
	admin := &Admin{}
	if err := row.Scan(
		&admin.ID,
		&admin.Username,
		&admin.PasswordHash,
		&admin.Role,
		&admin.Active,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return admin, nil
}

func (r *Repo) CountAdmins(ctx context.Context) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.auth.admins.count")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repo) BootstrapAdmin(ctx context.Context, admin *Admin) (_ *Admin, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.auth.admins.bootstrap")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
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

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, bootstrapLockKey); err != nil {
		return nil, err
	}

	var count int
	if err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&count); err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrBootstrapDone
	}

	created, err := scanAdmin(tx.QueryRow(ctx, `
		INSERT INTO admin_users (username, password_hash, role, active)
		VALUES ($1, $2, $3, $4)
		RETURNING `+adminColumns,
		admin.Username, admin.PasswordHash, admin.Role, admin.Active,
	))
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repo) CreateAdmin(ctx context.Context, admin *Admin) (_ *Admin, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.auth.admins.create")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	created, err := scanAdmin(r.db.QueryRow(ctx, `
		INSERT INTO admin_users (username, password_hash, role, active)
		VALUES ($1, $2, $3, $4)
		RETURNING `+adminColumns,
		admin.Username, admin.PasswordHash, admin.Role, admin.Active,
	))
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *Repo) AdminByUsername(ctx context.Context, username string) (_ *Admin, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.auth.admins.byusername")
	defer func() {
		if err != nil && !errors.Is(err, ErrAdminNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return scanAdmin(r.db.QueryRow(ctx, `
		SELECT `+adminColumns+`
		FROM admin_users
		WHERE username = $1
	`, username))
}

func (r *Repo) AdminByID(ctx context.Context, id int) (_ *Admin, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.auth.admins.byid")
	defer func() {
		if err != nil && !errors.Is(err, ErrAdminNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.Int("id", id))

	return scanAdmin(r.db.QueryRow(ctx, `
		SELECT `+adminColumns+`
		FROM admin_users
		WHERE id = $1
	`, id))
}

func (r *Repo) ListAdmins(ctx context.Context) (_ []*Admin, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.auth.admins.list")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	rows, err := r.db.Query(ctx, `
		SELECT `+adminColumns+`
		FROM admin_users
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	admins := make([]*Admin, 0)
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return admins, nil
}

func (r *Repo) UpdateAdmin(ctx context.Context, admin *Admin) (_ *Admin, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.auth.admins.update")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.Int("id", admin.ID))

	updated, err := scanAdmin(r.db.QueryRow(ctx, `
		UPDATE admin_users
		SET username = $2, password_hash = $3, role = $4, active = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+adminColumns,
		admin.ID, admin.Username, admin.PasswordHash, admin.Role, admin.Active,
	))
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return updated, nil
}

// DeleteAdmin removes the admin and every session it holds in one transaction.
func (r *Repo) DeleteAdmin(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.auth.admins.delete")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.Int("id", id))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
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

	if _, err = tx.Exec(ctx, `DELETE FROM admin_sessions WHERE admin_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM admin_users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}

func (r *Repo) CreateSession(ctx context.Context, session *Session) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.auth.sessions.create")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return r.db.QueryRow(ctx, `
		INSERT INTO admin_sessions (admin_id, token, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`,
		session.AdminID, session.Token, session.CreatedAt, session.ExpiresAt,
	).Scan(&session.ID)
}

// SessionWithAdmin returns the session for token together with its owner.
// Expiry and the active flag are left for the caller to judge.
func (r *Repo) SessionWithAdmin(ctx context.Context, token string) (_ *Session, _ *Admin, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.auth.sessions.get")
	defer func() {
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	session := &Session{}
	admin := &Admin{}
	err = r.db.QueryRow(ctx, `
		SELECT s.id, s.admin_id, s.token, s.created_at, s.expires_at,
			u.id, u.username, u.password_hash, u.role, u.active, u.created_at, u.updated_at
		FROM admin_sessions s
		JOIN admin_users u ON u.id = s.admin_id
		WHERE s.token = $1
	`, token).Scan(
		&session.ID, &session.AdminID, &session.Token, &session.CreatedAt, &session.ExpiresAt,
		&admin.ID, &admin.Username, &admin.PasswordHash, &admin.Role, &admin.Active, &admin.CreatedAt, &admin.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, err
	}
	return session, admin, nil
}

func (r *Repo) DeleteSession(ctx context.Context, token string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.auth.sessions.delete")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	_, err = r.db.Exec(ctx, `DELETE FROM admin_sessions WHERE token = $1`, token)
	return err
}

// DeleteExpiredSessions removes sessions that can no longer authenticate.
// Validation never depends on it; it only keeps the table small.
func (r *Repo) DeleteExpiredSessions(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.auth.sessions.deleteexpired")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tag, err := r.db.Exec(ctx, `DELETE FROM admin_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
