package company

import (
	"context"
	"errors"

	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ companyRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Get returns an empty Info when the row was never saved.
func (r *Repo) Get(ctx context.Context) (_ *Info, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.company.get")
	defer func() { tracing.EndSpan(span, err) }()

	info := &Info{}
	if err := r.db.QueryRow(
		ctx,
		`SELECT name, tagline, phone, email, address, linkedin, facebook, instagram
		FROM company_info WHERE id = 1`,
	).Scan(
		&info.Name,
		&info.Tagline,
		&info.Phone,
		&info.Email,
		&info.Address,
		&info.LinkedIn,
		&info.Facebook,
		&info.Instagram,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Info{}, nil
		}
		return nil, err
	}

	return info, nil
}

func (r *Repo) Save(ctx context.Context, info Info) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.company.save")
	defer func() { tracing.EndSpan(span, err) }()

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO company_info (id, name, tagline, phone, email, address, linkedin, facebook, instagram)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			tagline = EXCLUDED.tagline,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			linkedin = EXCLUDED.linkedin,
			facebook = EXCLUDED.facebook,
			instagram = EXCLUDED.instagram`,
		info.Name, info.Tagline, info.Phone, info.Email, info.Address, info.LinkedIn, info.Facebook, info.Instagram,
	)
	return err
}
