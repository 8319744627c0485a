package publications

import (
	"context"
	"errors"
	"time"

	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"
	"github.com/kdblegal/kdbweb/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var _ publicationsRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const selectPublication = `
	SELECT p.id, p.title, p.slug, p.excerpt, p.content_html, p.author,
		p.hero_title, p.hero_subtitle, p.hero_image_url, p.hero_cta_label, p.hero_cta_href,
		p.category_id, c.name, p.published_at, p.active, p.created_at, p.updated_at
	FROM publications p
	LEFT JOIN categories c ON c.id = p.category_id
`

func scanPublication(row pgx.Row) (*Publication, error) {
	p := &Publication{}
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Slug,
		&p.Excerpt,
		&p.ContentHTML,
		&p.Author,
		&p.HeroTitle,
		&p.HeroSubtitle,
		&p.HeroImageURL,
		&p.HeroCTALabel,
		&p.HeroCTAHref,
		&p.CategoryID,
		&p.Category,
		&p.PublishedAt,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *Repo) List(ctx context.Context, activeOnly bool) (_ []*Publication, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.publications.list")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Bool("active_only", activeOnly))

	query := selectPublication
	if activeOnly {
		query += ` WHERE p.active`
	}
	query += ` ORDER BY p.published_at DESC NULLS LAST, p.id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var publications []*Publication
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		publications = append(publications, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return publications, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Publication, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.publications.get")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("id", id))

	return scanPublication(r.db.QueryRow(ctx, selectPublication+` WHERE p.id = $1`, id))
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (_ *Publication, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.publications.get-by-slug")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.String("slug", slug))

	return scanPublication(r.db.QueryRow(ctx, selectPublication+` WHERE p.slug = $1 AND p.active`, slug))
}

func (r *Repo) Create(ctx context.Context, p *Publication) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.publications.create")
	defer func() { tracing.EndSpan(span, err) }()

	var id int
	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO publications (
			title, slug, excerpt, content_html, author,
			hero_title, hero_subtitle, hero_image_url, hero_cta_label, hero_cta_href,
			category_id, published_at, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		RETURNING id`,
		p.Title, p.Slug, p.Excerpt, p.ContentHTML, p.Author,
		p.HeroTitle, p.HeroSubtitle, p.HeroImageURL, p.HeroCTALabel, p.HeroCTAHref,
		p.CategoryID, p.PublishedAt, p.Active, time.Now(),
	).Scan(&id); err != nil {
		return 0, mapWriteError(err)
	}

	return id, nil
}

func (r *Repo) Update(ctx context.Context, p *Publication) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.publications.update")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("id", p.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE publications SET
			title = $1, slug = $2, excerpt = $3, content_html = $4, author = $5,
			hero_title = $6, hero_subtitle = $7, hero_image_url = $8, hero_cta_label = $9, hero_cta_href = $10,
			category_id = $11, published_at = $12, active = $13, updated_at = $14
		WHERE id = $15`,
		p.Title, p.Slug, p.Excerpt, p.ContentHTML, p.Author,
		p.HeroTitle, p.HeroSubtitle, p.HeroImageURL, p.HeroCTALabel, p.HeroCTAHref,
		p.CategoryID, p.PublishedAt, p.Active, time.Now(),
		p.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.publications.delete")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM publications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repo) CategoryIDByName(ctx context.Context, name string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.categories.id-by-name")
	defer func() { tracing.EndSpan(span, err) }()

	var id int
	if err := r.db.QueryRow(ctx, `SELECT id FROM categories WHERE name = $1`, name).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrCategoryNotFound
		}
		return 0, err
	}

	return id, nil
}

func (r *Repo) ListCategories(ctx context.Context) (_ []*Category, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.categories.list")
	defer func() { tracing.EndSpan(span, err) }()

	rows, err := r.db.Query(
		ctx,
		`SELECT c.id, c.name, COUNT(p.id)
		FROM categories c
		LEFT JOIN publications p ON p.category_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Posts); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *Repo) UpsertCategory(ctx context.Context, name string) (_ *Category, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.categories.upsert")
	defer func() { tracing.EndSpan(span, err) }()

	c := &Category{Name: name}
	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO categories (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		name,
	).Scan(&c.ID); err != nil {
		return nil, err
	}

	return c, nil
}

// DeleteCategory removes the category; its publications stay, with a null
// category.
func (r *Repo) DeleteCategory(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.categories.delete")
	defer func() { tracing.EndSpan(span, err) }()

	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

func mapWriteError(err error) error {
	switch {
	case pkg.IsUniqueViolationError(err):
		return ErrSlugTaken
	case pkg.IsForeignKeyViolationError(err):
		return ErrCategoryNotFound
	default:
		return err
	}
}
