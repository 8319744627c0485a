package pages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var _ contentStore = (*ContentRepo)(nil)

type ContentRepo struct {
	db *pgxpool.Pool
}

func NewContentRepo(db *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{
		db: db,
	}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *ContentRepo) Content(ctx context.Context, page string) (_ *Content, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.pages.content.get")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.String("page", page))

	c := &Content{}
	if c.Hero, err = heroSlides(ctx, r.db, page); err != nil {
		return nil, fmt.Errorf("hero: %w", err)
	}
	if c.Story, err = story(ctx, r.db, page); err != nil {
		return nil, fmt.Errorf("story: %w", err)
	}
	if c.About, err = about(ctx, r.db, page); err != nil {
		return nil, fmt.Errorf("about: %w", err)
	}
	if c.Team, err = teamMembers(ctx, r.db, page); err != nil {
		return nil, fmt.Errorf("team: %w", err)
	}
	if c.TeamMeta, err = sectionMeta(ctx, r.db, "team_meta", page); err != nil {
		return nil, fmt.Errorf("team meta: %w", err)
	}
	if c.Services, err = serviceItems(ctx, r.db, page); err != nil {
		return nil, fmt.Errorf("services: %w", err)
	}
	if c.ServicesMeta, err = sectionMeta(ctx, r.db, "services_meta", page); err != nil {
		return nil, fmt.Errorf("services meta: %w", err)
	}

	return c, nil
}

// Save replaces every block of the page in one transaction.
func (r *ContentRepo) Save(ctx context.Context, page string, c *Content) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.pages.content.save")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(
		attribute.String("page", page),
		attribute.Int("hero", len(c.Hero)),
		attribute.Int("team", len(c.Team)),
		attribute.Int("services", len(c.Services)),
	)

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

	if _, err := tx.Exec(ctx, `DELETE FROM hero_slides WHERE page = $1`, page); err != nil {
		return fmt.Errorf("clear hero: %w", err)
	}
	for _, s := range c.Hero {
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO hero_slides (
				page, position, title, description, primary_label, primary_href,
				secondary_label, secondary_href, image_url, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
			page, s.Position, s.Title, s.Description, s.PrimaryLabel, s.PrimaryHref,
			s.SecondaryLabel, s.SecondaryHref, s.ImageURL, now,
		); err != nil {
			return fmt.Errorf("insert hero slide %d: %w", s.Position, err)
		}
	}

	paragraphs, err := json.Marshal(c.Story.Paragraphs)
	if err != nil {
		return fmt.Errorf("marshal story paragraphs: %w", err)
	}
	if _, err := tx.Exec(
		ctx,
		`INSERT INTO page_story (page, title, paragraphs, content_html) VALUES ($1, $2, $3, $4)
		ON CONFLICT (page) DO UPDATE SET
			title = EXCLUDED.title, paragraphs = EXCLUDED.paragraphs, content_html = EXCLUDED.content_html`,
		page, c.Story.Title, string(paragraphs), c.Story.HTML,
	); err != nil {
		return fmt.Errorf("save story: %w", err)
	}

	a := c.About
	if _, err := tx.Exec(
		ctx,
		`INSERT INTO page_about (
			page, title, content, image_url, primary_label, primary_href, secondary_label, secondary_href
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (page) DO UPDATE SET
			title = EXCLUDED.title, content = EXCLUDED.content, image_url = EXCLUDED.image_url,
			primary_label = EXCLUDED.primary_label, primary_href = EXCLUDED.primary_href,
			secondary_label = EXCLUDED.secondary_label, secondary_href = EXCLUDED.secondary_href`,
		page, a.Title, a.Content, a.ImageURL, a.PrimaryLabel, a.PrimaryHref, a.SecondaryLabel, a.SecondaryHref,
	); err != nil {
		return fmt.Errorf("save about: %w", err)
	}

	if err := saveSectionMeta(ctx, tx, "team_meta", page, c.TeamMeta); err != nil {
		return fmt.Errorf("save team meta: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM team_members WHERE page = $1`, page); err != nil {
		return fmt.Errorf("clear team: %w", err)
	}
	for _, m := range c.Team {
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO team_members (page, position, name, role, image_url, linkedin, more_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			page, m.Position, m.Name, m.Role, m.ImageURL, m.LinkedIn, m.MoreURL,
		); err != nil {
			return fmt.Errorf("insert team member %d: %w", m.Position, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM services_items WHERE page = $1`, page); err != nil {
		return fmt.Errorf("clear services: %w", err)
	}
	for _, s := range c.Services {
		bullets, err := json.Marshal(s.Bullets)
		if err != nil {
			return fmt.Errorf("marshal service bullets: %w", err)
		}
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO services_items (page, position, title, description, bullets)
			VALUES ($1, $2, $3, $4, $5)`,
			page, s.Position, s.Title, s.Description, string(bullets),
		); err != nil {
			return fmt.Errorf("insert service %d: %w", s.Position, err)
		}
	}
	if err := saveSectionMeta(ctx, tx, "services_meta", page, c.ServicesMeta); err != nil {
		return fmt.Errorf("save services meta: %w", err)
	}

	return nil
}

func heroSlides(ctx context.Context, q querier, page string) ([]HeroSlide, error) {
	rows, err := q.Query(
		ctx,
		`SELECT id, position, title, description, primary_label, primary_href,
			secondary_label, secondary_href, image_url
		FROM hero_slides WHERE page = $1 ORDER BY position`,
		page,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slides := []HeroSlide{}
	for rows.Next() {
		var s HeroSlide
		if err := rows.Scan(
			&s.ID, &s.Position, &s.Title, &s.Description, &s.PrimaryLabel, &s.PrimaryHref,
			&s.SecondaryLabel, &s.SecondaryHref, &s.ImageURL,
		); err != nil {
			return nil, err
		}
		slides = append(slides, s)
	}
	return slides, rows.Err()
}

func story(ctx context.Context, q querier, page string) (Story, error) {
	s := Story{Paragraphs: []string{}}
	var paragraphs []byte
	err := q.QueryRow(
		ctx,
		`SELECT title, paragraphs, content_html FROM page_story WHERE page = $1`,
		page,
	).Scan(&s.Title, &paragraphs, &s.HTML)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(paragraphs, &s.Paragraphs); err != nil || s.Paragraphs == nil {
		s.Paragraphs = []string{}
	}
	return s, nil
}

func about(ctx context.Context, q querier, page string) (About, error) {
	var a About
	err := q.QueryRow(
		ctx,
		`SELECT title, content, image_url, primary_label, primary_href, secondary_label, secondary_href
		FROM page_about WHERE page = $1`,
		page,
	).Scan(&a.Title, &a.Content, &a.ImageURL, &a.PrimaryLabel, &a.PrimaryHref, &a.SecondaryLabel, &a.SecondaryHref)
	if errors.Is(err, pgx.ErrNoRows) {
		return About{}, nil
	}
	return a, err
}

func teamMembers(ctx context.Context, q querier, page string) ([]TeamMember, error) {
	rows, err := q.Query(
		ctx,
		`SELECT id, position, name, role, image_url, linkedin, more_url
		FROM team_members WHERE page = $1 ORDER BY position`,
		page,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []TeamMember{}
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.ID, &m.Position, &m.Name, &m.Role, &m.ImageURL, &m.LinkedIn, &m.MoreURL); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func serviceItems(ctx context.Context, q querier, page string) ([]ServiceItem, error) {
	rows, err := q.Query(
		ctx,
		`SELECT id, position, title, description, bullets
		FROM services_items WHERE page = $1 ORDER BY position`,
		page,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []ServiceItem{}
	for rows.Next() {
		var s ServiceItem
		var bullets []byte
		if err := rows.Scan(&s.ID, &s.Position, &s.Title, &s.Description, &bullets); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(bullets, &s.Bullets); err != nil || s.Bullets == nil {
			s.Bullets = []string{}
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// table is one of the two meta tables, never user input.
func sectionMeta(ctx context.Context, q querier, table, page string) (SectionMeta, error) {
	var m SectionMeta
	err := q.QueryRow(ctx, `SELECT title, subtitle FROM `+table+` WHERE page = $1`, page).Scan(&m.Title, &m.Subtitle)
	if errors.Is(err, pgx.ErrNoRows) {
		return SectionMeta{}, nil
	}
	return m, err
}

func saveSectionMeta(ctx context.Context, tx pgx.Tx, table, page string, m SectionMeta) error {
	_, err := tx.Exec(
		ctx,
		`INSERT INTO `+table+` (page, title, subtitle) VALUES ($1, $2, $3)
		ON CONFLICT (page) DO UPDATE SET title = EXCLUDED.title, subtitle = EXCLUDED.subtitle`,
		page, m.Title, m.Subtitle,
	)
	return err
}
