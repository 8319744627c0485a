package publications

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kdblegal/kdbweb/internal/sanitize"
	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"
	"github.com/kdblegal/kdbweb/pkg"

	"go.opentelemetry.io/otel/attribute"
)

type publicationsRepo interface {
	List(ctx context.Context, activeOnly bool) ([]*Publication, error)
	Get(ctx context.Context, id int) (*Publication, error)
	GetBySlug(ctx context.Context, slug string) (*Publication, error)
	Create(ctx context.Context, p *Publication) (int, error)
	Update(ctx context.Context, p *Publication) error
	Delete(ctx context.Context, id int) error

	CategoryIDByName(ctx context.Context, name string) (int, error)
	ListCategories(ctx context.Context) ([]*Category, error)
	UpsertCategory(ctx context.Context, name string) (*Category, error)
	DeleteCategory(ctx context.Context, id int) error
}

type Service struct {
	repo   publicationsRepo
	policy *sanitize.Policy

	Now func() time.Time
}

func NewService(repo publicationsRepo, policy *sanitize.Policy) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
		Now:    time.Now,
	}
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*Publication, error) {
	publications, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if publications == nil {
		publications = []*Publication{}
	}
	return publications, nil
}

func (s *Service) Get(ctx context.Context, id int) (*Publication, error) {
	return s.repo.Get(ctx, id)
}

// GetBySlug only finds active publications.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Publication, error) {
	return s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
}

func (s *Service) Create(ctx context.Context, params SaveParams) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.publications.create")
	defer func() { tracing.EndSpan(span, err) }()

	p, err := s.normalize(ctx, params)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return 0, saveError(err)
	}
	return id, nil
}

func (s *Service) Update(ctx context.Context, id int, params SaveParams) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.publications.update")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("id", id))

	p, err := s.normalize(ctx, params)
	if err != nil {
		return err
	}
	p.ID = id

	return saveError(s.repo.Update(ctx, p))
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Categories(ctx context.Context) ([]*Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []*Category{}
	}
	return categories, nil
}

// SaveCategory creates the category, or returns the existing one with the
// same name.
func (s *Service) SaveCategory(ctx context.Context, params CategoryParams) (*Category, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, pkg.NewValidationError("category name is required")
	}
	return s.repo.UpsertCategory(ctx, name)
}

func (s *Service) DeleteCategory(ctx context.Context, id int) error {
	return s.repo.DeleteCategory(ctx, id)
}

func (s *Service) normalize(ctx context.Context, params SaveParams) (*Publication, error) {
	p := &Publication{
		Title:        strings.TrimSpace(params.Title),
		Slug:         strings.TrimSpace(params.Slug),
		Author:       strings.TrimSpace(params.Author),
		HeroTitle:    strings.TrimSpace(params.HeroTitle),
		HeroSubtitle: strings.TrimSpace(params.HeroSubtitle),
		HeroImageURL: strings.TrimSpace(params.HeroImageURL),
		HeroCTALabel: strings.TrimSpace(params.HeroCTALabel),
		HeroCTAHref:  strings.TrimSpace(params.HeroCTAHref),
		Active:       true,
	}
	if p.Title == "" || p.Slug == "" {
		return nil, pkg.NewValidationError("title and slug are required")
	}

	// older content arrives entity-escaped more than once
	p.ContentHTML = s.policy.EditorHTML(params.content())

	categoryID := int(params.CategoryID)
	if categoryID <= 0 && strings.TrimSpace(params.Category) != "" {
		id, err := s.repo.CategoryIDByName(ctx, strings.TrimSpace(params.Category))
		if err != nil && !errors.Is(err, ErrCategoryNotFound) {
			return nil, err
		}
		categoryID = id
	}
	if categoryID <= 0 {
		return nil, pkg.NewValidationError("category is required for a publication")
	}
	p.CategoryID = &categoryID

	publishedAt, err := parsePublishedAt(params.PublishedAt, s.Now())
	if err != nil {
		return nil, err
	}
	p.PublishedAt = &publishedAt

	if params.Active != nil {
		p.Active = bool(*params.Active)
	}

	return p, nil
}

func saveError(err error) error {
	if errors.Is(err, ErrCategoryNotFound) {
		return pkg.NewValidationError("category not found")
	}
	return err
}
