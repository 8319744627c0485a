package pages

import (
	"context"
	"fmt"

	"github.com/kdblegal/kdbweb/internal/publications"
	"github.com/kdblegal/kdbweb/internal/sanitize"
)

type settingsStore interface {
	All(ctx context.Context) (map[string]bool, error)
	Enabled(ctx context.Context, page string) (bool, error)
	Save(ctx context.Context, flags map[string]bool) error
}

type contentStore interface {
	Content(ctx context.Context, page string) (*Content, error)
	Save(ctx context.Context, page string, c *Content) error
}

type publicationsLister interface {
	List(ctx context.Context, activeOnly bool) ([]*publications.Publication, error)
}

type Service struct {
	content      contentStore
	settings     settingsStore
	publications publicationsLister
	policy       *sanitize.Policy
}

func NewService(
	content contentStore,
	settings settingsStore,
	publications publicationsLister,
	policy *sanitize.Policy,
) *Service {
	return &Service{
		content:      content,
		settings:     settings,
		publications: publications,
		policy:       policy,
	}
}

// Content returns the blocks of a content page; publicaciones also carries
// its active publications.
func (s *Service) Content(ctx context.Context, page string) (*Content, error) {
	if !IsContentPage(page) {
		return nil, ErrUnknownPage
	}

	c, err := s.content.Content(ctx, page)
	if err != nil {
		return nil, err
	}

	if page == Publicaciones {
		list, err := s.publications.List(ctx, true)
		if err != nil {
			return nil, fmt.Errorf("list publications: %w", err)
		}
		if list == nil {
			list = []*publications.Publication{}
		}
		c.Publications = &list
	}

	return c, nil
}

func (s *Service) SaveContent(ctx context.Context, page string, update ContentUpdate) error {
	if !IsContentPage(page) {
		return ErrUnknownPage
	}
	return s.content.Save(ctx, page, update.normalized(s.policy.HTML))
}

// Visibility returns the flag of every known page, missing ones enabled.
func (s *Service) Visibility(ctx context.Context) (map[string]bool, error) {
	stored, err := s.settings.All(ctx)
	if err != nil {
		return nil, err
	}

	flags := make(map[string]bool, len(Keys))
	for _, page := range Keys {
		enabled, found := stored[page]
		flags[page] = !found || enabled
	}
	return flags, nil
}

// SaveVisibility stores the flags of known pages, others are ignored.
func (s *Service) SaveVisibility(ctx context.Context, flags map[string]bool) error {
	known := make(map[string]bool, len(flags))
	for page, enabled := range flags {
		if IsKnown(page) {
			known[page] = enabled
		}
	}
	if len(known) == 0 {
		return nil
	}
	return s.settings.Save(ctx, known)
}
