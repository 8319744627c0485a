package publications

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/kdblegal/kdbweb/pkg"
)

const dateLayout = "2006-01-02"

var (
	ErrNotFound         = errors.New("publication not found")
	ErrSlugTaken        = errors.New("slug already exists")
	ErrCategoryNotFound = errors.New("category not found")
)

type Publication struct {
	ID           int        `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Excerpt      string     `json:"excerpt"`
	ContentHTML  string     `json:"content_html"`
	Author       string     `json:"author"`
	HeroTitle    string     `json:"hero_title"`
	HeroSubtitle string     `json:"hero_subtitle"`
	HeroImageURL string     `json:"hero_image_url"`
	HeroCTALabel string     `json:"hero_cta_label"`
	HeroCTAHref  string     `json:"hero_cta_href"`
	CategoryID   *int       `json:"category_id"`
	Category     *string    `json:"category"`
	PublishedAt  *time.Time `json:"-"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// publicationJSON renders published_at as a plain date.
type publicationJSON struct {
	*publicationAlias
	PublishedAt *string `json:"published_at"`
}

type publicationAlias Publication

func (p *Publication) MarshalJSON() ([]byte, error) {
	var publishedAt *string
	if p.PublishedAt != nil {
		d := p.PublishedAt.Format(dateLayout)
		publishedAt = &d
	}
	return json.Marshal(publicationJSON{
		publicationAlias: (*publicationAlias)(p),
		PublishedAt:      publishedAt,
	})
}

type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Posts int    `json:"posts"`
}

// SaveParams is the payload of a publication create or update. The editor
// posts the body either as content_html or html, and the category either by
// id or by name.
type SaveParams struct {
	Title        string        `json:"title"`
	Slug         string        `json:"slug"`
	ContentHTML  string        `json:"content_html"`
	HTML         string        `json:"html"`
	Author       string        `json:"author"`
	HeroTitle    string        `json:"hero_title"`
	HeroSubtitle string        `json:"hero_subtitle"`
	HeroImageURL string        `json:"hero_image_url"`
	HeroCTALabel string        `json:"hero_cta_label"`
	HeroCTAHref  string        `json:"hero_cta_href"`
	CategoryID   pkg.FlexInt   `json:"category_id"`
	Category     string        `json:"category"`
	PublishedAt  string        `json:"published_at"`
	Active       *pkg.FlexBool `json:"active"`
}

func (p SaveParams) content() string {
	if p.ContentHTML != "" {
		return p.ContentHTML
	}
	return p.HTML
}

// parsePublishedAt accepts full timestamps or plain dates and keeps only
// the date part. An empty value means today.
func parsePublishedAt(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", dateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, pkg.NewValidationError("published_at must be a date in YYYY-MM-DD format")
}

type CategoryParams struct {
	Name string `json:"name"`
}
