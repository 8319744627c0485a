package kdbweb

import (
	"errors"
	"strings"

	"github.com/kdblegal/kdbweb/pkg"
)

var ErrNotFound = errors.New("entry not found")

// Entry is one node of the KDBWEB knowledge tree. Roots have no parent.
type Entry struct {
	ID                 int     `json:"id,omitempty"`
	Position           int     `json:"position"`
	Slug               string  `json:"slug"`
	ParentSlug         *string `json:"parent_slug"`
	Title              string  `json:"title"`
	CardTitle          string  `json:"card_title"`
	Summary            string  `json:"summary"`
	HeroKicker         string  `json:"hero_kicker"`
	HeroTitle          string  `json:"hero_title"`
	HeroSubtitle       string  `json:"hero_subtitle"`
	HeroImageURL       string  `json:"hero_image_url"`
	HeroPrimaryLabel   string  `json:"hero_primary_label"`
	HeroPrimaryHref    string  `json:"hero_primary_href"`
	HeroSecondaryLabel string  `json:"hero_secondary_label"`
	HeroSecondaryHref  string  `json:"hero_secondary_href"`
	ContentHTML        string  `json:"content_html"`
}

// Card is the projection served by the listing.
type Card struct {
	Position     int     `json:"position"`
	Slug         string  `json:"slug"`
	ParentSlug   *string `json:"parent_slug"`
	Title        string  `json:"title"`
	CardTitle    string  `json:"card_title"`
	Summary      string  `json:"summary"`
	HeroImageURL string  `json:"hero_image_url"`
}

func (e *Entry) Card() Card {
	return Card{
		Position:     e.Position,
		Slug:         e.Slug,
		ParentSlug:   e.ParentSlug,
		Title:        e.Title,
		CardTitle:    e.CardTitle,
		Summary:      e.Summary,
		HeroImageURL: e.HeroImageURL,
	}
}

type ReplaceParams struct {
	Entries []Entry `json:"entries"`
}

// normalizeEntries trims the entries, renumbers positions in payload order
// and checks the batch forms a forest: unique slugs, parents inside the
// batch, no cycles.
func normalizeEntries(entries []Entry, sanitizeHTML func(string) string) ([]*Entry, error) {
	res := make([]*Entry, 0, len(entries))
	bySlug := make(map[string]*Entry, len(entries))

	for i := range entries {
		e := entries[i]
		e.ID = 0
		e.Position = i
		e.Slug = strings.TrimSpace(e.Slug)
		e.Title = strings.TrimSpace(e.Title)
		if e.Slug == "" || e.Title == "" {
			return nil, pkg.NewValidationError("entry %d: slug and title are required", i)
		}
		if _, dup := bySlug[e.Slug]; dup {
			return nil, pkg.NewValidationError("duplicate slug %q", e.Slug)
		}
		if e.ParentSlug != nil {
			parent := strings.TrimSpace(*e.ParentSlug)
			if parent == "" {
				e.ParentSlug = nil
			} else {
				e.ParentSlug = &parent
			}
		}
		e.ContentHTML = sanitizeHTML(e.ContentHTML)

		bySlug[e.Slug] = &e
		res = append(res, &e)
	}

	for _, e := range res {
		if e.ParentSlug == nil {
			continue
		}
		if *e.ParentSlug == e.Slug {
			return nil, pkg.NewValidationError("entry %q cannot be its own parent", e.Slug)
		}
		if _, ok := bySlug[*e.ParentSlug]; !ok {
			return nil, pkg.NewValidationError("entry %q: parent %q not found", e.Slug, *e.ParentSlug)
		}
	}

	for _, e := range res {
		seen := map[string]bool{e.Slug: true}
		for cur := e; cur.ParentSlug != nil; {
			if seen[*cur.ParentSlug] {
				return nil, pkg.NewValidationError("entry %q: parent chain forms a cycle", e.Slug)
			}
			seen[*cur.ParentSlug] = true
			cur = bySlug[*cur.ParentSlug]
		}
	}

	return res, nil
}
