package pages

import (
	"errors"

	"github.com/kdblegal/kdbweb/internal/publications"
)

var ErrUnknownPage = errors.New("page not found")

type HeroSlide struct {
	ID             int    `json:"id,omitempty"`
	Position       int    `json:"position"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	PrimaryLabel   string `json:"primary_label"`
	PrimaryHref    string `json:"primary_href"`
	SecondaryLabel string `json:"secondary_label"`
	SecondaryHref  string `json:"secondary_href"`
	ImageURL       string `json:"image_url"`
}

type Story struct {
	Title      string   `json:"title"`
	Paragraphs []string `json:"paragraphs"`
	HTML       string   `json:"html"`
}

type About struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	ImageURL       string `json:"image_url"`
	PrimaryLabel   string `json:"primary_label"`
	PrimaryHref    string `json:"primary_href"`
	SecondaryLabel string `json:"secondary_label"`
	SecondaryHref  string `json:"secondary_href"`
}

type TeamMember struct {
	ID       int    `json:"id,omitempty"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	ImageURL string `json:"image_url"`
	LinkedIn string `json:"linkedin"`
	MoreURL  string `json:"more_url"`
}

type ServiceItem struct {
	ID          int      `json:"id,omitempty"`
	Position    int      `json:"position"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Bullets     []string `json:"bullets"`
}

// SectionMeta is the heading of the team and services sections.
type SectionMeta struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// Content holds every editable block of a page.
type Content struct {
	Hero         []HeroSlide   `json:"hero"`
	Story        Story         `json:"story"`
	About        About         `json:"about"`
	Team         []TeamMember  `json:"team"`
	TeamMeta     SectionMeta   `json:"team_meta"`
	Services     []ServiceItem `json:"services"`
	ServicesMeta SectionMeta   `json:"services_meta"`

	// Publications is only set for the publicaciones page.
	Publications *[]*publications.Publication `json:"publications,omitempty"`
}

// storyInput accepts the story HTML as html or content_html.
type storyInput struct {
	Title       string   `json:"title"`
	Paragraphs  []string `json:"paragraphs"`
	HTML        string   `json:"html"`
	ContentHTML string   `json:"content_html"`
}

// ContentUpdate is the payload of POST /config/page/{page}. Missing blocks
// are saved empty, the editor always posts the whole page.
type ContentUpdate struct {
	Hero         []HeroSlide   `json:"hero"`
	Story        storyInput    `json:"story"`
	About        About         `json:"about"`
	Team         []TeamMember  `json:"team"`
	TeamMeta     SectionMeta   `json:"team_meta"`
	Services     []ServiceItem `json:"services"`
	ServicesMeta SectionMeta   `json:"services_meta"`
}

// normalized renumbers list positions 0..n-1 in payload order and never
// returns nil slices.
func (u ContentUpdate) normalized(sanitizeHTML func(string) string) *Content {
	c := &Content{
		Hero:         make([]HeroSlide, 0, len(u.Hero)),
		About:        u.About,
		Team:         make([]TeamMember, 0, len(u.Team)),
		TeamMeta:     u.TeamMeta,
		Services:     make([]ServiceItem, 0, len(u.Services)),
		ServicesMeta: u.ServicesMeta,
	}

	for i, slide := range u.Hero {
		slide.ID = 0
		slide.Position = i
		c.Hero = append(c.Hero, slide)
	}
	for i, member := range u.Team {
		member.ID = 0
		member.Position = i
		c.Team = append(c.Team, member)
	}
	for i, item := range u.Services {
		item.ID = 0
		item.Position = i
		if item.Bullets == nil {
			item.Bullets = []string{}
		}
		c.Services = append(c.Services, item)
	}

	html := u.Story.HTML
	if html == "" {
		html = u.Story.ContentHTML
	}
	c.Story = Story{
		Title:      u.Story.Title,
		Paragraphs: u.Story.Paragraphs,
		HTML:       sanitizeHTML(html),
	}
	if c.Story.Paragraphs == nil {
		c.Story.Paragraphs = []string{}
	}

	return c
}
