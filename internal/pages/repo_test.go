//go:build integration_test || all_tests

package pages

import (
	"context"
	"testing"

	testingpkg "github.com/kdblegal/kdbweb/pkg/testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentRepo_SaveReplacesBlocks(t *testing.T) {
	db := testingpkg.GetPostgresPool(t)
	repo := NewContentRepo(db)
	ctx := context.Background()
	page := Terminos

	first := ContentUpdate{
		Hero: []HeroSlide{{Title: gofakeit.Sentence(3)}, {Title: gofakeit.Sentence(3)}, {Title: gofakeit.Sentence(3)}},
		Story: storyInput{
			Title:      "Términos",
			Paragraphs: []string{gofakeit.Sentence(5), gofakeit.Sentence(5)},
			HTML:       "<p>legal</p>",
		},
		About:    About{Title: "Sobre", Content: gofakeit.Paragraph(1, 2, 6, " ")},
		Team:     []TeamMember{{Name: gofakeit.Name(), Role: "Socio"}},
		TeamMeta: SectionMeta{Title: "Equipo", Subtitle: "Abogados"},
		Services: []ServiceItem{{Title: "Laboral", Bullets: []string{"contratos", "despidos"}}},
	}
	require.NoError(t, repo.Save(ctx, page, first.normalized(func(s string) string { return s })))

	c, err := repo.Content(ctx, page)
	require.NoError(t, err)
	require.Len(t, c.Hero, 3)
	for i, slide := range c.Hero {
		assert.Equal(t, i, slide.Position)
		assert.Equal(t, first.Hero[i].Title, slide.Title)
	}
	assert.Equal(t, first.Story.Paragraphs, c.Story.Paragraphs)
	assert.Equal(t, "<p>legal</p>", c.Story.HTML)
	assert.Equal(t, first.About.Content, c.About.Content)
	assert.Equal(t, "Abogados", c.TeamMeta.Subtitle)
	assert.Equal(t, []string{"contratos", "despidos"}, c.Services[0].Bullets)

	// shrinking lists must not collide on (page, position)
	second := ContentUpdate{Hero: []HeroSlide{{Title: "solo"}}}
	require.NoError(t, repo.Save(ctx, page, second.normalized(func(s string) string { return s })))

	c, err = repo.Content(ctx, page)
	require.NoError(t, err)
	require.Len(t, c.Hero, 1)
	assert.Equal(t, "solo", c.Hero[0].Title)
	assert.Empty(t, c.Team)
	assert.Empty(t, c.Services)
	assert.Equal(t, []string{}, c.Story.Paragraphs)
	assert.Equal(t, About{}, c.About)
}

func TestContentRepo_EmptyPage(t *testing.T) {
	repo := NewContentRepo(testingpkg.GetPostgresPool(t))
	ctx := context.Background()

	_, err := repo.db.Exec(ctx, `DELETE FROM hero_slides WHERE page = $1`, Cookies)
	require.NoError(t, err)
	_, err = repo.db.Exec(ctx, `DELETE FROM page_story WHERE page = $1`, Cookies)
	require.NoError(t, err)

	c, err := repo.Content(ctx, Cookies)
	require.NoError(t, err)
	assert.NotNil(t, c.Hero)
	assert.Empty(t, c.Hero)
	assert.Equal(t, []string{}, c.Story.Paragraphs)
}

func TestSettingsRepo(t *testing.T) {
	repo := NewSettingsRepo(testingpkg.GetPostgresPool(t))
	ctx := context.Background()
	_, err := repo.db.Exec(ctx, `DELETE FROM page_settings`)
	require.NoError(t, err)

	enabled, err := repo.Enabled(ctx, KDBWeb)
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, repo.Save(ctx, map[string]bool{KDBWeb: false, Home: true}))
	enabled, err = repo.Enabled(ctx, KDBWeb)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, repo.Save(ctx, map[string]bool{KDBWeb: true}))
	flags, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{KDBWeb: true, Home: true}, flags)
}
