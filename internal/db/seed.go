package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kdblegal/kdbweb/internal/pages"

	"github.com/jackc/pgx/v5"
)

const defaultCategory = "General"

type seedSlide struct {
	title, description                    string
	primaryLabel, primaryHref             string
	secondaryLabel, secondaryHref, imgURL string
}

type seedService struct {
	title, description string
	bullets            []string
}

type seedPublication struct {
	title, slug, excerpt, contentHTML, category string
}

type seedKDBWebEntry struct {
	slug, parentSlug, title, summary, imageURL, contentHTML string
}

var seedServiciosHero = []seedSlide{
	{
		title:          "Soluciones legales a la medida",
		description:    "Servicios especializados en tributación y corporativo para proteger y escalar tu negocio.",
		primaryLabel:   "Explora servicios",
		primaryHref:    "#servicios",
		secondaryLabel: "Agenda una llamada",
		secondaryHref:  "#contacto",
		imgURL:         "https://images.unsplash.com/photo-1489515217757-5fd1be406fef?auto=format&fit=crop&w=1600&q=80",
	},
	{
		title:          "Rigor, anticipación y cercanía",
		description:    "Convertimos la regulación en ventaja competitiva con estrategias claras y accionables.",
		primaryLabel:   "Ver casos de éxito",
		primaryHref:    "#casos",
		secondaryLabel: "Habla con un especialista",
		secondaryHref:  "#contacto",
		imgURL:         "https://images.unsplash.com/photo-1497366754035-f200968a6e72?auto=format&fit=crop&w=1600&q=80",
	},
}

var seedServices = []seedService{
	{
		title:       "Planeamiento tributario",
		description: "Estrategias fiscales eficientes, alineadas con tu negocio.",
		bullets: []string{
			"Revisión de riesgos y contingencias",
			"Optimización de cargas impositivas",
			"Implementación de incentivos y beneficios",
		},
	},
	{
		title:       "Defensa y controversias",
		description: "Representación estratégica ante SUNAT y foros judiciales.",
		bullets: []string{
			"Fiscalizaciones y reclamaciones",
			"Apelaciones y litigios tributarios",
			"Estrategia probatoria y acuerdos",
		},
	},
}

var seedCategories = []string{defaultCategory, "Análisis", "Eventos"}

var seedPublications = []seedPublication{
	{
		title:       "Lanzamiento de nuevos servicios",
		slug:        "lanzamiento-nuevos-servicios",
		excerpt:     "Presentamos nuevas soluciones en tributación para pymes.",
		contentHTML: "<p>Contenido de ejemplo sobre el lanzamiento de nuevos servicios.</p>",
		category:    "General",
	},
	{
		title:       "Guía práctica de planeamiento tributario 2026",
		slug:        "guia-planeamiento-2026",
		excerpt:     "Puntos clave y checklist para optimizar la carga fiscal.",
		contentHTML: "<p>Un resumen con pasos prácticos para equipos financieros.</p>",
		category:    "Análisis",
	},
	{
		title:       "Cómo preparar tu empresa para una fiscalización",
		slug:        "preparar-empresa-fiscalizacion",
		excerpt:     "Recomendaciones y documentación esencial antes de una fiscalización.",
		contentHTML: "<p>Consejos prácticos y listados de control para estar listos ante auditorías.</p>",
		category:    "General",
	},
	{
		title:       "Evento: Seminario sobre compliance 2026",
		slug:        "evento-seminario-compliance-2026",
		excerpt:     "Regístrate en nuestro seminario enfocado en compliance y gobernanza.",
		contentHTML: "<p>Detalles del evento, agenda y ponentes.</p>",
		category:    "Eventos",
	},
	{
		title:       "Caso de estudio: optimización fiscal",
		slug:        "caso-estudio-optimizacion-fiscal",
		excerpt:     "Cómo un cliente redujo riesgo y mejoró su planificación tributaria.",
		contentHTML: "<p>Descripción del problema, solución y resultados cuantificables.</p>",
		category:    "Análisis",
	},
}

var seedKDBWeb = []seedKDBWebEntry{
	{
		slug:        "doctrina",
		title:       "Doctrina",
		summary:     "Analisis y comentarios doctrinales sobre temas tributarios y aduaneros.",
		imageURL:    "https://images.unsplash.com/photo-1521791136064-7986c2920216?auto=format&fit=crop&w=1600&q=80",
		contentHTML: "<p>Contenido doctrinal curado por el equipo de KDB Legal &amp; Tributario.</p>",
	},
	{
		slug:        "jurisprudencia",
		title:       "Jurisprudencia",
		summary:     "Sentencias, resoluciones y criterios relevantes para la practica tributaria.",
		imageURL:    "https://images.unsplash.com/photo-1497366754035-f200968a6e72?auto=format&fit=crop&w=1600&q=80",
		contentHTML: "<p>Seleccion de jurisprudencia clave para decisiones informadas.</p>",
	},
	{
		slug:        "legislacion-tributaria-aduanera",
		title:       "Legislacion tributaria y aduanera",
		summary:     "Normas, decretos y actualizaciones en materia tributaria y aduanera.",
		imageURL:    "https://images.unsplash.com/photo-1489515217757-5fd1be406fef?auto=format&fit=crop&w=1600&q=80",
		contentHTML: "<p>Compendio de normas y cambios relevantes para cumplimiento y estrategia.</p>",
	},
	{
		slug:        "tratados-internacionales",
		title:       "Tratados internacionales",
		summary:     "Convenios y tratados aplicables a operaciones internacionales.",
		imageURL:    "https://images.unsplash.com/photo-1520607162513-77705c0f0d4a?auto=format&fit=crop&w=1600&q=80",
		contentHTML: "<p>Guia sobre tratados y su impacto en transacciones transfronterizas.</p>",
	},
	{
		slug:        "constitucion",
		title:       "Constitucion",
		summary:     "Principios constitucionales y su aplicacion en materia tributaria.",
		imageURL:    "https://images.unsplash.com/photo-1522202176988-66273c2fd55f?auto=format&fit=crop&w=1600&q=80",
		contentHTML: "<p>Marco constitucional que sostiene el sistema tributario.</p>",
	},
	{
		slug:        "tribunal-fiscal",
		parentSlug:  "jurisprudencia",
		title:       "Tribunal Fiscal",
		summary:     "Resoluciones y criterios del Tribunal Fiscal para casos tributarios.",
		imageURL:    "https://images.unsplash.com/photo-1507679799987-c73779587ccf?auto=format&fit=crop&w=1600&q=80",
		contentHTML: "<p>Repositorio de resoluciones clave emitidas por el Tribunal Fiscal.</p>",
	},
	{
		slug:        "casaciones-de-la-corte-suprema",
		parentSlug:  "jurisprudencia",
		title:       "Casaciones de la corte suprema",
		summary:     "Criterios y precedentes de la Corte Suprema en materia tributaria.",
		imageURL:    "https://images.unsplash.com/photo-1498050108023-c5249f4df085?auto=format&fit=crop&w=1600&q=80",
		contentHTML: "<p>Compilacion de casaciones relevantes para la practica tributaria.</p>",
	},
	{
		slug:        "sentencias-del-tc",
		parentSlug:  "jurisprudencia",
		title:       "Sentencias del TC",
		summary:     "Pronunciamientos del Tribunal Constitucional con impacto tributario.",
		imageURL:    "https://images.unsplash.com/photo-1521790367000-9662a79b43c5?auto=format&fit=crop&w=1600&q=80",
		contentHTML: "<p>Sentencias del Tribunal Constitucional organizadas por materia.</p>",
	},
	{
		slug:        "resoluciones",
		parentSlug:  "tribunal-fiscal",
		title:       "Resoluciones",
		summary:     "Resoluciones del Tribunal Fiscal clasificadas por tema.",
		imageURL:    "https://images.unsplash.com/photo-1450101499163-c8848c66ca85?auto=format&fit=crop&w=1600&q=80",
		contentHTML: "<p>Explora resoluciones relevantes para tus procesos tributarios.</p>",
	},
	{
		slug:        "boletinas",
		parentSlug:  "tribunal-fiscal",
		title:       "Boletinas",
		summary:     "Boletinas y reportes informativos del Tribunal Fiscal.",
		imageURL:    "https://images.unsplash.com/photo-1454165804606-c3d57bc86b40?auto=format&fit=crop&w=1600&q=80",
		contentHTML: "<p>Boletinas y comunicados con actualizaciones del Tribunal Fiscal.</p>",
	},
}

// seed inserts default content that is missing. Existing rows are never
// overwritten.
func seed(ctx context.Context, tx pgx.Tx) error {
	steps := []struct {
		name string
		fn   func(context.Context, pgx.Tx) error
	}{
		{"company", seedCompany},
		{"page settings", seedPageSettings},
		{"servicios content", seedServiciosContent},
		{"categories", seedCategoriesAndPublications},
		{"kdbweb", seedKDBWebEntries},
	}
	for _, step := range steps {
		if err := step.fn(ctx, tx); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

func seedCompany(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO company_info (id, name, tagline, phone, email, address, linkedin, facebook, instagram)
		VALUES (1, $1, $2, $3, $4, $5, '#', '#', '#')
		ON CONFLICT (id) DO NOTHING
	`,
		"KDB Legal & Tributario",
		"Estrategia legal y tributaria a tu medida",
		"+51 999 888 777",
		"contacto@kdblegal.pe",
		"Av. Los Abogados 123, Lima, Perú",
	)
	return err
}

func seedPageSettings(ctx context.Context, tx pgx.Tx) error {
	for _, page := range pages.Keys {
		if _, err := tx.Exec(ctx, `
			INSERT INTO page_settings (page, enabled) VALUES ($1, TRUE)
			ON CONFLICT (page) DO NOTHING
		`, page); err != nil {
			return err
		}
	}
	return nil
}

func countWhere(ctx context.Context, tx pgx.Tx, query string, args ...any) (int, error) {
	var c int
	err := tx.QueryRow(ctx, query, args...).Scan(&c)
	return c, err
}

func seedServiciosContent(ctx context.Context, tx pgx.Tx) error {
	heroCount, err := countWhere(ctx, tx, `SELECT COUNT(*) FROM hero_slides WHERE page = $1`, pages.Servicios)
	if err != nil {
		return err
	}
	if heroCount == 0 {
		for i, s := range seedServiciosHero {
			if _, err := tx.Exec(ctx, `
				INSERT INTO hero_slides (page, position, title, description, primary_label, primary_href, secondary_label, secondary_href, image_url)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, pages.Servicios, i, s.title, s.description, s.primaryLabel, s.primaryHref, s.secondaryLabel, s.secondaryHref, s.imgURL); err != nil {
				return err
			}
		}
	}

	servicesCount, err := countWhere(ctx, tx, `SELECT COUNT(*) FROM services_items WHERE page = $1`, pages.Servicios)
	if err != nil {
		return err
	}
	if servicesCount == 0 {
		for i, s := range seedServices {
			bullets, err := json.Marshal(s.bullets)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO services_items (page, position, title, description, bullets)
				VALUES ($1, $2, $3, $4, $5)
			`, pages.Servicios, i, s.title, s.description, bullets); err != nil {
				return err
			}
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO services_meta (page, title, subtitle) VALUES ($1, $2, $3)
		ON CONFLICT (page) DO NOTHING
	`,
		pages.Servicios,
		"Servicios especializados",
		"Soluciones integrales en tributación y corporativo para cada etapa de tu negocio.",
	)
	return err
}

func seedCategoriesAndPublications(ctx context.Context, tx pgx.Tx) error {
	for _, name := range seedCategories {
		if _, err := tx.Exec(ctx, `INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return err
		}
	}

	today := time.Now().UTC().Format(time.DateOnly)
	for _, p := range seedPublications {
		if _, err := tx.Exec(ctx, `
			INSERT INTO publications (title, slug, excerpt, content_html, category_id, published_at)
			VALUES ($1, $2, $3, $4, (SELECT id FROM categories WHERE name = $5), $6::date)
			ON CONFLICT (slug) DO NOTHING
		`, p.title, p.slug, p.excerpt, p.contentHTML, p.category, today); err != nil {
			return err
		}
	}

	// publications without a category fall back to the default one
	_, err := tx.Exec(ctx, `
		UPDATE publications
		SET category_id = (SELECT id FROM categories WHERE name = $1)
		WHERE category_id IS NULL
	`, defaultCategory)
	return err
}

func seedKDBWebEntries(ctx context.Context, tx pgx.Tx) error {
	var maxPos *int
	if err := tx.QueryRow(ctx, `SELECT MAX(position) FROM kdbweb_entries`).Scan(&maxPos); err != nil {
		return err
	}

	// an empty table gets the defaults in their own order, otherwise the
	// missing ones are appended after the existing entries
	next := 0
	if maxPos != nil {
		next = *maxPos + 1
	}

	for _, e := range seedKDBWeb {
		var parent *string
		if e.parentSlug != "" {
			parent = &e.parentSlug
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO kdbweb_entries (
				position, slug, parent_slug, title, card_title, summary,
				hero_kicker, hero_title, hero_subtitle, hero_image_url, content_html
			)
			VALUES ($1, $2, $3, $4, $4, $5, 'KDBWEB', $4, $5, $6, $7)
			ON CONFLICT (slug) DO NOTHING
		`, next, e.slug, parent, e.title, e.summary, e.imageURL, e.contentHTML)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			next++
		}
	}
	return nil
}
