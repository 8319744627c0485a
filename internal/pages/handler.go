package pages

import (
	"errors"
	"net/http"

	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"
	"github.com/kdblegal/kdbweb/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

type visibilityPayload struct {
	Pages map[string]bool `json:"pages"`
}

type visibilityUpdate struct {
	Pages map[string]pkg.FlexBool `json:"pages"`
}

// SetupRoutes registers the page content and visibility routes. pageGate
// must read the page from the {page} path variable; cached wraps the
// ungated public read.
func (h *Handler) SetupRoutes(router *mux.Router, adminOnly, pageGate, cached mux.MiddlewareFunc) {
	router.Handle("/api/page/{page}", pageGate(http.HandlerFunc(h.HandleGetContent))).Methods("GET", "OPTIONS").Name("page-content")
	router.Handle("/api/pages", cached(http.HandlerFunc(h.HandleGetVisibility))).Methods("GET", "OPTIONS").Name("pages-visibility")

	router.Handle("/config/page/{page}", adminOnly(http.HandlerFunc(h.HandleGetContent))).Methods("GET", "OPTIONS").Name("config-page-get")
	router.Handle("/config/page/{page}", adminOnly(http.HandlerFunc(h.HandleSaveContent))).Methods("POST").Name("config-page-save")
	router.Handle("/config/pages", adminOnly(http.HandlerFunc(h.HandleGetVisibility))).Methods("GET", "OPTIONS").Name("config-pages-get")
	router.Handle("/config/pages", adminOnly(http.HandlerFunc(h.HandleSaveVisibility))).Methods("POST").Name("config-pages-save")
}

func (h *Handler) HandleGetContent(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.pages.content.get")
	defer span.End()

	page := mux.Vars(r)["page"]
	span.SetAttributes(attribute.String("page", page))

	content, err := h.service.Content(ctx, page)
	if err != nil {
		writeError(w, "get page content", err)
		return
	}
	pkg.WriteJSONOK(w, content)
}

func (h *Handler) HandleSaveContent(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.pages.content.save")
	defer span.End()

	page := mux.Vars(r)["page"]
	span.SetAttributes(attribute.String("page", page))
	if !IsContentPage(page) {
		writeError(w, "save page content", ErrUnknownPage)
		return
	}

	var update ContentUpdate
	if err := pkg.DecodeJSONBody(r, &update); err != nil {
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.SaveContent(ctx, page, update); err != nil {
		writeError(w, "save page content", err)
		return
	}

	log.Printf("page [%s] content updated: hero %d, team %d, services %d", page, len(update.Hero), len(update.Team), len(update.Services))
	pkg.WriteMessage(w, http.StatusOK, "page content updated")
}

func (h *Handler) HandleGetVisibility(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.pages.visibility.get")
	defer span.End()

	flags, err := h.service.Visibility(ctx)
	if err != nil {
		writeError(w, "get pages visibility", err)
		return
	}
	pkg.WriteJSONOK(w, visibilityPayload{Pages: flags})
}

func (h *Handler) HandleSaveVisibility(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.pages.visibility.save")
	defer span.End()

	var payload visibilityUpdate
	if err := pkg.DecodeJSONBody(r, &payload); err != nil {
		pkg.WriteError(w, http.StatusBadRequest, "invalid format, pages must be an object")
		return
	}

	flags := make(map[string]bool, len(payload.Pages))
	for page, enabled := range payload.Pages {
		flags[page] = bool(enabled)
	}
	if err := h.service.SaveVisibility(ctx, flags); err != nil {
		writeError(w, "save pages visibility", err)
		return
	}
	pkg.WriteMessage(w, http.StatusOK, "visibility updated")
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case pkg.IsValidationError(err):
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnknownPage):
		pkg.WriteError(w, http.StatusNotFound, "page not found")
	default:
		log.Errorf("pages handler, %s: %s", op, err)
		pkg.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
