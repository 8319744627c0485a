package publications

import (
	"context"
	"errors"
	"net/http"

	"github.com/kdblegal/kdbweb/internal/auth"
	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"
	"github.com/kdblegal/kdbweb/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Admin, error)
}

type Handler struct {
	service       *Service
	authenticator authenticator
}

func NewHandler(service *Service, authenticator authenticator) *Handler {
	return &Handler{
		service:       service,
		authenticator: authenticator,
	}
}

type idResponse struct {
	ID int `json:"id"`
}

// SetupRoutes registers publications and categories routes. pageGate hides
// the public reads while the publicaciones page is disabled.
func (h *Handler) SetupRoutes(router *mux.Router, adminOnly, pageGate mux.MiddlewareFunc) {
	router.Handle("/api/publications", pageGate(http.HandlerFunc(h.HandleList))).Methods("GET", "OPTIONS").Name("publications-list")
	router.Handle("/api/publications", adminOnly(http.HandlerFunc(h.HandleCreate))).Methods("POST").Name("publications-create")
	router.Handle("/api/publications/slug/{slug}", pageGate(http.HandlerFunc(h.HandleGetBySlug))).Methods("GET", "OPTIONS").Name("publications-get-by-slug")
	router.Handle("/api/publications/{id:[0-9]+}", pageGate(http.HandlerFunc(h.HandleGet))).Methods("GET", "OPTIONS").Name("publications-get")
	router.Handle("/api/publications/{id:[0-9]+}", adminOnly(http.HandlerFunc(h.HandleUpdate))).Methods("PUT").Name("publications-update")
	router.Handle("/api/publications/{id:[0-9]+}", adminOnly(http.HandlerFunc(h.HandleDelete))).Methods("DELETE").Name("publications-delete")

	router.Handle("/api/categories", pageGate(http.HandlerFunc(h.HandleListCategories))).Methods("GET", "OPTIONS").Name("categories-list")
	router.Handle("/api/categories", adminOnly(http.HandlerFunc(h.HandleSaveCategory))).Methods("POST").Name("categories-save")
	router.Handle("/api/categories/{id:[0-9]+}", adminOnly(http.HandlerFunc(h.HandleDeleteCategory))).Methods("DELETE", "OPTIONS").Name("categories-delete")
}

// HandleList returns active publications. With ?all and a valid admin
// token, inactive ones are included too.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.publications.list")
	defer span.End()

	activeOnly := true
	if _, all := r.URL.Query()["all"]; all {
		activeOnly = !h.isAdmin(ctx, r)
	}
	span.SetAttributes(attribute.Bool("active_only", activeOnly))

	publications, err := h.service.List(ctx, activeOnly)
	if err != nil {
		writeError(w, "list publications", err)
		return
	}
	pkg.WriteJSONOK(w, publications)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.publications.get")
	defer span.End()

	id, err := pkg.IntVar(r, "id")
	if err != nil {
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	publication, err := h.service.Get(ctx, id)
	if err != nil {
		writeError(w, "get publication", err)
		return
	}
	pkg.WriteJSONOK(w, publication)
}

func (h *Handler) HandleGetBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.publications.get-by-slug")
	defer span.End()

	publication, err := h.service.GetBySlug(ctx, mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, "get publication by slug", err)
		return
	}
	pkg.WriteJSONOK(w, publication)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.publications.create")
	defer span.End()

	var params SaveParams
	if err := pkg.DecodeJSONBody(r, &params); err != nil {
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.service.Create(ctx, params)
	if err != nil {
		writeError(w, "create publication", err)
		return
	}

	log.Printf("publication [%s] created: %d", params.Slug, id)
	pkg.WriteJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.publications.update")
	defer span.End()

	id, err := pkg.IntVar(r, "id")
	if err != nil {
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var params SaveParams
	if err := pkg.DecodeJSONBody(r, &params); err != nil {
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Update(ctx, id, params); err != nil {
		writeError(w, "update publication", err)
		return
	}
	pkg.WriteMessage(w, http.StatusOK, "updated")
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.publications.delete")
	defer span.End()

	id, err := pkg.IntVar(r, "id")
	if err != nil {
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		writeError(w, "delete publication", err)
		return
	}
	pkg.WriteMessage(w, http.StatusOK, "deleted")
}

func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.categories.list")
	defer span.End()

	categories, err := h.service.Categories(ctx)
	if err != nil {
		writeError(w, "list categories", err)
		return
	}
	pkg.WriteJSONOK(w, categories)
}

func (h *Handler) HandleSaveCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.categories.save")
	defer span.End()

	var params CategoryParams
	if err := pkg.DecodeJSONBody(r, &params); err != nil {
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	category, err := h.service.SaveCategory(ctx, params)
	if err != nil {
		writeError(w, "save category", err)
		return
	}
	pkg.WriteJSONOK(w, category)
}

func (h *Handler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.categories.delete")
	defer span.End()

	id, err := pkg.IntVar(r, "id")
	if err != nil {
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.DeleteCategory(ctx, id); err != nil {
		writeError(w, "delete category", err)
		return
	}
	pkg.WriteMessage(w, http.StatusOK, "deleted")
}

func (h *Handler) isAdmin(ctx context.Context, r *http.Request) bool {
	token := auth.BearerToken(r)
	if token == "" {
		return false
	}
	if _, err := h.authenticator.Authenticate(ctx, token); err != nil {
		if !errors.Is(err, auth.ErrUnauthorized) {
			log.Errorf("publications handler, check admin token: %s", err)
		}
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case pkg.IsValidationError(err):
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		pkg.WriteError(w, http.StatusNotFound, "publication not found")
	case errors.Is(err, ErrCategoryNotFound):
		pkg.WriteError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, ErrSlugTaken):
		pkg.WriteError(w, http.StatusConflict, "slug already exists")
	default:
		log.Errorf("publications handler, %s: %s", op, err)
		pkg.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
