package kdbweb

import (
	"context"
	"errors"
	"net/http"

	"github.com/kdblegal/kdbweb/internal/sanitize"
	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"
	"github.com/kdblegal/kdbweb/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type entriesRepo interface {
	List(ctx context.Context) ([]*Entry, error)
	BySlug(ctx context.Context, slug string) (*Entry, error)
	ReplaceAll(ctx context.Context, entries []*Entry) error
}

type Handler struct {
	repo   entriesRepo
	policy *sanitize.Policy
}

func NewHandler(repo entriesRepo, policy *sanitize.Policy) *Handler {
	return &Handler{
		repo:   repo,
		policy: policy,
	}
}

type replaceResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// SetupRoutes registers the KDBWEB routes; pageGate hides the public reads
// while the kdbweb page is disabled.
func (h *Handler) SetupRoutes(router *mux.Router, adminOnly, pageGate mux.MiddlewareFunc) {
	router.Handle("/api/kdbweb", pageGate(http.HandlerFunc(h.HandleList))).Methods("GET", "OPTIONS").Name("kdbweb-list")
	router.Handle("/api/kdbweb", adminOnly(http.HandlerFunc(h.HandleReplace))).Methods("POST").Name("kdbweb-replace")
	router.Handle("/api/kdbweb/{slug}", pageGate(http.HandlerFunc(h.HandleGet))).Methods("GET", "OPTIONS").Name("kdbweb-get")
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.kdbweb.list")
	defer span.End()

	entries, err := h.repo.List(ctx)
	if err != nil {
		writeError(w, "list entries", err)
		return
	}

	cards := make([]Card, 0, len(entries))
	for _, e := range entries {
		cards = append(cards, e.Card())
	}
	pkg.WriteJSONOK(w, cards)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.kdbweb.get")
	defer span.End()

	slug := mux.Vars(r)["slug"]
	span.SetAttributes(attribute.String("slug", slug))

	entry, err := h.repo.BySlug(ctx, slug)
	if err != nil {
		writeError(w, "get entry", err)
		return
	}
	pkg.WriteJSONOK(w, entry)
}

func (h *Handler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.kdbweb.replace")
	defer span.End()

	var params ReplaceParams
	if err := pkg.DecodeJSONBody(r, &params); err != nil {
		pkg.WriteError(w, http.StatusBadRequest, "invalid format, entries must be a list")
		return
	}

	entries, err := normalizeEntries(params.Entries, h.policy.HTML)
	if err != nil {
		writeError(w, "replace entries", err)
		return
	}

	if err := h.repo.ReplaceAll(ctx, entries); err != nil {
		writeError(w, "replace entries", err)
		return
	}

	log.Printf("kdbweb entries replaced: %d", len(entries))
	pkg.WriteJSONOK(w, replaceResponse{Message: "kdbweb updated", Count: len(entries)})
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case pkg.IsValidationError(err):
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		pkg.WriteError(w, http.StatusNotFound, "entry not found")
	default:
		log.Errorf("kdbweb handler, %s: %s", op, err)
		pkg.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
