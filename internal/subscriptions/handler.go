package subscriptions

import (
	"context"
	"errors"
	"net/http"

	"github.com/kdblegal/kdbweb/internal/telemetry/metrics"
	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"
	"github.com/kdblegal/kdbweb/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type subscriptionsRepo interface {
	Add(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, limit int) ([]*Subscription, error)
	Delete(ctx context.Context, id int) error
}

type Handler struct {
	repo    subscriptionsRepo
	metrics *metrics.Manager
}

func NewHandler(repo subscriptionsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

// SetupRoutes registers the newsletter routes. rateLimited wraps the public
// subscribe endpoint.
func (h *Handler) SetupRoutes(router *mux.Router, adminOnly, rateLimited mux.MiddlewareFunc) {
	router.Handle("/subscribe", rateLimited(http.HandlerFunc(h.HandleSubscribe))).Methods("POST", "OPTIONS").Name("subscribe")
	router.Handle("/subscriptions", adminOnly(http.HandlerFunc(h.HandleList))).Methods("GET", "OPTIONS").Name("subscriptions-list")
	router.Handle("/api/subscriptions", adminOnly(http.HandlerFunc(h.HandleList))).Methods("GET", "OPTIONS").Name("api-subscriptions-list")
	router.Handle("/subscriptions/{id:[0-9]+}", adminOnly(http.HandlerFunc(h.HandleDelete))).Methods("DELETE", "OPTIONS").Name("subscriptions-delete")
}

func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.subscriptions.subscribe")
	defer span.End()

	var params SubscribeParams
	if err := pkg.DecodeJSONBody(r, &params); err != nil {
		writeError(w, "subscribe", err)
		return
	}

	email, err := params.validate()
	if err != nil {
		writeError(w, "subscribe", err)
		return
	}

	created, err := h.repo.Add(ctx, email)
	if err != nil {
		writeError(w, "subscribe", err)
		return
	}

	// repeated subscriptions are answered the same way
	span.SetAttributes(attribute.Bool("created", created))
	if created {
		h.metrics.CounterSubscriptions.Inc()
		log.Printf("new subscription saved: %s", email)
	}
	pkg.WriteMessage(w, http.StatusCreated, "subscription registered")
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.subscriptions.list")
	defer span.End()

	subs, err := h.repo.List(ctx, MaxListed)
	if err != nil {
		writeError(w, "list subscriptions", err)
		return
	}
	if subs == nil {
		subs = []*Subscription{}
	}
	pkg.WriteJSONOK(w, subs)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.subscriptions.delete")
	defer span.End()

	id, err := pkg.IntVar(r, "id")
	if err != nil {
		writeError(w, "delete subscription", err)
		return
	}
	span.SetAttributes(attribute.Int("id", id))

	if err := h.repo.Delete(ctx, id); err != nil {
		writeError(w, "delete subscription", err)
		return
	}

	log.Printf("subscription %d deleted", id)
	pkg.WriteMessage(w, http.StatusOK, "deleted")
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case pkg.IsValidationError(err):
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		pkg.WriteError(w, http.StatusNotFound, "subscription not found")
	default:
		log.Errorf("subscriptions handler, %s: %s", op, err)
		pkg.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
