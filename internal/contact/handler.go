package contact

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

type messagesRepo interface {
	Save(ctx context.Context, msg *Message) (int, error)
	List(ctx context.Context, limit int) ([]*Message, error)
	Delete(ctx context.Context, id int) error
}

type Handler struct {
	repo    messagesRepo
	metrics *metrics.Manager
}

func NewHandler(repo messagesRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

// SetupRoutes registers the contact form routes. The public POST goes
// through pageGate and rateLimited, in that order.
func (h *Handler) SetupRoutes(router *mux.Router, adminOnly, pageGate, rateLimited mux.MiddlewareFunc) {
	router.Handle("/api/contact", pageGate(rateLimited(http.HandlerFunc(h.HandleSend)))).Methods("POST", "OPTIONS").Name("contact-send")
	router.Handle("/api/contact", adminOnly(http.HandlerFunc(h.HandleList))).Methods("GET").Name("contact-list")
	router.Handle("/api/contact/{id:[0-9]+}", adminOnly(http.HandlerFunc(h.HandleDelete))).Methods("DELETE", "OPTIONS").Name("contact-delete")
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.contact.send")
	defer span.End()

	var params SendParams
	if err := pkg.DecodeJSONBody(r, &params); err != nil {
		writeError(w, "send message", err)
		return
	}

	msg, err := params.toMessage()
	if err != nil {
		writeError(w, "send message", err)
		return
	}
	msg.IP = pkg.ReadUserIP(r)
	msg.UserAgent = r.UserAgent()

	id, err := h.repo.Save(ctx, msg)
	if err != nil {
		writeError(w, "send message", err)
		return
	}

	span.SetAttributes(attribute.Int("id", id))
	h.metrics.CounterContactMessages.Inc()
	log.Printf("contact message %d received from %s", id, msg.IP)
	pkg.WriteMessage(w, http.StatusCreated, "message received")
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.contact.list")
	defer span.End()

	limit := pkg.QueryInt(r, "limit", DefaultListLimit, 1, MaxListLimit)
	span.SetAttributes(attribute.Int("limit", limit))

	messages, err := h.repo.List(ctx, limit)
	if err != nil {
		writeError(w, "list messages", err)
		return
	}
	if messages == nil {
		messages = []*Message{}
	}
	pkg.WriteJSONOK(w, messages)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.contact.delete")
	defer span.End()

	id, err := pkg.IntVar(r, "id")
	if err != nil {
		writeError(w, "delete message", err)
		return
	}
	span.SetAttributes(attribute.Int("id", id))

	if err := h.repo.Delete(ctx, id); err != nil {
		writeError(w, "delete message", err)
		return
	}

	log.Printf("contact message %d deleted", id)
	pkg.WriteMessage(w, http.StatusOK, "deleted")
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case pkg.IsValidationError(err):
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		pkg.WriteError(w, http.StatusNotFound, "message not found")
	default:
		log.Errorf("contact handler, %s: %s", op, err)
		pkg.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
