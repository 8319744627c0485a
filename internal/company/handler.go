package company

import (
	"context"
	"net/http"

	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"
	"github.com/kdblegal/kdbweb/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type companyRepo interface {
	Get(ctx context.Context) (*Info, error)
	Save(ctx context.Context, info Info) error
}

type Handler struct {
	repo companyRepo
}

func NewHandler(repo companyRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (h *Handler) SetupRoutes(router *mux.Router, adminOnly, cached mux.MiddlewareFunc) {
	router.Handle("/api/company", cached(http.HandlerFunc(h.HandleGet))).Methods("GET", "OPTIONS").Name("company-get")
	router.Handle("/config/company", adminOnly(http.HandlerFunc(h.HandleGet))).Methods("GET", "OPTIONS").Name("config-company-get")
	router.Handle("/config/company", adminOnly(http.HandlerFunc(h.HandleSave))).Methods("POST").Name("config-company-save")
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.company.get")
	defer span.End()

	info, err := h.repo.Get(ctx)
	if err != nil {
		log.Errorf("get company info: %s", err)
		pkg.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	pkg.WriteJSONOK(w, info)
}

// HandleSave overwrites the whole row; fields missing from the payload are
// saved empty.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.company.save")
	defer span.End()

	var info Info
	if err := pkg.DecodeJSONBody(r, &info); err != nil {
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Save(ctx, info.trimmed()); err != nil {
		log.Errorf("save company info: %s", err)
		pkg.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	pkg.WriteMessage(w, http.StatusOK, "company info updated")
}
