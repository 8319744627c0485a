package auth

import (
	"errors"
	"net/http"

	"github.com/kdblegal/kdbweb/internal/telemetry/metrics"
	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"
	"github.com/kdblegal/kdbweb/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
	metrics *metrics.Manager
}

func NewHandler(service *Service, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service: service,
		metrics: metricsManager,
	}
}

type bootstrapResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

type idResponse struct {
	ID int `json:"id"`
}

// SetupRoutes registers the auth routes. adminOnly and superOnly guard the
// session and admin management endpoints.
func (h *Handler) SetupRoutes(router *mux.Router, adminOnly, superOnly mux.MiddlewareFunc) {
	router.HandleFunc("/auth/bootstrap", h.HandleBootstrap).Methods("POST", "OPTIONS").Name("auth-bootstrap")
	router.HandleFunc("/auth/login", h.HandleLogin).Methods("POST", "OPTIONS").Name("auth-login")
	router.HandleFunc("/auth/logout", h.HandleLogout).Methods("POST", "OPTIONS").Name("auth-logout")
	router.Handle("/auth/me", adminOnly(http.HandlerFunc(h.HandleMe))).Methods("GET", "OPTIONS").Name("auth-me")

	router.Handle("/auth/admins", superOnly(http.HandlerFunc(h.HandleListAdmins))).Methods("GET", "OPTIONS").Name("auth-admins-list")
	router.Handle("/auth/admins", superOnly(http.HandlerFunc(h.HandleCreateAdmin))).Methods("POST").Name("auth-admins-create")
	router.Handle("/auth/admins/{id}", superOnly(http.HandlerFunc(h.HandleUpdateAdmin))).Methods("PUT", "OPTIONS").Name("auth-admins-update")
	router.Handle("/auth/admins/{id}", superOnly(http.HandlerFunc(h.HandleDeleteAdmin))).Methods("DELETE").Name("auth-admins-delete")
}

func (h *Handler) HandleBootstrap(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.bootstrap")
	defer span.End()

	var creds Credentials
	if err := pkg.DecodeJSONBody(r, &creds); err != nil {
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	admin, err := h.service.Bootstrap(ctx, creds)
	if err != nil {
		writeError(w, "bootstrap", err)
		return
	}

	pkg.WriteJSON(w, http.StatusCreated, bootstrapResponse{
		ID:       admin.ID,
		Username: admin.Username,
		Role:     admin.Role,
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.login")
	defer span.End()

	var creds Credentials
	if err := pkg.DecodeJSONBody(r, &creds); err != nil {
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.service.Login(ctx, creds)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			h.metrics.CounterLogins.WithLabelValues(metrics.LoginResultFailure).Inc()
			log.Tracef("login failed for [%s], ip %s", creds.Username, pkg.ReadUserIP(r))
		case !pkg.IsValidationError(err):
			h.metrics.CounterLogins.WithLabelValues(metrics.LoginResultError).Inc()
		}
		writeError(w, "login", err)
		return
	}

	h.metrics.CounterLogins.WithLabelValues(metrics.LoginResultSuccess).Inc()
	log.Printf("admin [%s] logged in, session expires at %s", res.Admin.Username, res.ExpiresAt)
	pkg.WriteJSONOK(w, res)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	admin, ok := FromContext(r.Context())
	if !ok {
		pkg.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	pkg.WriteJSONOK(w, admin.Profile())
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.logout")
	defer span.End()

	token := BearerToken(r)
	if token == "" {
		pkg.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.service.Logout(ctx, token); err != nil {
		writeError(w, "logout", err)
		return
	}
	pkg.WriteMessage(w, http.StatusOK, "logged out")
}

func (h *Handler) HandleListAdmins(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.admins.list")
	defer span.End()

	admins, err := h.service.ListAdmins(ctx)
	if err != nil {
		writeError(w, "list admins", err)
		return
	}
	pkg.WriteJSONOK(w, admins)
}

func (h *Handler) HandleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.admins.create")
	defer span.End()

	var params CreateAdminParams
	if err := pkg.DecodeJSONBody(r, &params); err != nil {
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	admin, err := h.service.CreateAdmin(ctx, params)
	if err != nil {
		writeError(w, "create admin", err)
		return
	}

	log.Printf("admin [%s] created with role %s", admin.Username, admin.Role)
	pkg.WriteJSON(w, http.StatusCreated, idResponse{ID: admin.ID})
}

func (h *Handler) HandleUpdateAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.admins.update")
	defer span.End()

	id, err := pkg.IntVar(r, "id")
	if err != nil {
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var params UpdateAdminParams
	if err := pkg.DecodeJSONBody(r, &params); err != nil {
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.service.UpdateAdmin(ctx, id, params); err != nil {
		writeError(w, "update admin", err)
		return
	}
	pkg.WriteMessage(w, http.StatusOK, "updated")
}

func (h *Handler) HandleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.admins.delete")
	defer span.End()

	id, err := pkg.IntVar(r, "id")
	if err != nil {
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.DeleteAdmin(ctx, id); err != nil {
		writeError(w, "delete admin", err)
		return
	}
	pkg.WriteMessage(w, http.StatusOK, "deleted")
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case pkg.IsValidationError(err):
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		pkg.WriteError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, ErrUnauthorized):
		pkg.WriteError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, ErrForbidden):
		pkg.WriteError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrAdminNotFound):
		pkg.WriteError(w, http.StatusNotFound, "admin not found")
	case errors.Is(err, ErrUsernameTaken):
		pkg.WriteError(w, http.StatusConflict, "username already exists")
	case errors.Is(err, ErrBootstrapDone):
		pkg.WriteError(w, http.StatusConflict, "bootstrap already done")
	default:
		log.Errorf("auth handler, %s: %s", op, err)
		pkg.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
