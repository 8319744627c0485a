package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/kdblegal/kdbweb/internal/auth"
	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"
	"github.com/kdblegal/kdbweb/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test
type authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Admin, error)
}

type AuthMiddlewareHandler struct {
	authenticator authenticator
}

func NewAuthMiddlewareHandler(authenticator authenticator) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		authenticator: authenticator,
	}
}

// RequireAdmin lets through requests carrying a valid admin session, of any
// role, and stores the admin in the request context.
func (h *AuthMiddlewareHandler) RequireAdmin() func(next http.Handler) http.Handler {
	return h.RequireRoles()
}

// RequireRoles is RequireAdmin plus a role check; no roles means any role.
func (h *AuthMiddlewareHandler) RequireRoles(roles ...auth.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			token := auth.BearerToken(r)
			if token == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				pkg.WriteError(w, http.StatusUnauthorized, "unauthorized")
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			admin, err := h.authenticator.Authenticate(ctx, token)
			if err != nil {
				if !errors.Is(err, auth.ErrUnauthorized) {
					log.Errorf("[failed auth check] => %s: %s", r.URL.Path, err)
					span.RecordError(err)
				} else {
					log.Tracef("[invalid token] [auth middleware] unauthorized => %s", r.URL.Path)
				}
				pkg.WriteError(w, http.StatusUnauthorized, "unauthorized")
				span.SetStatus(codes.Error, "not-logged")
				return
			}

			span.SetAttributes(
				attribute.Int("admin.id", admin.ID),
				attribute.String("admin.role", string(admin.Role)),
			)
			if len(roles) > 0 && !admin.HasRole(roles...) {
				log.Tracef("[forbidden] admin [%s] with role %s => %s", admin.Username, admin.Role, r.URL.Path)
				pkg.WriteError(w, http.StatusForbidden, "forbidden")
				span.SetStatus(codes.Error, "forbidden-role")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.NewContext(ctx, admin)))
		})
	}
}
