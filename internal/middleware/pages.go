package middleware

import (
	"context"
	"net/http"

	"github.com/kdblegal/kdbweb/internal/auth"
	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"
	"github.com/kdblegal/kdbweb/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=pages_mocks_test.go -package=middleware_test
type visibilityChecker interface {
	Allowed(ctx context.Context, page, token string) (bool, error)
}

// PageGate hides public endpoints of disabled pages from anonymous visitors.
// Any valid admin, whatever the role, still sees them.
type PageGate struct {
	checker visibilityChecker
}

func NewPageGate(checker visibilityChecker) *PageGate {
	return &PageGate{
		checker: checker,
	}
}

// Page gates a route belonging to a fixed page.
func (g *PageGate) Page(page string) func(next http.Handler) http.Handler {
	return g.gate(func(*http.Request) string { return page })
}

// PageFromVar gates a route whose page comes from a path variable.
func (g *PageGate) PageFromVar(varName string) func(next http.Handler) http.Handler {
	return g.gate(func(r *http.Request) string { return mux.Vars(r)[varName] })
}

func (g *PageGate) gate(pageOf func(*http.Request) string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.pagegate")
			defer span.End()

			page := pageOf(r)
			span.SetAttributes(attribute.String("page", page))

			allowed, err := g.checker.Allowed(ctx, page, auth.BearerToken(r))
			if err != nil {
				log.Errorf("page gate, check page [%s]: %s", page, err)
				span.RecordError(err)
				pkg.WriteError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !allowed {
				pkg.WriteError(w, http.StatusNotFound, "page not available")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
