package pages

import (
	"context"
	"errors"

	"github.com/kdblegal/kdbweb/internal/auth"
	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Admin, error)
}

// VisibilityGate decides whether a public page may be served. Disabled
// pages stay reachable for any logged in admin, so editors can preview
// them.
type VisibilityGate struct {
	settings      settingsStore
	authenticator authenticator
}

func NewVisibilityGate(settings settingsStore, authenticator authenticator) *VisibilityGate {
	return &VisibilityGate{
		settings:      settings,
		authenticator: authenticator,
	}
}

func (g *VisibilityGate) Allowed(ctx context.Context, page, token string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "pages.visibility.allowed")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.String("page", page))

	enabled, err := g.settings.Enabled(ctx, page)
	if err != nil {
		return false, err
	}
	if enabled {
		return true, nil
	}

	if token == "" {
		return false, nil
	}
	if _, err := g.authenticator.Authenticate(ctx, token); err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			return false, nil
		}
		return false, err
	}

	span.SetAttributes(attribute.Bool("admin_preview", true))
	return true, nil
}
