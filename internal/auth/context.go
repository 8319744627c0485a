package auth

import "context"

type adminCtxKey struct{}

func NewContext(ctx context.Context, admin *Admin) context.Context {
	return context.WithValue(ctx, adminCtxKey{}, admin)
}

// FromContext returns the admin attached by the auth middleware, if any.
func FromContext(ctx context.Context) (*Admin, bool) {
	admin, ok := ctx.Value(adminCtxKey{}).(*Admin)
	return admin, ok && admin != nil
}
