package shared

import "context"

type (
	sessionContextKey struct{}
	originContextKey  struct{}
)

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// IdentityFromContext returns the signed-in identity of the request session.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	return SessionFromContext(ctx).Identity()
}

// ContextWithOrigin stores the ID of the browser page that issued the request.
// One session may have several pages open; notifications skip their origin.
func ContextWithOrigin(ctx context.Context, origin string) context.Context {
	if origin == "" {
		return ctx
	}
	return context.WithValue(ctx, originContextKey{}, origin)
}

// OriginFromContext returns the page ID, empty when the request carried none.
func OriginFromContext(ctx context.Context) string {
	origin, _ := ctx.Value(originContextKey{}).(string)
	return origin
}
