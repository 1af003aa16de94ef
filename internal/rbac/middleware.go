// Package rbac gates dashboard routes by the signed-in user's role.
package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rentaldesk/rentaldesk/internal/platform/httpx"
	"github.com/rentaldesk/rentaldesk/internal/roles"
	"github.com/rentaldesk/rentaldesk/internal/shared"
)

type roleContextKey struct{}

// RoleFromContext returns the dashboard role resolved by RequireDashboard.
func RoleFromContext(ctx context.Context) (roles.Role, bool) {
	role, ok := ctx.Value(roleContextKey{}).(roles.Role)
	return role, ok
}

// WithRole stores the dashboard role in ctx.
func WithRole(ctx context.Context, role roles.Role) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

// Middleware wires role authorization helpers for HTTP handlers.
type Middleware struct {
	Logger    *slog.Logger
	LoginPath string
}

// RequireIdentity sends anonymous visitors to the login page.
func (m Middleware) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.IdentityFromContext(r.Context()); !ok {
			m.unauthenticated(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireDashboard resolves the {param} URL segment to a role and lets the
// request through only when the signed-in user may open that dashboard.
func (m Middleware) RequireDashboard(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				m.unauthenticated(w, r)
				return
			}
			raw := chi.URLParam(r, param)
			target, ok := roles.Parse(raw)
			if !ok {
				if httpx.WantsJSON(r) {
					httpx.RespondError(w, fmt.Errorf("dashboard %q: %w", raw, httpx.ErrNotFound))
					return
				}
				http.NotFound(w, r)
				return
			}
			if !identity.Role.CanOpen(target) {
				if m.Logger != nil {
					m.Logger.Warn("rbac: dashboard denied",
						slog.String("user", identity.ID),
						slog.String("role", string(identity.Role)),
						slog.String("target", string(target)))
				}
				if httpx.WantsJSON(r) {
					httpx.RespondError(w, fmt.Errorf("dashboard not available for role %s: %w", identity.Role, httpx.ErrForbidden))
					return
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRole(r.Context(), target)))
		})
	}
}

func (m Middleware) unauthenticated(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) || r.Header.Get("Accept") == "text/event-stream" {
		httpx.RespondError(w, fmt.Errorf("sign in required: %w", httpx.ErrUnauthorized))
		return
	}
	login := m.LoginPath
	if login == "" {
		login = "/auth/login"
	}
	http.Redirect(w, r, login, http.StatusSeeOther)
}
