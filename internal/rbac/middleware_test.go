package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentaldesk/rentaldesk/internal/roles"
	"github.com/rentaldesk/rentaldesk/internal/shared"
)

func gatedRouter(t *testing.T, identity *shared.Identity) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessions.Load(req.Context(), req)
			require.NoError(t, err)
			if identity != nil {
				require.NoError(t, sess.SignIn(*identity, "token"))
			}
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	m := Middleware{LoginPath: "/auth/login"}
	r.With(m.RequireDashboard("role")).Get("/dashboard/{role}", func(w http.ResponseWriter, req *http.Request) {
		role, ok := RoleFromContext(req.Context())
		if !ok {
			http.Error(w, "no role", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(role))
	})
	return r
}

func get(h http.Handler, path, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRequireDashboardRedirectsAnonymous(t *testing.T) {
	h := gatedRouter(t, nil)

	rr := get(h, "/dashboard/admin", "")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/auth/login", rr.Header().Get("Location"))

	rr = get(h, "/dashboard/admin", "application/json")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireDashboardOwnRoleOnly(t *testing.T) {
	h := gatedRouter(t, &shared.Identity{ID: "u1", Role: roles.Finance})

	rr := get(h, "/dashboard/finance", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "finance", rr.Body.String())

	rr = get(h, "/dashboard/admin", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = get(h, "/dashboard/nobody", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRequireDashboardSuperAdminOpensAll(t *testing.T) {
	h := gatedRouter(t, &shared.Identity{ID: "root", Role: roles.SuperAdmin})
	for _, role := range roles.All {
		rr := get(h, role.HomePath(), "")
		assert.Equal(t, http.StatusOK, rr.Code, role)
		assert.Equal(t, string(role), rr.Body.String())
	}
}

func TestRoleFromContextMissing(t *testing.T) {
	_, ok := RoleFromContext(context.Background())
	assert.False(t, ok)
}
