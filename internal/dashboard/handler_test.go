package dashboard_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentaldesk/rentaldesk/internal/app"
	"github.com/rentaldesk/rentaldesk/internal/backend"
	"github.com/rentaldesk/rentaldesk/internal/dashboard"
	"github.com/rentaldesk/rentaldesk/internal/events"
	"github.com/rentaldesk/rentaldesk/internal/feature"
	"github.com/rentaldesk/rentaldesk/internal/rbac"
	"github.com/rentaldesk/rentaldesk/internal/roles"
	"github.com/rentaldesk/rentaldesk/internal/shared"
	"github.com/rentaldesk/rentaldesk/internal/view"
)

const invoicesJSON = `[{"id":"inv-1","invoice_number":"INV-001","contract_id":"c-9","contract_number":"CT-9","customer_name":"Gulf Build LLC","amount":"12500","status":"pending","due_date":"2026-04-01T00:00:00Z"}]`

// fakeBackend serves empty collections everywhere except invoices and
// counts every request by method and path.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int
	srv   *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{calls: make(map[string]int)}
	fb.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.calls[r.Method+" "+r.URL.Path]++
		fb.mu.Unlock()
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/invoices/":
			_, _ = w.Write([]byte(invoicesJSON))
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/dashboard"):
			_, _ = w.Write([]byte(`{}`))
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[]`))
		default:
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) count(key string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.calls[key]
}

type harness struct {
	router   http.Handler
	sessions *shared.SessionManager
	bus      *events.Bus
	store    *dashboard.Store
	api      *fakeBackend
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	require.NoError(t, err)

	api := newFakeBackend(t)
	bus := events.NewBus(nil)
	catalog := feature.NewCatalog(backend.NewClient(api.srv.URL, 2*time.Second), bus, nil)
	store := dashboard.NewStore(16, time.Minute, nil)
	handler := dashboard.NewHandler(nil, templates, csrf, catalog, bus, store, rbac.Middleware{LoginPath: "/auth/login"})

	r := chi.NewRouter()
	r.Use(app.SessionMiddleware(sessions, nil))
	r.Route("/dashboard", handler.MountRoutes)
	return &harness{router: r, sessions: sessions, bus: bus, store: store, api: api}
}

// signIn stores a signed-in session and returns its cookie.
func (h *harness) signIn(t *testing.T, role roles.Role) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := h.sessions.Load(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, sess.SignIn(shared.Identity{ID: "u-" + string(role), Email: string(role) + "@rentaldesk.test", Role: role}, "tok-"+string(role)))
	require.NoError(t, h.sessions.Commit(context.Background(), httptest.NewRecorder(), req, sess))
	return &http.Cookie{Name: h.sessions.CookieName(), Value: sess.ID}
}

func (h *harness) do(t *testing.T, cookie *http.Cookie, method, target string, form url.Values, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	res := httptest.NewRecorder()
	h.router.ServeHTTP(res, req)
	return res
}

func jsonHeader() http.Header {
	return http.Header{"Accept": {"application/json"}, "X-Client-Id": {"page-1"}}
}

func TestHomeRedirectsToOwnDashboard(t *testing.T) {
	h := newHarness(t)
	res := h.do(t, h.signIn(t, roles.SuperAdmin), http.MethodGet, "/dashboard/", nil, nil)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/dashboard/super-admin", res.Header().Get("Location"))
}

func TestAdminSelectsInvoices(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, roles.Admin)
	sub := h.bus.Subscribe(events.Filter{}, 4)
	defer sub.Close()

	res := h.do(t, cookie, http.MethodGet, "/dashboard/admin/tabs/invoices", nil, jsonHeader())
	require.Equal(t, http.StatusOK, res.Code)
	var body struct {
		Tab  string `json:"tab"`
		Href string `json:"href"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "invoices", body.Tab)
	assert.Equal(t, "/dashboard/admin#invoices", body.Href)

	select {
	case n := <-sub.C():
		assert.Equal(t, events.TabSelected, n.Kind)
		assert.Equal(t, "invoices", n.Tab)
		assert.Equal(t, roles.Admin, n.Scope.Role)
		assert.Equal(t, cookie.Value, n.Scope.Session)
		assert.Equal(t, "page-1", n.Origin)
	case <-time.After(time.Second):
		t.Fatal("no TabSelected notification")
	}
	assert.Zero(t, h.api.count("GET /api/invoices/"), "selection alone fetches nothing")

	panel := h.do(t, cookie, http.MethodGet, "/dashboard/admin/panel", nil, nil)
	require.Equal(t, http.StatusOK, panel.Code)
	assert.Equal(t, "invoices", panel.Header().Get(dashboard.HeaderActiveTab))
	assert.Contains(t, panel.Body.String(), "INV-001")
	assert.Equal(t, 1, h.api.count("GET /api/invoices/"))
}

func TestSelectWithoutScriptRedirectsToFragment(t *testing.T) {
	h := newHarness(t)
	res := h.do(t, h.signIn(t, roles.Finance), http.MethodGet, "/dashboard/finance/tabs/payments", nil, nil)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/dashboard/finance?tab=payments#payments", res.Header().Get("Location"))
}

func TestSelectWithoutScriptLandsOnLoadedPanel(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, roles.Finance)

	sel := h.do(t, cookie, http.MethodGet, "/dashboard/finance/tabs/invoices", nil, nil)
	require.Equal(t, http.StatusSeeOther, sel.Code)
	target, err := url.Parse(sel.Header().Get("Location"))
	require.NoError(t, err)
	target.Fragment = ""

	page := h.do(t, cookie, http.MethodGet, target.String(), nil, nil)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "INV-001")
	assert.NotContains(t, page.Body.String(), "No invoices found.")
	assert.Equal(t, 1, h.api.count("GET /api/invoices/"))

	panel := h.do(t, cookie, http.MethodGet, "/dashboard/finance/panel", nil, nil)
	require.Equal(t, http.StatusOK, panel.Code)
	assert.Contains(t, panel.Body.String(), "INV-001")
	assert.Equal(t, 1, h.api.count("GET /api/invoices/"), "the mounted panel keeps its rows")
}

func TestSelectUnknownTabIsIgnored(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, roles.Finance)
	sub := h.bus.Subscribe(events.Filter{}, 4)
	defer sub.Close()

	res := h.do(t, cookie, http.MethodGet, "/dashboard/finance/tabs/users", nil, jsonHeader())
	assert.Equal(t, http.StatusNotFound, res.Code)
	select {
	case n := <-sub.C():
		t.Fatalf("unexpected notification %v", n.Kind)
	default:
	}
}

func TestReloadWithFragmentRendersModule(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, roles.Admin)

	res := h.do(t, cookie, http.MethodGet, "/dashboard/admin?tab=invoices", nil, nil)
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, `data-tab="invoices"`)
	assert.Contains(t, body, "INV-001")
	assert.Contains(t, body, "AED 12,500.00")
	assert.Equal(t, "invoices", res.Header().Get(dashboard.HeaderActiveTab))
	assert.Equal(t, 1, h.api.count("GET /api/invoices/"))
}

func TestUnknownOrEmptyFragmentFallsBackToOverview(t *testing.T) {
	for _, target := range []string{"/dashboard/sales?tab=payments", "/dashboard/sales?tab=", "/dashboard/sales?tab=%23"} {
		t.Run(target, func(t *testing.T) {
			h := newHarness(t)
			res := h.do(t, h.signIn(t, roles.Sales), http.MethodGet, target, nil, nil)
			require.Equal(t, http.StatusOK, res.Code)
			assert.Equal(t, "overview", res.Header().Get(dashboard.HeaderActiveTab))
			assert.Contains(t, res.Body.String(), `data-tab="overview"`)
		})
	}
}

func TestDeferredShellMountsOnceFromFragment(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, roles.Admin)

	shell := h.do(t, cookie, http.MethodGet, "/dashboard/admin", nil, nil)
	require.Equal(t, http.StatusOK, shell.Code)
	assert.Contains(t, shell.Body.String(), "data-deferred")
	assert.Zero(t, h.api.count("GET /api/invoices/"))

	panel := h.do(t, cookie, http.MethodGet, "/dashboard/admin/panel?fragment=invoices", nil, nil)
	require.Equal(t, http.StatusOK, panel.Code)
	assert.Contains(t, panel.Body.String(), "INV-001")
	assert.Equal(t, 1, h.api.count("GET /api/invoices/"))

	again := h.do(t, cookie, http.MethodGet, "/dashboard/admin/panel", nil, nil)
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, 1, h.api.count("GET /api/invoices/"), "a mounted panel is served as is")

	h.do(t, cookie, http.MethodGet, "/dashboard/admin/panel?refresh=1", nil, nil)
	assert.Equal(t, 2, h.api.count("GET /api/invoices/"))
}

func TestCreateRefetchesExactlyOnce(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, roles.Finance)
	h.do(t, cookie, http.MethodGet, "/dashboard/finance?tab=invoices", nil, nil)
	require.Equal(t, 1, h.api.count("GET /api/invoices/"))

	sub := h.bus.Subscribe(events.Filter{Kinds: []events.Kind{events.EntityChanged}}, 4)
	defer sub.Close()

	form := url.Values{
		"invoice_number": {"INV-002"},
		"contract_id":    {"c-10"},
		"amount":         {"4,200.50"},
		"due_date":       {"2026-05-01"},
	}
	res := h.do(t, cookie, http.MethodPost, "/dashboard/finance/panel/invoices/create", form, http.Header{dashboard.HeaderPanel: {"1"}, "X-Client-Id": {"page-9"}})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Invoice created successfully.")
	assert.NotContains(t, res.Body.String(), "<html", "panel requests get the partial")
	assert.Equal(t, 1, h.api.count("POST /api/invoices/"))
	assert.Equal(t, 2, h.api.count("GET /api/invoices/"))

	select {
	case n := <-sub.C():
		assert.Equal(t, "invoices", n.Entity)
		assert.Equal(t, "page-9", n.Origin)
	case <-time.After(time.Second):
		t.Fatal("no EntityChanged notification")
	}
}

func TestInvalidCreateSendsNothing(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, roles.Finance)
	h.do(t, cookie, http.MethodGet, "/dashboard/finance?tab=invoices", nil, nil)

	res := h.do(t, cookie, http.MethodPost, "/dashboard/finance/panel/invoices/create", url.Values{"invoice_number": {"INV-3"}}, http.Header{dashboard.HeaderPanel: {"1"}})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body.String(), "INV-001", "previous list stays")
	assert.Zero(t, h.api.count("POST /api/invoices/"))
	assert.Equal(t, 1, h.api.count("GET /api/invoices/"))
}

func TestActionOnUnmountedPanelDoesNotDoubleFetch(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, roles.Admin)

	res := h.do(t, cookie, http.MethodPost, "/dashboard/admin/panel/invoices/delete/inv-1", url.Values{}, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "<html", "non-script posts get the full page")
	assert.Equal(t, 1, h.api.count("DELETE /api/invoices/inv-1"))
	assert.Equal(t, 1, h.api.count("GET /api/invoices/"))
}

func TestRoleGate(t *testing.T) {
	h := newHarness(t)

	sales := h.do(t, h.signIn(t, roles.Sales), http.MethodGet, "/dashboard/admin", nil, nil)
	assert.Equal(t, http.StatusForbidden, sales.Code)

	super := h.do(t, h.signIn(t, roles.SuperAdmin), http.MethodGet, "/dashboard/warehouse", nil, nil)
	assert.Equal(t, http.StatusOK, super.Code)
	assert.Contains(t, super.Body.String(), "Dashboards", "super admins get the dashboard switcher")

	anon := h.do(t, nil, http.MethodGet, "/dashboard/admin", nil, nil)
	assert.Equal(t, http.StatusSeeOther, anon.Code)
	assert.Equal(t, "/auth/login", anon.Header().Get("Location"))

	unknown := h.do(t, h.signIn(t, roles.SuperAdmin), http.MethodGet, "/dashboard/janitor", nil, nil)
	assert.Equal(t, http.StatusNotFound, unknown.Code)
}

func TestRefreshAllBroadcastsToSession(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, roles.Warehouse)
	mine := h.bus.Subscribe(events.Filter{Session: cookie.Value, Role: roles.Warehouse}, 4)
	defer mine.Close()
	other := h.bus.Subscribe(events.Filter{Session: "someone-else", Role: roles.Warehouse}, 4)
	defer other.Close()

	res := h.do(t, cookie, http.MethodPost, "/dashboard/warehouse/refresh", url.Values{}, http.Header{dashboard.HeaderPanel: {"1"}})
	assert.Equal(t, http.StatusNoContent, res.Code)

	select {
	case n := <-mine.C():
		assert.Equal(t, events.RefreshAll, n.Kind)
	case <-time.After(time.Second):
		t.Fatal("no RefreshAll notification")
	}
	select {
	case n := <-other.C():
		t.Fatalf("other session received %v", n.Kind)
	default:
	}
}

func TestEventStreamDeliversNotifications(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, roles.Admin)
	srv := httptest.NewServer(h.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/dashboard/admin/events?client=page-1", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")
	req.AddCookie(cookie)
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return h.bus.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	// Own page's notifications are skipped.
	h.bus.Publish(events.Notification{Kind: events.TabSelected, Scope: events.Scope{Session: cookie.Value, Role: roles.Admin}, Origin: "page-1", Tab: "users"})
	h.bus.Publish(events.Notification{Kind: events.EventDue, Scope: events.Scope{Role: roles.Admin}, Message: "Tower inspection is due."})

	reader := bufio.NewReader(res.Body)
	var eventLine, dataLine string
	deadline := time.After(2 * time.Second)
	for dataLine == "" {
		select {
		case <-deadline:
			t.Fatal("no event received")
		default:
		}
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			dataLine = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	assert.Equal(t, "event_due", eventLine)
	n, err := events.Decode([]byte(dataLine))
	require.NoError(t, err)
	assert.Equal(t, "Tower inspection is due.", n.Message)

	cancel()
	require.Eventually(t, func() bool { return h.bus.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
