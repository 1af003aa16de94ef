package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rentaldesk/rentaldesk/internal/backend"
	"github.com/rentaldesk/rentaldesk/internal/events"
	"github.com/rentaldesk/rentaldesk/internal/feature"
	"github.com/rentaldesk/rentaldesk/internal/navigation"
	"github.com/rentaldesk/rentaldesk/internal/platform/httpx"
	"github.com/rentaldesk/rentaldesk/internal/rbac"
	"github.com/rentaldesk/rentaldesk/internal/roles"
	"github.com/rentaldesk/rentaldesk/internal/shared"
	"github.com/rentaldesk/rentaldesk/internal/view"
)

// Headers exchanged with the dashboard script.
const (
	HeaderClientID  = "X-Client-ID"
	HeaderPanel     = "X-Panel"
	HeaderActiveTab = "X-Active-Tab"
)

// Panels builds the panel for a tab. *feature.Catalog satisfies it.
type Panels interface {
	Panel(role roles.Role, tab navigation.Tab) (feature.Panel, bool)
}

// Handler wires the dashboard HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	csrf      *shared.CSRFManager
	panels    Panels
	router    *navigation.Router
	bus       *events.Bus
	store     *Store
	gate      rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, templates *view.Engine, csrf *shared.CSRFManager, panels Panels, bus *events.Bus, store *Store, gate rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		templates: templates,
		csrf:      csrf,
		panels:    panels,
		router:    navigation.NewRouter(bus),
		bus:       bus,
		store:     store,
		gate:      gate,
	}
}

// MountRoutes registers dashboard routes on r, expected under /dashboard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.gate.RequireIdentity).Get("/", h.home)
	r.Route("/{role}", func(r chi.Router) {
		r.Use(h.gate.RequireDashboard("role"), withOrigin)
		r.Get("/", h.shell)
		r.Get("/tabs/{tab}", h.selectTab)
		r.Get("/panel", h.panel)
		r.Post("/panel/{tab}/{action}", h.perform)
		r.Post("/panel/{tab}/{action}/{id}", h.perform)
		r.Post("/refresh", h.refreshAll)
		r.Get("/events", h.stream)
	})
}

// Location of the role's dashboard for the signed-in user.
func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	http.Redirect(w, r, identity.Role.HomePath(), http.StatusSeeOther)
}

type pageData struct {
	Role     roles.Role
	Base     string
	Menu     []navigation.MenuEntry
	Active   navigation.Tab
	ClientID string
	Deferred bool
	Switch   []roles.Role
	Panel    panelView
}

type panelView struct {
	Base      string
	CSRFToken string
	Deferred  bool
	Snapshot  feature.Snapshot
}

// shell renders the full page and starts a new page lifetime. The browser
// relays the location fragment as ?tab=; without it the panel is loaded by
// the page script once it has read the fragment.
func (h *Handler) shell(w http.ResponseWriter, r *http.Request) {
	role, sess := h.requestScope(r)
	ws := h.store.Reset(sess.ID, role)

	fragment, relayed := r.URL.Query()["tab"]
	var snap feature.Snapshot
	deferred := !relayed
	if relayed {
		tab := h.router.Initial(ws.Nav, role, strings.Join(fragment, ""))
		snap = h.mount(h.backendContext(r), ws, role, tab).Snapshot()
	}
	h.renderShell(w, r, http.StatusOK, role, ws, snap, deferred)
}

func (h *Handler) renderShell(w http.ResponseWriter, r *http.Request, status int, role roles.Role, ws *Workspace, snap feature.Snapshot, deferred bool) {
	sess := shared.SessionFromContext(r.Context())
	identity, _ := sess.Identity()
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	active := h.router.Active(ws.Nav, role)

	var switcher []roles.Role
	if identity.Role == roles.SuperAdmin {
		switcher = roles.All
	}
	data := pageData{
		Role:     role,
		Base:     role.HomePath(),
		Menu:     navigation.Menu(role),
		Active:   active,
		ClientID: uuid.NewString(),
		Deferred: deferred,
		Switch:   switcher,
		Panel:    panelView{Base: role.HomePath(), CSRFToken: csrfToken, Deferred: deferred, Snapshot: snap},
	}
	viewData := view.TemplateData{
		Title:       role.Label() + " Dashboard",
		CSRFToken:   csrfToken,
		Flash:       sess.PopFlash(),
		CurrentPath: r.URL.Path,
		Identity:    &identity,
		Data:        data,
	}
	w.Header().Set(HeaderActiveTab, string(active))
	if err := h.templates.RenderStatus(w, status, "pages/dashboard.html", viewData); err != nil {
		h.logger.Error("render dashboard", slog.String("role", string(role)), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type selectResponse struct {
	Tab      navigation.Tab      `json:"tab"`
	Location navigation.Location `json:"location"`
	Href     string              `json:"href"`
}

// selectTab applies a menu selection. The previous panel is unmounted; the
// next panel request mounts the new one.
func (h *Handler) selectTab(w http.ResponseWriter, r *http.Request) {
	role, sess := h.requestScope(r)
	ws := h.store.Get(sess.ID, role)
	tab := navigation.Tab(chi.URLParam(r, "tab"))

	loc, ok := h.router.Select(ws.Nav, role, tab, events.Scope{Session: sess.ID}, clientID(r))
	if !ok {
		if httpx.WantsJSON(r) {
			httpx.RespondError(w, fmt.Errorf("tab %q: %w", tab, httpx.ErrNotFound))
			return
		}
		http.Redirect(w, r, role.HomePath()+"?tab="+string(h.router.Active(ws.Nav, role)), http.StatusSeeOther)
		return
	}
	if current := ws.Panel(); current == nil || current.Tab() != tab {
		ws.swap(nil)
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, selectResponse{Tab: tab, Location: loc, Href: loc.String()})
		return
	}
	http.Redirect(w, r, loc.Path+"?tab="+loc.Fragment+"#"+loc.Fragment, http.StatusSeeOther)
}

// panel renders the active panel, mounting it when needed. ?fragment=
// resolves the initial tab from the location fragment; ?refresh=1 re-fetches.
func (h *Handler) panel(w http.ResponseWriter, r *http.Request) {
	role, sess := h.requestScope(r)
	ws := h.store.Get(sess.ID, role)
	ctx := h.backendContext(r)

	query := r.URL.Query()
	if fragment, ok := query["fragment"]; ok {
		h.router.Initial(ws.Nav, role, strings.Join(fragment, ""))
	}
	active := h.router.Active(ws.Nav, role)

	p := ws.Panel()
	switch {
	case p == nil || p.Tab() != active:
		p = h.mount(ctx, ws, role, active)
	case query.Get("refresh") == "1":
		p.Refresh(ctx)
	}
	h.renderPanel(w, r, http.StatusOK, role, active, p.Snapshot())
}

func (h *Handler) renderPanel(w http.ResponseWriter, r *http.Request, status int, role roles.Role, active navigation.Tab, snap feature.Snapshot) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	w.Header().Set(HeaderActiveTab, string(active))
	w.Header().Set("Cache-Control", "no-store")
	data := view.TemplateData{
		CSRFToken: csrfToken,
		Data:      panelView{Base: role.HomePath(), CSRFToken: csrfToken, Snapshot: snap},
	}
	if err := h.templates.RenderStatus(w, status, "pages/panel.html", data); err != nil {
		h.logger.Error("render panel", slog.String("role", string(role)), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// perform runs a panel action. When the workspace no longer holds that
// panel it is rebuilt without an initial fetch: the action's own re-fetch
// fills it.
func (h *Handler) perform(w http.ResponseWriter, r *http.Request) {
	role, sess := h.requestScope(r)
	ws := h.store.Get(sess.ID, role)
	tab := navigation.Tab(chi.URLParam(r, "tab"))
	action, ok := feature.ParseAction(chi.URLParam(r, "action"))
	if !ok || tab == navigation.TabOverview || !navigation.Known(role, tab) {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	p := ws.Panel()
	if p == nil || p.Tab() != tab {
		if h.router.Active(ws.Nav, role) != tab {
			h.router.Initial(ws.Nav, role, string(tab))
		}
		built, ok := h.panels.Panel(role, tab)
		if !ok {
			http.NotFound(w, r)
			return
		}
		ws.swap(built)
		p = built
	}

	// Entity changes reach every session; the acting page is skipped.
	actor := feature.Actor{Origin: clientID(r)}
	p.Perform(h.backendContext(r), actor, action, chi.URLParam(r, "id"), r.PostForm)
	snap := p.Snapshot()

	status := http.StatusOK
	if snap.Notice != nil && snap.Notice.Kind == "error" {
		status = http.StatusUnprocessableEntity
	}
	if r.Header.Get(HeaderPanel) != "" {
		h.renderPanel(w, r, status, role, tab, snap)
		return
	}
	h.renderShell(w, r, status, role, ws, snap, false)
}

// refreshAll asks every open page of this session and role to re-fetch,
// the requesting page included.
func (h *Handler) refreshAll(w http.ResponseWriter, r *http.Request) {
	role, sess := h.requestScope(r)
	h.bus.Publish(events.Notification{
		Kind:  events.RefreshAll,
		Scope: events.Scope{Session: sess.ID, Role: role},
	})
	if httpx.WantsJSON(r) || r.Header.Get(HeaderPanel) != "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	ws := h.store.Get(sess.ID, role)
	http.Redirect(w, r, role.HomePath()+"?tab="+string(h.router.Active(ws.Nav, role)), http.StatusSeeOther)
}

// mount replaces the workspace panel with a freshly mounted one for tab.
func (h *Handler) mount(ctx context.Context, ws *Workspace, role roles.Role, tab navigation.Tab) feature.Panel {
	p, ok := h.panels.Panel(role, tab)
	if !ok {
		tab = navigation.TabOverview
		p, _ = h.panels.Panel(role, tab)
	}
	ws.swap(p)
	p.Mount(ctx)
	return p
}

func (h *Handler) requestScope(r *http.Request) (roles.Role, *shared.Session) {
	role, _ := rbac.RoleFromContext(r.Context())
	return role, shared.SessionFromContext(r.Context())
}

// backendContext carries the session's bearer token for backend calls.
func (h *Handler) backendContext(r *http.Request) context.Context {
	sess := shared.SessionFromContext(r.Context())
	return backend.WithToken(r.Context(), sess.Token())
}

// withOrigin records the page ID sent by the script, as a header or as the
// client query parameter for EventSource which cannot set headers.
func withOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderClientID)
		if id == "" {
			id = r.URL.Query().Get("client")
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithOrigin(r.Context(), id)))
	})
}

func clientID(r *http.Request) string {
	return shared.OriginFromContext(r.Context())
}
