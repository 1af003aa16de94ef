package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/rentaldesk/rentaldesk/internal/auth"
	"github.com/rentaldesk/rentaldesk/internal/dashboard"
	"github.com/rentaldesk/rentaldesk/internal/observability"
	"github.com/rentaldesk/rentaldesk/internal/shared"
	"github.com/rentaldesk/rentaldesk/internal/view"
	"github.com/rentaldesk/rentaldesk/jobs"
	"github.com/rentaldesk/rentaldesk/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Templates        *view.Engine
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	AuthHandler      *auth.Handler
	DashboardHandler *dashboard.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

type errorPage struct {
	Status  int
	Message string
}

// NewRouter constructs the chi.Router with RentalDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if identity, ok := sess.Identity(); ok {
			http.Redirect(w, r, identity.Role.HomePath(), http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(web.Static())))
	r.Handle("/static/*", staticCacheHandler(fileServer))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, params, http.StatusNotFound, "The page you asked for does not exist.")
	})

	return r
}

func renderError(w http.ResponseWriter, r *http.Request, params RouterParams, status int, message string) {
	sess := shared.SessionFromContext(r.Context())
	data := view.TemplateData{
		Title:       http.StatusText(status),
		CurrentPath: r.URL.Path,
		Data:        errorPage{Status: status, Message: message},
	}
	if identity, ok := sess.Identity(); ok {
		data.Identity = &identity
	}
	if token, err := params.CSRFManager.EnsureToken(r.Context(), sess); err == nil {
		data.CSRFToken = token
	}
	if err := params.Templates.RenderStatus(w, status, "pages/error.html", data); err != nil {
		params.Logger.Error("render error page", slog.Any("error", err))
		http.Error(w, http.StatusText(status), status)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
// Static assets are cached for one hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
