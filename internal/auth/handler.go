package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rentaldesk/rentaldesk/internal/shared"
	"github.com/rentaldesk/rentaldesk/internal/view"
)

// WorkspaceDropper forgets the dashboard state of a session.
type WorkspaceDropper interface {
	Drop(session string)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	workspaces     WorkspaceDropper
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance. workspaces may be nil.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager, workspaces WorkspaceDropper) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		workspaces:     workspaces,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type loginPageData struct {
	Username string
	Error    string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if identity, ok := sess.Identity(); ok {
		http.Redirect(w, r, identity.Role.HomePath(), http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, loginPageData{})
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data loginPageData) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	viewData := view.TemplateData{
		Title:       "Sign in",
		CSRFToken:   csrfToken,
		Flash:       sess.PopFlash(),
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.RenderStatus(w, status, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	form := loginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
	if err := h.validator.Struct(form); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, loginPageData{Username: form.Username, Error: "Enter your username and password."})
		return
	}

	identity, token, err := h.service.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		msg := "Sign-in failed. Please try again."
		var loginErr *LoginError
		if errors.As(err, &loginErr) {
			msg = loginErr.Message
		}
		h.logger.Info("login rejected", slog.String("username", form.Username), slog.Any("error", err))
		status := http.StatusBadRequest
		if !errors.Is(err, shared.ErrInvalidCredentials) && !errors.Is(err, ErrUnknownRole) {
			status = http.StatusBadGateway
		}
		h.renderLogin(w, r, status, loginPageData{Username: form.Username, Error: msg})
		return
	}

	if err := sess.SignIn(identity, token); err != nil {
		h.logger.Error("seal session token", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if _, err := h.csrfManager.Rotate(r.Context(), sess); err != nil {
		h.logger.Warn("rotate csrf", slog.Any("error", err))
	}
	rec := LoginRecord{
		SessionID: sess.ID,
		Subject:   identity.ID,
		Role:      string(identity.Role),
		ExpiresAt: time.Now().Add(h.sessionManager.TTL()),
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
	if err := h.service.RegisterSession(r.Context(), rec); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	h.logger.Info("login", slog.String("user", identity.ID), slog.String("role", string(identity.Role)))
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back, " + identity.DisplayName() + "."})
	http.Redirect(w, r, identity.Role.HomePath(), http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		if h.workspaces != nil {
			h.workspaces.Drop(sess.ID)
		}
		sess.SignOut()
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}
