package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rentaldesk/rentaldesk/internal/backend"
	"github.com/rentaldesk/rentaldesk/internal/roles"
	"github.com/rentaldesk/rentaldesk/internal/shared"
)

// Authenticator exchanges credentials for a backend access token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (backend.TokenResponse, error)
}

// LoginError carries a message safe to show on the login page.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }

// Service wraps the sign-in rules.
type Service struct {
	backend   Authenticator
	repo      Repository
	jwtSecret []byte
	now       func() time.Time
}

// NewService constructs a Service. With an empty jwtSecret token claims are
// read without signature verification; the backend remains the authority
// on every data request.
func NewService(auth Authenticator, repo Repository, jwtSecret string) *Service {
	return &Service{backend: auth, repo: repo, jwtSecret: []byte(jwtSecret), now: time.Now}
}

// Login signs in against the backend and returns the identity held in the
// issued token together with the raw token.
func (s *Service) Login(ctx context.Context, username, password string) (shared.Identity, string, error) {
	res, err := s.backend.Login(ctx, username, password)
	if err != nil {
		return shared.Identity{}, "", loginFailure(err)
	}
	identity, err := s.ParseIdentity(res.AccessToken)
	if err != nil {
		return shared.Identity{}, "", &LoginError{Message: "Your account has no dashboard access.", Err: err}
	}
	return identity, res.AccessToken, nil
}

func loginFailure(err error) error {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest {
			if msg == "" {
				msg = "Incorrect username or password."
			}
			return &LoginError{Message: msg, Err: fmt.Errorf("%w: %w", shared.ErrInvalidCredentials, err)}
		}
		if msg == "" {
			msg = "Sign-in failed. Please try again."
		}
		return &LoginError{Message: msg, Err: err}
	}
	if backend.IsTransport(err) {
		return &LoginError{Message: "The rental service is unreachable. Please try again shortly.", Err: err}
	}
	return &LoginError{Message: "Sign-in failed. Please try again.", Err: err}
}

// ParseIdentity reads the identity claims from an access token.
func (s *Service) ParseIdentity(token string) (shared.Identity, error) {
	claims := &Claims{}
	if len(s.jwtSecret) > 0 {
		_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return s.jwtSecret, nil
		}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}), jwt.WithTimeFunc(s.now))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return shared.Identity{}, ErrTokenExpired
			}
			return shared.Identity{}, fmt.Errorf("auth: parse token: %w", err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return shared.Identity{}, fmt.Errorf("auth: parse token: %w", err)
		}
		if claims.ExpiresAt != nil && !claims.ExpiresAt.After(s.now()) {
			return shared.Identity{}, ErrTokenExpired
		}
	}

	role, ok := roles.Parse(claims.Role)
	if !ok {
		return shared.Identity{}, ErrUnknownRole
	}
	identity := shared.Identity{
		ID:   claims.UserID,
		Name: claims.Name,
		Role: role,
	}
	if strings.Contains(claims.Subject, "@") {
		identity.Email = claims.Subject
	}
	if identity.ID == "" {
		identity.ID = claims.Subject
	}
	return identity, nil
}

// RegisterSession persists the sign-in for auditing.
func (s *Service) RegisterSession(ctx context.Context, rec LoginRecord) error {
	if s.repo == nil {
		return nil
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	return s.repo.CreateSession(ctx, rec)
}

// RemoveSession deletes the audit row of a session.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	if s.repo == nil {
		return nil
	}
	return s.repo.DeleteSession(ctx, id)
}
