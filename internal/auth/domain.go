package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnknownRole is returned when the login token names no dashboard role.
	ErrUnknownRole = errors.New("auth: token carries no known role")
	// ErrTokenExpired is returned for a login token past its expiry.
	ErrTokenExpired = errors.New("auth: token expired")
)

// Claims are the fields read from the backend access token. The backend
// puts the e-mail address in sub.
type Claims struct {
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// LoginRecord is the audit row written for every dashboard sign-in.
type LoginRecord struct {
	SessionID string
	Subject   string
	Role      string
	CreatedAt time.Time
	ExpiresAt time.Time
	IP        string
	UserAgent string
}
