package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultSessionTTL = 12 * time.Hour

var (
	errMissingSigningSecret = errors.New("signing secret must be provided")
	errMissingSubject       = errors.New("subject must be provided")

	// ErrMissingSessionToken indicates the request carried no session token.
	ErrMissingSessionToken = errors.New("auth: session token required")
	// ErrExpiredSessionToken indicates a session past its expiry.
	ErrExpiredSessionToken = errors.New("auth: session token expired")
	// ErrInvalidSessionToken indicates a malformed or mis-signed session token.
	ErrInvalidSessionToken = errors.New("auth: invalid session token")
)

// SessionIssuerConfig configures the session JWT issuer.
type SessionIssuerConfig struct {
	SigningSecret []byte
	Issuer        string
	Audience      string
	CookieName    string
	SessionTTL    time.Duration
	Clock         func() time.Time
}

// SessionIssuer issues and validates HS256 session JWTs for signed-in users.
type SessionIssuer struct {
	config SessionIssuerConfig
	clock  func() time.Time
}

// NewSessionIssuer constructs a SessionIssuer with sane defaults.
func NewSessionIssuer(cfg SessionIssuerConfig) *SessionIssuer {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &SessionIssuer{
		config: SessionIssuerConfig{
			SigningSecret: append([]byte(nil), cfg.SigningSecret...),
			Issuer:        cfg.Issuer,
			Audience:      cfg.Audience,
			CookieName:    cfg.CookieName,
			SessionTTL:    ttl,
			Clock:         clock,
		},
		clock: clock,
	}
}

// CookieName returns the cookie name configured for session lookups.
func (i *SessionIssuer) CookieName() string {
	return i.config.CookieName
}

// SessionTTL returns the configured session lifetime.
func (i *SessionIssuer) SessionTTL() time.Duration {
	return i.config.SessionTTL
}

// IssueSessionToken produces a signed JWT and its expiry (seconds) for the user.
func (i *SessionIssuer) IssueSessionToken(_ context.Context, userID string) (string, int64, error) {
	if len(i.config.SigningSecret) == 0 {
		return "", 0, errMissingSigningSecret
	}
	if strings.TrimSpace(userID) == "" {
		return "", 0, errMissingSubject
	}

	now := i.clock().UTC()
	expiresAt := now.Add(i.config.SessionTTL).UTC()

	registered := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    i.config.Issuer,
		Audience:  []string{i.config.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, registered)
	signed, err := token.SignedString(i.config.SigningSecret)
	if err != nil {
		return "", 0, err
	}

	return signed, int64(expiresAt.Sub(now).Seconds()), nil
}

// ValidateToken ensures the session JWT is well formed and returns the user id.
func (i *SessionIssuer) ValidateToken(tokenString string) (string, error) {
	if len(i.config.SigningSecret) == 0 {
		return "", errMissingSigningSecret
	}
	if strings.TrimSpace(tokenString) == "" {
		return "", ErrMissingSessionToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("%w: unexpected signing algorithm %s", ErrInvalidSessionToken, token.Method.Alg())
			}
			return i.config.SigningSecret, nil
		},
		jwt.WithAudience(i.config.Audience),
		jwt.WithIssuer(i.config.Issuer),
		jwt.WithTimeFunc(i.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredSessionToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if parsed == nil || !parsed.Valid {
		return "", ErrInvalidSessionToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errMissingSubject
	}
	return claims.Subject, nil
}

// ValidateRequest extracts the session token from the request and validates
// it. The session cookie wins; an Authorization bearer header is accepted as
// a fallback for non-browser clients.
func (i *SessionIssuer) ValidateRequest(r *http.Request) (string, error) {
	if r == nil {
		return "", ErrMissingSessionToken
	}
	if i.config.CookieName != "" {
		if cookie, err := r.Cookie(i.config.CookieName); err == nil && cookie != nil && cookie.Value != "" {
			return i.ValidateToken(cookie.Value)
		}
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token != "" {
			return i.ValidateToken(token)
		}
	}
	return "", ErrMissingSessionToken
}
