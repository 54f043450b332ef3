package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ms-turnos/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSession = errors.New("no session")

// Sessions signs the staff username into an HS256 token kept in a cookie.
type Sessions struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	now        func() time.Time
}

func NewSessions(cfg config.SessionConfig) *Sessions {
	name := cfg.CookieName
	if name == "" {
		name = "session"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Sessions{
		secret:     []byte(cfg.Secret),
		ttl:        ttl,
		cookieName: name,
		now:        time.Now,
	}
}

// Start sets the session cookie for username.
func (s *Sessions) Start(w http.ResponseWriter, username string) error {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(s.ttl),
	})
	return nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// Username returns the subject of a valid session token carried by r.
func (s *Sessions) Username(r *http.Request) (string, error) {
	raw, err := s.extractToken(r)
	if err != nil {
		return "", err
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("invalid session: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("subject claim not found in session")
	}
	return claims.Subject, nil
}

// extractToken reads the cookie, falling back to an Authorization: Bearer
// header for API clients.
func (s *Sessions) extractToken(r *http.Request) (string, error) {
	if c, err := r.Cookie(s.cookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrNoSession
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}
	return parts[1], nil
}
