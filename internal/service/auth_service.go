package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveylab/internal/config"
	"github.com/stemsi/surveylab/internal/metrics"
	"github.com/stemsi/surveylab/internal/model"
	"github.com/stemsi/surveylab/internal/repository"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims extends JWT standard claims with the logged-in username. The token
// ID (jti) is the session id.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// SessionID returns the session the token is bound to.
func (c *Claims) SessionID() string { return c.ID }

// AuthService checks credentials, issues tokens and owns session lifetime.
type AuthService struct {
	cfg      *config.Config
	sessions repository.SessionRepository
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, sessions repository.SessionRepository, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:      cfg,
		sessions: sessions,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

// Authenticate checks username/password against the credential table. On a
// match it returns a logged-in copy of s; otherwise s itself and false.
// Unknown users and wrong passwords are not distinguished.
func (a *AuthService) Authenticate(s *model.Session, username, password string) (*model.Session, bool) {
	expected, ok := a.cfg.Credentials[username]
	if !ok || expected != password {
		return s, false
	}
	next := s.Clone()
	next.LoggedIn = true
	next.CurrentUser = username
	next.UpdatedAt = time.Now().UTC()
	return next, true
}

// Login creates a fresh session for the user and returns its signed token.
func (a *AuthService) Login(ctx context.Context, username, password string) (string, *model.Session, error) {
	sess, ok := a.Authenticate(model.NewSession(uuid.New().String()), username, password)
	if !ok {
		metrics.Logins.WithLabelValues("invalid").Inc()
		a.log.Info().Str("username", username).Msg("Login rejected")
		return "", nil, ErrInvalidCredentials
	}

	token, err := a.GenerateToken(sess)
	if err != nil {
		return "", nil, err
	}
	if err := a.sessions.Save(ctx, sess); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	metrics.Logins.WithLabelValues("success").Inc()
	a.log.Info().Str("username", username).Str("session_id", sess.ID).Msg("User logged in")
	return token, sess, nil
}

// Logout deletes the session bound to the token.
func (a *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := a.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	a.log.Info().Str("session_id", sessionID).Msg("User logged out")
	return nil
}

// GenerateToken signs an HS256 token for a logged-in session.
func (a *AuthService) GenerateToken(sess *model.Session) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.CurrentUser,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.SessionTTL)),
		},
		Username: sess.CurrentUser,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (a *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(a.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
