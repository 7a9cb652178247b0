package security

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tradeya/tradeya-backend/internal/domain/shared"
	"github.com/tradeya/tradeya-backend/pkg/logger"
)

// Auth errors.
var (
	// ErrInvalidCredentials is returned for a wrong identifier or password.
	ErrInvalidCredentials = errors.New("security: invalid credentials")

	// ErrLoginBlocked is returned while the identifier's rate limit block
	// is active.
	ErrLoginBlocked = errors.New("security: too many login attempts")

	// ErrInvalidToken is returned for malformed, expired or forged tokens.
	ErrInvalidToken = errors.New("security: invalid token")
)

// CredentialStore looks up password hashes for login verification.
type CredentialStore interface {
	// GetPasswordHash returns the bcrypt hash for the identifier, or
	// shared.ErrNotFound.
	GetPasswordHash(ctx context.Context, identifier string) (userID string, hash []byte, err error)
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// JWTSecret signs session tokens. Required.
	JWTSecret []byte

	// TokenTTL is the session token lifetime.
	TokenTTL time.Duration

	// Issuer is the iss claim on issued tokens.
	Issuer string
}

// DefaultAuthConfig returns sensible defaults (secret must still be set).
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		TokenTTL: 24 * time.Hour,
		Issuer:   "tradeya-backend",
	}
}

// Claims is the JWT claims structure for session tokens.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// AuthService verifies credentials and issues session tokens. Every login
// attempt passes through the rate limiter first, so repeated failures for
// one identifier escalate into exponential blocks.
type AuthService struct {
	store   CredentialStore
	limiter *RateLimiter
	config  AuthConfig
	log     *logger.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(store CredentialStore, limiter *RateLimiter, config AuthConfig, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.Default()
	}
	if config.TokenTTL <= 0 {
		config.TokenTTL = DefaultAuthConfig().TokenTTL
	}
	if config.Issuer == "" {
		config.Issuer = DefaultAuthConfig().Issuer
	}
	return &AuthService{
		store:   store,
		limiter: limiter,
		config:  config,
		log:     log.With(logger.Component("auth")),
	}
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// Login checks the rate limit, verifies the password, and issues a token.
// A blocked identifier fails before any credential lookup happens.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	check := s.limiter.CheckLimit(identifier)
	if !check.Allowed {
		s.log.Warn("login blocked by rate limiter",
			logger.String("identifier", identifier),
			logger.Time("blocked_until", check.BlockedUntil),
		)
		return nil, ErrLoginBlocked
	}

	userID, hash, err := s.store.GetPasswordHash(ctx, identifier)
	if err != nil {
		if shared.IsNotFound(err) {
			// Indistinguishable from a wrong password on purpose.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// A successful login clears the identifier's window so legitimate users
	// never inherit stale failed-attempt counts.
	s.limiter.Reset(identifier)

	token, expiresAt, err := s.issueToken(userID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{UserID: userID, Token: token, ExpiresAt: expiresAt}, nil
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// issueToken signs a session token for the user.
func (s *AuthService) issueToken(userID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.TokenTTL)

	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.config.Issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.JWTSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies a session token.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.config.JWTSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
