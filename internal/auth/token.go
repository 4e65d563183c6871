package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/paylens/analytics/internal/config"
	"github.com/paylens/analytics/internal/query"
)

// DefaultTTL is the lifetime of tokens issued without an explicit ttl.
const DefaultTTL = 15 * time.Minute

// ErrMissingSecret is returned when no signing secret is configured.
var ErrMissingSecret = errors.New("auth secret is not configured")

// TokenManager issues and verifies HMAC-signed tenant-scope tokens.
type TokenManager struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
}

// NewTokenManager creates a token manager from the auth configuration.
func NewTokenManager(cfg config.AuthConfig) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.Issuer == "" {
		cfg.Issuer = config.DefaultTokenIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = config.DefaultTokenAudience
	}

	return &TokenManager{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		leeway:   cfg.Leeway,
		now:      time.Now,
	}, nil
}

// Issue signs a token granting info for ttl. A zero ttl uses DefaultTTL.
func (tm *TokenManager) Issue(info query.AuthInfo, ttl time.Duration) (string, error) {
	claims, err := ClaimsFor(info)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := tm.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   info.Organization(),
		Issuer:    tm.issuer,
		Audience:  jwt.ClaimStrings{tm.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify checks the signature, issuer, audience and expiry of tokenString
// and returns its claims.
func (tm *TokenManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	},
		jwt.WithIssuer(tm.issuer),
		jwt.WithAudience(tm.audience),
		jwt.WithLeeway(tm.leeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Scope verifies tokenString and returns the scope it grants.
func (tm *TokenManager) Scope(tokenString string) (query.AuthInfo, error) {
	claims, err := tm.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.AuthInfo()
}
