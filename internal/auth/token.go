package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL applies when Issue is called without a lifetime.
const DefaultTokenTTL = 15 * time.Minute

// TokenService issues and verifies HMAC-signed bearer tokens carrying a
// subject claim. It holds no per-token state.
type TokenService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces the time source used for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService creates a token service for the given secret and HMAC
// algorithm name (HS256, HS384 or HS512). An empty algorithm means HS256.
func NewTokenService(secret, algorithm string, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	s := &TokenService{secret: []byte(secret), method: method, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Algorithm returns the signing algorithm name.
func (s *TokenService) Algorithm() string {
	return s.method.Alg()
}

// Issue signs a token for subject that expires ttl from now. A non-positive
// ttl means DefaultTokenTTL.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the subject of a valid token. Any failure (bad signature,
// malformed token, foreign algorithm, missing subject or expiry, expired)
// yields ok=false and nothing else.
func (s *TokenService) Verify(token string) (subject string, ok bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
