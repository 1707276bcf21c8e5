// Package auth issues and validates the operator tokens that guard the
// mutating half of the API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "qualitywatch"

// ErrNoSecret is returned when a token is requested without a signing secret.
var ErrNoSecret = errors.New("auth: jwt secret not configured")

// Config is read from the "auth" section.
type Config struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

func DefaultConfig() Config {
	return Config{TokenTTL: 24 * time.Hour}
}

// Enabled reports whether API requests must carry a token.
func (c Config) Enabled() bool { return c.JWTSecret != "" }

// Claims holds the JWT payload for operator tokens.
type Claims struct {
	jwt.RegisteredClaims
	Operator string `json:"op"`
}

// TokenService signs and verifies HS256 operator tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given signing secret and TTL.
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl}
}

// NewTokenServiceFromConfig returns nil when auth is disabled.
func NewTokenServiceFromConfig(cfg Config) *TokenService {
	if !cfg.Enabled() {
		return nil
	}
	return NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
}

// Issue generates a signed token for the named operator.
func (s *TokenService) Issue(operator string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoSecret
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
		},
		Operator: operator,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and validates a token, returning the claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
