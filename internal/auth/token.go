package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSpec describes a bearer token to mint.
type TokenSpec struct {
	TenantID string
	UserID   string
	Modules  []string
	TTL      time.Duration
}

// GenerateToken signs a bearer token carrying the tenant_id and user_id claims.
func GenerateToken(secret, algorithm string, spec TokenSpec) (string, time.Time, error) {
	if strings.TrimSpace(secret) == "" {
		return "", time.Time{}, fmt.Errorf("jwt secret is required")
	}
	if spec.TTL <= 0 {
		return "", time.Time{}, fmt.Errorf("jwt ttl must be positive")
	}
	method := jwt.GetSigningMethod(algorithm)
	if algorithm == "" {
		method = jwt.SigningMethodHS256
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return "", time.Time{}, fmt.Errorf("unsupported signing method %q", algorithm)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(spec.TTL)
	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	if spec.TenantID != "" {
		claims["tenant_id"] = spec.TenantID
	}
	if spec.UserID != "" {
		claims["user_id"] = spec.UserID
		claims["sub"] = spec.UserID
	}
	if len(spec.Modules) > 0 {
		claims["modules"] = spec.Modules
	}

	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
