// Package auth resolves the tenant of API callers from a bearer token or a
// legacy session cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"whatsapp-gateway/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken    = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrTenantNotFound  = fmt.Errorf("%w: tenant not found in token", ErrUnauthenticated)
	ErrNoCredentials   = fmt.Errorf("%w: no credentials", ErrUnauthenticated)

	ErrModuleDenied = errors.New("module access denied")
)

var (
	tenantClaims = []string{"tenant_id", "tenant", "tenantId"}
	userClaims   = []string{"user_id", "sub", "id"}
)

type Mode string

const (
	ModeBearer  Mode = "bearer"
	ModeSession Mode = "session"
)

// Credentials are the raw inputs of one request; either may be empty.
type Credentials struct {
	BearerToken string
	SessionID   string
}

type Identity struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Mode     Mode   `json:"mode"`
}

// SessionLookup returns the username behind a live session id.
type SessionLookup interface {
	LookupSession(ctx context.Context, id string) (string, error)
}

type Resolver struct {
	secret         []byte
	algorithm      string
	requiredModule string
	sessions       SessionLookup
}

func NewResolver(secret, algorithm, requiredModule string, sessions SessionLookup) *Resolver {
	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}
	return &Resolver{
		secret:         []byte(secret),
		algorithm:      algorithm,
		requiredModule: requiredModule,
		sessions:       sessions,
	}
}

// Resolve tries the bearer token first. A token that fails to decode falls
// through to the session; a token that decodes but carries no tenant does
// not.
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) (Identity, error) {
	var bearerErr error
	if creds.BearerToken != "" {
		claims, err := r.decode(creds.BearerToken)
		if err == nil {
			return r.fromClaims(claims)
		}
		bearerErr = err
	}

	if creds.SessionID != "" && r.sessions != nil {
		username, err := r.sessions.LookupSession(ctx, creds.SessionID)
		if err == nil && username != "" {
			return Identity{
				TenantID: config.DefaultTenant,
				UserID:   username,
				Username: username,
				Mode:     ModeSession,
			}, nil
		}
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			log.Printf("Error looking up session: %v", err)
		}
	}

	if bearerErr != nil {
		return Identity{}, bearerErr
	}
	return Identity{}, ErrNoCredentials
}

func (r *Resolver) decode(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{r.algorithm}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func (r *Resolver) fromClaims(claims jwt.MapClaims) (Identity, error) {
	tenant := TenantFromClaims(claims)
	if tenant == "" {
		return Identity{}, ErrTenantNotFound
	}
	if r.requiredModule != "" && !HasModuleAccess(claims, r.requiredModule) {
		return Identity{}, ErrModuleDenied
	}
	return Identity{
		TenantID: tenant,
		UserID:   firstClaim(claims, userClaims),
		Username: claimString(claims["username"]),
		Mode:     ModeBearer,
	}, nil
}

// TenantFromClaims returns the first present tenant claim. An object claim
// yields its id or tenant_id field.
func TenantFromClaims(claims jwt.MapClaims) string {
	for _, key := range tenantClaims {
		raw, ok := claims[key]
		if !ok {
			continue
		}
		if obj, ok := raw.(map[string]interface{}); ok {
			if id := firstClaim(obj, []string{"id", "tenant_id"}); id != "" {
				return id
			}
			continue
		}
		if v := claimString(raw); v != "" {
			return v
		}
	}
	return ""
}

// HasModuleAccess reports whether the token grants module through modules,
// enabled_modules or a "<module>.access" permission.
func HasModuleAccess(claims jwt.MapClaims, module string) bool {
	return contains(claims["modules"], module) ||
		contains(claims["enabled_modules"], module) ||
		contains(claims["permissions"], module+".access")
}

func contains(raw interface{}, want string) bool {
	list, ok := raw.([]interface{})
	if !ok {
		return false
	}
	for _, v := range list {
		if claimString(v) == want {
			return true
		}
	}
	return false
}

func firstClaim(claims map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if v := claimString(claims[key]); v != "" {
			return v
		}
	}
	return ""
}

func claimString(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return ""
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(raw)
	}
}
