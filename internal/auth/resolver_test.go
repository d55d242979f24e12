package auth

import (
	"context"
	"testing"
	"time"

	"whatsapp-gateway/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeSessions map[string]string

func (f fakeSessions) LookupSession(ctx context.Context, id string) (string, error) {
	if name, ok := f[id]; ok {
		return name, nil
	}
	return "", ErrSessionNotFound
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newResolver(module string) *Resolver {
	return NewResolver(testSecret, "HS256", module, fakeSessions{"sess-1": "admin"})
}

func TestBearerResolvesTenant(t *testing.T) {
	token, _, err := GenerateToken(testSecret, "HS256", TokenSpec{TenantID: "acme", UserID: "u1", TTL: time.Hour})
	require.NoError(t, err)

	id, err := newResolver("").Resolve(context.Background(), Credentials{BearerToken: token})
	require.NoError(t, err)
	assert.Equal(t, "acme", id.TenantID)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, ModeBearer, id.Mode)
}

func TestTenantClaimVariants(t *testing.T) {
	assert.Equal(t, "a", TenantFromClaims(jwt.MapClaims{"tenant_id": "a", "tenant": "b"}))
	assert.Equal(t, "b", TenantFromClaims(jwt.MapClaims{"tenant": "b", "tenantId": "c"}))
	assert.Equal(t, "c", TenantFromClaims(jwt.MapClaims{"tenantId": "c"}))
	assert.Equal(t, "42", TenantFromClaims(jwt.MapClaims{"tenant_id": float64(42)}))
	assert.Equal(t, "7", TenantFromClaims(jwt.MapClaims{"tenant": map[string]interface{}{"id": float64(7)}}))
	assert.Equal(t, "x", TenantFromClaims(jwt.MapClaims{"tenant": map[string]interface{}{"tenant_id": "x"}}))
	assert.Equal(t, "b", TenantFromClaims(jwt.MapClaims{"tenant_id": "", "tenant": "b"}))
	assert.Empty(t, TenantFromClaims(jwt.MapClaims{"sub": "u1"}))
}

func TestValidTokenWithoutTenantDoesNotFallThrough(t *testing.T) {
	token := sign(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})

	_, err := newResolver("").Resolve(context.Background(), Credentials{BearerToken: token, SessionID: "sess-1"})
	assert.ErrorIs(t, err, ErrTenantNotFound)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSessionResolvesDefaultTenant(t *testing.T) {
	id, err := newResolver("").Resolve(context.Background(), Credentials{SessionID: "sess-1"})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTenant, id.TenantID)
	assert.Equal(t, "admin", id.Username)
	assert.Equal(t, ModeSession, id.Mode)
}

func TestBadBearerFallsBackToSession(t *testing.T) {
	r := newResolver("")

	id, err := r.Resolve(context.Background(), Credentials{BearerToken: "garbage", SessionID: "sess-1"})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTenant, id.TenantID)

	_, err = r.Resolve(context.Background(), Credentials{BearerToken: "garbage"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredAndForeignTokens(t *testing.T) {
	r := newResolver("")

	expired := sign(t, jwt.MapClaims{"tenant_id": "acme", "exp": time.Now().Add(-time.Minute).Unix()})
	_, err := r.Resolve(context.Background(), Credentials{BearerToken: expired})
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"tenant_id": "acme"}).SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), Credentials{BearerToken: foreign})
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"tenant_id": "acme"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), Credentials{BearerToken: wrongAlg})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNoCredentials(t *testing.T) {
	_, err := newResolver("").Resolve(context.Background(), Credentials{})
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = newResolver("").Resolve(context.Background(), Credentials{SessionID: "unknown"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestModuleAccess(t *testing.T) {
	r := newResolver("whatsapp")

	granted, _, err := GenerateToken(testSecret, "HS256", TokenSpec{TenantID: "acme", Modules: []string{"crm", "whatsapp"}, TTL: time.Hour})
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), Credentials{BearerToken: granted})
	assert.NoError(t, err)

	byPermission := sign(t, jwt.MapClaims{"tenant_id": "acme", "permissions": []string{"whatsapp.access"}})
	_, err = r.Resolve(context.Background(), Credentials{BearerToken: byPermission})
	assert.NoError(t, err)

	denied := sign(t, jwt.MapClaims{"tenant_id": "acme", "enabled_modules": []string{"crm"}})
	_, err = r.Resolve(context.Background(), Credentials{BearerToken: denied})
	assert.ErrorIs(t, err, ErrModuleDenied)
}

func TestGenerateTokenValidation(t *testing.T) {
	_, _, err := GenerateToken("", "HS256", TokenSpec{TTL: time.Hour})
	assert.Error(t, err)
	_, _, err = GenerateToken(testSecret, "HS256", TokenSpec{})
	assert.Error(t, err)
	_, _, err = GenerateToken(testSecret, "RS256", TokenSpec{TTL: time.Hour})
	assert.Error(t, err)
}
