package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTenantPhoneNumbers(t *testing.T) {
	got := ParseTenantPhoneNumbers(" 111:acme, 222:globex,bad, :x,333: ")
	assert.Equal(t, map[string]string{"111": "acme", "222": "globex"}, got)
	assert.Empty(t, ParseTenantPhoneNumbers(""))
}

func TestTenantForPhoneNumber(t *testing.T) {
	cfg := &Config{TenantPhoneNumbers: map[string]string{"111": "acme"}}
	assert.Equal(t, "acme", cfg.TenantForPhoneNumber("111"))
	assert.Equal(t, DefaultTenant, cfg.TenantForPhoneNumber("999"))
	assert.Equal(t, DefaultTenant, cfg.TenantForPhoneNumber(""))
}

func TestValidate(t *testing.T) {
	cfg := &Config{JWTSecret: "s", JWTAlgorithm: "HS256", DBDriver: "sqlite"}
	assert.NoError(t, cfg.Validate())

	cfg.JWTSecret = " "
	assert.Error(t, cfg.Validate())

	cfg = &Config{JWTSecret: "s", JWTAlgorithm: "RS256", DBDriver: "sqlite"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{JWTSecret: "s", JWTAlgorithm: "HS256", DBDriver: "mysql"}
	assert.Error(t, cfg.Validate())
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("GW_BOOL", "no")
	t.Setenv("GW_INT", "12")
	t.Setenv("GW_BAD_INT", "x")
	t.Setenv("GW_DUR", "3s")

	assert.False(t, getEnvBool("GW_BOOL", true))
	assert.True(t, getEnvBool("GW_MISSING", true))
	assert.Equal(t, 12, getEnvInt("GW_INT", 1))
	assert.Equal(t, 1, getEnvInt("GW_BAD_INT", 1))
	assert.Equal(t, "3s", getEnvDuration("GW_DUR", 0).String())
}
