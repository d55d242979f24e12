package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultTenant is used for legacy session logins and for webhook events
// arriving on a phone number that has no tenant mapping.
const DefaultTenant = "default"

type Config struct {
	Port                      string
	VerifyToken               string
	WhatsAppToken             string
	PhoneNumberID             string
	WhatsAppBusinessAccountID string
	GraphAPIVersion           string
	GraphBaseURL              string
	AppSecret                 string
	ValidateUpdates           bool

	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret      string
	JWTAlgorithm   string
	RequiredModule string
	SessionCookie  string
	SessionTTL     time.Duration
	AdminUsername  string
	AdminPassword  string

	FlowID     string
	FlowToken  string
	FlowCTA    string
	FlowAction string
	FlowScreen string

	SendTimeout        time.Duration
	WebhookLogMaxBytes int

	// TenantPhoneNumbers maps a provider phone_number_id to a tenant.
	TenantPhoneNumbers map[string]string
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Error loading .env file")
	}

	return &Config{
		Port:                      getEnv("PORT", "8080"),
		VerifyToken:               getEnv("VERIFY_TOKEN", ""),
		WhatsAppToken:             getEnv("WHATSAPP_TOKEN", ""),
		PhoneNumberID:             getEnv("PHONE_NUMBER_ID", ""),
		WhatsAppBusinessAccountID: getEnv("WABA_ID", ""),
		GraphAPIVersion:           getEnv("GRAPH_API_VERSION", "v19.0"),
		GraphBaseURL:              getEnv("GRAPH_BASE_URL", "https://graph.facebook.com"),
		AppSecret:                 firstEnv("APP_SECRET", "META_APP_SECRET", "FB_APP_SECRET"),
		ValidateUpdates:           getEnvBool("VALIDATE_UPDATES", true),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", "./whatsapp.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "whatsapp"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:      firstEnv("JWT_SECRET_KEY", "JWT_SECRET"),
		JWTAlgorithm:   getEnv("JWT_ALGORITHM", "HS256"),
		RequiredModule: getEnv("REQUIRED_MODULE", ""),
		SessionCookie:  getEnv("SESSION_COOKIE", "session_id"),
		SessionTTL:     getEnvDuration("SESSION_TTL", 24*time.Hour),
		AdminUsername:  getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),

		FlowID:     getEnv("FLOW_ID", ""),
		FlowToken:  getEnv("FLOW_TOKEN", ""),
		FlowCTA:    getEnv("FLOW_CTA", "Open"),
		FlowAction: getEnv("FLOW_ACTION", "navigate"),
		FlowScreen: getEnv("FLOW_SCREEN", ""),

		SendTimeout:        getEnvDuration("SEND_TIMEOUT", 5*time.Second),
		WebhookLogMaxBytes: getEnvInt("WEBHOOK_LOG_MAX_BYTES", 4096),

		TenantPhoneNumbers: ParseTenantPhoneNumbers(getEnv("TENANT_PHONE_NUMBERS", "")),
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.JWTAlgorithm)
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// TenantForPhoneNumber resolves the tenant owning a provider phone number id.
func (c *Config) TenantForPhoneNumber(phoneNumberID string) string {
	if tenant, ok := c.TenantPhoneNumbers[phoneNumberID]; ok && tenant != "" {
		return tenant
	}
	return DefaultTenant
}

// FlowConfigured reports whether the /flow command has a flow to send.
func (c *Config) FlowConfigured() bool {
	return strings.TrimSpace(c.FlowID) != ""
}

// ParseTenantPhoneNumbers parses "phone_number_id:tenant,..." pairs.
// Malformed pairs are skipped.
func ParseTenantPhoneNumbers(raw string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		id, tenant, ok := strings.Cut(strings.TrimSpace(pair), ":")
		id, tenant = strings.TrimSpace(id), strings.TrimSpace(tenant)
		if !ok || id == "" || tenant == "" {
			continue
		}
		out[id] = tenant
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "0", "false", "no", "off":
		return false
	case "1", "true", "yes", "on":
		return true
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %s", key, value, fallback)
		return fallback
	}
	return d
}
