package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"whatsapp-gateway/internal/auth"
	"whatsapp-gateway/internal/config"
)

// issue_token mints a bearer token signed with JWT_SECRET_KEY, for local
// integrations and smoke tests against a running server.
func main() {
	tenant := flag.String("tenant", "", "tenant id claim (required)")
	user := flag.String("user", "", "user id claim")
	modules := flag.String("modules", "", "comma separated module list")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if strings.TrimSpace(*tenant) == "" {
		log.Fatal("-tenant is required")
	}

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	token, expiresAt, err := auth.GenerateToken(cfg.JWTSecret, cfg.JWTAlgorithm, auth.TokenSpec{
		TenantID: *tenant,
		UserID:   *user,
		Modules:  splitList(*modules),
		TTL:      *ttl,
	})
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	log.Printf("Token for tenant %q expires at %s", *tenant, expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
