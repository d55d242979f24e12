package main

import (
	"context"
	"errors"
	"log"
	"os"

	"whatsapp-gateway/internal/auth"
	"whatsapp-gateway/internal/config"
	"whatsapp-gateway/internal/database"
	"whatsapp-gateway/internal/store"
)

// create_admin provisions a session-mode dashboard login from
// ADMIN_USERNAME and ADMIN_PASSWORD.
func main() {
	cfg := config.LoadConfig()
	if cfg.AdminPassword == "" {
		log.Fatal("ADMIN_PASSWORD is required")
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	repos := store.New(db)
	sessions := auth.NewSessions(repos.Sessions, cfg.SessionTTL)

	user, err := sessions.CreateUser(context.Background(), cfg.AdminUsername, cfg.AdminPassword)
	if errors.Is(err, store.ErrDuplicate) {
		log.Printf("Admin user %q already exists", cfg.AdminUsername)
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}
	log.Printf("Created admin user %q (id %d)", user.Username, user.ID)
}
