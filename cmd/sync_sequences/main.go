package main

import (
	"log"

	"whatsapp-gateway/internal/config"
	"whatsapp-gateway/internal/database"

	"gorm.io/gorm/logger"
)

// Tables with serial ids. admin_sessions is keyed by uuid.
var tables = []string{
	"messages",
	"contacts",
	"groups",
	"delivery_statuses",
	"webhook_logs",
	"admin_users",
}

func main() {
	cfg := config.LoadConfig()
	if cfg.DBDriver != "postgres" {
		log.Fatalf("sync_sequences only applies to postgres, DB_DRIVER is %q", cfg.DBDriver)
	}
	db, err := database.Connect(cfg, logger.Default.LogMode(logger.Warn))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	log.Println("Syncing PostgreSQL sequences...")

	for _, table := range tables {
		query := "SELECT setval(pg_get_serial_sequence('" + table + "', 'id'), coalesce(max(id), 0) + 1, false) FROM " + table
		if err := db.Exec(query).Error; err != nil {
			log.Printf("Error syncing sequence for %s: %v", table, err)
		} else {
			log.Printf("Successfully synced sequence for %s", table)
		}
	}

	log.Println("DONE!")
}
