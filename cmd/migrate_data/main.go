package main

import (
	"log"

	"whatsapp-gateway/internal/config"
	"whatsapp-gateway/internal/database"
	"whatsapp-gateway/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const batchSize = 500

// migrate_data copies every table from the sqlite file at DB_PATH into the
// postgres database described by the DB_* settings.
func main() {
	cfg := config.LoadConfig()

	// 1. Connect to SQLite (Source)
	sqliteDB, err := database.OpenSQLite(cfg.DBPath, nil)
	if err != nil {
		log.Fatalf("Failed to connect to SQLite: %v", err)
	}
	log.Printf("Connected to SQLite at %s", cfg.DBPath)

	// 2. Connect to PostgreSQL (Destination)
	pgCfg := *cfg
	pgCfg.DBDriver = "postgres"
	pgDB, err := database.Connect(&pgCfg, logger.Default.LogMode(logger.Warn))
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	if err := database.Migrate(pgDB); err != nil {
		log.Fatalf("Failed to migrate PostgreSQL schema: %v", err)
	}

	log.Println("Starting data migration...")

	failed := 0
	for _, step := range []func() (int, error){
		func() (int, error) { return migrateTable[models.Contact](sqliteDB, pgDB) },
		func() (int, error) { return migrateTable[models.Group](sqliteDB, pgDB) },
		func() (int, error) { return migrateTable[models.Message](sqliteDB, pgDB) },
		func() (int, error) { return migrateTable[models.DeliveryStatus](sqliteDB, pgDB) },
		func() (int, error) { return migrateTable[models.WebhookLog](sqliteDB, pgDB) },
		func() (int, error) { return migrateTable[models.AdminUser](sqliteDB, pgDB) },
		func() (int, error) { return migrateTable[models.AdminSession](sqliteDB, pgDB) },
	} {
		if _, err := step(); err != nil {
			log.Printf("Error: %v", err)
			failed++
		}
	}

	if failed > 0 {
		log.Fatalf("Migration finished with %d failed tables", failed)
	}
	log.Println("Migration completed! Run sync_sequences before starting the server.")
}

// migrateTable copies all rows of T in batches, one transaction per batch.
func migrateTable[T any](src, dst *gorm.DB) (int, error) {
	var rows []T
	table := "rows"
	if t, ok := any(new(T)).(interface{ TableName() string }); ok {
		table = t.TableName()
	}
	log.Printf("Migrating table: %s", table)

	copied := 0
	result := src.Model(new(T)).FindInBatches(&rows, batchSize, func(tx *gorm.DB, batch int) error {
		if err := dst.Transaction(func(dtx *gorm.DB) error {
			return dtx.Create(&rows).Error
		}); err != nil {
			return err
		}
		copied += len(rows)
		return nil
	})
	if result.Error != nil {
		log.Printf("Error writing %s to Postgres after %d rows", table, copied)
		return copied, result.Error
	}
	log.Printf("Successfully migrated %s (%d rows)", table, copied)
	return copied, nil
}
