package database

import (
	"BioLink-Backend/internal/domain"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AutoMigrate creates or updates the tables this service reads and writes.
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("starting database auto-migration")

	// Order matters for foreign keys.
	models := []interface{}{
		&domain.Profile{},
		&domain.Link{},
		&domain.Event{},
		&domain.Badge{},
		&domain.UserBadge{},
	}

	for i, model := range models {
		modelName := fmt.Sprintf("%T", model)
		log.Info("migrating model",
			zap.String("model", modelName),
			zap.Int("step", i+1),
			zap.Int("total", len(models)))

		if err := db.AutoMigrate(model); err != nil {
			log.Error("failed to migrate model", zap.String("model", modelName), zap.Error(err))
			return fmt.Errorf("failed to migrate model %s: %w", modelName, err)
		}
	}

	log.Info("database auto-migration completed successfully", zap.Int("migrated_models", len(models)))
	return nil
}

// SeedBadges inserts catalog entries that do not exist yet. Existing rows
// are left as administered.
func SeedBadges(db *gorm.DB, log *zap.Logger, catalog []domain.Badge) error {
	if len(catalog) == 0 {
		return nil
	}

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&catalog)
	if result.Error != nil {
		log.Error("failed to seed badge catalog", zap.Error(result.Error))
		return fmt.Errorf("failed to seed badge catalog: %w", result.Error)
	}

	log.Info("badge catalog seeded",
		zap.Int("catalog_size", len(catalog)),
		zap.Int64("inserted", result.RowsAffected))
	return nil
}
