package db

import (
	types "github.com/riplabs/annotdb-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Annotation history + projection
		&types.Account{},
		&types.AnnotationKey{},
		&types.AnnotationValue{},
		&types.AnnotationBatch{},
		&types.Annotation{},
		&types.CurrentAnnotation{},

		// Templates
		&types.AnnotationTemplate{},
		&types.AnnotationTemplateEntry{},

		// API clients
		&types.Client{},
	)
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
