package app

import (
	"gorm.io/gorm"

	"github.com/riplabs/annotdb-backend/internal/data/repos"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

type Repos struct {
	Account  repos.AccountRepo
	Key      repos.AnnotationKeyRepo
	Value    repos.AnnotationValueRepo
	Batch    repos.AnnotationBatchRepo
	Record   repos.AnnotationRepo
	Current  repos.CurrentAnnotationRepo
	Template repos.AnnotationTemplateRepo
	Client   repos.ClientRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Account:  repos.NewAccountRepo(db, log),
		Key:      repos.NewAnnotationKeyRepo(db, log),
		Value:    repos.NewAnnotationValueRepo(db, log),
		Batch:    repos.NewAnnotationBatchRepo(db, log),
		Record:   repos.NewAnnotationRepo(db, log),
		Current:  repos.NewCurrentAnnotationRepo(db, log),
		Template: repos.NewAnnotationTemplateRepo(db, log),
		Client:   repos.NewClientRepo(db, log),
	}
}
