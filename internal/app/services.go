package app

import (
	"gorm.io/gorm"

	"github.com/riplabs/annotdb-backend/internal/platform/cache"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
	"github.com/riplabs/annotdb-backend/internal/services"
)

type Services struct {
	Annotation services.AnnotationService
	Query      services.QueryService
	Search     services.SearchService
	Template   services.TemplateService
	Client     services.ClientService
}

func wireServices(db *gorm.DB, log *logger.Logger, cch *cache.Cache, r Repos) Services {
	log.Info("Wiring services...")
	return Services{
		Annotation: services.NewAnnotationService(db, log, cch, r.Account, r.Key, r.Value, r.Batch, r.Record, r.Current),
		Query:      services.NewQueryService(db, log, cch, r.Account, r.Batch, r.Record, r.Current),
		Search:     services.NewSearchService(db, log, r.Account, r.Key, r.Record, r.Current),
		Template:   services.NewTemplateService(db, log, r.Template, r.Key),
		Client:     services.NewClientService(db, log, r.Client),
	}
}
