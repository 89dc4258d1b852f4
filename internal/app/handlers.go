package app

import (
	"github.com/riplabs/annotdb-backend/internal/http/handlers"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *handlers.HealthHandler
	Annotation *handlers.AnnotationHandler
	Batch      *handlers.BatchHandler
	Account    *handlers.AccountHandler
	Search     *handlers.SearchHandler
	Template   *handlers.TemplateHandler
	Client     *handlers.ClientHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     handlers.NewHealthHandler(),
		Annotation: handlers.NewAnnotationHandler(log, s.Annotation),
		Batch:      handlers.NewBatchHandler(log, s.Query),
		Account:    handlers.NewAccountHandler(log, s.Query),
		Search:     handlers.NewSearchHandler(log, s.Search),
		Template:   handlers.NewTemplateHandler(log, s.Template),
		Client:     handlers.NewClientHandler(log, s.Client),
	}
}
