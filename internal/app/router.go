package app

import (
	"github.com/gin-gonic/gin"

	"github.com/riplabs/annotdb-backend/internal/server"
)

func wireRouter(cfg Config, h Handlers, m Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		HealthHandler:     h.Health,
		AnnotationHandler: h.Annotation,
		BatchHandler:      h.Batch,
		AccountHandler:    h.Account,
		SearchHandler:     h.Search,
		TemplateHandler:   h.Template,
		ClientHandler:     h.Client,
		AuthMiddleware:    m.Auth,
		RequireAuth:       cfg.RequireAuth,
		AllowOrigins:      cfg.AllowOrigins,
	})
}
