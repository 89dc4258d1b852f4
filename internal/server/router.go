package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/riplabs/annotdb-backend/internal/http/handlers"
	"github.com/riplabs/annotdb-backend/internal/middleware"
)

type RouterConfig struct {
	HealthHandler     *handlers.HealthHandler
	AnnotationHandler *handlers.AnnotationHandler
	BatchHandler      *handlers.BatchHandler
	AccountHandler    *handlers.AccountHandler
	SearchHandler     *handlers.SearchHandler
	TemplateHandler   *handlers.TemplateHandler
	ClientHandler     *handlers.ClientHandler
	AuthMiddleware    *middleware.AuthMiddleware

	// RequireAuth gates the API behind registered client tokens.
	RequireAuth  bool
	AllowOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:8000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Auth-Token", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)

	api := router.Group("/")
	if cfg.RequireAuth {
		api.Use(cfg.AuthMiddleware.RequireClient())
	}

	// Annotations
	api.POST("/add", cfg.AnnotationHandler.Add)
	api.GET("/hide", cfg.AnnotationHandler.Hide)
	api.POST("/hide", cfg.AnnotationHandler.Hide)

	// Batches
	api.GET("/list", cfg.BatchHandler.List)
	api.GET("/get/:batch_number", cfg.BatchHandler.Get)

	// Accounts
	api.GET("/accounts", cfg.AccountHandler.List)
	api.GET("/account/:address", cfg.AccountHandler.Current)
	api.GET("/account_history/:address", cfg.AccountHandler.History)

	// Search
	api.GET("/search", cfg.SearchHandler.Search)
	api.POST("/search", cfg.SearchHandler.Search)
	api.POST("/search/criteria", cfg.SearchHandler.SearchCriteria)
	api.GET("/search/download", cfg.SearchHandler.Download)

	// Templates
	api.POST("/set_template/:name", cfg.TemplateHandler.Set)
	api.GET("/get_template/:name", cfg.TemplateHandler.Get)
	api.GET("/templates", cfg.TemplateHandler.List)

	// Clients. Registration and deletion stay open so operators can bootstrap
	// the first client; both are admin-network-only in deployment.
	router.POST("/clients", cfg.ClientHandler.Register)
	router.GET("/clients", cfg.ClientHandler.List)
	router.DELETE("/clients/:name", cfg.ClientHandler.Delete)

	return router
}
