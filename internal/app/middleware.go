package app

import (
	"github.com/riplabs/annotdb-backend/internal/middleware"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, s.Client),
	}
}
