package app

import (
	"strings"

	"github.com/riplabs/annotdb-backend/internal/platform/envutil"
)

type Config struct {
	Addr string
	// RequireAuth gates the annotation API behind registered client tokens.
	RequireAuth  bool
	AllowOrigins []string
}

func LoadConfig() Config {
	origins := envutil.String("CORS_ALLOW_ORIGINS", "")
	var allowOrigins []string
	if origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowOrigins = append(allowOrigins, origin)
			}
		}
	}
	return Config{
		Addr:         envutil.String("LISTEN_ADDR", ":8080"),
		RequireAuth:  envutil.Bool("AUTH_REQUIRED", false),
		AllowOrigins: allowOrigins,
	}
}
