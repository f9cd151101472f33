package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/okanb/health-tracker/internal/config"
)

// StartHTTPServer boots the HTTP API and mounts all provided registrars
func StartHTTPServer(cfg *config.Config, registrars ...Registrar) error {
	if cfg.App.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// mount all services
	for _, r := range registrars {
		r.Register(engine)
	}

	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	return engine.Run(addr)
}
