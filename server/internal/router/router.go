package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/navid-fn/listing-radar/server/internal/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	AlertHandler *handler.AlertHandler
}

func NewRouter(cfg *Config) *gin.Engine {
	router := gin.Default()

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/v1/")
	registerAlertRoutes(api, cfg.AlertHandler)

	return router
}
