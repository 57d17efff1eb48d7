package router

import (
	"github.com/gin-gonic/gin"
	"github.com/navid-fn/listing-radar/server/internal/handler"
)

func registerAlertRoutes(router *gin.RouterGroup, alertHandler *handler.AlertHandler) {
	alerts := router.Group("/alerts")
	{
		alerts.GET("", alertHandler.GetCurrent)
		alerts.GET("/history", alertHandler.GetHistory)
		alerts.GET("/count", alertHandler.GetCount)
	}
}
