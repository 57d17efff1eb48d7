package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/navid-fn/listing-radar/server/internal/service"
	"github.com/sirupsen/logrus"
)

type AlertHandler struct {
	alertService *service.AlertsService
	logger       logrus.FieldLogger
}

func NewAlertHandler(service *service.AlertsService, logger logrus.FieldLogger) *AlertHandler {
	return &AlertHandler{
		alertService: service,
		logger:       logger,
	}
}

func (h *AlertHandler) GetCurrent(c *gin.Context) {
	alerts, err := h.alertService.GetCurrentAlerts(c.Query("exchange"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *AlertHandler) GetHistory(c *gin.Context) {
	limit := service.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	alerts, err := h.alertService.GetHistory(c.Query("exchange"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *AlertHandler) GetCount(c *gin.Context) {
	counts, err := h.alertService.GetCountPerExchange()
	if err != nil {
		h.fail(c, err)
		return
	}

	if exchange := c.Query("exchange"); exchange != "" {
		c.JSON(http.StatusOK, gin.H{exchange: counts[exchange]})
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *AlertHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, service.ErrArchiveDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	h.logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
