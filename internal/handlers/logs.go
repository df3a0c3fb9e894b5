package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"LF-DOCGEN/internal/services"
)

type LogsHandler struct {
	activityLogs *services.ActivityLogService
}

func NewLogsHandler(activityLogs *services.ActivityLogService) *LogsHandler {
	return &LogsHandler{activityLogs: activityLogs}
}

// GetLogs pages the firm's request audit trail, most recent first.
func (h *LogsHandler) GetLogs(c *gin.Context) {
	firm, ok := firmID(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)
	logs, total, err := h.activityLogs.GetLogs(c.Request.Context(), firm, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": total,
	})
}
