package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"LF-DOCGEN/internal/models"
	"LF-DOCGEN/internal/store"
)

type ActivityLogService struct {
	store store.Store
	log   *logrus.Logger
}

func NewActivityLogService(st store.Store, log *logrus.Logger) *ActivityLogService {
	return &ActivityLogService{store: st, log: log}
}

func (s *ActivityLogService) LogRequest(c *gin.Context, statusCode int, responseTime time.Duration) {
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = c.Request.RemoteAddr
	}

	queryParams := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			queryParams[key] = values[0]
		}
	}
	queryParamsJSON, _ := json.Marshal(queryParams)

	var requestBody string
	if body, exists := c.Get("request_body"); exists {
		if bodyStr, ok := body.(string); ok {
			requestBody = bodyStr
		}
	}

	entry := &models.ActivityLog{
		ID:           uuid.New().String(),
		FirmID:       c.GetHeader("X-Firm-ID"),
		Method:       c.Request.Method,
		Path:         c.Request.URL.Path,
		UserAgent:    c.Request.UserAgent(),
		IPAddress:    clientIP,
		RequestBody:  requestBody,
		QueryParams:  string(queryParamsJSON),
		StatusCode:   statusCode,
		ResponseTime: responseTime.Milliseconds(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	// Off the request path; a failed audit write must not fail the request.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.CreateActivityLog(ctx, entry); err != nil {
			s.log.WithError(err).Warn("failed to save activity log")
		}
	}()
}

func (s *ActivityLogService) GetLogs(ctx context.Context, firmID string, limit, offset int) ([]models.ActivityLog, int64, error) {
	return s.store.ListActivityLogs(ctx, firmID, limit, offset)
}

// LoggingMiddleware records every request, capturing small POST bodies for
// the audit trail.
func (s *ActivityLogService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		if c.Request.Method == "POST" && c.Request.Body != nil {
			bodyBytes, err := io.ReadAll(c.Request.Body)
			if err == nil {
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
				if len(bodyBytes) > 0 && len(bodyBytes) <= 10000 {
					c.Set("request_body", string(bodyBytes))
				}
			}
		}

		c.Next()

		s.LogRequest(c, c.Writer.Status(), time.Since(start))
	}
}
