package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/driftos/driftos-backend/internal/clients/embedding"
	"github.com/driftos/driftos-backend/internal/http/response"
	"github.com/driftos/driftos-backend/internal/platform/logger"
)

type HealthHandler struct {
	log   *logger.Logger
	db    *gorm.DB
	embed embedding.Client
}

func NewHealthHandler(log *logger.Logger, db *gorm.DB, embed embedding.Client) *HealthHandler {
	return &HealthHandler{log: log.With("handler", "HealthHandler"), db: db, embed: embed}
}

// Health reports database and embedding-sidecar reachability. The database
// is load-bearing: if it is down the endpoint returns 503. The embedding
// service is reported but does not fail the check, so orchestrators don't
// restart this process for a sidecar hiccup.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		dbStatus = "unavailable"
	}

	embedStatus := "disabled"
	if h.embed != nil {
		embedStatus = "ok"
		if _, embedErr := h.embed.Health(ctx); embedErr != nil {
			embedStatus = "unavailable"
		}
	}

	body := gin.H{
		"status":    "ok",
		"db":        dbStatus,
		"embedding": embedStatus,
		"time":      time.Now().UTC().Format(time.RFC3339),
	}
	if dbStatus != "ok" {
		body["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, response.Envelope{Success: false, Data: body})
		return
	}
	response.OK(c, http.StatusOK, body)
}
