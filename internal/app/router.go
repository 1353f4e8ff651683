package app

import (
	"github.com/gin-gonic/gin"

	"github.com/driftos/driftos-backend/internal/server"
)

func wireRouter(cfg Config, h Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		Mode:                cfg.Mode,
		DriftHandler:        h.Drift,
		ConversationHandler: h.Conversation,
		HealthHandler:       h.Health,
		DebugHandler:        h.Debug,
		EnableTracing:       cfg.EnableTracing,
	})
}
