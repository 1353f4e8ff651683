package app

import (
	"gorm.io/gorm"

	"github.com/driftos/driftos-backend/internal/http/handlers"
	"github.com/driftos/driftos-backend/internal/platform/logger"
)

type Handlers struct {
	Drift        *handlers.DriftHandler
	Conversation *handlers.ConversationHandler
	Health       *handlers.HealthHandler
	Debug        *handlers.DebugHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, svcs Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Drift:        handlers.NewDriftHandler(log, svcs.Drift),
		Conversation: handlers.NewConversationHandler(log, svcs.Drift),
		Health:       handlers.NewHealthHandler(log, db, svcs.Embedding),
		Debug:        handlers.NewDebugHandler(log, svcs.Embedding),
	}
}
