package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/driftos/driftos-backend/internal/http/handlers"
	"github.com/driftos/driftos-backend/internal/platform/envutil"
)

type RouterConfig struct {
	Mode                string
	DriftHandler        *handlers.DriftHandler
	ConversationHandler *handlers.ConversationHandler
	HealthHandler       *handlers.HealthHandler
	DebugHandler        *handlers.DebugHandler
	EnableTracing       bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if strings.EqualFold(cfg.Mode, "prod") || strings.EqualFold(cfg.Mode, "production") {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	if cfg.EnableTracing {
		router.Use(otelgin.Middleware("driftos-backend"))
	}

	// Cors
	origins := strings.Split(envutil.Str("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5174"), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Routing
	router.POST("/messages", cfg.DriftHandler.RouteMessage)
	router.POST("/drift/route", cfg.DriftHandler.RouteMessage)

	// Inspection
	router.GET("/conversations/:id/branches", cfg.ConversationHandler.ListBranches)
	router.GET("/branches/:id/messages", cfg.ConversationHandler.ListMessages)
	router.GET("/branches/:id/facts", cfg.ConversationHandler.ListFacts)

	// Health
	router.GET("/health", cfg.HealthHandler.Health)

	// Debug utilities
	if cfg.DebugHandler != nil {
		router.POST("/debug/preprocess", cfg.DebugHandler.Preprocess)
		router.POST("/debug/similarity", cfg.DebugHandler.Similarity)
	}

	return router
}
