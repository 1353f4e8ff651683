package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/driftos/driftos-backend/internal/http/response"
	"github.com/driftos/driftos-backend/internal/platform/apierr"
	"github.com/driftos/driftos-backend/internal/platform/logger"
	"github.com/driftos/driftos-backend/internal/services"
)

// ConversationHandler serves the read-only inspection endpoints.
type ConversationHandler struct {
	log *logger.Logger
	svc services.DriftService
}

func NewConversationHandler(log *logger.Logger, svc services.DriftService) *ConversationHandler {
	return &ConversationHandler{log: log.With("handler", "ConversationHandler"), svc: svc}
}

// ListBranches handles GET /conversations/:id/branches.
func (h *ConversationHandler) ListBranches(c *gin.Context) {
	conversationID := c.Param("id")
	out, err := h.svc.ListBranches(c.Request.Context(), conversationID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"branches": out})
}

// ListMessages handles GET /branches/:id/messages.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	branchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Err(c, apierr.InvalidInput("branch id is not a valid uuid"))
		return
	}
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			limit = n
		}
	}
	out, err := h.svc.ListMessages(c.Request.Context(), branchID, limit)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"messages": out})
}

// ListFacts handles GET /branches/:id/facts.
func (h *ConversationHandler) ListFacts(c *gin.Context) {
	branchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Err(c, apierr.InvalidInput("branch id is not a valid uuid"))
		return
	}
	out, err := h.svc.ListFacts(c.Request.Context(), branchID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"facts": out})
}
