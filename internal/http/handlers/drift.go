package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/driftos/driftos-backend/internal/http/response"
	"github.com/driftos/driftos-backend/internal/modules/routing"
	"github.com/driftos/driftos-backend/internal/platform/apierr"
	"github.com/driftos/driftos-backend/internal/platform/logger"
	"github.com/driftos/driftos-backend/internal/services"
)

type DriftHandler struct {
	log *logger.Logger
	svc services.DriftService
}

func NewDriftHandler(log *logger.Logger, svc services.DriftService) *DriftHandler {
	return &DriftHandler{log: log.With("handler", "DriftHandler"), svc: svc}
}

type routeMessageRequest struct {
	ConversationID  string  `json:"conversationId"`
	Content         string  `json:"content"`
	Role            string  `json:"role"`
	CurrentBranchID *string `json:"currentBranchId"`
	ExtractFacts    *bool   `json:"extractFacts"`

	StayThreshold       *float64 `json:"stayThreshold"`
	NewClusterThreshold *float64 `json:"newClusterThreshold"`
	RouteThreshold      *float64 `json:"routeThreshold"`
}

// RouteMessage handles POST /messages (and its /drift/route alias).
func (h *DriftHandler) RouteMessage(c *gin.Context) {
	var req routeMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apierr.InvalidInput("invalid request body: %v", err))
		return
	}

	role := req.Role
	if role == "" {
		role = routing.RoleUser
	}

	var currentBranchID *uuid.UUID
	if req.CurrentBranchID != nil && *req.CurrentBranchID != "" {
		id, err := uuid.Parse(*req.CurrentBranchID)
		if err != nil {
			response.Err(c, apierr.InvalidInput("currentBranchId is not a valid uuid"))
			return
		}
		currentBranchID = &id
	}

	extractFacts := true
	if req.ExtractFacts != nil {
		extractFacts = *req.ExtractFacts
	}

	var overrides *routing.ThresholdOverrides
	if req.StayThreshold != nil || req.NewClusterThreshold != nil || req.RouteThreshold != nil {
		overrides = &routing.ThresholdOverrides{
			StayThreshold:       req.StayThreshold,
			NewClusterThreshold: req.NewClusterThreshold,
			RouteThreshold:      req.RouteThreshold,
		}
	}

	res, err := h.svc.Route(c.Request.Context(), routing.Input{
		ConversationID:  req.ConversationID,
		Content:         req.Content,
		Role:            role,
		CurrentBranchID: currentBranchID,
		ExtractFacts:    extractFacts,
		Overrides:       overrides,
	})
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, http.StatusOK, res)
}
