package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/driftos/driftos-backend/internal/clients/embedding"
	"github.com/driftos/driftos-backend/internal/http/response"
	"github.com/driftos/driftos-backend/internal/platform/apierr"
	"github.com/driftos/driftos-backend/internal/platform/logger"
)

// DebugHandler exposes the embedding sidecar's text utilities for manual
// threshold tuning. Not part of the routing surface.
type DebugHandler struct {
	log   *logger.Logger
	embed embedding.Client
}

func NewDebugHandler(log *logger.Logger, embed embedding.Client) *DebugHandler {
	return &DebugHandler{log: log.With("handler", "DebugHandler"), embed: embed}
}

type preprocessRequest struct {
	Text []string `json:"text"`
}

// Preprocess handles POST /debug/preprocess.
func (h *DebugHandler) Preprocess(c *gin.Context) {
	var req preprocessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apierr.InvalidInput("invalid request body: %v", err))
		return
	}
	if len(req.Text) == 0 {
		response.Err(c, apierr.InvalidInput("text is required"))
		return
	}
	out, err := h.embed.Preprocess(c.Request.Context(), req.Text)
	if err != nil {
		response.Err(c, apierr.Unavailable(err))
		return
	}
	response.OK(c, http.StatusOK, gin.H{"original": req.Text, "preprocessed": out})
}

type similarityRequest struct {
	Text1      string `json:"text1"`
	Text2      string `json:"text2"`
	Preprocess bool   `json:"preprocess"`
}

// Similarity handles POST /debug/similarity.
func (h *DebugHandler) Similarity(c *gin.Context) {
	var req similarityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apierr.InvalidInput("invalid request body: %v", err))
		return
	}
	if req.Text1 == "" || req.Text2 == "" {
		response.Err(c, apierr.InvalidInput("text1 and text2 are required"))
		return
	}
	out, err := h.embed.Similarity(c.Request.Context(), req.Text1, req.Text2, req.Preprocess)
	if err != nil {
		response.Err(c, apierr.Unavailable(err))
		return
	}
	response.OK(c, http.StatusOK, out)
}
