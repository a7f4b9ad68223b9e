package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yohanndulong/alter-sub001/internal/service"
)

// InteractionHandler expone likes, passes y matches.
type InteractionHandler struct {
	logger          *zap.Logger
	interactionServ *service.InteractionService
}

func NewInteractionHandler(logger *zap.Logger, interactionServ *service.InteractionService) *InteractionHandler {
	return &InteractionHandler{
		logger:          logger,
		interactionServ: interactionServ,
	}
}

// Like maneja POST /interactions/like.
func (h *InteractionHandler) Like(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		TargetUserID string `json:"target_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid like request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.TargetUserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot like yourself"})
		return
	}

	result, err := h.interactionServ.Like(c.Request.Context(), userID, req.TargetUserID)
	if err != nil {
		h.logger.Error("like failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register like"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Pass maneja POST /interactions/pass.
func (h *InteractionHandler) Pass(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		TargetUserID string `json:"target_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid pass request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.TargetUserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot pass yourself"})
		return
	}

	if err := h.interactionServ.Pass(c.Request.Context(), userID, req.TargetUserID); err != nil {
		h.logger.Error("pass failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register pass"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMatches maneja GET /matches.
func (h *InteractionHandler) ListMatches(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	matches, err := h.interactionServ.ListMatches(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list matches failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list matches"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
