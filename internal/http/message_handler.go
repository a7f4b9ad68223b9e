package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yohanndulong/alter-sub001/internal/service"
)

// MessageHandler expone el chat de un match.
type MessageHandler struct {
	logger      *zap.Logger
	messageServ *service.MessageService
}

func NewMessageHandler(logger *zap.Logger, messageServ *service.MessageService) *MessageHandler {
	return &MessageHandler{
		logger:      logger,
		messageServ: messageServ,
	}
}

// SendMessage maneja POST /matches/:id/messages.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	matchID := c.Param("id")
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	msg, err := h.messageServ.SendMessage(c.Request.Context(), matchID, userID, req.Content)
	if err != nil {
		h.respondMessageError(c, err, "send message failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// ListMessages maneja GET /matches/:id/messages.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	matchID := c.Param("id")

	msgs, err := h.messageServ.ListMessages(c.Request.Context(), matchID, userID)
	if err != nil {
		h.respondMessageError(c, err, "list messages failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *MessageHandler) respondMessageError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrMatchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
	case errors.Is(err, service.ErrNotInMatch):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant of this match"})
	case errors.Is(err, service.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message content is empty"})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process message"})
	}
}
