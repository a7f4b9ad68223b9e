package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yohanndulong/alter-sub001/internal/service"
)

// DiscoveryHandler expone el feed de candidatos.
type DiscoveryHandler struct {
	logger        *zap.Logger
	discoveryServ *service.DiscoveryService
}

func NewDiscoveryHandler(logger *zap.Logger, discoveryServ *service.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{
		logger:        logger,
		discoveryServ: discoveryServ,
	}
}

// Discover maneja GET /discovery.
func (h *DiscoveryHandler) Discover(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	result, err := h.discoveryServ.Discover(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		h.logger.Error("discovery failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build discovery feed"})
		return
	}
	c.JSON(http.StatusOK, result)
}
