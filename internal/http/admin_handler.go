package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yohanndulong/alter-sub001/internal/repository"
)

// AdminHandler expone operaciones de mantenimiento. Protegido con un token
// estatico aparte del JWT de usuarios.
type AdminHandler struct {
	logger     *zap.Logger
	compatRepo repository.CompatibilityRepository
	adminToken string
}

func NewAdminHandler(logger *zap.Logger, compatRepo repository.CompatibilityRepository, adminToken string) *AdminHandler {
	return &AdminHandler{
		logger:     logger,
		compatRepo: compatRepo,
		adminToken: adminToken,
	}
}

// SweepCompatibility maneja POST /admin/compatibility/sweep: borra las
// entradas de cache vencidas.
func (h *AdminHandler) SweepCompatibility(c *gin.Context) {
	if h.adminToken == "" || c.GetHeader("X-Admin-Token") != h.adminToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	deleted, err := h.compatRepo.SweepExpired(c.Request.Context())
	if err != nil {
		h.logger.Error("compatibility sweep failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
		return
	}
	h.logger.Info("compatibility sweep", zap.Int64("deleted", deleted))
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
