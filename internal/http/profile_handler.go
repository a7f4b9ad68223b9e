package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yohanndulong/alter-sub001/internal/service"
)

// ProfileHandler mantiene dependencias para endpoints de perfil y onboarding.
type ProfileHandler struct {
	logger      *zap.Logger
	profileServ *service.ProfileService
	onboarding  *service.OnboardingService
}

func NewProfileHandler(logger *zap.Logger, profileServ *service.ProfileService, onboarding *service.OnboardingService) *ProfileHandler {
	return &ProfileHandler{
		logger:      logger,
		profileServ: profileServ,
		onboarding:  onboarding,
	}
}

// GetProfile maneja GET /me/profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	profile, err := h.profileServ.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		h.logger.Error("get profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UpdateProfile maneja PATCH /me/profile. Solo los campos presentes en el
// body se modifican.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Bio               *string    `json:"bio"`
		Interests         *[]string  `json:"interests"`
		Gender            *string    `json:"gender"`
		SexualOrientation *string    `json:"sexual_orientation"`
		BirthDate         *time.Time `json:"birth_date"`
		Photos            *[]string  `json:"photos"`
		Latitude          *float64   `json:"latitude"`
		Longitude         *float64   `json:"longitude"`
		PrefGenders       *[]string  `json:"pref_genders"`
		PrefAgeMin        *int       `json:"pref_age_min"`
		PrefAgeMax        *int       `json:"pref_age_max"`
		PrefMaxDistanceKm *float64   `json:"pref_max_distance_km"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update profile request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	profile, err := h.profileServ.UpdateProfile(c.Request.Context(), userID, service.UpdateProfileInput{
		Bio:               req.Bio,
		Interests:         req.Interests,
		Gender:            req.Gender,
		SexualOrientation: req.SexualOrientation,
		BirthDate:         req.BirthDate,
		Photos:            req.Photos,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		PrefGenders:       req.PrefGenders,
		PrefAgeMin:        req.PrefAgeMin,
		PrefAgeMax:        req.PrefAgeMax,
		PrefMaxDistanceKm: req.PrefMaxDistanceKm,
	})
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		h.logger.Error("update profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// OnboardingMessage maneja POST /me/onboarding/messages.
func (h *ProfileHandler) OnboardingMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid onboarding message", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	turn, err := h.onboarding.HandleMessage(c.Request.Context(), userID, req.Content)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		h.logger.Error("onboarding message failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process message"})
		return
	}
	c.JSON(http.StatusOK, turn)
}

// DeleteAccount maneja DELETE /me.
func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.profileServ.DeleteAccount(c.Request.Context(), userID); err != nil {
		h.logger.Error("delete account failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete account"})
		return
	}
	c.Status(http.StatusNoContent)
}

// currentUserID extrae el usuario autenticado del contexto; responde 401 y
// devuelve false si no hay claims.
func currentUserID(c *gin.Context) (string, bool) {
	claims, ok := GetAuthClaims(c)
	if !ok || claims.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		c.Abort()
		return "", false
	}
	return claims.UserID, true
}
