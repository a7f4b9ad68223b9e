package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yohanndulong/alter-sub001/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtServ *service.JWTService,
	userH *UserHandler,
	profileH *ProfileHandler,
	discoveryH *DiscoveryHandler,
	interactionH *InteractionHandler,
	messageH *MessageHandler,
	adminH *AdminHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	// Rutas publicas.
	users := r.Group("/users")
	users.POST("", userH.Register)

	auth := r.Group("/auth")
	auth.POST("/otp/request", userH.RequestOTP)
	auth.POST("/otp/verify", userH.VerifyOTP)
	auth.POST("/login", userH.Login)
	auth.POST("/refresh", userH.RefreshToken)
	auth.POST("/logout", userH.Logout)

	// Rutas autenticadas.
	authed := r.Group("/")
	authed.Use(JWTAuthMiddleware(jwtServ))

	me := authed.Group("/me")
	me.GET("/profile", profileH.GetProfile)
	me.PATCH("/profile", profileH.UpdateProfile)
	me.POST("/onboarding/messages", profileH.OnboardingMessage)
	me.DELETE("", profileH.DeleteAccount)

	authed.GET("/discovery", discoveryH.Discover)

	interactions := authed.Group("/interactions")
	interactions.POST("/like", interactionH.Like)
	interactions.POST("/pass", interactionH.Pass)

	matches := authed.Group("/matches")
	matches.GET("", interactionH.ListMatches)
	matches.GET("/:id/messages", messageH.ListMessages)
	matches.POST("/:id/messages", messageH.SendMessage)

	// Mantenimiento, protegido por token estatico.
	admin := r.Group("/admin")
	admin.POST("/compatibility/sweep", adminH.SweepCompatibility)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
