package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/yohanndulong/alter-sub001/internal/config"
	"github.com/yohanndulong/alter-sub001/internal/db"
	"github.com/yohanndulong/alter-sub001/internal/email"
	"github.com/yohanndulong/alter-sub001/internal/event"
	apihttp "github.com/yohanndulong/alter-sub001/internal/http"
	"github.com/yohanndulong/alter-sub001/internal/llm"
	"github.com/yohanndulong/alter-sub001/internal/push"
	"github.com/yohanndulong/alter-sub001/internal/repository"
	"github.com/yohanndulong/alter-sub001/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)
	compatRepo := repository.NewPgCompatibilityRepository(pool)
	interactionRepo := repository.NewPgInteractionRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)

	llmTimeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, llmTimeout, logger)
	embedder := llm.NewHTTPEmbedder(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel, llmTimeout)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	pushSender := push.Sender(push.NewDisabledSender("push sender not configured"))
	if cfg.PushAPIURL != "" {
		sender, err := push.NewHTTPSender(cfg.PushAPIURL, cfg.PushAPIKey)
		if err != nil {
			logger.Warn("push sender init failed", zap.Error(err))
		} else {
			pushSender = sender
		}
	}

	var (
		otpLimiter  service.OTPRateLimiter
		tokenStore  service.RefreshTokenStore
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			otpLimiter = service.NewRedisOTPRateLimiter(redisClient, 10*time.Minute, 3)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	bus := event.NewBus()

	profileSvc := service.NewProfileService(logger, profileRepo, userRepo, compatRepo, embedder, bus)
	userSvc := service.NewUserService(logger, userRepo, profileSvc, emailSender, otpLimiter)
	scorer := service.NewCompatibilityScorer(llmClient, service.DefaultFallbackScores, logger)
	photoSigner := service.NewPhotoSigner(cfg.PhotoBaseURL, cfg.PhotoSigningSecret, time.Duration(cfg.PhotoURLTTLMinutes)*time.Minute)
	discoverySvc := service.NewDiscoveryService(
		profileRepo,
		interactionRepo,
		compatRepo,
		scorer,
		photoSigner,
		logger,
		cfg.DiscoveryLimit,
		time.Duration(cfg.CompatibilityTTLDays)*24*time.Hour,
	)
	onboardingSvc := service.NewOnboardingService(logger, llmClient, messageRepo, profileSvc)
	interactionSvc := service.NewInteractionService(logger, interactionRepo, userRepo, pushSender, emailSender, bus)
	messageSvc := service.NewMessageService(logger, messageRepo, interactionRepo)

	// Un perfil que cambia de forma relevante regenera su embedding fuera del
	// request path.
	bus.Subscribe(event.TypeProfileChanged, func(_ context.Context, ev event.Event) {
		go func() {
			ctxEmb, cancel := context.WithTimeout(context.Background(), 2*llmTimeout)
			defer cancel()
			if err := profileSvc.GenerateEmbedding(ctxEmb, ev.UserID); err != nil {
				logger.Warn("embedding regeneration failed",
					zap.String("user_id", ev.UserID), zap.Error(err))
			}
		}()
	})

	userHandler := apihttp.NewUserHandler(logger, userSvc, jwtSvc)
	profileHandler := apihttp.NewProfileHandler(logger, profileSvc, onboardingSvc)
	discoveryHandler := apihttp.NewDiscoveryHandler(logger, discoverySvc)
	interactionHandler := apihttp.NewInteractionHandler(logger, interactionSvc)
	messageHandler := apihttp.NewMessageHandler(logger, messageSvc)
	adminHandler := apihttp.NewAdminHandler(logger, compatRepo, cfg.AdminToken)

	router := apihttp.NewRouter(
		logger,
		jwtSvc,
		userHandler,
		profileHandler,
		discoveryHandler,
		interactionHandler,
		messageHandler,
		adminHandler,
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
