package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/fittrack/adapters/event"
	httpAdapter "github.com/khoahotran/fittrack/adapters/http"
	"github.com/khoahotran/fittrack/adapters/media_storage"
	"github.com/khoahotran/fittrack/adapters/persistence"
	"github.com/khoahotran/fittrack/internal/application/service"
	authUC "github.com/khoahotran/fittrack/internal/application/usecase/auth"
	onboardingUC "github.com/khoahotran/fittrack/internal/application/usecase/onboarding"
	profileUC "github.com/khoahotran/fittrack/internal/application/usecase/profile"
	"github.com/khoahotran/fittrack/internal/config"
	"github.com/khoahotran/fittrack/pkg/auth"
	"github.com/khoahotran/fittrack/pkg/logger"
	"github.com/khoahotran/fittrack/pkg/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		panic("cannot load config: " + err.Error())
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	appLogger.Info("Start FitTrack API Server...", zap.String("env", cfg.App.Env))

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "fittrack-api")
	if err != nil {
		appLogger.Fatal("cannot init tracer", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			appLogger.Error("failed to shutdown tracer provider", err)
		}
	}()

	// Initialize dependencies
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Postgres", err)
	}
	defer dbPool.Close()

	redisClient, err := persistence.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Redis", err)
	}
	defer redisClient.Close()

	kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot init Kafka", err)
	}
	defer kafkaClient.Close()

	// Repositories
	userRepo := persistence.NewPostgresUserRepo(dbPool, appLogger)
	profileRepo := persistence.NewPostgresProfileRepo(dbPool, appLogger)
	sessionStore := persistence.NewRedisSessionStore(redisClient, cfg.Redis.KeyPrefix, appLogger)

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	var uploader service.Uploader
	if u, err := media_storage.NewCloudinaryAdapter(cfg, appLogger); err != nil {
		appLogger.Warn("Avatar uploads disabled", zap.Error(err))
	} else {
		uploader = u
	}

	// Use Cases
	registerUseCase := authUC.NewRegisterUseCase(userRepo, appLogger)
	loginUseCase := authUC.NewLoginUseCase(userRepo, jwtSvc, appLogger)
	profileUseCase := profileUC.NewProfileUseCase(profileRepo)
	avatarUseCase := profileUC.NewUploadAvatarUseCase(profileRepo, uploader, appLogger)
	removeAvatarUseCase := profileUC.NewRemoveAvatarUseCase(profileRepo, uploader, appLogger)
	onboardingService := onboardingUC.NewService(sessionStore, registerUseCase, kafkaClient, appLogger, onboardingUC.Options{
		Paths: onboardingUC.Paths{
			Entry:      cfg.Onboarding.EntryPath,
			Home:       cfg.Onboarding.HomePath,
			StepPrefix: "/onboarding",
		},
		CompletionLock: cfg.Onboarding.CompletionLock,
	})

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Onboarding:    httpAdapter.NewOnboardingHandler(onboardingService, jwtSvc, appLogger),
		Auth:          httpAdapter.NewAuthHandler(loginUseCase, appLogger),
		Profile:       httpAdapter.NewProfileHandler(profileUseCase, avatarUseCase, removeAvatarUseCase, appLogger),
		JWT:           jwtSvc,
		Logger:        appLogger,
		SessionCookie: cfg.Onboarding.SessionCookie,
		SecureCookies: cfg.App.Env == "production",
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("cannot run server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", err)
	}
}
