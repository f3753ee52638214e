package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/fittrack/adapters/event"
	"github.com/khoahotran/fittrack/adapters/persistence"
	profileUC "github.com/khoahotran/fittrack/internal/application/usecase/profile"
	"github.com/khoahotran/fittrack/internal/config"
	"github.com/khoahotran/fittrack/pkg/logger"
	"github.com/khoahotran/fittrack/pkg/tracing"
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		panic("cannot load config: " + err.Error())
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Starting FitTrack Worker...")

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "fittrack-worker")
	if err != nil {
		appLogger.Fatal("cannot init tracer", err)
	}
	defer tp.Shutdown(context.Background())

	// Database
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Postgres", err)
	}
	defer dbPool.Close()

	// Repositories
	profileRepo := persistence.NewPostgresProfileRepo(dbPool, appLogger)

	// Worker Use Case
	syncProfileUC := profileUC.NewSyncProfileUseCase(profileRepo, appLogger)

	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = event.TopicOnboardingEvents
	}

	// Kafka Consumer
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    topic,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Worker listening", zap.String("topic", topic), zap.String("group_id", cfg.Kafka.GroupID))

	for {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				appLogger.Info("Worker stopped")
				return
			}
			appLogger.Error("Failed to read message from Kafka", err)
			continue
		}

		log := appLogger.With(zap.String("key", string(msg.Key)), zap.Int64("offset", msg.Offset))

		evt, err := event.DecodeOnboardingEvent(msg)
		if err != nil {
			log.Error("Failed to decode event, skipping", err)
			commitMessage(ctx, consumer, msg, log)
			continue
		}

		if err := syncProfileUC.Execute(ctx, evt); err != nil {
			log.Error("Failed to sync profile", err, zap.String("user_id", evt.UserID.String()))
			continue
		}

		commitMessage(ctx, consumer, msg, log)
	}
}

func commitMessage(ctx context.Context, consumer *kafka.Reader, msg kafka.Message, log logger.Logger) {
	if err := consumer.CommitMessages(ctx, msg); err != nil {
		log.Error("Failed to commit message", err)
	}
}
