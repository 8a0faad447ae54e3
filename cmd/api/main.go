package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hackverse/hackverse-admin-api/internal/config"
	"github.com/hackverse/hackverse-admin-api/internal/database"
	"github.com/hackverse/hackverse-admin-api/internal/handler"
	"github.com/hackverse/hackverse-admin-api/internal/middleware"
	"github.com/hackverse/hackverse-admin-api/internal/models"
	"github.com/hackverse/hackverse-admin-api/internal/repository"
	"github.com/hackverse/hackverse-admin-api/internal/router"
	"github.com/hackverse/hackverse-admin-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Hackathon{},
		&models.ActivityItem{},
		&models.QueueItem{},
		&models.TrustScore{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNats(cfg.NatsURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	activityRepo := repository.NewActivityLogRepository(db)
	queueRepo := repository.NewQueueRepository(db)
	trustRepo := repository.NewTrustScoreRepository(db)
	userRepo := repository.NewUserRepository(db)
	hackathonRepo := repository.NewHackathonRepository(db)

	activityService := service.NewActivityService(activityRepo, validate, logger)

	trustRules := service.TrustRules{
		FlagRejectedThreshold:  cfg.TrustFlagRejectedThreshold,
		FlagViolationThreshold: cfg.TrustFlagViolationThreshold,
	}
	trustService := service.NewTrustService(trustRepo, userRepo, hackathonRepo, activityRepo, queueRepo, redisClient, cfg.TrustCacheTTL, trustRules, logger)

	queueService := service.NewModerationQueueService(queueRepo, trustService, activityService, validate, redisClient, cfg.QueueCountsCacheTTL, logger)

	anomalyConfig := service.DefaultAnomalyConfig()
	anomalyConfig.SpikeThreshold = cfg.AnomalySpikeThreshold
	anomalyConfig.AverageWindow = cfg.AnomalyAverageWindow
	anomalyConfig.CurrentWindow = cfg.AnomalyCurrentWindow
	anomalyConfig.MinimumActivities = cfg.AnomalyMinimumActivities
	anomalyService := service.NewAnomalyService(activityRepo, queueService, activityService, anomalyConfig, logger)

	notifier := service.NewNatsNotifier(natsConn, cfg.NatsSubject, logger)
	organizerService := service.NewOrganizerWorkflowService(trustRepo, userRepo, hackathonRepo, activityService, notifier, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ModerationHandler: handler.NewModerationHandler(queueService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		TrustHandler:      handler.NewTrustHandler(trustService, logger),
		AnomalyHandler:    handler.NewAnomalyHandler(anomalyService, logger),
		OrganizerHandler:  handler.NewOrganizerHandler(organizerService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if cfg.AnomalySweepInterval > 0 {
		go runAnomalySweep(sweepCtx, anomalyService, cfg.AnomalySweepInterval, logger)
	}

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func runAnomalySweep(ctx context.Context, anomalies service.AnomalyService, interval time.Duration, logger zerolog.Logger) {
	sweepLogger := logger.With().Str("component", "anomaly_sweep").Logger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary, err := anomalies.Sweep(ctx)
			if err != nil {
				sweepLogger.Error().Err(err).Msg("anomaly sweep failed")
				continue
			}
			sweepLogger.Info().
				Int("detections", len(summary.Results)).
				Int("items_enqueued", summary.ItemsEnqueued).
				Int("swept_actors", summary.SweptActors).
				Msg("anomaly sweep completed")
		}
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
