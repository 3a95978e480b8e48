package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assess-api/internal/config"
	"github.com/noah-isme/gema-assess-api/internal/content"
	"github.com/noah-isme/gema-assess-api/internal/database"
	"github.com/noah-isme/gema-assess-api/internal/events"
	"github.com/noah-isme/gema-assess-api/internal/handler"
	"github.com/noah-isme/gema-assess-api/internal/middleware"
	"github.com/noah-isme/gema-assess-api/internal/repository"
	"github.com/noah-isme/gema-assess-api/internal/router"
	"github.com/noah-isme/gema-assess-api/internal/service"
	"github.com/noah-isme/gema-assess-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStartup()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(startupCtx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	var objects content.ObjectReader
	if cfg.GCSEnabled {
		gcsClient, err := storage.NewClient(startupCtx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create storage client")
		}
		defer gcsClient.Close()
		objects = content.NewGCSReader(gcsClient)
	}

	generator, err := newGenerator(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create ai client")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	fetcher := content.NewRemoteFetcher(content.FetcherConfig{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		ServiceKey: cfg.StorageKey,
		Objects:    objects,
		Logger:     logger,
	})
	loader := content.NewLoader(fetcher, content.NewExtractor(), redisClient, cfg.ContentCacheTTL, logger)
	publisher := events.NewBusPublisher(natsConn, redisClient, cfg.EventPrefix, logger)

	submissionRepo := repository.NewSubmissionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	rubricRepo := repository.NewRubricRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	reportRepo := repository.NewPlagiarismReportRepository(db)
	analysisRepo := repository.NewFeedbackAnalysisRepository(db)

	gradingService := service.NewGradingService(submissionRepo, assignmentRepo, rubricRepo, gradeRepo, loader, generator, publisher, validate, logger)
	plagiarismService := service.NewPlagiarismService(submissionRepo, reportRepo, loader, generator, publisher, validate, logger)
	sentimentService := service.NewSentimentService(analysisRepo, generator, publisher, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.RequestBodyLimit,
		// Grading may wait through the full retry backoff.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		GradingHandler:    handler.NewGradingHandler(gradingService, logger),
		PlagiarismHandler: handler.NewPlagiarismHandler(plagiarismService, logger),
		SentimentHandler:  handler.NewSentimentHandler(sentimentService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("ai_provider", generator.Name()).Msg("starting server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func newGenerator(cfg config.Config, logger zerolog.Logger) (ai.Generator, error) {
	var (
		provider ai.Generator
		err      error
	)
	switch cfg.AIProvider {
	case config.ProviderOpenAI:
		provider, err = ai.NewOpenAIClient(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
	default:
		provider, err = ai.NewGeminiClient(ai.GeminiConfig{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: &http.Client{Timeout: 60 * time.Second},
			Logger:     logger,
		})
	}
	if err != nil {
		return nil, err
	}

	return ai.NewRetrier(provider, ai.RetryConfig{
		MaxAttempts: cfg.AIMaxAttempts,
		BackoffStep: cfg.AIBackoffStep,
		Logger:      logger,
	}), nil
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
