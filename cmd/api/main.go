package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/payguard/backend/internal/api/handlers"
	"github.com/payguard/backend/internal/cache/redis"
	"github.com/payguard/backend/internal/evaluation"
	"github.com/payguard/backend/internal/llm"
	"github.com/payguard/backend/internal/metrics"
	"github.com/payguard/backend/internal/middleware/ratelimit"
	"github.com/payguard/backend/internal/middleware/security"
	"github.com/payguard/backend/internal/middleware/validation"
	"github.com/payguard/backend/internal/queue"
	"github.com/payguard/backend/internal/rulebook"
	"github.com/payguard/backend/internal/rules"
	"github.com/payguard/backend/internal/storage/sqlite"
	"github.com/payguard/backend/pkg/config"
	appLogger "github.com/payguard/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting PayGuard compliance API server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cacheClient *redis.Client
	if cfg.Redis.Enabled {
		cacheClient, err = redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer cacheClient.Close()
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		TimeoutSec:  cfg.LLM.TimeoutSec,
	})

	ruleRepo := rules.NewRepository()
	sourceStore := rulebook.NewStore()

	var extractor rulebook.RuleExtractor
	var reasoner evaluation.Reasoner
	if llmClient != nil {
		extractor = llmClient
		reasoner = llmClient
	}

	coordinator := rulebook.NewCoordinator(sourceStore, ruleRepo, extractor, cfg.Compliance.MinRulebookChars)

	evaluator, err := evaluation.NewEvaluator(ruleRepo, sourceStore, reasoner, cfg.Compliance)
	if err != nil {
		appLogger.Fatal("Failed to create evaluator", zap.Error(err))
	}

	validationQueue := queue.New(evaluator, sqliteClient, cfg.Queue)
	validationQueue.Start(context.Background())

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	rateLimiter := ratelimit.New(ratelimit.Config{
		Logger: appLogger.GetLogger(),
	})
	defer rateLimiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Client-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(rateLimiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	// Assign through a local so a disabled cache stays a nil interface.
	var resultCache handlers.ResultCache
	if cacheClient != nil {
		resultCache = cacheClient
	}

	validationHandler := handlers.NewValidationHandler(evaluator, validationQueue, resultCache, sqliteClient)
	rulebookHandler := handlers.NewRulebookHandler(coordinator, sourceStore, ruleRepo, resultCache, sqliteClient)
	wsHandler := handlers.NewWebSocketHandler(validationQueue)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":    "PayGuard Compliance API",
			"version":    "1.0.0",
			"ai_enabled": llmClient != nil,
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	api := app.Group("/api/v1")

	api.Post("/validate", validationHandler.HandleValidate)
	api.Get("/validations", validationHandler.HandleValidationHistory)
	api.Post("/payments/upload", validationHandler.HandleUploadPayment)

	api.Post("/queue/messages", validationHandler.HandleQueueMessage)
	api.Get("/queue/messages", validationHandler.HandleJobList)
	api.Get("/queue/messages/:id", validationHandler.HandleJobStatus)
	api.Post("/queue/batch", validationHandler.HandleQueueBatch)
	api.Get("/statistics", validationHandler.HandleStatistics)

	api.Post("/rulebooks/:scheme", rulebookHandler.HandleUpload)
	api.Get("/rulebooks", rulebookHandler.HandleList)
	api.Delete("/rulebooks/:scheme", rulebookHandler.HandleDelete)
	api.Get("/ingestions", rulebookHandler.HandleIngestionHistory)

	api.Get("/rules", rulebookHandler.HandleAllRules)
	api.Get("/rules/:scheme", rulebookHandler.HandleSchemeRules)
	api.Delete("/rules/:scheme", rulebookHandler.HandleDeleteSchemeRules)

	api.Get("/ai-status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"enabled": llmClient != nil,
			"model":   cfg.LLM.Model,
		})
	})

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/queue", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	validationQueue.Stop()
	appLogger.Info("Server stopped")
}
