package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/podcastr/api/internal/auth"
	"github.com/podcastr/api/internal/client"
	"github.com/podcastr/api/internal/config"
	"github.com/podcastr/api/internal/draft"
	"github.com/podcastr/api/internal/handler"
	"github.com/podcastr/api/internal/middleware"
	"github.com/podcastr/api/internal/service"
	"github.com/podcastr/api/internal/store"
	ws "github.com/podcastr/api/internal/websocket"
	"github.com/podcastr/api/internal/worker"
	"github.com/podcastr/api/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize Redis client
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	// Episode store
	episodes, err := store.Open(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open episode store: %v", err)
	}
	defer episodes.Close()

	// Object storage (optional - mock URLs when not configured)
	storage, err := client.NewStorageClient(cfg)
	if err != nil {
		log.Printf("Warning: storage client not initialized, using mock storage: %v", err)
		storage = nil
	}

	// Initialize external clients
	speechClient := client.NewSpeechClient(&cfg.OpenAI)
	imageClient := client.NewImageClient(&cfg.OpenAI)
	audioClient := client.NewAudioClient(&cfg.Audio)

	// Token verifiers: OIDC first, legacy HMAC as fallback
	var verifiers auth.Chain
	if cfg.OIDC.Issuer != "" {
		jwksVerifier, err := auth.NewJWKSVerifier(&cfg.OIDC)
		if err != nil {
			log.Printf("Warning: JWKS verifier not initialized: %v", err)
		} else {
			defer jwksVerifier.Close()
			verifiers = append(verifiers, jwksVerifier)
		}
	}
	if cfg.JWT.Secret != "" {
		verifiers = append(verifiers, auth.NewHMACVerifier(cfg.JWT.Secret))
	}

	validate := handler.NewValidator()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Drafts live in memory; idle ones are swept
	drafts := draft.NewManager(time.Duration(cfg.Draft.IdleTTLMinutes) * time.Minute)
	go drafts.RunJanitor(ctx, time.Duration(cfg.Draft.SweepIntervalMs)*time.Millisecond)

	// Initialize services
	jobStore := service.NewRedisJobStore(redisClient)
	generationService := service.NewGenerationService(jobStore, asynqClient, drafts, storage)
	submissionService := service.NewSubmissionService(episodes, hub, hub, drafts, validate)

	// Initialize handlers
	draftHandler := handler.NewDraftHandler(drafts, validate)
	generationHandler := handler.NewGenerationHandler(generationService, drafts, validate)
	submissionHandler := handler.NewSubmissionHandler(submissionService, drafts)
	authHandler := handler.NewAuthHandler(verifiers)
	streamHandler := handler.NewStreamHandler(hub, drafts, verifiers, cfg.Gateway.Enabled)

	var apiAuthMiddleware fiber.Handler
	if cfg.Gateway.Enabled {
		log.Println("Info: Gateway mode enabled, using header-based auth")
		apiAuthMiddleware = middleware.GatewayAuthMiddleware()
	} else {
		apiAuthMiddleware = middleware.NewAuthMiddleware(verifiers).Authenticate()
	}
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    service.MaxImageUploadSize + 1024*1024,
	})

	// Global middleware
	app.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${reqHeaders}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"speech":  speechClient.IsConfigured(),
				"image":   imageClient.IsConfigured(),
				"audio":   audioClient.IsConfigured(),
				"storage": storage != nil,
				"auth":    cfg.Gateway.Enabled || verifiers.Configured(),
			},
			"database": cfg.Database.Driver,
		})
	})

	// ForwardAuth verification endpoint (internal, called by the gateway)
	app.Get("/auth/verify", authHandler.Verify)

	// API routes
	api := app.Group("/api", apiAuthMiddleware)
	api.Get("/voices", draftHandler.Voices)

	drafting := api.Group("/drafts")
	drafting.Post("/", draftHandler.Create)
	drafting.Get("/:draftId", draftHandler.Get)
	drafting.Patch("/:draftId", draftHandler.Update)
	drafting.Delete("/:draftId", draftHandler.Delete)
	drafting.Post("/:draftId/audio", rateLimiter.GenerationLimit(cfg.RateLimit.GeneratePerHour), generationHandler.Audio)
	drafting.Post("/:draftId/image", rateLimiter.GenerationLimit(cfg.RateLimit.GeneratePerHour), generationHandler.Image)
	drafting.Post("/:draftId/image/upload", rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour), generationHandler.UploadImage)
	drafting.Post("/:draftId/submit", rateLimiter.SubmitLimit(cfg.RateLimit.SubmitPerHour), submissionHandler.Submit)

	api.Get("/jobs/:jobId", generationHandler.Job)
	api.Get("/podcasts/:podcastId", submissionHandler.Podcast)

	// WebSocket routes
	app.Get("/ws/drafts/:draftId", streamHandler.Upgrade, streamHandler.Stream())

	// Start Asynq worker server
	generationWorker := worker.NewGenerationWorker(generationService, speechClient, imageClient, audioClient, storage, hub)
	workerServer := newWorkerServer(cfg, redisOpt)
	go func() {
		mux := asynq.NewServeMux()
		mux.HandleFunc(service.TaskTypeAudio, generationWorker.ProcessAudioTask)
		mux.HandleFunc(service.TaskTypeImage, generationWorker.ProcessImageTask)
		if err := workerServer.Run(mux); err != nil {
			log.Printf("Asynq worker error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		stop()
		workerServer.Shutdown()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func newWorkerServer(cfg *config.Config, redisOpt asynq.RedisClientOpt) *asynq.Server {
	asynqLogLevel := asynq.InfoLevel
	switch strings.ToLower(cfg.Server.LogLevel) {
	case "debug":
		asynqLogLevel = asynq.DebugLevel
	case "warn":
		asynqLogLevel = asynq.WarnLevel
	case "error":
		asynqLogLevel = asynq.ErrorLevel
	}

	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			service.QueueAudio: 5,
			service.QueueImage: 5,
		},
		LogLevel: asynqLogLevel,
	})
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
