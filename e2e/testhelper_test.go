package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
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
	"github.com/podcastr/api/internal/websocket"
	"github.com/podcastr/api/internal/worker"
)

const (
	testJWTSecret = "test-secret-for-e2e"
	testRedisAddr = "localhost:6379"
	testRedisDB   = 15
)

// setupApp builds the same app as main.go with unconfigured external clients,
// so generation runs through the mock fallbacks on a real asynq worker.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	redisClient := redis.NewClient(&redis.Options{Addr: testRedisAddr, DB: testRedisDB})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Skipf("skipping: redis not available: %v", err)
	}
	t.Cleanup(func() { redisClient.Close() })

	redisOpt := asynq.RedisClientOpt{Addr: testRedisAddr, DB: testRedisDB}
	asynqClient := asynq.NewClient(redisOpt)
	t.Cleanup(func() { asynqClient.Close() })

	episodes, err := store.Open(context.Background(), &config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "e2e.db"),
	})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { episodes.Close() })

	validate := handler.NewValidator()
	hub := websocket.NewHub()
	go hub.Run()

	drafts := draft.NewManager(time.Hour)
	verifiers := auth.Chain{auth.NewHMACVerifier(testJWTSecret)}

	generationService := service.NewGenerationService(service.NewRedisJobStore(redisClient), asynqClient, drafts, nil)
	submissionService := service.NewSubmissionService(episodes, hub, hub, drafts, validate)

	draftHandler := handler.NewDraftHandler(drafts, validate)
	generationHandler := handler.NewGenerationHandler(generationService, drafts, validate)
	submissionHandler := handler.NewSubmissionHandler(submissionService, drafts)
	authHandler := handler.NewAuthHandler(verifiers)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New()
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/auth/verify", authHandler.Verify)

	// Very high rate limits so tests don't get blocked
	api := app.Group("/api", middleware.NewAuthMiddleware(verifiers).Authenticate())
	api.Get("/voices", draftHandler.Voices)
	api.Post("/drafts", draftHandler.Create)
	api.Get("/drafts/:draftId", draftHandler.Get)
	api.Patch("/drafts/:draftId", draftHandler.Update)
	api.Delete("/drafts/:draftId", draftHandler.Delete)
	api.Post("/drafts/:draftId/audio", rateLimiter.GenerationLimit(10000), generationHandler.Audio)
	api.Post("/drafts/:draftId/image", rateLimiter.GenerationLimit(10000), generationHandler.Image)
	api.Post("/drafts/:draftId/submit", rateLimiter.SubmitLimit(10000), submissionHandler.Submit)
	api.Get("/jobs/:jobId", generationHandler.Job)
	api.Get("/podcasts/:podcastId", submissionHandler.Podcast)

	// Unconfigured clients trigger the mock generation path
	speech := client.NewSpeechClient(&config.OpenAIConfig{})
	images := client.NewImageClient(&config.OpenAIConfig{})
	prober := client.NewAudioClient(&config.AudioConfig{})
	generationWorker := worker.NewGenerationWorker(generationService, speech, images, prober, nil, hub)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Queues:      map[string]int{service.QueueAudio: 1, service.QueueImage: 1},
		LogLevel:    asynq.WarnLevel,
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeAudio, generationWorker.ProcessAudioTask)
	mux.HandleFunc(service.TaskTypeImage, generationWorker.ProcessImageTask)
	if err := srv.Start(mux); err != nil {
		t.Fatalf("failed to start asynq worker: %v", err)
	}
	t.Cleanup(srv.Shutdown)

	return app
}

// generateToken creates a legacy HMAC JWT token for test requests.
func generateToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.IssueLegacyToken(testJWTSecret, userID, userID+"@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs a request as userID.
func doAuthRequest(t *testing.T, app *fiber.App, userID, method, path, body string) *http.Response {
	t.Helper()
	resp, err := doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + generateToken(t, userID),
	})
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(b, &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, b)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
