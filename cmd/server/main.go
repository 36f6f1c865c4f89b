package main

import (
	"context"     // Context for Redis and shutdown
	"crypto/rand" // Fallback signing key
	"errors"      // Server error checks
	"net/http"    // HTTP server
	"os"          // Output for logs
	"os/signal"   // Graceful shutdown
	"syscall"     // Termination signals
	"time"        // Shutdown timeout

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging

	"notes_system/internal/api"        // Custom package for API handlers
	"notes_system/internal/config"     // Custom package for configuration
	"notes_system/internal/db"         // Database connection and migration
	"notes_system/internal/events"     // Lifecycle events
	"notes_system/internal/metrics"    // Prometheus metrics
	"notes_system/internal/middleware" // Custom package for middleware
	"notes_system/internal/store"      // Persistence
	"notes_system/internal/utils"      // Token service, hashing, cache
)

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	setupLogger(cfg)

	// Connect to the database
	gdb, err := db.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if cfg.DBAutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			logrus.Fatalf("migration failed: %v", err)
		}
	}

	// Setup Redis cache when configured
	var cache utils.Cache = utils.NopCache{}
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		cache = utils.NewRedisCache(redisClient)
	}

	// Setup event publisher when brokers are configured
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaTimeout)
	}

	hasher := utils.NewBcryptHasher(cfg.BcryptCost)
	deps := api.Deps{
		DB:      gdb,
		Users:   store.NewUserStore(gdb, hasher, cache),
		Notes:   store.NewNoteStore(gdb, cache, cfg.CacheTTL),
		Tokens:  utils.NewTokenService(signingKey(cfg)),
		Events:  publisher,
		Metrics: metrics.New(),
		Auth: middleware.AuthOptions{
			PublicPrefixes:    cfg.PublicPrefixes,
			AllowMissingToken: cfg.AllowMissingToken,
		},
		CORSOrigins: cfg.CORSOrigins,
	}
	if cfg.AllowMissingToken {
		logrus.Warn("AUTH_ALLOW_MISSING_TOKEN is set: protected routes are reachable without a token")
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.NewRouter(deps)
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: r}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("server shutdown: %v", err)
	}
	if err := publisher.Close(); err != nil {
		logrus.Errorf("close publisher: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

// setupLogger applies the configured level and format
func setupLogger(cfg *config.Config) {
	logrus.SetOutput(os.Stdout)
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// signingKey returns the configured secret, or a random key valid for this process only
func signingKey(cfg *config.Config) []byte {
	if cfg.JWTSecret != "" {
		return []byte(cfg.JWTSecret)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		logrus.Fatalf("failed to generate signing key: %v", err)
	}
	logrus.Warn("JWT_SECRET is not set: using a random key, tokens will not survive a restart")
	return key
}
