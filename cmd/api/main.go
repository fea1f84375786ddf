package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/application"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/geo"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/infrastructure/channels"
	kafkaAdapter "github.com/chrbailey/restaurant-scheduler-sub006/internal/infrastructure/kafka"
	mongoRepo "github.com/chrbailey/restaurant-scheduler-sub006/internal/infrastructure/mongodb"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/infrastructure/rediscache"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/notification"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/logging"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/metrics"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/middleware"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/mongodb"
)

// Config holds application configuration
type Config struct {
	ServerAddr    string
	MongoDB       *mongodb.Config
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Kafka         *kafkaAdapter.Config
	Sweeper       SweeperConfig
	Notify        NotifyConfig
}

// SweeperConfig controls the background expiry sweep
type SweeperConfig struct {
	Enabled  bool
	Interval time.Duration
}

// NotifyConfig holds notification delivery settings
type NotifyConfig struct {
	ProviderMode  string // "http" or "log"
	PushEndpoint  string
	SMSEndpoint   string
	EmailEndpoint string
	EmailFrom     string
	APIKey        string
	RateLimit     int64
	RateWindow    time.Duration
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8010"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "scheduler_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
			ReplicaSet:     getEnv("MONGODB_REPLICA_SET", ""),
		},
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		Kafka: &kafkaAdapter.Config{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:        getEnv("KAFKA_TOPIC", kafkaAdapter.DefaultTopic),
			BatchSize:    100,
			BatchTimeout: 50 * time.Millisecond,
		},
		Sweeper: SweeperConfig{
			Enabled:  getEnv("SWEEPER_ENABLED", "true") == "true",
			Interval: parseDuration(getEnv("SWEEPER_INTERVAL", "1m")),
		},
		Notify: NotifyConfig{
			ProviderMode:  getEnv("NOTIFY_PROVIDER_MODE", "log"),
			PushEndpoint:  getEnv("NOTIFY_PUSH_ENDPOINT", ""),
			SMSEndpoint:   getEnv("NOTIFY_SMS_ENDPOINT", ""),
			EmailEndpoint: getEnv("NOTIFY_EMAIL_ENDPOINT", ""),
			EmailFrom:     getEnv("NOTIFY_EMAIL_FROM", "no-reply@scheduler.local"),
			APIKey:        getEnv("NOTIFY_PROVIDER_API_KEY", ""),
			RateLimit:     int64(parseInt(getEnv("NOTIFY_RATE_LIMIT", "20"), 20)),
			RateWindow:    parseDuration(getEnv("NOTIFY_RATE_WINDOW", "1h")),
		},
	}
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Minute
	}
	return d
}

func parseInt(s string, fallback int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return i
}

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting scheduling-service API")

	config := loadConfig()
	ctx := context.Background()

	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	logger.Info("Metrics initialized")

	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	redisClient, err := rediscache.NewClient(ctx, config.RedisAddr, config.RedisPassword, config.RedisDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to Redis")
		os.Exit(1)
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis", "addr", config.RedisAddr)

	publisher := kafkaAdapter.NewEventPublisher(config.Kafka, m)
	defer publisher.Close()
	logger.Info("Event publisher initialized", "brokers", config.Kafka.Brokers, "topic", config.Kafka.Topic)

	// Repositories
	db := mongoClient.Database()
	shiftRepo := mongoRepo.NewShiftRepository(db)
	claimRepo := mongoRepo.NewClaimRepository(db)
	swapRepo := mongoRepo.NewSwapRepository(db)
	acceptanceStore := mongoRepo.NewAcceptanceStore(db)
	resolutionStore := mongoRepo.NewResolutionStore(db)
	prefRepo := mongoRepo.NewPreferenceRepository(db)
	recordRepo := mongoRepo.NewRecordRepository(db)

	// Notification pipeline
	limiter := rediscache.NewRateLimiter(redisClient, config.Notify.RateLimit, config.Notify.RateWindow)
	deduper := rediscache.NewDeduper(redisClient)
	batchQueue := rediscache.NewBatchQueue(redisClient, time.Hour)

	pipeline := notification.NewPipeline(
		prefRepo,
		limiter,
		deduper,
		batchQueue,
		recordRepo,
		buildChannels(config.Notify, logger),
		logger,
		m,
		notification.DefaultPipelineConfig(),
	)
	logger.Info("Notification pipeline initialized", "providerMode", config.Notify.ProviderMode)

	// Application services
	shiftService := application.NewShiftService(shiftRepo, publisher, pipeline, logger, m)
	claimService := application.NewClaimService(
		shiftRepo, claimRepo, resolutionStore, publisher, pipeline,
		geo.DefaultCommuteConfig(), logger, m,
	)
	swapService := application.NewSwapService(swapRepo, shiftRepo, acceptanceStore, publisher, pipeline, logger, m)
	notificationService := application.NewNotificationService(recordRepo, prefRepo, logger)

	sweeper := application.NewExpirySweeper(
		shiftRepo, claimRepo, swapRepo, pipeline, pipeline,
		application.ExpirySweeperConfig{Interval: config.Sweeper.Interval},
		logger, m,
	)
	if config.Sweeper.Enabled {
		if err := sweeper.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start expiry sweeper")
		} else {
			logger.Info("Expiry sweeper started", "interval", config.Sweeper.Interval)
		}
	} else {
		logger.Info("Expiry sweeper disabled")
	}

	// Router
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)
	router.Use(middleware.MetricsMiddleware(m))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	api := router.Group("/api/v1")
	api.Use(middleware.TenantAuth(&middleware.TenantAuthConfig{Required: true}))
	{
		shifts := api.Group("/shifts")
		{
			shifts.POST("", createShiftHandler(shiftService, logger))
			shifts.GET("", listShiftsHandler(shiftService, logger))
			shifts.GET("/open", openShiftsHandler(shiftService, logger))
			shifts.GET("/:shiftId", getShiftHandler(shiftService, logger))
			shifts.POST("/:shiftId/publish", publishShiftHandler(shiftService, logger))
			shifts.POST("/:shiftId/offer", offerShiftHandler(shiftService, logger))
			shifts.POST("/:shiftId/cancel", cancelShiftHandler(shiftService, logger))
			shifts.POST("/:shiftId/transition", transitionShiftHandler(shiftService, logger))

			shifts.POST("/:shiftId/claims", submitClaimHandler(claimService, logger))
			shifts.GET("/:shiftId/claims", rankedClaimsHandler(claimService, logger))
		}

		claims := api.Group("/claims")
		{
			claims.POST("/:claimId/resolve", resolveClaimHandler(claimService, logger))
			claims.GET("/worker/:workerId", workerClaimsHandler(claimService, logger))
		}

		swaps := api.Group("/swaps")
		{
			swaps.POST("", requestSwapHandler(swapService, logger))
			swaps.POST("/:swapId/decide", decideSwapHandler(swapService, logger))
			swaps.POST("/:swapId/accept", acceptSwapHandler(swapService, logger))
			swaps.POST("/:swapId/reject", rejectSwapHandler(swapService, logger))
			swaps.POST("/:swapId/cancel", cancelSwapHandler(swapService, logger))
			swaps.GET("/worker/:workerId", workerSwapsHandler(swapService, logger))
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", inboxHandler(notificationService, logger))
			notifications.GET("/unread-count", unreadCountHandler(notificationService, logger))
			notifications.POST("/:recordId/read", markReadHandler(notificationService, logger))
			notifications.GET("/preferences", getPreferencesHandler(notificationService, logger))
			notifications.PUT("/preferences", updatePreferencesHandler(notificationService, logger))
		}

		sweeperGroup := api.Group("/sweeper")
		{
			sweeperGroup.GET("/status", sweeperStatusHandler(sweeper))
			sweeperGroup.POST("/start", sweeperStartHandler(sweeper, logger))
			sweeperGroup.POST("/stop", sweeperStopHandler(sweeper, logger))
			sweeperGroup.POST("/run", sweeperRunHandler(sweeper, logger))
		}
	}

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	if sweeper.IsRunning() {
		sweeper.Stop()
		logger.Info("Expiry sweeper stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

// buildChannels assembles the delivery channels, each behind a circuit
// breaker. The log provider mode replaces every external call with a log
// line for development.
func buildChannels(config NotifyConfig, logger *logging.Logger) []notification.Channel {
	if config.ProviderMode == "log" {
		return []notification.Channel{
			notification.NewBreakerChannel(channels.NewLogChannel(notification.ChannelPush, logger)),
			notification.NewBreakerChannel(channels.NewLogChannel(notification.ChannelSMS, logger)),
			notification.NewBreakerChannel(channels.NewLogChannel(notification.ChannelEmail, logger)),
		}
	}

	var out []notification.Channel
	if config.PushEndpoint != "" {
		out = append(out, notification.NewBreakerChannel(channels.NewPushChannel(channels.ProviderConfig{
			Endpoint: config.PushEndpoint,
			APIKey:   config.APIKey,
		})))
	}
	if config.SMSEndpoint != "" {
		out = append(out, notification.NewBreakerChannel(channels.NewSMSChannel(channels.ProviderConfig{
			Endpoint: config.SMSEndpoint,
			APIKey:   config.APIKey,
		})))
	}
	if config.EmailEndpoint != "" {
		out = append(out, notification.NewBreakerChannel(channels.NewEmailChannel(channels.ProviderConfig{
			Endpoint: config.EmailEndpoint,
			APIKey:   config.APIKey,
		}, config.EmailFrom)))
	}
	return out
}
