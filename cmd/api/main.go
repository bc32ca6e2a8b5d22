package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/cliniccore/clinic-ops-platform/cmd/mainconfig"
	"github.com/cliniccore/clinic-ops-platform/internal/ai"
	"github.com/cliniccore/clinic-ops-platform/internal/api/router"
	"github.com/cliniccore/clinic-ops-platform/internal/app"
	"github.com/cliniccore/clinic-ops-platform/internal/appointments"
	"github.com/cliniccore/clinic-ops-platform/internal/booking"
	"github.com/cliniccore/clinic-ops-platform/internal/chat"
	"github.com/cliniccore/clinic-ops-platform/internal/clinic"
	appconfig "github.com/cliniccore/clinic-ops-platform/internal/config"
	"github.com/cliniccore/clinic-ops-platform/internal/content"
	"github.com/cliniccore/clinic-ops-platform/internal/display"
	"github.com/cliniccore/clinic-ops-platform/internal/feed"
	"github.com/cliniccore/clinic-ops-platform/internal/observability/metrics"
	"github.com/cliniccore/clinic-ops-platform/internal/queue"
	"github.com/cliniccore/clinic-ops-platform/internal/realtime"
	"github.com/cliniccore/clinic-ops-platform/internal/whatsapp"
	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

func main() {
	// Local development reads .env; production relies on real env vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-ops-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)

	// Record stores.
	appointmentsRepo := appointments.NewDynamoRepository(dynamoClient, cfg.AppointmentsTable, logger)
	numberAlloc := queue.NewDynamoAllocator(dynamoClient, cfg.QueueCountersTable)
	contentStore := content.NewDynamoStore(dynamoClient, cfg.ArticlesTable, cfg.FAQsTable, logger)
	chatRepo := chat.NewDynamoRepository(dynamoClient, cfg.ChatMessagesTable)
	settingsStore := clinic.NewStore(redisClient)

	// Live snapshot plumbing.
	liveFeed := feed.New(cfg.FeedRefreshInterval, logger)
	hub := realtime.NewHub(logger)

	// Metrics.
	queueMetrics := metrics.NewQueueMetrics(prometheus.DefaultRegisterer)
	aiMetrics := metrics.NewAIMetrics(prometheus.DefaultRegisterer)

	// AI text generation. The platform degrades to canned fallbacks when
	// no API key is configured.
	var generator ai.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to init Gemini client", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		generator = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, AI replies fall back to canned text")
	}
	aiService := ai.NewService(generator, aiMetrics, logger).WithBookingURL(cfg.PublicBaseURL)

	// Domain services.
	engine := queue.NewEngine(appointmentsRepo, numberAlloc, liveFeed, logger)
	bookingService := booking.NewService(booking.ServiceConfig{
		Repo:        appointmentsRepo,
		Settings:    settingsStore,
		Feed:        liveFeed,
		Logger:      logger,
		ClinicPhone: cfg.ClinicWhatsAppNumber,
	})
	waSender := whatsapp.NewClient(cfg.WhatsAppToken, cfg.WhatsAppPhoneID)

	app.WireLive(ctx, app.LiveConfig{
		Feed:     liveFeed,
		Hub:      hub,
		Engine:   engine,
		Chat:     chatRepo,
		Settings: settingsStore,
		Logger:   logger,
	})

	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	go liveFeed.Run(feedCtx)

	r := router.New(&router.Config{
		Logger: logger,
		BookingHandler: booking.NewHandler(booking.HandlerConfig{
			Service: bookingService,
			Metrics: queueMetrics,
			Logger:  logger,
		}),
		QueueHandler: queue.NewHandler(queue.HandlerConfig{
			Engine:  engine,
			Metrics: queueMetrics,
			Logger:  logger,
		}),
		DisplayHandler:  display.NewHandler(engine, logger),
		SettingsHandler: clinic.NewHandler(clinic.HandlerConfig{Store: settingsStore, Feed: liveFeed, Logger: logger}),
		ContentHandler: content.NewHandler(content.HandlerConfig{
			Store:   contentStore,
			Drafter: aiService,
			Logger:  logger,
		}),
		ChatHandler: chat.NewHandler(chat.HandlerConfig{Repo: chatRepo, Feed: liveFeed, Logger: logger}),
		WhatsAppWebhook: whatsapp.NewWebhookHandler(whatsapp.WebhookConfig{
			VerifyToken: cfg.WhatsAppVerifyToken,
			AppSecret:   cfg.WhatsAppAppSecret,
			Responder:   aiService,
			Sender:      waSender,
			Metrics:     aiMetrics,
			Logger:      logger,
		}),
		Hub:                hub,
		MetricsHandler:     promhttp.Handler(),
		StaffJWTSecret:     cfg.StaffJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
