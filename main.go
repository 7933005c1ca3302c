package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"hackforge/config"
	"hackforge/middleware"
	"hackforge/models"
	"hackforge/routes"
	"hackforge/utils"
	"hackforge/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "HACKFORGE: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if config.AppConfig.Environment == "development" {
		err := models.SeedInstitutes(config.DB, []models.Institute{
			{Code: "DEV-1", Name: "Dev Institute One"},
			{Code: "DEV-2", Name: "Dev Institute Two"},
		})
		if err != nil {
			logger.Fatalf("Failed to seed institutes: %v", err)
		}
	}

	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	serviceLogger := logrus.New()
	serviceLogger.SetFormatter(&logrus.JSONFormatter{})

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Notification pipeline: services emit onto the redis queue, the worker
	// drains it into notification rows. Without redis, events are just logged.
	var notifier utils.Notifier = utils.NewLogNotifier(serviceLogger)
	if config.AppConfig.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     config.AppConfig.Redis.Address,
			Password: config.AppConfig.Redis.Password,
			DB:       config.AppConfig.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		notifier = utils.NewRedisNotifier(redisClient, serviceLogger)

		notificationWorker := worker.NewNotificationWorker(config.DB, redisClient, log.New(os.Stdout, "NOTIFY: ", log.LstdFlags))
		go notificationWorker.Start(ctx)
	}

	// Setup routes
	routes.SetupRoutes(app, config.DB, notifier, serviceLogger)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
