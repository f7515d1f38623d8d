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
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/induction-api/internal/config"
	"github.com/noah-isme/induction-api/internal/database"
	"github.com/noah-isme/induction-api/internal/handler"
	"github.com/noah-isme/induction-api/internal/middleware"
	"github.com/noah-isme/induction-api/internal/observability"
	"github.com/noah-isme/induction-api/internal/repository"
	"github.com/noah-isme/induction-api/internal/router"
	"github.com/noah-isme/induction-api/internal/service"
	"github.com/noah-isme/induction-api/internal/storage"
	cloud "github.com/noah-isme/induction-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to access database handle: %v", err)
	}
	defer sqlDB.Close()

	healthChecks := map[string]handler.Pinger{"database": sqlDB}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(rootCtx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		healthChecks["redis"] = database.RedisPinger{Client: redisClient}
	} else {
		logger.Warn().Msg("redis not configured: logout will not revoke tokens server-side")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	fileStorage, fileLocator := buildStorage(cfg, logger)

	observability.RegisterMetrics()
	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	readStatusRepo := repository.NewReadStatusRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	submissionRepo := repository.NewQuizSubmissionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	denylist := service.NewTokenDenylist(redisClient)
	activityService := service.NewActivityService(activityRepo, logger)
	authService := service.NewAuthService(userRepo, service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL), denylist, validate, logger)
	userService := service.NewUserService(userRepo, validate, activityService, logger)
	readStatusService := service.NewReadStatusService(readStatusRepo, userRepo, logger)
	documentService := service.NewDocumentService(documentRepo, fileStorage, activityService, cfg.UploadMaxSizeMB, logger)
	quizService := service.NewQuizService(quizRepo, validate, activityService, logger)
	submissionService := service.NewQuizSubmissionService(submissionRepo, quizRepo, activityService, logger)
	progressService := service.NewProgressService(userRepo, documentRepo, readStatusRepo, quizRepo, submissionRepo, logger)
	exportService := service.NewExportService(progressService, logger)
	progressFeed := service.NewProgressFeed(progressService, redisClient, cfg.FeedChannel, natsConn, logger)
	progressFeed.Start(rootCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024 * 10,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSOrigins,
		AccessLog:    cfg.AppEnv != "production",
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, userService, readStatusService, progressService, progressFeed, validate, logger),
		DocumentHandler:     handler.NewDocumentHandler(documentService, fileLocator, progressFeed, logger),
		QuizHandler:         handler.NewQuizHandler(quizService, submissionService, progressFeed, validate, logger),
		ExportHandler:       handler.NewExportHandler(exportService, logger),
		ActivityHandler:     handler.NewActivityHandler(activityService, logger),
		ProgressFeedHandler: handler.NewProgressFeedHandler(progressFeed, logger, 30*time.Second),
		HealthChecks:        healthChecks,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret, denylist),
		OptionalJWT:         middleware.JWTOptional(cfg.JWTSecret, denylist),
		LoginLimiter:        middleware.RateLimit("login", cfg.LoginRateLimit, cfg.LoginRateWindow),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Str("database", cfg.DatabaseDriver).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, cancelRoot)
}

// buildStorage returns the configured document store and, for local disk, the
// locator used to serve stored files.
func buildStorage(cfg config.Config, logger zerolog.Logger) (service.FileStorage, handler.FileLocator) {
	if cfg.StorageDriver == "cloudinary" {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		return uploader, nil
	}

	local, err := storage.NewLocal(cfg.StorageDir, cfg.StoragePublicPath, logger)
	if err != nil {
		log.Fatalf("failed to prepare document storage: %v", err)
	}
	return local, local
}

func waitForShutdown(app *fiber.App, cancelRoot context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	cancelRoot()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
