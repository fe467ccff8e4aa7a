package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "Backend-Forms-Builder/docs"
	"Backend-Forms-Builder/src/authz"
	"Backend-Forms-Builder/src/config"
	"Backend-Forms-Builder/src/controllers"
	"Backend-Forms-Builder/src/database"
	"Backend-Forms-Builder/src/jobs"
	"Backend-Forms-Builder/src/middleware"
	"Backend-Forms-Builder/src/repository"
	"Backend-Forms-Builder/src/repository/memory"
	"Backend-Forms-Builder/src/repository/mongodb"
	"Backend-Forms-Builder/src/routes"
	"Backend-Forms-Builder/src/seeder"
	"Backend-Forms-Builder/src/services"
	"Backend-Forms-Builder/src/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// @title        Forms Builder API
// @version      1.0
// @description  Templates, questions, tags and form responses with ownership-based access control.
// @BasePath     /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Error connecting to the database", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var (
		redisClient *redis.Client
		enqueuer    services.TaskEnqueuer
		worker      *asynq.Server
	)
	if cfg.RedisURI != "" {
		redisOpt, err := database.ParseRedisURI(cfg.RedisURI)
		if err != nil {
			logger.Error("Invalid REDIS_URI", "error", err)
			os.Exit(1)
		}
		redisClient, err = database.NewRedisClient(ctx, redisOpt)
		if err != nil {
			logger.Error("Error connecting to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		asynqConn := database.AsynqConnOpt(redisOpt)
		asynqClient := database.NewAsynqClient(asynqConn)
		defer asynqClient.Close()
		enqueuer = asynqClient

		mux := asynq.NewServeMux()
		jobs.RegisterHandlers(mux, jobs.NewTagPruner(store.Templates, store.Tags, logger))
		worker = jobs.NewServer(asynqConn, cfg.WorkerConcurrency, logger)
		if err := worker.Start(mux); err != nil {
			logger.Error("Error starting background worker", "error", err)
			os.Exit(1)
		}
		defer worker.Shutdown()
	} else {
		logger.Warn("REDIS_URI not set: sign-out revocation and tag pruning are disabled")
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	blacklist := utils.NewTokenBlacklist(redisClient)
	svc := services.New(services.Options{
		Store:      store,
		Tokens:     tokens,
		Revoker:    blacklist,
		Validator:  utils.NewValidator(),
		Enqueuer:   enqueuer,
		PruneGrace: cfg.TagPruneGrace,
		Logger:     logger,
	})

	if cfg.AdminEmail != "" {
		admin, err := seeder.EnsureAdmin(ctx, store.Users, cfg.AdminEmail, cfg.AdminPassword, logger)
		if err != nil {
			logger.Error("Error seeding admin", "error", err)
			os.Exit(1)
		}
		if cfg.SeedSamples {
			if err := seeder.SeedSampleTemplates(ctx, svc.Templates, admin, logger); err != nil {
				logger.Error("Error seeding sample templates", "error", err)
			}
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "forms-builder",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Origins(),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)

	routes.InitRoutes(app, &routes.Handlers{
		Auth:      middleware.NewAuth(authz.NewVerifier(tokens, blacklist), logger),
		Accounts:  controllers.NewAuthController(svc.Auth, cfg.CookieSecure, logger),
		Users:     controllers.NewUserController(svc.Users, logger),
		Templates: controllers.NewTemplateController(svc.Templates, logger),
		Tags:      controllers.NewTagController(svc.Tags, logger),
		Forms:     controllers.NewFormController(svc.Forms, logger),
	})

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("Error shutting down server", "error", err)
		}
	}()

	logger.Info("Server is running", "port", cfg.Port, "storage", cfg.StorageDriver)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("Server stopped", "error", err)
	}
}

// openStore returns the repositories selected by STORAGE_DRIVER and a
// function releasing their connection.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repository.Store, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	client, db, err := database.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("Error disconnecting MongoDB", "error", err)
		}
	}
	return mongodb.NewStore(db), closeFn, nil
}
