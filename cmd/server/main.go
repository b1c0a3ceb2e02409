package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/agencyhub/postbridge/configs"
	"github.com/agencyhub/postbridge/internal/api/handlers"
	"github.com/agencyhub/postbridge/internal/api/middleware"
	job "github.com/agencyhub/postbridge/internal/jobs"
	"github.com/agencyhub/postbridge/internal/models"
	"github.com/agencyhub/postbridge/internal/queue"
	"github.com/agencyhub/postbridge/internal/repository"
	"github.com/agencyhub/postbridge/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	historyRepo := repository.NewPublishHistoryRepository(db)
	assetRepo := repository.NewMediaAssetRepository(db)

	adapters := map[string]service.PublishAdapter{
		models.PlatformInstagram: service.NewInstagramAdapter(*cfg),
		models.PlatformFacebook:  service.NewFacebookAdapter(*cfg),
	}

	publisherService := service.NewPublisherService(*cfg, postRepo, connectionRepo, historyRepo, adapters)
	tokenService := service.NewTokenService(*cfg, connectionRepo)
	connectionService := service.NewConnectionService(*cfg, connectionRepo, tokenService)
	postService := service.NewPostService(postRepo, historyRepo)
	r2Service := service.NewR2Service(*cfg)
	assetService := service.NewAssetService(assetRepo, r2Service)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	publish := handlers.NewPublishHandler(publisherService)
	api.Post("/publish/sweep", publish.Sweep)
	api.Post("/publish", publish.PublishPost)

	token := handlers.NewTokenHandler(tokenService)
	api.Post("/meta/token", token.HandleAction)

	post := handlers.NewPostHandler(postService, client)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/history", post.PostHistory)
	api.Post("/posts/reschedule", post.ReschedulePost)
	api.Post("/posts/remove", post.RemovePost)

	connection := handlers.NewConnectionHandler(connectionService)
	api.Post("/connections/create", connection.Connect)
	api.Get("/connections", connection.ListConnections)
	api.Post("/connections/remove", connection.Disconnect)

	asset := handlers.NewAssetHandler(assetService)
	api.Post("/assets/upload", asset.UploadAsset)
	api.Get("/assets", asset.ListAssets)
	api.Post("/assets/remove", asset.RemoveAsset)

	// cron jobs
	sweepJob := job.NewSweepJob(publisherService)
	refreshTokenJob := job.NewTokenRefreshJob(tokenService)

	//queue
	queueW := queue.NewQueue(publisherService)

	c := cron.New()
	c.AddFunc(cfg.SweepInterval, sweepJob.Run)
	c.AddFunc(cfg.RefreshInterval, refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
