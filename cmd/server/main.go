package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postdeck/configs"
	"github.com/maheshrc27/postdeck/internal/api/handlers"
	"github.com/maheshrc27/postdeck/internal/api/middleware"
	job "github.com/maheshrc27/postdeck/internal/jobs"
	"github.com/maheshrc27/postdeck/internal/queue"
	"github.com/maheshrc27/postdeck/internal/repository"
	"github.com/maheshrc27/postdeck/internal/service"
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
	inspector := asynq.NewInspector(redisConn)

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // videos up to 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	postMediaRepo := repository.NewPostMediaRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	scheduler := queue.NewScheduler(client, inspector)
	r2Service := service.NewR2Service(*cfg)
	publisher := service.NewPublisherService(*cfg)
	statsService := service.NewStatsService(postRepo, mediaRepo, statsRepo)
	postService := service.NewPostService(postRepo, postMediaRepo, mediaRepo, statsService, scheduler, r2Service)
	mediaService := service.NewMediaService(mediaRepo, postMediaRepo, statsService, r2Service)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService)
	api.Post("/posts/create", post.CreatePost)
	api.Post("/posts/update", post.UpdatePost)
	api.Post("/posts/remove", post.RemovePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/calendar", post.CalendarPosts)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media/upload", media.UploadMedia)
	api.Post("/media/upload-url", media.GenerateUploadURL)
	api.Post("/media/save", media.SaveMedia)
	api.Post("/media/remove", media.RemoveMedia)
	api.Get("/media", media.ListMedia)

	workspace := handlers.NewWorkspaceHandler(statsService)
	api.Get("/workspace/stats", workspace.GetStats)
	api.Get("/workspace/upcoming", workspace.GetUpcoming)
	api.Get("/workspace/activity", workspace.GetRecentActivity)

	// cron jobs
	reconcileJob := job.NewReconcileJob(postRepo, scheduler, statsService)

	c := cron.New()
	c.AddFunc("@every 00h05m00s", reconcileJob.Run)
	c.Start()

	// queue worker
	worker := queue.NewWorker(postRepo, postMediaRepo, mediaRepo, statsService, r2Service, publisher)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, worker.HandlePublishPostTask)

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
