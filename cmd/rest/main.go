package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notes-stream-be/internal/changefeed"
	"notes-stream-be/internal/controller"
	"notes-stream-be/internal/pkg/serverutils"
	"notes-stream-be/internal/repository"
	"notes-stream-be/internal/service"
	"notes-stream-be/pkg/database"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	app.Use(cors.New())
	app.Use(serverutils.ErrorHandlerMiddleware(logger))

	feed := changefeed.New(changefeed.DefaultTopic, watermill.NewStdLogger(false, false))

	var noteRepository repository.INoteRepository
	switch backend := os.Getenv("STORAGE_BACKEND"); backend {
	case "postgres":
		db, err := database.ConnectDB(context.Background(), os.Getenv("DB_CONNECTION_STRING"))
		if err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		if err := repository.EnsureSchema(context.Background(), db); err != nil {
			logger.Fatal().Err(err).Msg("ensure schema")
		}
		noteRepository = repository.NewNoteRepository(db, feed)
		logger.Info().Msg("using postgres storage backend")
	default:
		noteRepository = repository.NewMemoryNoteRepository(feed)
		logger.Info().Msg("using in-memory storage backend")
	}

	noteService := service.NewNoteService(noteRepository)
	watchService := service.NewWatchService(noteRepository, logger)

	noteController := controller.NewNoteController(noteService)
	watchController := controller.NewWatchController(watchService, logger)

	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.SendString("ok")
	})

	api := app.Group("/api")
	noteController.RegisterRoutes(api)
	watchController.RegisterRoutes(api)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	if err := app.Listen(":" + port); err != nil {
		logger.Error().Err(err).Msg("listen")
	}

	// Closing the store tears the change feed down, which ends every watch
	// stream still attached.
	if err := noteRepository.Close(context.Background()); err != nil {
		logger.Error().Err(err).Msg("close store")
	}
}
