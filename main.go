package main

import (
	"aula-booking/calendar"
	"aula-booking/config"
	"aula-booking/database"
	"aula-booking/events"
	"aula-booking/handlers"
	"aula-booking/router"
	"aula-booking/scheduling"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func newPublisher(cfg config.EventsConfig) scheduling.Publisher {
	if !cfg.Enabled {
		return events.NopPublisher{}
	}
	log.Info().Str("queue", cfg.Queue).Msg("Publishing booking events")
	return events.NewAMQPPublisher(cfg.AMQPURL, cfg.Queue)
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.OpenStore(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open booking store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close booking store")
		}
	}()

	repo := database.NewRepository(store, cfg.Store.Key)
	repo.Load(ctx)

	service := scheduling.NewService(repo, scheduling.WithPublisher(newPublisher(cfg.Events)))
	h := handlers.New(service, calendar.NewIndexer(repo))

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Environment != "development",
	})
	router.SetupRoutes(app, h)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		log.Info().Str("addr", addr).Str("driver", cfg.Store.Driver).Msg("Starting server")
		if err := app.Listen(addr); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down server")
		timeout := time.Duration(cfg.App.ShutdownTimeoutSeconds) * time.Second
		if err := app.ShutdownWithTimeout(timeout); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
