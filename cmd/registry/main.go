package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/civil-registry/internal/config"
	"github.com/deppfellow/civil-registry/internal/database"
	"github.com/deppfellow/civil-registry/internal/handler"
	"github.com/deppfellow/civil-registry/internal/logger"
	"github.com/deppfellow/civil-registry/internal/middleware"
	"github.com/deppfellow/civil-registry/internal/repository"
	"github.com/deppfellow/civil-registry/internal/router"
	"github.com/deppfellow/civil-registry/internal/server"
	"github.com/deppfellow/civil-registry/internal/service"
	"github.com/pkg/errors"
)

const shutdownTimeout = 30 * time.Second

var migrateOnly = flag.Bool("migrate-only", false, "apply database migrations and exit")

func main() {
	flag.Parse()

	cfg := config.LoadConfig()

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	ctx := context.Background()

	if cfg.Primary.Env != "test" || *migrateOnly {
		if err := database.Migrate(ctx, &log, database.DSN(cfg)); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}
	if *migrateOnly {
		return
	}

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	repos := repository.NewRepositories(srv)
	services, err := service.NewServices(srv, repos)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create services")
	}

	if cfg.Seed.Enabled {
		n, err := services.Seed.Seed(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed reference data")
		}
		log.Info().Int("persons", n).Msg("seed finished")
	}

	if err := srv.Job.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start job worker")
	}

	handlers := handler.NewHandlers(srv, services)
	middlewares := middleware.NewMiddlewares(srv, services.Auth)
	r := router.NewRouter(handlers, middlewares)

	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
