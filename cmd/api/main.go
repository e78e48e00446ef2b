// Command api runs the Eduka user service: registration, login and user CRUD.
//
// @title                       Eduka User Service API
// @version                     1.0
// @description                 Authentication and user management for the Eduka campus portals.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduka/campus-auth/internal/api"
	"github.com/eduka/campus-auth/internal/api/handler"
	"github.com/eduka/campus-auth/internal/core/ports"
	"github.com/eduka/campus-auth/internal/core/service"
	mongodb "github.com/eduka/campus-auth/internal/infrastructure/db/mongo"
	redisdb "github.com/eduka/campus-auth/internal/infrastructure/db/redis"
	"github.com/eduka/campus-auth/internal/infrastructure/messaging"
	"github.com/eduka/campus-auth/internal/infrastructure/queue"
	"github.com/eduka/campus-auth/internal/pkg/config"
	"github.com/eduka/campus-auth/internal/pkg/token"
	"github.com/eduka/campus-auth/pkg/logger"
	"github.com/eduka/campus-auth/pkg/roles"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "eduka-user-service",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongodb.Disconnect(mongoClient); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	authEvents := mongodb.NewAuthEventRepository(db)
	if err := authEvents.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("auth_events indexes not created")
	}

	var publisher ports.NotificationPublisher
	if cfg.AMQP.URL != "" {
		rmq, err := messaging.NewRabbitMQPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, logger.Component("rabbitmq"))
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq unavailable, welcome notifications disabled")
		} else {
			defer rmq.Close()
			publisher = rmq
		}
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers,
		service.NewAuditService(authEvents, publisher, logger.Component("audit")),
		logger.Component("dispatcher"))
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	tokens := token.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(users, tokens, redisdb.NewTokenRevocations(rdb), dispatcher, cfg.BcryptCost, logger.Component("auth"))
	userService := service.NewUserService(users, dispatcher, cfg.BcryptCost, logger.Component("users"))

	if _, err := service.SeedAdmin(ctx, users, service.AdminSeed{
		Username: cfg.Seed.Username,
		Email:    cfg.Seed.Email,
		Password: cfg.Seed.Password,
	}, cfg.BcryptCost, log); err != nil {
		return err
	}

	writeRoles, err := parseRoles(cfg.UserWriteRoles)
	if err != nil {
		return err
	}

	e := api.NewRouter(api.Dependencies{
		Auth:  authService,
		Users: userService,
		Checks: map[string]handler.HealthCheck{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		CORSOrigins: cfg.CORSOrigins,
		WriteRoles:  writeRoles,
		Log:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("user service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func parseRoles(labels []string) ([]roles.Role, error) {
	out := make([]roles.Role, 0, len(labels))
	for _, l := range labels {
		r, err := roles.Parse(l)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
