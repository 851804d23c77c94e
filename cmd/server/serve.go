package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/idempotency"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/router"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving")
	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	_, level := config.LogSettings()
	log, err := logger.New(cfg.Env, level)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(ctx, cfg.Database())
	if err != nil {
		log.Error("database unavailable", zap.Error(err))
		return err
	}
	defer db.Close()
	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("schema applied")
	}

	// rdb stays a nil interface when Redis is down so every consumer
	// sees "no Redis" rather than a nil *redis.Client.
	var rdb redis.Cmdable
	if client, err := config.NewRedisClient(ctx, config.LoadRedisConfig()); err != nil {
		log.Warn("redis unavailable; cache, rate limit and idempotency disabled", zap.Error(err))
	} else {
		rdb = client
		defer client.Close()
	}

	bc := config.LoadBookingConfig()
	store := repository.NewBookingStore(db)
	tracker := booking.NewTracker(store, log)
	engine := booking.NewEngine(store, log, booking.WithCommitTimeout(bc.CommitTimeout))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.RequestID(), middleware.RequestLogger(log), echomw.Recover())

	sessions := repository.NewSessionRepo(db)
	movies := repository.NewMovieRepo(db)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db), log), cfg.JWTSecret)
	router.RegisterCatalog(e, router.Catalog{
		Catalog:  handler.NewCatalogHandler(repository.NewGenreRepo(db), repository.NewActorRepo(db), repository.NewHallRepo(db), log),
		Movies:   handler.NewMovieHandler(movies, log),
		Sessions: handler.NewSessionHandler(sessions, movies, tracker, log),
	}, cfg.JWTSecret, config.LoadCacheConfig(), rdb, log)

	orders := handler.NewOrderHandler(engine, repository.NewOrderRepo(db), sessions, tracker, log)
	orders.PageSize = bc.OrderPageSize
	if rdb != nil {
		orders.Idem = idempotency.NewStore(rdb, bc.IdempotencyTTL)
	}
	amqpCfg := config.LoadAMQPConfig()
	if bc.OrderEventsEnabled && amqpCfg.URL != "" {
		orders.Events = queue.NewPublisher(amqpCfg.URL, amqpCfg.Queue, log)
		consumer := queue.NewConsumer(amqpCfg.URL, amqpCfg.Queue, amqpCfg.LogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("order log consumer stopped", zap.Error(err))
			}
		}()
	}
	router.RegisterOrders(e, orders, cfg.JWTSecret, config.LoadRateLimitConfig(), rdb, log)

	if bc.AuditEnabled {
		auditor := booking.NewAuditor(repository.NewAuditRepo(db), log, bc.AuditInterval)
		if err := auditor.Start(); err != nil {
			log.Warn("consistency audit not scheduled", zap.Error(err))
		} else {
			defer func() { _ = auditor.Stop() }()
		}
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()
	log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
