package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/pranavOffl/EventBookingSystem/internal/booking"
	"github.com/pranavOffl/EventBookingSystem/internal/config"
	"github.com/pranavOffl/EventBookingSystem/internal/database"
	"github.com/pranavOffl/EventBookingSystem/internal/handler"
	"github.com/pranavOffl/EventBookingSystem/internal/logger"
	"github.com/pranavOffl/EventBookingSystem/internal/middleware"
	"github.com/pranavOffl/EventBookingSystem/internal/queue"
	"github.com/pranavOffl/EventBookingSystem/internal/repository"
	"github.com/pranavOffl/EventBookingSystem/internal/router"
	"github.com/pranavOffl/EventBookingSystem/internal/service"
	"github.com/pranavOffl/EventBookingSystem/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = database.EnsureSchema(schemaCtx, db)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("schema bootstrap failed")
	}

	// nil when Redis is unreachable; limiter, cache and blocklist then pass through
	rdb := config.NewRedisClient(cfg.Redis)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	store := repository.NewStore(db)
	blocklist := repository.NewTokenBlocklist(rdb, "jti")

	opts := []booking.Option{booking.WithLogger(log)}
	if cfg.AMQPURL != "" {
		opts = append(opts, booking.WithNotifier(queue.NewPublisher(cfg.AMQPURL, log)))
	}
	bookings := booking.NewManager(store, opts...)

	eventSvc := service.NewEventService(events, store, bookings, time.Now)
	accountSvc := service.NewAccountService(users, tokens, events, bookings, cfg.BcryptCost, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.NewTokenBucket(cfg.RateLimit.Default, rdb))

	cache := middleware.NewEventCache(cfg.Cache, rdb, log)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, blocklist), cfg.JWTSecret, blocklist, cfg.AdminSignupEnabled)
	router.RegisterEvents(e, handler.NewEventHandler(eventSvc), cfg.JWTSecret, blocklist, cache)
	router.RegisterBookings(e, handler.NewBookingHandler(bookings, eventSvc), cfg.JWTSecret, blocklist, router.BookingLimits{
		Create: middleware.NewTokenBucket(cfg.RateLimit.BookingCreate, rdb),
		Cancel: middleware.NewTokenBucket(cfg.RateLimit.BookingCancel, rdb),
	}, cache)
	router.RegisterAccounts(e, handler.NewAccountHandler(accountSvc), cfg.JWTSecret, blocklist, cache)

	if cfg.AMQPURL != "" {
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.BookingLogPath, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("booking consumer stopped")
			}
		}()
	} else {
		log.Info("AMQP_URL not set; booking notifications disabled")
	}

	sched, err := worker.Schedule(ctx, log,
		worker.NewReconciler(events, log).Job(cfg.ReconcileInterval),
		worker.NewTokenSweeper(tokens, log).Job(cfg.TokenSweepInterval),
	)
	if err != nil {
		log.WithError(err).Fatal("background jobs failed to start")
	}

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	if err := sched.Shutdown(); err != nil {
		log.WithError(err).Warn("scheduler shutdown")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := db.Close(); err != nil {
		log.WithError(err).Warn("database close")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
