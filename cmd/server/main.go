package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-contracts/internal/config"
	"github.com/iliyamo/rental-contracts/internal/database"
	"github.com/iliyamo/rental-contracts/internal/handler"
	"github.com/iliyamo/rental-contracts/internal/middleware"
	"github.com/iliyamo/rental-contracts/internal/queue"
	"github.com/iliyamo/rental-contracts/internal/repository"
	"github.com/iliyamo/rental-contracts/internal/router"
	"github.com/iliyamo/rental-contracts/internal/scheduler"
	"github.com/iliyamo/rental-contracts/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	config.SetLogLevel(cfg.LogLevel)
	log := config.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("database open failed")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("schema migration failed")
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	contracts := repository.NewContractRepo(db)
	events := &service.AMQPPublisher{URL: cfg.RabbitURL, Log: log}

	invoices := &service.InvoiceService{
		Contracts: contracts,
		Templates: repository.NewTemplateRepo(db),
		Invoices:  repository.NewInvoiceRepo(db),
		Locker:    config.NewLocker(rdb),
		Events:    events,
		Log:       log,
	}

	cacheCfg := config.LoadCacheConfig()
	sweeper := scheduler.NewScheduler(contracts, events, middleware.NewCacheInvalidator(cacheCfg, rdb), log, cfg.ExpirySweepCron)
	if err := sweeper.Start(); err != nil {
		log.WithError(err).Fatal("scheduler start failed")
	}
	defer sweeper.Stop()

	audit := &queue.AuditConsumer{URL: cfg.RabbitURL, LogDir: "logs", Log: log}
	go func() {
		if err := audit.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("audit consumer stopped")
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	router.Register(e, router.Deps{
		DB:        db,
		Redis:     rdb,
		Log:       log,
		JWTSecret: cfg.JWTSecret,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     cacheCfg,
		Auth:      handler.NewAuthHandler(cfg, users, tokens, log),
		Contracts: handler.NewContractHandler(contracts, repository.NewRoomRepo(db), events, service.NewURLRenderer(cfg.PDFBaseURL), log),
		Invoices:  handler.NewInvoiceHandler(invoices, log),
	})

	addr := ":" + cfg.Port
	go func() {
		log.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
	log.Info("server stopped")
}
