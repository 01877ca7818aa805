package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vuhle/lingocenter/internal/config"
	"github.com/vuhle/lingocenter/internal/database"
	"github.com/vuhle/lingocenter/internal/handler"
	"github.com/vuhle/lingocenter/internal/queue"
	"github.com/vuhle/lingocenter/internal/repository"
	"github.com/vuhle/lingocenter/internal/router"
	"github.com/vuhle/lingocenter/internal/scheduler"
	"github.com/vuhle/lingocenter/internal/service"
)

func main() {
	_ = godotenv.Load() // optional .env for local runs
	cfg := config.Load()
	logger := config.NewLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	regRepo := repository.NewRegistrationRepo(db)
	couponRepo := repository.NewCouponRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)

	publisher := queue.NewPublisher(cfg.AMQPURL, logger)
	if cfg.AMQPURL != "" {
		go queue.StartInvoiceConsumer(cfg.AMQPURL, queue.LogMailer{Logger: logger}, logger)
	}

	regService := service.NewRegistrationService(regRepo, couponRepo, catalogRepo, publisher, logger)
	couponService := service.NewCouponService(regRepo, couponRepo, logger)
	paymentService := service.NewPaymentService(regRepo, publisher, service.GatewayConfig{
		TmnCode:    cfg.VNPayTmnCode,
		HashSecret: cfg.VNPayHashSecret,
		BaseURL:    cfg.VNPayBaseURL,
		ReturnURL:  cfg.VNPayReturnURL,
	}, logger)
	adminService := service.NewClassAdminService(regRepo)

	reclaimer := scheduler.NewReclaimer(regRepo, cfg.ReclaimTTL, cfg.ReclaimInterval, logger)
	reclaimer.Start(ctx)
	defer reclaimer.Stop()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting disabled")
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, router.Handlers{
		Registration: handler.NewRegistrationHandler(regService, regRepo),
		Coupon:       handler.NewCouponHandler(couponService),
		Payment:      handler.NewPaymentHandler(paymentService, logger),
		AdminClass:   handler.NewAdminClassHandler(adminService, regRepo),
	}, cfg.JWTSecret, rdb)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		_ = e.Shutdown(context.Background())
	}()

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Info("server stopped", zap.Error(err))
	}
}
