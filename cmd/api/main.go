package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/pageturn/bookstore-backend/api/routes"
	"github.com/pageturn/bookstore-backend/internal/auth"
	"github.com/pageturn/bookstore-backend/internal/books"
	"github.com/pageturn/bookstore-backend/internal/captcha"
	"github.com/pageturn/bookstore-backend/internal/cart"
	"github.com/pageturn/bookstore-backend/internal/categories"
	"github.com/pageturn/bookstore-backend/internal/orders"
	"github.com/pageturn/bookstore-backend/internal/payment"
	"github.com/pageturn/bookstore-backend/internal/reviews"
	"github.com/pageturn/bookstore-backend/internal/users"
	"github.com/pageturn/bookstore-backend/pkg/config"
	"github.com/pageturn/bookstore-backend/pkg/db"
	"github.com/pageturn/bookstore-backend/pkg/logger"
	"github.com/pageturn/bookstore-backend/pkg/metrics"
	"github.com/pageturn/bookstore-backend/pkg/migrate"
	"github.com/pageturn/bookstore-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	router, err := buildRouter(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	stop, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "shutdown complete")
}

func buildRouter(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (http.Handler, error) {
	gdb := dbClient.DB()

	userRepo := users.NewRepository(gdb)
	bookRepo := books.NewRepository(gdb)
	categoryRepo := categories.NewRepository(gdb)
	cartRepo := cart.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	reviewRepo := reviews.NewRepository(gdb)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return nil, err
	}

	captchaService, err := captcha.NewService(redisClient, cfg.Captcha)
	if err != nil {
		return nil, err
	}

	bookService, err := books.NewService(bookRepo, categoryRepo)
	if err != nil {
		return nil, err
	}

	categoryService, err := categories.NewService(categoryRepo, bookRepo)
	if err != nil {
		return nil, err
	}

	cartService, err := cart.NewService(cartRepo, dbClient, bookRepo)
	if err != nil {
		return nil, err
	}

	orderService, err := orders.NewService(orderRepo, cartRepo, dbClient, payment.NewSimulator(cfg.Payment))
	if err != nil {
		return nil, err
	}

	reviewService, err := reviews.NewService(reviewRepo, dbClient, bookRepo, orderRepo)
	if err != nil {
		return nil, err
	}

	userService, err := users.NewService(userRepo, dbClient, cfg.Password, users.CascadeDeps{
		Carts:   func(tx *gorm.DB) users.CartRemover { return cartRepo.WithTx(tx) },
		Orders:  func(tx *gorm.DB) users.OrderRemover { return orderRepo.WithTx(tx) },
		Reviews: func(tx *gorm.DB) users.ReviewRemover { return reviewRepo.WithTx(tx) },
	})
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()

	return routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Registry: registry,
		HTTP:     metrics.NewHTTPMetrics(registry),

		Auth:       authService,
		Captcha:    captchaService,
		Books:      bookService,
		Categories: categoryService,
		Cart:       cartService,
		Orders:     orderService,
		Reviews:    reviewService,
		Users:      userService,
	}), nil
}
