package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/freshmart/storefront/internal/cart"
	"github.com/freshmart/storefront/internal/config"
	"github.com/freshmart/storefront/internal/es"
	"github.com/freshmart/storefront/internal/httpserver"
	"github.com/freshmart/storefront/internal/logging"
	loggingmw "github.com/freshmart/storefront/internal/middleware/logging"
	"github.com/freshmart/storefront/internal/mykafka"
	"github.com/freshmart/storefront/internal/payment"
	"github.com/freshmart/storefront/internal/repo"
	"github.com/freshmart/storefront/internal/reserve"
	"github.com/freshmart/storefront/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	rdb := config.InitRedis(cfg)

	producer := mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})

	esClient, err := es.NewClient(cfg)
	if err != nil {
		log.Fatalf("elasticsearch init error: %v", err)
	}

	gateway := payment.NewHTTPClient(cfg.GatewayURL)

	catalogRepo := &repo.CatalogRepo{DB: db}
	orderRepo := &repo.OrderRepo{DB: db}
	addressRepo := &repo.AddressRepo{DB: db}
	cartStore := &cart.RedisStore{Client: rdb}

	orderService := &service.OrderService{
		DB:        db,
		Catalog:   catalogRepo,
		Orders:    orderRepo,
		Addresses: addressRepo,
		Cart:      cartStore,
		Strategy:  reserve.ForName(cfg.CommitStrategy),
		Gateway:   gateway,
		Poller: &payment.Poller{
			Client:      gateway,
			Interval:    cfg.PollInterval,
			MaxAttempts: cfg.PollMaxAttempts,
		},
		ShippingFee: cfg.ShippingFee,
		Events:      producer,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler:   &httpserver.OrderHTTP{Svc: orderService},
		CartHandler:    &httpserver.CartHTTP{Store: cartStore, Catalog: catalogRepo},
		CatalogHandler: &httpserver.CatalogHTTP{Repo: catalogRepo, ES: esClient, Index: cfg.ES_INDEX, Events: producer},
		AddressHandler: &httpserver.AddressHTTP{Repo: addressRepo},
		SearchHandler:  &httpserver.SearchHTTP{ES: esClient, Index: cfg.ES_INDEX},
		JWTSecret:      []byte(cfg.JWT_SECRET),
	})

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := rdb.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
