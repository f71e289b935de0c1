package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	orderapp "github.com/muhammadheryan/storefront/application/order"
	productapp "github.com/muhammadheryan/storefront/application/product"
	userapp "github.com/muhammadheryan/storefront/application/user"
	"github.com/muhammadheryan/storefront/cmd/config"
	redisclient "github.com/muhammadheryan/storefront/cmd/redis"
	_ "github.com/muhammadheryan/storefront/docs"
	orderRepo "github.com/muhammadheryan/storefront/repository/order"
	productRepo "github.com/muhammadheryan/storefront/repository/product"
	redisRepo "github.com/muhammadheryan/storefront/repository/redis"
	txRepo "github.com/muhammadheryan/storefront/repository/tx"
	userRepo "github.com/muhammadheryan/storefront/repository/user"
	"github.com/muhammadheryan/storefront/thirdparty/rabbitmq"
	"github.com/muhammadheryan/storefront/transport"
	"github.com/muhammadheryan/storefront/utils/logger"
	validatorx "github.com/muhammadheryan/storefront/utils/validator"
	"go.uber.org/zap"
)

// @title STOREFRONT API
// @version 1.0
// @description Storefront catalog API Documentation
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables
	cfg := config.Load()

	// Initialize global logger
	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Info("Starting server", zap.String("env", cfg.Environment))
	validatorx.Init()

	// Connect to database
	db, err := sqlx.Connect("mysql", cfg.GetDSN())
	if err != nil {
		logger.Fatal("err connect db", zap.Error(err))
	}
	defer db.Close()

	// Set database connection pool settings
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// Initialize Redis client
	if err := redisclient.New(cfg); err != nil {
		logger.Fatal("err connect redis", zap.Error(err))
	}
	defer func() {
		_ = redisclient.Close()
	}()

	// Catalog events are optional; without a broker other instances simply
	// rebuild the top rated cache on their next miss.
	var publisher rabbitmq.Publisher
	if cfg.RabbitMQ.Enabled {
		publisher, err = rabbitmq.NewPublisher(cfg.RabbitMQ.Host, cfg.RabbitMQ.Port, cfg.RabbitMQ.User, cfg.RabbitMQ.Password)
		if err != nil {
			logger.Fatal("err connect rabbitmq", zap.Error(err))
		}
		defer publisher.Close()
	}

	// Initialize repositories
	TxRepo := txRepo.NewTxRepository(db)
	ProductRepo := productRepo.NewProductRepository(db)
	UserRepo := userRepo.NewUserRepository(db)
	OrderRepo := orderRepo.NewOrderRepository(db)
	RedisRepo := redisRepo.NewRepository(redisclient.Get())

	// Initialize application layers
	UserApp := userapp.NewUserApp(cfg, UserRepo, RedisRepo)
	ProductApp := productapp.NewProductApp(cfg, TxRepo, ProductRepo, RedisRepo, publisher)
	OrderApp := orderapp.NewOrderApp(cfg, TxRepo, OrderRepo, ProductRepo, RedisRepo, publisher)

	httpTransport := transport.NewTransport(cfg, ProductApp, UserApp, OrderApp)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpTransport,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("HTTP server running", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("err shutdown server", zap.Error(err))
	}
}
