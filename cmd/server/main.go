package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/venuepass/venue-booking-backend/internal/app"
	"github.com/venuepass/venue-booking-backend/internal/config"
	"github.com/venuepass/venue-booking-backend/internal/db"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Connect Postgres
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()

	// Apply schema
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	// Connect Mongo (payment audit log)
	mongoClient, err := db.NewMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Printf("mongo disconnect: %v", err)
		}
	}()

	// Optional Redis (availability cache)
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("redis unavailable, running without availability cache: %v", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// Optional AMQP (booking/payment events)
	var amqpConn *amqp.Connection
	if cfg.AMQPURL != "" {
		amqpConn, err = amqp.Dial(cfg.AMQPURL)
		if err != nil {
			log.Printf("amqp unavailable, running without event publishing: %v", err)
			amqpConn = nil
		} else {
			defer amqpConn.Close()
		}
	}

	// Build the application container
	container, err := app.NewContainer(app.Config{
		IsProduction:       cfg.IsProduction,
		ProdOrigins:        cfg.ProdOrigins,
		DBPool:             pool,
		MongoDB:            mongoClient.Database(cfg.MongoDB),
		RedisClient:        redisClient,
		AMQPConn:           amqpConn,
		JWTSecret:          cfg.JWTSecret,
		JWTTTL:             cfg.JWTAccessTokenTTL,
		HoldTTL:            cfg.HoldTTL,
		AvailabilityTTL:    cfg.AvailabilityTTL,
		GatewaySecret:      cfg.GatewaySecret,
		GatewayProductCode: cfg.GatewayProductCode,
		GatewayBaseURL:     cfg.GatewayBaseURL,
		PaymentSuccessURL:  cfg.PaymentSuccessURL,
		PaymentFailureURL:  cfg.PaymentFailureURL,
	})
	if err != nil {
		log.Fatalf("failed to build container: %v", err)
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	// Run server in separate goroutine
	go func() {
		log.Printf("server running on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Println("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	log.Println("server exited gracefully")
}
