package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/venuepass/venue-booking-backend/internal/api"
	"github.com/venuepass/venue-booking-backend/internal/auth"
	"github.com/venuepass/venue-booking-backend/internal/booking"
	"github.com/venuepass/venue-booking-backend/internal/events"
	"github.com/venuepass/venue-booking-backend/internal/observability"
	"github.com/venuepass/venue-booking-backend/internal/payment"
	"github.com/venuepass/venue-booking-backend/internal/slot"
	"github.com/venuepass/venue-booking-backend/internal/venue"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	DBPool      *pgxpool.Pool
	MongoDB     *mongo.Database
	RedisClient *redis.Client
	AMQPConn    *amqp.Connection

	JWTSecret string
	JWTTTL    time.Duration

	HoldTTL         time.Duration
	AvailabilityTTL time.Duration

	GatewaySecret      string
	GatewayProductCode string
	GatewayBaseURL     string
	PaymentSuccessURL  string
	PaymentFailureURL  string
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Logger     observability.Logger
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	// Init components
	logger := observability.NewLogger()
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	clock := slot.SystemClock()

	// Both the cache and the publisher tolerate missing backends. A nil
	// redis client or AMQP connection yields a no-op component.
	cache := slot.NewAvailabilityCache(cfg.RedisClient, cfg.AvailabilityTTL)
	publisher, err := events.NewPublisher(cfg.AMQPConn)
	if err != nil {
		return nil, err
	}

	// Venue module
	venueRepo := venue.NewPgxRepository(cfg.DBPool)
	venueService := venue.NewService(venueRepo)

	// Slot module
	slotStore := slot.NewPgxStore(cfg.DBPool)
	slotManager := slot.NewManager(slotStore, cache, logger,
		slot.WithHoldTTL(cfg.HoldTTL),
		slot.WithClock(clock),
	)
	slotService := slot.NewService(venueService, slotStore, cache, clock)

	// Booking module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, venueService, slotService, slotManager, clock)

	// Payment module
	signer := payment.NewSigner(cfg.GatewaySecret)
	gateway := payment.NewHTTPGateway(cfg.GatewayBaseURL)
	audit := payment.NewMongoAuditLog(cfg.MongoDB, logger)
	paymentService := payment.NewService(
		bookingService,
		bookingRepo,
		slotManager,
		gateway,
		signer,
		audit,
		publisher,
		logger,
		clock,
		payment.Options{
			ProductCode: cfg.GatewayProductCode,
			SuccessURL:  cfg.PaymentSuccessURL,
			FailureURL:  cfg.PaymentFailureURL,
		},
	)

	// API Router Config
	routerParams := api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		VenueService:   venueService,
		SlotService:    slotService,
		SlotManager:    slotManager,
		BookingService: bookingService,
		PaymentService: paymentService,
		JWTManager:     jwtManager,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Logger:     logger,
	}, nil
}
