package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/venuepass/venue-booking-backend/internal/auth"
	"github.com/venuepass/venue-booking-backend/internal/booking"
	bookingHttp "github.com/venuepass/venue-booking-backend/internal/booking/http"
	"github.com/venuepass/venue-booking-backend/internal/payment"
	paymentHttp "github.com/venuepass/venue-booking-backend/internal/payment/http"
	"github.com/venuepass/venue-booking-backend/internal/slot"
	slotHttp "github.com/venuepass/venue-booking-backend/internal/slot/http"
	"github.com/venuepass/venue-booking-backend/internal/venue"
	venueHttp "github.com/venuepass/venue-booking-backend/internal/venue/http"
)

// Config bundles everything the router needs.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	VenueService   venue.Service
	SlotService    slot.Service
	SlotManager    slot.Manager
	BookingService booking.Service
	PaymentService payment.Service
	JWTManager     *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and
// registering routes for the venue, slot, booking and payment modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	venueHandler := venueHttp.NewHandler(cfg.VenueService)
	slotHandler := slotHttp.NewHandler(cfg.SlotService, cfg.SlotManager, cfg.BookingService, cfg.VenueService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	paymentHandler := paymentHttp.NewHandler(cfg.PaymentService)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		venueHttp.RegisterRoutes(v1, venueHandler, authMiddleware)
		slotHttp.RegisterRoutes(v1, slotHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware)
		paymentHttp.RegisterRoutes(v1, paymentHandler, authMiddleware)
	}

	return r
}
