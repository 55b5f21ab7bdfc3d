package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"staynest/internal/infra/config"
	"staynest/internal/infra/obs"
)

type CheckoutHTTP interface {
	Quote(c *gin.Context)
	PlaceBooking(c *gin.Context)
	GatewayCallback(c *gin.Context)
}

type BookingHTTP interface {
	Cancel(c *gin.Context)
}

type WalletHTTP interface {
	Statement(c *gin.Context)
	RedeemPoints(c *gin.Context)
}

type MeHTTP interface {
	ListBookings(c *gin.Context)
	ActivateMembership(c *gin.Context)
}

type AnalyticsHTTP interface {
	RevenueSeries(c *gin.Context)
	OwnerRollup(c *gin.Context)
	TopHotels(c *gin.Context)
}

type Handlers struct {
	Checkout           CheckoutHTTP
	Booking            BookingHTTP
	Wallet             WalletHTTP
	Me                 MeHTTP
	Analytics          AnalyticsHTTP
	IdentityMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.IdentityMiddleware != nil {
		router.Use(h.IdentityMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Checkout != nil {
		api.POST("/checkout/quote", h.Checkout.Quote)
		api.POST("/bookings", h.Checkout.PlaceBooking)
		api.POST("/payments/gateway/callback", h.Checkout.GatewayCallback)
	}
	if h.Booking != nil {
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
	}
	if h.Wallet != nil {
		walletGroup := api.Group("/wallet")
		walletGroup.GET("/statement", h.Wallet.Statement)
		walletGroup.POST("/redeem", h.Wallet.RedeemPoints)
	}
	if h.Me != nil {
		meGroup := api.Group("/me")
		meGroup.GET("/bookings", h.Me.ListBookings)
		meGroup.POST("/membership", h.Me.ActivateMembership)
	}
	if h.Analytics != nil {
		adminGroup := api.Group("/admin/analytics")
		adminGroup.GET("/revenue", h.Analytics.RevenueSeries)
		adminGroup.GET("/owners", h.Analytics.OwnerRollup)
		adminGroup.GET("/hotels", h.Analytics.TopHotels)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
