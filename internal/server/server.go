package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"restaurant-checkout/internal/service"
)

// HealthChecker reports store health for GET /health.
type HealthChecker interface {
	Health() map[string]string
}

type Options struct {
	Port        int
	CORSOrigins []string
	JWTSecret   string

	CheckoutRPS   float64
	CheckoutBurst int

	DB          HealthChecker
	Checkout    service.CheckoutService
	Payments    service.PaymentService
	Fulfillment service.FulfillmentService
	Logger      *slog.Logger
}

type Server struct {
	port        int
	corsOrigins []string
	jwtSecret   []byte

	db          HealthChecker
	checkout    service.CheckoutService
	payments    service.PaymentService
	fulfillment service.FulfillmentService

	limiter *ipLimiter
	logger  *slog.Logger
}

func New(opts Options) *Server {
	return &Server{
		port:        opts.Port,
		corsOrigins: opts.CORSOrigins,
		jwtSecret:   []byte(opts.JWTSecret),
		db:          opts.DB,
		checkout:    opts.Checkout,
		payments:    opts.Payments,
		fulfillment: opts.Fulfillment,
		limiter:     newIPLimiter(opts.CheckoutRPS, opts.CheckoutBurst),
		logger:      opts.Logger,
	}
}

func NewServer(opts Options) *http.Server {
	s := New(opts)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
