package server

import (
	"errors"
	"net/http"

	"restaurant-checkout/internal/domain"
	"restaurant-checkout/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	corsCfg := cors.Config{
		AllowOrigins:     s.corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}
	if len(s.corsOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", s.healthHandler)

	api := r.Group("/api")
	api.POST("/order/checkout/webhook", s.webhookHandler)

	authed := api.Group("", s.requireAuth())
	authed.POST("/order/checkout/create-checkout-session", s.rateLimit(), s.createCheckoutSessionHandler)
	authed.GET("/order", s.myOrdersHandler)
	authed.GET("/my/restaurant/order", s.restaurantOrdersHandler)
	authed.PATCH("/my/restaurant/order/:orderId/status", s.updateOrderStatusHandler)

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.db.Health())
}

func (s *Server) createCheckoutSessionHandler(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	url, err := s.checkout.CreateCheckout(c.Request.Context(), req, accountID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// maxWebhookBody bounds a provider event. Real events are a few KiB.
const maxWebhookBody = 64 << 10

// webhookHandler needs the exact bytes the provider signed, so the body is
// read raw and never bound.
func (s *Server) webhookHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "cannot read body"})
		return
	}

	outcome, err := s.payments.HandleCallback(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case errors.Is(err, domain.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Webhook error: " + err.Error()})
		return
	case service.Redeliver(err):
		s.logger.Error("webhook not applied", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}

func (s *Server) myOrdersHandler(c *gin.Context) {
	orders, err := s.fulfillment.ListMyOrders(c.Request.Context(), accountID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) restaurantOrdersHandler(c *gin.Context) {
	orders, err := s.fulfillment.ListRestaurantOrders(c.Request.Context(), accountID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) updateOrderStatusHandler(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	order, err := s.fulfillment.UpdateStatus(c.Request.Context(), c.Param("orderId"), req.Status, accountID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// writeError maps service errors to responses. A missing order and a
// foreign order get the same body.
func (s *Server) writeError(c *gin.Context, err error) {
	var pe *domain.ProviderError
	switch {
	case errors.Is(err, domain.ErrLineItemNotFound),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrRestaurantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "restaurant not found"})
	case errors.Is(err, domain.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"message": "order status changed, reload and retry"})
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
	case errors.As(err, &pe):
		s.logger.Warn("payment provider error", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"message": pe.Message})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
	}
}
