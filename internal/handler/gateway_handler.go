package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stayflow/service-reservation/internal/application"
	"github.com/stayflow/service-reservation/internal/pkg/events"
	"github.com/stayflow/service-reservation/internal/pkg/middleware"
	"github.com/stayflow/service-reservation/internal/pkg/response"
)

// GatewayHandler receives synchronous payment gateway callbacks. It mirrors
// the kafka consumer for gateways that deliver over HTTP instead; the
// internal token keeps the endpoint off the public surface.
type GatewayHandler struct {
	bookings *application.BookingService
	wallets  *application.WalletService
}

// NewGatewayHandler creates a new GatewayHandler.
func NewGatewayHandler(bookings *application.BookingService, wallets *application.WalletService) *GatewayHandler {
	return &GatewayHandler{bookings: bookings, wallets: wallets}
}

// RegisterRoutes registers the gateway callback route.
func (h *GatewayHandler) RegisterRoutes(r *gin.RouterGroup, internalToken string) {
	internal := r.Group("/api/v1/payments/gateway")
	internal.Use(middleware.InternalTokenMiddleware(internalToken))
	{
		internal.POST("/callback", h.PaymentCaptured)
	}
}

// PaymentCaptured handles POST /api/v1/payments/gateway/callback.
func (h *GatewayHandler) PaymentCaptured(c *gin.Context) {
	var body struct {
		Purpose     events.SettlementPurpose `json:"purpose" binding:"required"`
		ReferenceID uuid.UUID                `json:"reference_id" binding:"required"`
		AmountCents int64                    `json:"amount_cents" binding:"required"`
		GatewayRef  string                   `json:"gateway_ref"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	switch body.Purpose {
	case events.PurposeBooking:
		result, err := h.bookings.SettleExternalPayment(c.Request.Context(), body.ReferenceID, body.AmountCents)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, result)

	case events.PurposeWalletTopup:
		if err := h.wallets.TopupFromGateway(c.Request.Context(), body.ReferenceID, body.AmountCents, body.GatewayRef); err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, gin.H{"credited": true})

	case events.PurposeSubscription:
		// Settled by the subscription service; acknowledged here so the
		// gateway does not retry.
		response.Success(c, gin.H{"skipped": true})

	default:
		response.BadRequest(c, "unknown settlement purpose")
	}
}
