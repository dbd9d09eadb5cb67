package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stayflow/service-reservation/internal/application"
	"github.com/stayflow/service-reservation/internal/pkg/auth"
	"github.com/stayflow/service-reservation/internal/pkg/middleware"
	"github.com/stayflow/service-reservation/internal/pkg/response"
)

// WalletHandler handles HTTP requests for wallet operations.
type WalletHandler struct {
	service *application.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(service *application.WalletService) *WalletHandler {
	return &WalletHandler{service: service}
}

// RegisterRoutes registers all wallet routes on the given router group.
func (h *WalletHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	wallet := r.Group("/api/v1/wallet")
	wallet.Use(middleware.AuthMiddleware(jwtManager))
	{
		wallet.GET("", h.GetBalance)
		wallet.POST("/topup", h.AddMoney)
		wallet.POST("/transfer", h.Transfer)
		wallet.GET("/transactions", h.GetTransactions)
	}
}

// GetBalance handles GET /api/v1/wallet.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AddMoney handles POST /api/v1/wallet/topup.
func (h *WalletHandler) AddMoney(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body struct {
		AmountCents int64 `json:"amount_cents" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AddMoney(c.Request.Context(), userID, body.AmountCents)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Transfer handles POST /api/v1/wallet/transfer.
func (h *WalletHandler) Transfer(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body struct {
		ToUserID    uuid.UUID `json:"to_user_id" binding:"required"`
		AmountCents int64     `json:"amount_cents" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.Transfer(c.Request.Context(), userID, body.ToUserID, body.AmountCents); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetTransactions handles GET /api/v1/wallet/transactions.
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)

	result, err := h.service.GetTransactions(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}
