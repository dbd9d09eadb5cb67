package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stayflow/service-reservation/internal/application"
	bookingDomain "github.com/stayflow/service-reservation/internal/domain/booking"
	"github.com/stayflow/service-reservation/internal/pkg/auth"
	"github.com/stayflow/service-reservation/internal/pkg/domain"
	"github.com/stayflow/service-reservation/internal/pkg/middleware"
	"github.com/stayflow/service-reservation/internal/pkg/response"
)

// BookingHandler handles HTTP requests for reservation operations.
type BookingHandler struct {
	service      *application.BookingService
	availability *application.AvailabilityService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService, availability *application.AvailabilityService) *BookingHandler {
	return &BookingHandler{service: service, availability: availability}
}

// RegisterRoutes registers all reservation routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	reservations := r.Group("/api/v1/reservations")
	reservations.Use(authMW)
	{
		reservations.POST("", middleware.RequireRole(auth.RoleGuest), h.CreateBooking)
		reservations.GET("", h.ListBookings)
		reservations.GET("/availability", h.CheckAvailability)
		reservations.GET("/quote", h.GetQuote)
		reservations.GET("/:id", h.GetBooking)
		reservations.GET("/:id/transactions", h.GetBookingTransactions)
		reservations.POST("/:id/cancel", h.CancelBooking)
		reservations.POST("/:id/retry-payment", middleware.RequireRole(auth.RoleGuest), h.RetryPayment)
	}
}

// CreateBooking handles POST /api/v1/reservations.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/reservations. Guests see their own
// bookings, vendors the bookings against their hotels.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	role, ok := middleware.GetUserRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)

	var result *domain.PaginatedResult[application.BookingDTO]
	switch role {
	case auth.RoleVendor:
		r, err := h.service.GetVendorBookings(c.Request.Context(), userID, page, limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		result = r
	default:
		r, err := h.service.GetGuestBookings(c.Request.Context(), userID, page, limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		result = r
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// CheckAvailability handles GET /api/v1/reservations/availability.
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	roomID, stay, roomsCount, ok := parseStayQuery(c)
	if !ok {
		return
	}

	result, err := h.availability.CheckAvailability(c.Request.Context(), roomID, stay, roomsCount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetQuote handles GET /api/v1/reservations/quote.
func (h *BookingHandler) GetQuote(c *gin.Context) {
	roomID, stay, roomsCount, ok := parseStayQuery(c)
	if !ok {
		return
	}

	result, err := h.availability.GetQuote(c.Request.Context(), roomID, stay, roomsCount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBooking handles GET /api/v1/reservations/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, userID, role, ok := bookingActor(c)
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, userID, role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBookingTransactions handles GET /api/v1/reservations/:id/transactions.
func (h *BookingHandler) GetBookingTransactions(c *gin.Context) {
	bookingID, userID, role, ok := bookingActor(c)
	if !ok {
		return
	}

	result, err := h.service.GetBookingTransactions(c.Request.Context(), bookingID, userID, role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/reservations/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, userID, role, ok := bookingActor(c)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, userID, role, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RetryPayment handles POST /api/v1/reservations/:id/retry-payment.
func (h *BookingHandler) RetryPayment(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reservation ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.RetryPayment(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// --- Helpers ---

// bookingActor extracts the reservation ID from the path and the caller's
// identity from the auth context. It writes the error response itself.
func bookingActor(c *gin.Context) (bookingID, userID uuid.UUID, role string, ok bool) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reservation ID")
		return uuid.Nil, uuid.Nil, "", false
	}

	userID, found := middleware.GetUserID(c)
	if !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, uuid.Nil, "", false
	}

	role, found = middleware.GetUserRole(c)
	if !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, uuid.Nil, "", false
	}
	return bookingID, userID, role, true
}

// parseStayQuery reads room_id, check_in, check_out and rooms_count query
// parameters. It writes the error response itself.
func parseStayQuery(c *gin.Context) (uuid.UUID, bookingDomain.StayRange, int, bool) {
	roomID, err := uuid.Parse(c.Query("room_id"))
	if err != nil {
		response.BadRequest(c, "invalid room_id")
		return uuid.Nil, bookingDomain.StayRange{}, 0, false
	}

	checkIn, err := time.Parse("2006-01-02", c.Query("check_in"))
	if err != nil {
		response.BadRequest(c, "check_in must be formatted YYYY-MM-DD")
		return uuid.Nil, bookingDomain.StayRange{}, 0, false
	}
	checkOut, err := time.Parse("2006-01-02", c.Query("check_out"))
	if err != nil {
		response.BadRequest(c, "check_out must be formatted YYYY-MM-DD")
		return uuid.Nil, bookingDomain.StayRange{}, 0, false
	}

	stay, err := bookingDomain.NewStayRange(checkIn, checkOut)
	if err != nil {
		response.Error(c, err)
		return uuid.Nil, bookingDomain.StayRange{}, 0, false
	}

	roomsCount, _ := strconv.Atoi(c.DefaultQuery("rooms_count", "1"))
	if roomsCount < 1 {
		response.BadRequest(c, "rooms_count must be positive")
		return uuid.Nil, bookingDomain.StayRange{}, 0, false
	}

	return roomID, stay, roomsCount, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
