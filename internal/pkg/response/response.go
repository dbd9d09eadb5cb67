package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stayflow/service-reservation/internal/pkg/domain"
)

// Envelope is the shared response body shape.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries a machine-readable code and a human message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a 200 response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 response with a paginated payload.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: gin.H{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
	}})
}

// BadRequest writes a 400 response with a validation error body.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Error: &ErrorBody{
		Code:    string(domain.CodeValidation),
		Message: message,
	}})
}

// Unauthorized writes a 401 response.
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Envelope{Error: &ErrorBody{
		Code:    string(domain.CodeUnauthorized),
		Message: message,
	}})
}

// Error maps an application error to its HTTP status. Unrecognized errors
// become an opaque 500 so internal detail never leaks to callers.
func Error(c *gin.Context, err error) {
	appErr, ok := domain.AsAppError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, Envelope{Error: &ErrorBody{
			Code:    "INTERNAL",
			Message: "internal server error",
		}})
		return
	}

	c.JSON(statusFor(appErr.Code), Envelope{Error: &ErrorBody{
		Code:    string(appErr.Code),
		Message: appErr.Message,
	}})
}

func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeInsufficientFunds:
		return http.StatusPaymentRequired
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict, domain.CodeInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
