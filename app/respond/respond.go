// Package respond maps service errors to JSON error responses
package respond

import (
	"bitwise74/bboard/internal/service"
	"bitwise74/bboard/pkg/validators"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error writes the response matching err. msg describes what failed and is
// only logged for unexpected errors.
func Error(c *gin.Context, err error, msg string) {
	requestID := c.GetString("requestID")

	var fields validators.FieldErrors
	if errors.As(err, &fields) {
		zap.L().Debug("Validation failed", zap.Error(err), zap.String("requestID", requestID))

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Validation failed",
			"fields":    fields,
			"requestID": requestID,
		})
		return
	}

	code, public := status(err)
	if code == http.StatusInternalServerError || code == http.StatusBadGateway {
		zap.L().Error(msg, zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(code, gin.H{
		"error":     public,
		"requestID": requestID,
	})
}

func status(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrInactive):
		return http.StatusForbidden, "Please activate your account before logging in"
	case errors.Is(err, service.ErrAlreadyActive):
		return http.StatusConflict, "Account is already active"
	case errors.Is(err, service.ErrDelivery):
		return http.StatusBadGateway, "Failed to deliver notification"
	}

	return http.StatusInternalServerError, "Internal server error"
}

// BadRequest reports a request that couldn't be bound. Bodies cut off by the
// size limiter are left for the limiter to answer.
func BadRequest(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.Error(err)
		return
	}

	requestID := c.GetString("requestID")
	zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))

	c.JSON(http.StatusBadRequest, gin.H{
		"error":     "Invalid request body",
		"requestID": requestID,
	})
}

// ParamID reads a numeric path parameter. On failure a 400 is written and
// ok is false.
func ParamID(c *gin.Context, name string) (id uint, ok bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid " + name,
			"requestID": c.GetString("requestID"),
		})
		return 0, false
	}

	return uint(n), true
}
