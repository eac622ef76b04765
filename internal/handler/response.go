package handler

import (
	"errors"
	"net/http"

	"nal/internal/service"
	"nal/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Every response is the same envelope: {"success": bool, "data": ...} on the
// happy path, {"success": false, "errors": [...]} otherwise.

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondErr(c *gin.Context, status int, msgs ...string) {
	c.JSON(status, gin.H{"success": false, "errors": msgs})
}

// respondServiceErr maps the service error taxonomy onto HTTP statuses.
// Unrecognized errors become a generic 500 so internals never leak.
func respondServiceErr(c *gin.Context, err error) {
	var ve *service.ValidationError
	var ge *service.GatewayError
	switch {
	case errors.As(err, &ve):
		respondErr(c, http.StatusBadRequest, ve.Messages...)
	case errors.Is(err, service.ErrPastDate):
		respondErr(c, http.StatusBadRequest, "Booking date cannot be in the past")
	case errors.Is(err, service.ErrSlotUnavailable):
		respondErr(c, http.StatusBadRequest, "This time slot is not available")
	case errors.Is(err, service.ErrNotFound):
		respondErr(c, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrPermissionDenied):
		respondErr(c, http.StatusForbidden, "Permission denied")
	case errors.As(err, &ge):
		respondErr(c, http.StatusBadRequest, "Payment gateway error: "+ge.Err.Error())
	default:
		logger.Get().Error("unexpected error", zap.Error(err), zap.String("path", c.FullPath()))
		respondErr(c, http.StatusInternalServerError, "Internal server error")
	}
}
