package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleettrack/internal/repository"
	"fleettrack/internal/service"
)

// Envelope is the uniform response wrapper. Success responses carry
// Data (plus Count for lists); failures carry Message.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

// respondData sends a success envelope.
func respondData(c *gin.Context, code int, data any) {
	c.JSON(code, Envelope{Success: true, Data: data})
}

// respondList sends a success envelope with an item count.
func respondList(c *gin.Context, data any, count int) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Count: &count})
}

// respondMessage sends a success envelope with no payload.
func respondMessage(c *gin.Context, code int, message string) {
	c.JSON(code, Envelope{Success: true, Message: message})
}

// respondError sends a failure envelope with the mapped status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.JSON(code, Envelope{Success: false, Message: message})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidVehicleID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidRegistration),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInvalidVehicleStatus),
		errors.Is(err, service.ErrInvalidYear),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidSpeed),
		errors.Is(err, service.ErrInvalidDistance),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidPassword),
		errors.Is(err, service.ErrNotADriver):
		return http.StatusBadRequest

	// Authentication failures
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Authorization failures
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, service.ErrDuplicateRegistration),
		errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrVehicleHasOngoingTrip),
		errors.Is(err, service.ErrVehicleUnassigned),
		errors.Is(err, service.ErrTripNotOngoing),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict

	// Transient contention or store outage
	case errors.Is(err, service.ErrVehicleBusy),
		errors.Is(err, repository.ErrUnavailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
