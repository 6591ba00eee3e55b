package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/usdc_batchpay/service"
)

// respondErr maps engine errors onto HTTP statuses. Validation errors carry
// the specific violated invariant in the message; collaborator and
// persistence failures surface a generic failure with the cause attached.
func respondErr(c *gin.Context, err error) {
	var schemaErr *service.SchemaError
	var pctErr *service.PercentageMismatchError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrListNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrEmptyName),
		errors.Is(err, service.ErrInvalidListType),
		errors.Is(err, service.ErrInvalidAddressFormat),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrNoValidRecipients),
		errors.Is(err, service.ErrEmptyImport),
		errors.Is(err, service.ErrTooManyRecipients),
		errors.As(err, &schemaErr),
		errors.As(err, &pctErr):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrSignerUnavailable),
		errors.Is(err, service.ErrBroadcastFailed):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
