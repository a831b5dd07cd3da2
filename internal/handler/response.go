// Package handler exposes the service layer over HTTP with gin. Handlers
// are thin: they bind parameters, call one service operation and wrap the
// result in a uniform envelope.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splitbook/splitbook/internal/service"
	"github.com/splitbook/splitbook/internal/storage"
)

// envelope is the uniform response shape: {success, data, message}.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: message})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Message: message})
}

// respondError maps service and storage failures to HTTP statuses:
// unresolved IDs are 404, failed opt-in validation is 400, a missing split
// rule during materialization is 422 and anything else is 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case service.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrMissingSplitRule):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, envelope{Success: false, Message: err.Error()})
}
