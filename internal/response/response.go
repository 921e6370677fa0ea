// Package response writes the JSON envelope shared by every endpoint:
// {"success": true, "data": ...} or {"success": false, "error": {...}}.
package response

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
)

type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

// OK writes a success envelope.
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// Error writes err as an error envelope and aborts the chain. Internal errors
// are logged with their cause and shown with a generic message.
func Error(c *gin.Context, err error) {
	appErr := apperr.From(err)
	if appErr.Kind == apperr.KindInternal {
		slog.With("err", err).Error("request failed", "method", c.Request.Method, "path", c.FullPath())
	}
	body := &ErrorBody{Message: appErr.Public()}
	if appErr.Kind != apperr.KindInternal {
		body.Details = appErr.Details
	}
	c.AbortWithStatusJSON(appErr.Status(), Envelope{Success: false, Error: body})
}
