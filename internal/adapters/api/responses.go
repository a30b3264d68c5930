package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/logitrack/internal/ports/primary"
)

// APIError is the body of every error response.
type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// respondError maps a classified service error to its status code.
// Unclassified errors are reported as internal without their message.
func respondError(c *gin.Context, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, primary.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, primary.ErrForbidden):
		status, code = http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, primary.ErrValidation):
		status, code = http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, primary.ErrConflict):
		status, code = http.StatusConflict, "CONFLICT"
	default:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, APIError{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
		return
	}
	c.AbortWithStatusJSON(status, APIError{Error: err.Error(), Code: code})
}

func respondBadRequest(c *gin.Context, message string, details error) {
	body := APIError{Error: message, Code: "BAD_REQUEST"}
	if details != nil {
		body.Details = details.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{Error: message, Code: "UNAUTHORIZED"})
}
