package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"classattend/internal/attendance"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError maps domain errors onto HTTP statuses. Anything unexpected
// becomes a 500 with a generic message; the cause is only logged.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, attendance.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, attendance.ErrMismatchedClass):
		status, code = http.StatusUnprocessableEntity, "MISMATCHED_CLASS"
	case errors.Is(err, attendance.ErrUnauthorized):
		status, code = http.StatusForbidden, "UNAUTHORIZED_RECORDER"
	case errors.Is(err, attendance.ErrInvalidRange):
		status, code = http.StatusBadRequest, "INVALID_RANGE"
	case errors.Is(err, attendance.ErrConflict):
		status, code = http.StatusConflict, "CONFLICT"
	case errors.Is(err, attendance.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case errors.Is(err, attendance.ErrInvalidInput):
		status, code = http.StatusBadRequest, "INVALID_INPUT"
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.Log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		msg = "internal error"
	} else if errors.Is(err, attendance.ErrConflict) {
		msg = attendance.ErrConflict.Error()
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorBody{Error: msg, Code: code})
}

// respondBindError reports a malformed request body or query.
func (h *Handler) respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	msg := "malformed request"
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg = fe.Field() + " failed " + fe.Tag() + " validation"
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: msg, Code: "INVALID_INPUT"})
}
