package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/rxtrack/internal/common"
	"github.com/gin-gonic/gin"
)

// CtxRequestID is the gin context key the request id middleware writes to.
const CtxRequestID = "request_id"

// APIError is the body of every error response. Error is always a plain string.
type APIError struct {
	Error     string      `json:"error"`
	Code      string      `json:"code"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.AbortWithStatusJSON(status, APIError{
		Error:     message,
		Code:      code,
		RequestID: requestIDFrom(ctx),
		Details:   details,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, "unauthorized", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondTooManyRequests(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusTooManyRequests, "rate_limited", message, nil)
}

// RespondServiceError translates an error returned by a service into the matching status, code and
// message. Persistence details are logged, never sent.
func RespondServiceError(ctx *gin.Context, err error) {
	status := common.HTTPStatusFromError(err)
	code := common.CodeFromError(err)

	var verr *common.ValidationError

	switch {
	case errors.As(err, &verr):
		RespondError(ctx, status, code, "Validation failed", gin.H{"fields": verr.Fields})
	case errors.Is(err, common.ErrMissingField):
		RespondError(ctx, status, code, "Username and password are required", nil)
	case errors.Is(err, common.ErrInvalidCredentials):
		RespondError(ctx, status, code, "Invalid username or password", nil)
	case errors.Is(err, common.ErrUnauthenticated):
		RespondError(ctx, status, code, "Authentication required", nil)
	case errors.Is(err, common.ErrNotFound):
		RespondError(ctx, status, code, "Prescription not found", nil)
	case status >= http.StatusInternalServerError:
		slog.Default().ErrorContext(ctx.Request.Context(), "request_failed",
			"err", err,
			"route", ctx.FullPath(),
			"request_id", requestIDFrom(ctx),
		)
		RespondError(ctx, status, code, "Internal server error", nil)
	default:
		RespondError(ctx, status, code, err.Error(), nil)
	}
}
