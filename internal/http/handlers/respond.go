package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/supporthub/internal/apperr"
	"github.com/gin-gonic/gin"
)

// APIError is the body of every failed request. Errors maps JSON field
// names to messages and is only set for validation failures.
type APIError struct {
	Message   string              `json:"message"`
	Code      string              `json:"code"`
	Errors    map[string][]string `json:"errors,omitempty"`
	RequestID string              `json:"requestId,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString("request_id"); s != "" {
		return s
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, fields map[string][]string) {
	ctx.AbortWithStatusJSON(status, APIError{
		Message:   message,
		Code:      code,
		Errors:    fields,
		RequestID: requestIDFrom(ctx),
	})
}

func RespondBadRequest(ctx *gin.Context, message string, fields map[string][]string) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, fields)
}

func RespondValidation(ctx *gin.Context, message string, fields map[string][]string) {
	if message == "" {
		message = "The given data was invalid."
	}
	RespondError(ctx, http.StatusUnprocessableEntity, "validation_failed", message, fields)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

// RespondAppError maps an error from the service layer onto the HTTP
// taxonomy. notFound is the message used for a missing resource. Anything
// outside the taxonomy is logged and answered with a generic 500.
func RespondAppError(ctx *gin.Context, err error, notFound string) {
	switch apperr.Kind(err) {
	case "validation":
		if verr, ok := asValidation(err); ok {
			RespondValidation(ctx, verr.Message, verr.Fields)
			return
		}
		RespondValidation(ctx, "", nil)
	case "unauthenticated":
		RespondUnAuthorized(ctx, "unauthenticated", "Invalid credentials.")
	case "forbidden":
		RespondForbidden(ctx, forbiddenMessage(err))
	case "not_found":
		RespondNotFound(ctx, notFound)
	case "conflict":
		RespondConflict(ctx, "conflict", conflictMessage(err))
	default:
		_ = ctx.Error(err)
		slog.Default().ErrorContext(ctx.Request.Context(), "request_failed",
			"route", ctx.FullPath(),
			"request_id", requestIDFrom(ctx),
			"err", err,
		)
		RespondInternal(ctx, "Server error.")
	}
}

func asValidation(err error) (*apperr.ValidationError, bool) {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// forbiddenMessage surfaces the reason only for errors callers can act on.
func forbiddenMessage(err error) string {
	for _, known := range knownForbidden {
		if errors.Is(err, known.err) {
			return known.message
		}
	}
	return "Forbidden."
}

func conflictMessage(err error) string {
	for _, known := range knownConflicts {
		if errors.Is(err, known.err) {
			return known.message
		}
	}
	return "Conflict."
}
