package commons

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "foodstand/internal/errors"
)

const TraceHeader = "X-Trace-Id"

type traceKey struct{}

// TraceMiddleware gives every request a trace id, reusing the caller's when
// supplied, and echoes it in the response headers.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.New().String()
		}
		w.Header().Set(TraceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), traceKey{}, traceID)))
	})
}

// TraceID returns the request trace id, minting one when the middleware did
// not run.
func TraceID(ctx context.Context) string {
	if id, ok := ctx.Value(traceKey{}).(string); ok {
		return id
	}
	return uuid.New().String()
}

type ErrorResponse struct {
	TraceID string `json:"traceId"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func WriteValidationError(w http.ResponseWriter, traceID string, message string, logger *zap.Logger, details ...apperrors.ValidationDetail) {
	resp := ErrorResponse{
		TraceID: traceID,
		Error:   "VALIDATION_ERROR",
		Message: message,
	}
	if len(details) > 0 {
		resp.Details = details
	}
	WriteJSON(w, http.StatusBadRequest, resp, logger)
}

// WriteError maps a use case error to its HTTP status and error code.
// Unknown errors are logged and hidden behind INTERNAL_ERROR.
func WriteError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		WriteValidationError(w, traceID, ve.Message, logger, ve.Details...)
		return
	}

	if nf, ok := apperrors.IsNotFoundError(err); ok {
		WriteJSON(w, http.StatusNotFound, ErrorResponse{TraceID: traceID, Error: "NOT_FOUND", Message: nf.Message}, logger)
		return
	}

	if se, ok := apperrors.IsInsufficientStockError(err); ok {
		WriteJSON(w, http.StatusConflict, ErrorResponse{
			TraceID: traceID,
			Error:   "INSUFFICIENT_STOCK",
			Message: se.Message,
			Details: se.Shortages,
		}, logger)
		return
	}

	if ce, ok := apperrors.IsConflictError(err); ok {
		WriteJSON(w, http.StatusConflict, ErrorResponse{TraceID: traceID, Error: "CONFLICT", Message: ce.Message}, logger)
		return
	}

	logger.Error("unexpected error", zap.String("traceId", traceID), zap.Error(err))
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		TraceID: traceID,
		Error:   "INTERNAL_ERROR",
		Message: "an unexpected error occurred",
	}, logger)
}
