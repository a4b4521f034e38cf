package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "pasmino/internal/errors"
)

type traceIDKey struct{}

const TraceHeader = "X-Request-ID"

// MaxBodyBytes bounds every JSON request body.
const MaxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error      string                       `json:"error"`
	Message    string                       `json:"message"`
	Details    []apperrors.ValidationDetail `json:"details,omitempty"`
	OutOfStock *OutOfStockDetail            `json:"outOfStock,omitempty"`
	TraceID    string                       `json:"traceId,omitempty"`
}

type OutOfStockDetail struct {
	ProductID int64 `json:"productId"`
	Requested int   `json:"requested"`
	Available int   `json:"available"`
}

// TraceMiddleware propagates the caller's X-Request-ID. Without one it reuses
// the W3C trace id extracted by otelhttp, and failing that mints a new id.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
				traceID = sc.TraceID().String()
			}
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}
		w.Header().Set(TraceHeader, traceID)
		ctx := context.WithValue(r.Context(), traceIDKey{}, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey{}).(string); ok {
		return v
	}
	return ""
}

func WriteJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// WriteError maps the application error taxonomy onto HTTP statuses.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	traceID := TraceID(r.Context())
	log := logger.With(zap.String("traceId", traceID), zap.String("path", r.URL.Path))

	if ve, ok := apperrors.IsValidationError(err); ok {
		WriteJSON(w, logger, http.StatusBadRequest, ErrorResponse{
			Error: "VALIDATION_ERROR", Message: ve.Message, Details: ve.Details, TraceID: traceID,
		})
		return
	}

	if _, ok := apperrors.IsUnauthorizedError(err); ok {
		WriteJSON(w, logger, http.StatusUnauthorized, ErrorResponse{
			Error: "UNAUTHORIZED", Message: err.Error(), TraceID: traceID,
		})
		return
	}

	if _, ok := apperrors.IsForbiddenError(err); ok {
		WriteJSON(w, logger, http.StatusForbidden, ErrorResponse{
			Error: "FORBIDDEN", Message: err.Error(), TraceID: traceID,
		})
		return
	}

	if nfe, ok := apperrors.IsNotFoundError(err); ok {
		WriteJSON(w, logger, http.StatusNotFound, ErrorResponse{
			Error: "NOT_FOUND", Message: nfe.Message, TraceID: traceID,
		})
		return
	}

	if oos, ok := apperrors.IsOutOfStockError(err); ok {
		WriteJSON(w, logger, http.StatusConflict, ErrorResponse{
			Error:   "OUT_OF_STOCK",
			Message: "requested quantity exceeds available stock",
			OutOfStock: &OutOfStockDetail{
				ProductID: oos.ProductID,
				Requested: oos.Requested,
				Available: oos.Available,
			},
			TraceID: traceID,
		})
		return
	}

	if ce, ok := apperrors.IsConflictError(err); ok {
		WriteJSON(w, logger, http.StatusConflict, ErrorResponse{
			Error: "CONFLICT", Message: ce.Message, TraceID: traceID,
		})
		return
	}

	if _, ok := apperrors.IsDeadlockError(err); ok {
		log.Warn("transaction gave up after deadlocks", zap.Error(err))
		WriteJSON(w, logger, http.StatusConflict, ErrorResponse{
			Error: "DEADLOCK", Message: "the operation conflicted with concurrent updates, retry later", TraceID: traceID,
		})
		return
	}

	if ue, ok := apperrors.IsUpstreamError(err); ok {
		log.Error("upstream provider failed", zap.String("provider", ue.Provider), zap.Error(err))
		WriteJSON(w, logger, http.StatusBadGateway, ErrorResponse{
			Error: "UPSTREAM_ERROR", Message: "payment provider unavailable", TraceID: traceID,
		})
		return
	}

	log.Error("unexpected error", zap.Error(err))
	WriteJSON(w, logger, http.StatusInternalServerError, ErrorResponse{
		Error: "INTERNAL_ERROR", Message: "an unexpected error occurred", TraceID: traceID,
	})
}

// DecodeJSON reads a bounded JSON body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		msg := "request body must be valid JSON"
		if errors.Is(err, io.EOF) {
			msg = "request body must not be empty"
		}
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: msg,
		})
	}
	return nil
}

// PathID parses a positive int64 URL parameter.
func PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, apperrors.ValidationDetail{
			Field:   name,
			Message: name + " must be a positive integer",
		})
	}
	return id, nil
}

// QueryInt parses an optional integer query parameter within [min, max].
func QueryInt(r *http.Request, name string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, apperrors.NewValidationError("invalid "+name, apperrors.ValidationDetail{
			Field:   name,
			Message: name + " must be an integer between " + strconv.Itoa(min) + " and " + strconv.Itoa(max),
		})
	}
	return v, nil
}

// QueryID parses a required positive int64 query parameter.
func QueryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		msg := name + " must be a positive integer"
		if raw == "" {
			msg = name + " is required"
		}
		return 0, apperrors.NewValidationError(msg, apperrors.ValidationDetail{
			Field:   name,
			Message: msg,
		})
	}
	return id, nil
}
