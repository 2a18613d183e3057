package handlers

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tubeworks/backend/internal/apperr"
	"github.com/tubeworks/backend/internal/logging"
)

// envelope is the uniform response shape for every endpoint.
type envelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	if message == "" {
		message = "success"
	}
	writeEnvelope(ctx, w, envelope{
		Success:    status < http.StatusBadRequest,
		StatusCode: status,
		Data:       data,
		Message:    message,
	})
}

// respondError translates a classified error into its transport status.
// This is the only place error kinds become HTTP codes.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	logger := logging.FromContext(ctx)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
	}

	writeEnvelope(ctx, w, envelope{
		Success:    false,
		StatusCode: status,
		Message:    apperr.MessageOf(err),
	})
}

func writeEnvelope(ctx context.Context, w http.ResponseWriter, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.StatusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", body.StatusCode, "error", err)
	}
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Invalid("invalid request body")
	}
	return nil
}
