package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fhuszti/skillswap-media-ms/internal/logger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, msg string, err error) {
	WriteErrorDetails(w, status, msg, nil, err)
}

// WriteErrorDetails writes {error, details}; client faults are logged at WARN.
func WriteErrorDetails(w http.ResponseWriter, status int, msg string, details any, err error) {
	ctx := context.Background()
	switch {
	case status < 500 && err != nil:
		logger.Warnf(ctx, "⚠️  %s: %v", msg, err)
	case status < 500:
		logger.Warn(ctx, "⚠️  "+msg)
	case err != nil:
		logger.Errorf(ctx, "❌  %s: %v", msg, err)
	default:
		logger.Error(ctx, "❌  "+msg)
	}
	w.Header().Set("Cache-Control", "no-store, max-age=0, must-revalidate")
	RespondJSON(w, status, ErrorResponse{Error: msg, Details: details})
}

func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf(context.Background(), "❌  Failed to encode JSON response: %v", err)
	}
}
