package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"mediakit/internal/logging"
	"mediakit/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// classify maps an error onto an HTTP status and the message safe to return.
// Validation and empty-result messages are echoed; everything else is generic.
func classify(err error, maxUpload int64) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds the %d MB limit", maxUpload>>20)
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, services.UserMessage(err)
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, services.ErrEmptyResult):
		return http.StatusUnprocessableEntity, services.UserMessage(err)
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout, "the operation timed out"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// fail logs the raw error and writes the classified response.
func (s *Server) fail(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	status, message := classify(err, s.cfg.MaxUploadBytes())
	attrs := []logging.Attr{
		logging.String("operation", op),
		logging.Int("status", status),
		logging.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logger, "request failed", "request_failed",
			append(attrs, logging.String(logging.FieldErrorHint, "check the tool output in the error detail"))...)
	} else {
		logger.Info("request rejected", logging.Args(append(attrs, logging.String(logging.FieldEventType, "request_rejected"))...)...)
	}
	writeError(w, status, message)
}
