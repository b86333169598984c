package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"laundry/internal/service"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// writeServiceError maps a service error to its status code. Client-safe
// messages are passed through; anything else is logged and answered with
// fallback.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		switch {
		case errors.Is(err, service.ErrValidation):
			writeError(w, http.StatusBadRequest, svcErr.Error())
			return
		case errors.Is(err, service.ErrConflict):
			writeError(w, http.StatusConflict, svcErr.Error())
			return
		case errors.Is(err, service.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, svcErr.Error())
			return
		}
	}

	slog.ErrorContext(r.Context(), fallback, "error", err, "method", r.Method, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, fallback)
}
