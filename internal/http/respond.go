package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"pixelwallet/internal/core"
	applog "pixelwallet/internal/log"
	"pixelwallet/internal/middleware/trace"
)

// messageResponse is the envelope for status and error replies.
type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed encoding response", applog.FieldError, err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// errorStatus maps domain errors to HTTP status codes. Validation,
// conflict and credential failures all surface as 400 so the API does
// not leak which part of a login attempt was wrong.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrConflict),
		errors.Is(err, core.ErrAuthFailed):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		fields := applog.NewFields().
			WithOperation(r.Method + " " + r.URL.Path).
			WithError(err)
		fields[applog.FieldRequestID] = trace.GetRequestID(r.Context())
		s.logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		writeMessage(w, status, "Server error")
		return
	}
	writeMessage(w, status, err.Error())
}
