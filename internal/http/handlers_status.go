package http

import (
	"net/http"
	"time"

	applog "pixelwallet/internal/log"
	"pixelwallet/internal/middleware/trace"
)

// handleStatus reports liveness details plus request and limiter counters.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	metrics := s.tracer.GetMetrics()

	s.logger.DebugContext(r.Context(), "Status requested",
		applog.FieldRequestID, trace.GetRequestID(r.Context()))

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"checks": map[string]any{
			"requests": map[string]any{
				"total":                metrics.TotalRequests,
				"last_duration_micros": metrics.LastDurationMicros,
				"status":               "ok",
			},
			"rate_limiter": map[string]any{
				"active_clients": s.authLimiter.ActiveClients(),
				"status":         "ok",
			},
		},
	})
}
