package security

import "net/http"

// HeadersConfig holds security header configuration.
type HeadersConfig struct {
	ContentTypeOptions    string
	FrameOptions          string
	ReferrerPolicy        string
	ContentSecurityPolicy string
}

// DefaultHeadersConfig returns headers suited to a JSON API.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		ContentTypeOptions:    "nosniff",
		FrameOptions:          "DENY",
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
	}
}

// HeadersMiddleware sets the configured security headers on every response.
func HeadersMiddleware(config HeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if config.ContentTypeOptions != "" {
				h.Set("X-Content-Type-Options", config.ContentTypeOptions)
			}
			if config.FrameOptions != "" {
				h.Set("X-Frame-Options", config.FrameOptions)
			}
			if config.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", config.ReferrerPolicy)
			}
			if config.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", config.ContentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}
