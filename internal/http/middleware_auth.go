package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"pixelwallet/internal/auth"
	"pixelwallet/internal/core"
)

type contextKey string

const claimsKey contextKey = "claims"

// requireAuth verifies the session token and stores the claims in the
// request context. The Authorization header carries the token either
// bare or with a "Bearer " prefix.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("Authorization"))
		token = strings.TrimPrefix(token, "Bearer ")
		if token == "" {
			s.writeError(w, r, fmt.Errorf("%w: no token, authorization denied", core.ErrUnauthorized))
			return
		}

		claims, err := s.authSvc.Verify(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// claimsFrom retrieves the verified session claims stored by requireAuth.
func claimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}
