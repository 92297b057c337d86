// Package middleware holds the HTTP middleware shared by every route group.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/auth"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/response"
)

// TokenHeader is the legacy header some clients send instead of Authorization.
const TokenHeader = "x-auth-token"

// Verifier turns a raw token into the live user behind it.
type Verifier interface {
	Verify(ctx context.Context, token string) (*auth.Principal, error)
}

// TokenFromRequest reads "Authorization: Bearer <t>" or the x-auth-token header.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}
	return strings.TrimSpace(r.Header.Get(TokenHeader))
}

// Auth rejects requests without a valid token and stores the principal in
// the request context.
func Auth(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				response.FromError(w, r, apperr.New(apperr.Unauthorized, "missing token"))
				return
			}

			p, err := v.Verify(r.Context(), token)
			if err != nil {
				response.FromError(w, r, err)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), p)
			ctx = logger.InjectLogger(ctx, logger.WithCtx(ctx).With("user_id", p.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin lets only administrators through. It must run after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.FromContext(r.Context())
		if !ok {
			response.Unauthorized(w)
			return
		}
		if !p.IsAdmin {
			response.FromError(w, r, apperr.New(apperr.Forbidden, "admin only"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
