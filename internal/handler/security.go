package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/groceasy/groceasy-api/internal/domain/auth"
)

type claimsKey struct{}

// ClaimsFromContext returns the claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

// Authenticate requires a valid "Authorization: Bearer <token>" header.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, &apiError{status: http.StatusUnauthorized, msg: "missing bearer token"})
			return
		}
		claims, err := h.accounts.Verify(token)
		if err != nil {
			writeError(w, r, &apiError{status: http.StatusUnauthorized, msg: "invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		ctx = zctx.With(ctx, zap.String("user_id", claims.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects authenticated callers without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, r, &apiError{status: http.StatusUnauthorized, msg: "missing bearer token"})
			return
		}
		if claims.Role != auth.RoleAdmin {
			writeError(w, r, &apiError{status: http.StatusForbidden, msg: "admin role required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// userID returns the authenticated user. Only call behind Authenticate.
func userID(r *http.Request) string {
	c, _ := ClaimsFromContext(r.Context())
	return c.UserID
}
