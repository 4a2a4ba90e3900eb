package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fishtech/fishtech-backend/internal/auth/jwt"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/tenant"
)

type adminKey struct{}

// Authenticate validates the Bearer token and populates user and tenant
// context for downstream handlers. Requests without a valid token are
// rejected; requests whose token carries no tenant are rejected by the
// RequireTenant middleware behind this one.
func Authenticate(manager *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization token"))
				return
			}

			claims, err := manager.ValidateAccessToken(token)
			if err != nil {
				httputil.Error(w, err)
				return
			}

			ctx := httputil.WithUserContext(r.Context(), claims.UserID, claims.Username)
			ctx = context.WithValue(ctx, adminKey{}, claims.IsAdmin)
			if claims.TenantID != "" {
				ctx = tenant.WithTenant(ctx, claims.TenantID, claims.Subdomain)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests from non-admin users
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			httputil.Error(w, errors.Forbidden("administrator access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IsAdmin reports whether the authenticated user is a tenant admin
func IsAdmin(ctx context.Context) bool {
	isAdmin, _ := ctx.Value(adminKey{}).(bool)
	return isAdmin
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
