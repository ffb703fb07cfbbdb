package admin

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/featureadmin/internal/platform/requestctx"
	"github.com/louisbranch/featureadmin/internal/platform/timeouts"
	routepath "github.com/louisbranch/featureadmin/internal/services/admin/routepath"
	"github.com/louisbranch/featureadmin/internal/services/shared/authctx"
	"go.uber.org/zap"
)

// tokenCookieName is the domain-scoped cookie set by the login service.
const tokenCookieName = "featureadmin_token"

// AuthConfig holds auth middleware configuration for the admin surface.
type AuthConfig struct {
	Introspector TokenIntrospector
	LoginURL     string
}

// TokenIntrospector validates an access token.
type TokenIntrospector = authctx.Introspector

// requireAuth wraps next with token-introspection-based authentication.
//
// Requests without a valid token are redirected to loginURL. Valid tokens
// that do not carry the admin role are rejected with 403.
func requireAuth(next http.Handler, introspector TokenIntrospector, loginURL string, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAuthExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			http.Redirect(w, r, loginURL, http.StatusFound)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Introspect)
		result, err := introspector.Introspect(ctx, token)
		cancel()
		if err != nil {
			logger.Warn("admin auth introspect error", zap.Error(err))
			http.Redirect(w, r, loginURL, http.StatusFound)
			return
		}
		if !result.Active {
			http.Redirect(w, r, loginURL, http.StatusFound)
			return
		}
		if !result.Admin {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		principal := requestctx.Principal{UserID: result.UserID, Admin: result.Admin}
		if recorder, ok := w.(principalRecorder); ok {
			recorder.recordPrincipal(principal)
		}
		ctx = requestctx.WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken reads the token cookie, falling back to an Authorization header.
func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(tokenCookieName); err == nil {
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return value
		}
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return ""
}

// isAuthExempt returns true for paths that should bypass authentication.
func isAuthExempt(path string) bool {
	return strings.HasPrefix(path, routepath.StaticPrefix)
}

// NewHTTPIntrospector creates an introspector that POSTs to the given URL.
func NewHTTPIntrospector(url, resourceSecret string) TokenIntrospector {
	return authctx.NewHTTPIntrospector(url, resourceSecret, &http.Client{Timeout: timeouts.Introspect + time.Second})
}
