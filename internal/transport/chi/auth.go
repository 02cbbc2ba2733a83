package chi

import (
	"net/http"
	"strings"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// localPrincipal is assumed for every request when no API keys are
// configured (local development).
var localPrincipal = domain.Principal{OwnerID: "local", Role: domain.RoleViewer}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens and
// stores the resolved principal in the request context. keys maps an API key
// to its principal. If keys is empty, authentication is disabled and every
// request runs as a single local principal.
func BearerAuthMiddleware(keys map[string]domain.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		// Auth disabled, single trusted local caller
		if len(keys) == 0 {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := domain.ContextWithPrincipal(r.Context(), localPrincipal)
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Exempt paths
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "", "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					codeUnauthorized, "", "authorization header must use Bearer scheme")
				return
			}

			token := auth[len(bearerPrefix):]
			p, ok := keys[token]
			if !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "", "invalid api key")
				return
			}

			ctx := domain.ContextWithPrincipal(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
