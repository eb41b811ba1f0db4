package middleware

import (
	"net/http"

	"github.com/sakif/altdirectory/internal/auth"
	"github.com/sakif/altdirectory/internal/handler"
)

// Gate enforces a route's declared access level. It expects the identity to
// have been resolved already by auth.Authenticator.Middleware.
//
// Failures use the standard error body: 401 for anonymous callers, 403 for
// members on admin routes.
func Gate(policy *auth.Policy, access auth.Access) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if access == auth.Public {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := policy.Authorize(r.Context(), access); err != nil {
				handler.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
