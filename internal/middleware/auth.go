package middleware

import (
	"net/http"
	"strings"

	"taskdrive/internal/auth"
	"taskdrive/internal/httputil"
)

// publicPath reports whether a request path is reachable without a bearer
// token. The editor endpoints must stay open: the document server cannot
// present user credentials, so the download URL is itself the capability
// and the callback is authenticated by its signed body.
func publicPath(r *http.Request) bool {
	switch {
	case r.URL.Path == "/health":
		return true
	case strings.HasPrefix(r.URL.Path, "/api/onlyoffice/callback/"):
		return true
	case strings.HasSuffix(r.URL.Path, "/onlyoffice-download") && strings.HasPrefix(r.URL.Path, "/api/files/"):
		return true
	default:
		return false
	}
}

// AuthMiddleware validates the Authorization bearer token and stores the
// authenticated user ID in the request context.
func AuthMiddleware(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPath(r) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "authorization header must be a bearer token")
				return
			}

			userID, err := verifier.Verify(tokenString)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, userID))
		})
	}
}
