package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"taskdrive/internal/httputil"
)

// Recovery converts handler panics into problem+json 500 responses. The
// panic value and stack are logged server-side and never reach the client.
// http.ErrAbortHandler is re-raised so the server's own abort path still
// works for interrupted streaming downloads.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				logger.Error("handler panicked",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
