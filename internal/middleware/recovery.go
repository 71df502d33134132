package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"problembox/internal/httputil"
)

// Recovery turns a handler panic into a 500 and logs it with the request
// fields RequestLogger uses. http.ErrAbortHandler is re-raised. A response
// already under way is left as is.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				panicsTotal.Inc()

				logger.Log(r.Context(), slog.LevelError, "panic",
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", httputil.GetRequestID(r),
					"user_id", httputil.GetUserID(r),
					"error", v,
					"stack", string(debug.Stack()),
				)
				if !rec.started {
					httputil.RespondError(rec, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
