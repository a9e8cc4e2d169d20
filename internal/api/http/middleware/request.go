package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	reqctx "github.com/dtroode/session-server/internal/api/http/context"
	"github.com/dtroode/session-server/internal/api/http/handler"
	"github.com/dtroode/session-server/internal/logger"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID reuses the client's X-Request-ID or lets chi generate one, and
// echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return chimw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := chimw.GetReqID(r.Context())
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(reqctx.WithRequestID(r.Context(), requestID)))
	}))
}

// BodyLimit caps request bodies at limit bytes.
func BodyLimit(limit int64) func(http.Handler) http.Handler {
	return chimw.RequestSize(limit)
}

// Recovery catches panics in handlers and answers with the JSON error body.
func Recovery(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("HTTP middleware: panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", reqctx.RequestID(r.Context()))
					handler.WriteErrorCode(w, http.StatusInternalServerError, handler.CodeInternal, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
