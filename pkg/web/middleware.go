package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// InternalErrorMessage is the body of every 500 response.
const InternalErrorMessage = "Something went wrong!"

// RequestIDInjector honours an incoming X-Request-Id header, otherwise assigns a UUID.
// The id is stored where middleware.GetReqID finds it and echoed in the response.
func RequestIDInjector(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(middleware.RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, reqID)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// StructuredLogger creates a middleware that logs HTTP requests in a structured format.
func StructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.InfoContext(r.Context(), "Request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"query", r.URL.RawQuery,
					"status", ww.Status(),
					"bytes_written", ww.BytesWritten(),
					"duration_ms", float64(time.Since(start).Nanoseconds())/1e6,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent(),
				)
			}()
			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

// Recoverer turns a panic into a 500 {"error": InternalErrorMessage} response.
// With exposeDetail the body also carries the panic value and stack trace.
func Recoverer(logger *slog.Logger, exposeDetail bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				stack := debug.Stack()
				logger.ErrorContext(r.Context(), "Panic recovered",
					"panic", rvr,
					"stack", string(stack),
				)
				RespondInternalError(w, logger, fmt.Errorf("panic: %v", rvr), stack, exposeDetail)
			}()
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// RespondInternalError writes the generic 500 body, adding err and stack only when exposeDetail is set.
func RespondInternalError(w http.ResponseWriter, logger *slog.Logger, err error, stack []byte, exposeDetail bool) {
	body := ErrorBody{Error: InternalErrorMessage}
	if exposeDetail {
		body.Stack = fmt.Sprintf("%v\n%s", err, stack)
	}
	RespondJSON(w, logger, http.StatusInternalServerError, body)
}
