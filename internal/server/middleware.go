package server

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// accessLog logs method, path, status, elapsed and bytes for every request
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		}
		if status >= http.StatusInternalServerError {
			s.logger.Error("request done", fields...)
			return
		}
		s.logger.Info("request done", fields...)
	})
}

// recoverer turns a panic into a 500 and logs the stack
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.logger.Error("panic recovered",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.Any("panic", v),
					zap.ByteString("stack", debug.Stack()))

				writeJSON(w, http.StatusInternalServerError, errorBody{
					Error:  "An unexpected error occurred. Please try again later.",
					Status: "error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
