package controller

import (
	"leadintake/pkg/logger"
	"net/http"

	"go.uber.org/zap"
)

// ServerErrorBody is written when a handler panics.
const ServerErrorBody = `{"ok":false,"error":"Server error"}`

// WithRecover returns a middleware that turns a panic in next into a logged
// error and a generic 500 response.
func WithRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler { //nolint: errorlint
				panic(p)
			}

			logger.Error(r.Context(), "recovered from panic",
				zap.Any("panic", p),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.StackSkip("stack", 1))

			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(ServerErrorBody))
		}()

		next.ServeHTTP(w, r)
	})
}
