package upload

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tributo.band/site/internal/httpx"
	"tributo.band/site/internal/observability"
)

// LimitMiddleware guards upload POSTs: bodies above the size limit are
// rejected with 413 and accepted ones are capped while being read.
func LimitMiddleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || !strings.Contains(r.URL.Path, "/upload") {
				next.ServeHTTP(w, r)
				return
			}
			logger := observability.FromContext(r.Context())
			logger.Info("processing image upload", zap.Int64("content_length", r.ContentLength))

			if r.ContentLength > cfg.SizeLimit {
				httpx.Write(r.Context(), w, httpx.TooLarge(cfg.SizeLimit))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, cfg.SizeLimit)
			next.ServeHTTP(w, r)
		})
	}
}
