package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/dictation/logger"
)

// RequestLogger logs every request with method, path, status and duration.
// 5xx logs at error, 4xx at warn, everything else at debug.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			fields := map[string]interface{}{
				"method":             r.Method,
				logger.FieldPath:     r.URL.Path,
				"status":             sw.status,
				logger.FieldDuration: time.Since(start).Milliseconds(),
			}
			if id := r.Header.Get(HeaderRequestID); id != "" {
				fields[logger.FieldRequestID] = id
			}

			switch {
			case sw.status >= 500:
				log.Error("Request completed", fields)
			case sw.status >= 400:
				log.Warn("Request completed", fields)
			default:
				log.Debug("Request completed", fields)
			}
		})
	}
}
