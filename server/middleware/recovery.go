package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/logger"
)

// Recovery turns handler panics into a logged 500 with a JSON error body.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("Panic recovered", map[string]interface{}{
						logger.FieldError: fmt.Sprintf("%v", rec),
						"stack":           string(debug.Stack()),
						logger.FieldPath:  r.URL.Path,
						"method":          r.Method,
					})
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(errors.ErrorResponse{Error: "Internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
