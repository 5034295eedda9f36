package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

const defaultMaxBodySize = 10 * 1024 * 1024

// BodySizeLimit restricts request bodies to the given size string
// (e.g. "256MB", "512KB", "1GB").
func BodySizeLimit(maxSize string) Middleware {
	size := ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}

// ParseSize converts "10MB"-style strings to bytes, returning defaultBytes
// for empty or malformed input.
func ParseSize(s string, defaultBytes int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return defaultBytes
	}

	var multiplier int64 = 1
	for _, unit := range []struct {
		suffix string
		mult   int64
	}{{"GB", 1 << 30}, {"MB", 1 << 20}, {"KB", 1 << 10}, {"B", 1}} {
		if strings.HasSuffix(s, unit.suffix) {
			multiplier = unit.mult
			s = strings.TrimSpace(strings.TrimSuffix(s, unit.suffix))
			break
		}
	}

	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil || val <= 0 {
		return defaultBytes
	}
	return val * multiplier
}
