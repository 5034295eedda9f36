// Package middleware provides the net/http middleware chain used by the
// local relay server: panic recovery, request ids, permissive CORS, body
// size limits and request logging.
package middleware
