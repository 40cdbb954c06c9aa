package middleware

import "net/http"

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":      "*",
	"Access-Control-Allow-Headers":     "*",
	"Access-Control-Allow-Methods":     "GET, POST, OPTIONS",
	"Access-Control-Max-Age":           "2592000",
	"Access-Control-Allow-Credentials": "true",
	"Cross-Origin-Opener-Policy":       "same-origin-allow-popups",
	"Content-Type":                     "application/json",
}

// CORS sets the cross-origin headers on every response and answers
// preflight requests with 204 before routing.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		for name, value := range corsHeaders {
			header.Set(name, value)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
