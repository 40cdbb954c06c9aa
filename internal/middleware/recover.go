package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/MikhailRaia/secure-shortener/internal/model"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Recoverer turns a handler panic into a 500 JSON error.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil || rvr == http.ErrAbortHandler {
				return
			}

			log.Error().
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Str("panic", fmt.Sprint(rvr)).
				Bytes("stack", debug.Stack()).
				Msg("Handler panicked")

			if r.Header.Get("Connection") == "Upgrade" {
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(model.ErrorResponse{
				Error:   "Internal server error",
				Message: fmt.Sprint(rvr),
			})
		}()

		next.ServeHTTP(w, r)
	})
}
