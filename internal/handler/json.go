package handler

import (
	"encoding/json"
	"net/http"

	"github.com/MikhailRaia/secure-shortener/internal/model"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

var encodeFailureBody = []byte(`{"error":"Internal server error"}` + "\n")

// writeJSON encodes v into a pooled buffer first so an encoding failure can
// still produce a clean 500.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	buf := h.buffers.Get()
	defer h.buffers.Put(buf)

	if err := json.NewEncoder(buf).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(encodeFailureBody)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, model.ErrorResponse{Error: message})
}

func (h *Handler) writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().
		Err(err).
		Str("request_id", chimiddleware.GetReqID(r.Context())).
		Str("uri", r.RequestURI).
		Msg("Request failed")

	h.writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Error:   "Internal server error",
		Message: err.Error(),
	})
}
