package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/MikhailRaia/shortlinks/internal/errx"
	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/rs/zerolog/log"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20

var (
	errEmptyBody       = errors.New("request body is required")
	errInvalidBody     = errors.New("invalid request body")
	errUnsupportedType = errors.New("content type must be application/json")
)

// decodeJSON reads one JSON object from the request body into v.
// Failures are errx.Invalid.
func decodeJSON(r *http.Request, v interface{}) error {
	const op = "handler.decodeJSON"

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return errx.E(op, errx.Invalid, errUnsupportedType)
		}
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errx.E(op, errx.Invalid, errEmptyBody)
		}
		log.Debug().Err(err).Msg("Failed to decode request body")
		return errx.E(op, errx.Invalid, errInvalidBody)
	}

	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	buf := h.buffers.Get()
	defer h.buffers.Put(buf)

	if err := json.NewEncoder(buf).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, model.ErrorResponse{Message: message})
}

// writeError maps err to a status by its errx.Kind. Server errors are logged
// and replaced with a generic message.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusForKind(errx.KindOf(err))
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("op", errx.OpOf(err)).Msg("Request failed")
		h.writeJSONError(w, status, http.StatusText(status))
		return
	}
	h.writeJSONError(w, status, errx.Message(err))
}

func statusForKind(k errx.Kind) int {
	switch k {
	case errx.Invalid, errx.Conflict:
		return http.StatusBadRequest
	case errx.Unauthorized:
		return http.StatusUnauthorized
	case errx.Forbidden:
		return http.StatusForbidden
	case errx.NotFound:
		return http.StatusNotFound
	case errx.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
