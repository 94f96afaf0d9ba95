package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/auth"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/catalog"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/logging"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/matcher"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/social"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/spotify"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/validation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Error codes returned in the JSON error body.
const (
	codeValidation    = "VALIDATION_ERROR"
	codeInvalidJSON   = "INVALID_JSON"
	codeUnauthorized  = "UNAUTHORIZED"
	codeForbidden     = "FORBIDDEN"
	codeNotFound      = "NOT_FOUND"
	codeNotConnected  = "SPOTIFY_NOT_CONNECTED"
	codeUnavailable   = "UPSTREAM_UNAVAILABLE"
	codeNothingToSend = "NOTHING_TO_EXPORT"
	codeCancelled     = "REQUEST_CANCELLED"
	codeInternal      = "INTERNAL_ERROR"
)

// errBadRequest marks handler-level input errors.
var errBadRequest = errors.New("bad request")

func badRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

type apiError struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

type errorBody struct {
	Error apiError `json:"error"`
}

// writeJSON sends v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("marshaling JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("writing JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, e apiError) {
	writeJSON(w, status, errorBody{Error: e})
}

// fail maps err to a status code and error body.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, apiError{Code: codeValidation, Message: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, errBadRequest),
		errors.Is(err, social.ErrInvalidInput),
		errors.Is(err, matcher.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, apiError{Code: codeValidation, Message: err.Error()})
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, apiError{Code: codeNotFound, Message: "not found"})
	case errors.Is(err, social.ErrForbidden):
		writeError(w, http.StatusForbidden, apiError{Code: codeForbidden, Message: "not allowed"})
	case errors.Is(err, auth.ErrNoToken):
		writeError(w, http.StatusUnauthorized, apiError{Code: codeNotConnected, Message: "connect your Spotify account first"})
	case errors.Is(err, catalog.ErrUnavailable):
		writeError(w, http.StatusBadGateway, apiError{Code: codeUnavailable, Message: "catalog is unavailable"})
	case errors.Is(err, spotify.ErrNothingToExport):
		writeError(w, http.StatusUnprocessableEntity, apiError{Code: codeNothingToSend, Message: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logging.Ctx(r.Context()).Debug().Err(err).Msg("request cancelled")
		writeError(w, http.StatusServiceUnavailable, apiError{Code: codeCancelled, Message: "request cancelled"})
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, apiError{Code: codeInternal, Message: "internal error"})
	}
}

// decodeJSON reads the request body into v. An empty body is accepted when
// optional is set and leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}

	msg := "request body must be valid JSON"
	if errors.Is(err, io.EOF) {
		msg = "request body is required"
	}
	writeError(w, http.StatusBadRequest, apiError{Code: codeInvalidJSON, Message: msg})
	return false
}

// idParam parses a positive integer URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequestf("%s must be a positive integer", name)
	}
	return id, nil
}
