package web

import (
	"net/http"

	"github.com/goccy/go-json"

	apperrors "github.com/verte-zerg/concerto/internal/errors"
	"github.com/verte-zerg/concerto/internal/logging"
)

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, envelope Envelope) {
	data, err := json.Marshal(envelope)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // HTTP response write errors are not recoverable
	w.Write(data)
}

func respondData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// respondError maps a domain error to its status. Unknown errors are logged and hidden.
func respondError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	msg := apperrors.Message(err)
	if code == apperrors.CodeInternal {
		logging.Error().Err(err).Msg("request failed")
		msg = "internal error"
	}
	writeJSON(w, code.HTTPStatus(), Envelope{Code: string(code), Error: msg})
}
