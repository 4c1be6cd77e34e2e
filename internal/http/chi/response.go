package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-relay/webhook"
)

/* envelope is the body of every API response
 * Status is true on success; Error carries the message otherwise
 */
type envelope struct {
	Status  bool        `json:"status"`
	Error   *string     `json:"error"`
	Payload interface{} `json:"payload"`
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{Status: true, Payload: payload})
}

func writeFailure(w http.ResponseWriter, code int, message string, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{Status: false, Error: &message, Payload: payload})
}

// writeError maps domain errors to status codes
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := httplog.LogEntry(r.Context())
	var verr *webhook.ValidationError
	switch {
	case errors.As(err, &verr):
		writeFailure(w, verr.StatusCode(), verr.Message, map[string]string{"field": verr.Field})
	case errors.Is(err, webhook.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "not found", nil)
	case errors.Is(err, webhook.ErrConflict):
		writeFailure(w, http.StatusConflict, "already exists", nil)
	case errors.Is(err, webhook.ErrOwnerUnresolved):
		log.Warn().Err(err).Msg("owner directory unavailable")
		writeFailure(w, http.StatusBadGateway, "owner could not be verified, try again later", nil)
	default:
		log.Error().Err(err).Msg("request failed")
		writeFailure(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON body", nil)
		return false
	}
	return true
}
