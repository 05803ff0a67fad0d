// ABOUTME: JSON response helpers and the mapping from service errors to status codes.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harperreed/fitlog/internal/records"
)

// envelope is a JSON object response body.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps err onto a response. message is the operation's failure
// text; not-found errors carry their own.
func writeError(w http.ResponseWriter, err error, message string) {
	var (
		verr *records.ValidationError
		nf   *records.NotFoundError
		cerr *records.CascadeError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, envelope{"message": message, "error": verr.Error()})
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, envelope{"message": nf.Message})
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusInternalServerError, envelope{
			"message":           message,
			"error":             err.Error(),
			"failedCollections": cerr.Collections(),
		})
	default:
		writeJSON(w, http.StatusInternalServerError, envelope{"message": message, "error": err.Error()})
	}
}
