package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

// Client-facing messages. Detail beyond these stays in local logs and
// forwarded error records.
const (
	msgMessageRequired = "Message is required"
	msgProcessFailed   = "Failed to process event"
	msgRetrieveFailed  = "Failed to retrieve events"
	msgNotInitialized  = "Database connection not initialized"
)

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// unavailableError indicates the service cannot serve the request in its
// current state. Transport layers map this to 503.
type unavailableError string

func (e unavailableError) Error() string { return string(e) }

// writeFailure is the single place errors become HTTP responses. Input and
// availability errors echo their message; anything else is logged and
// reported to the client as generic.
func writeFailure(w http.ResponseWriter, r *http.Request, err error, generic string) {
	var ie inputError
	if errors.As(err, &ie) {
		writeError(w, http.StatusBadRequest, ie.Error())
		return
	}
	var ue unavailableError
	if errors.As(err, &ue) {
		writeError(w, http.StatusServiceUnavailable, ue.Error())
		return
	}

	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(generic)
	writeError(w, http.StatusInternalServerError, generic)
}
