package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/alfredjeanlab/eventsvc/internal/logsink"
	"github.com/rs/zerolog"
)

// createEventInput is the body of POST /api/events.
type createEventInput struct {
	Message string `json:"message" validate:"required"`
}

// createEventResponse is the body of a successful POST /api/events.
type createEventResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// handleCreateEvent handles POST /api/events.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in createEventInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("rejecting undecodable event body")
		writeFailure(w, r, inputError(msgMessageRequired), "")
		return
	}
	if err := s.validate.Struct(in); err != nil {
		writeFailure(w, r, inputError(msgMessageRequired), "")
		return
	}

	res, err := s.createEvent(ctx, in.Message)
	if err != nil {
		s.observe(ctx, logsink.NewRecord(logsink.TypeError).With("error", err.Error()))
		writeFailure(w, r, err, msgProcessFailed)
		return
	}

	s.observe(ctx, logsink.NewRecord(logsink.TypeEventCreated).
		With("data", res.Event).
		With("dbId", res.DBID).
		With("pubsubMessageId", res.MessageID))

	writeJSON(w, http.StatusCreated, createEventResponse{
		ID:        res.Event.ID,
		Message:   res.Event.Message,
		Timestamp: res.Event.Timestamp,
		Status:    "created",
	})
}

// handleListEvents handles GET /api/events.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := s.listEvents(ctx)
	if err != nil {
		var ue unavailableError
		if !errors.As(err, &ue) {
			s.observe(ctx, logsink.NewRecord(logsink.TypeError).With("error", err.Error()))
		}
		writeFailure(w, r, err, msgRetrieveFailed)
		return
	}

	zerolog.Ctx(ctx).Info().Int("count", len(rows)).Msg("retrieved events")
	s.observe(ctx, logsink.NewRecord(logsink.TypeEventsRetrieved).With("count", len(rows)))
	writeJSON(w, http.StatusOK, rows)
}
