// Package server implements the eventsvc HTTP API, its middleware, and the
// gRPC health service.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/alfredjeanlab/eventsvc/internal/events"
	"github.com/alfredjeanlab/eventsvc/internal/logsink"
	"github.com/alfredjeanlab/eventsvc/internal/metrics"
	"github.com/alfredjeanlab/eventsvc/internal/model"
	"github.com/alfredjeanlab/eventsvc/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options carries the process-level values the handlers report.
type Options struct {
	Environment string
	Version     string
	Port        string
	// Topic is the broker subject for created events. Empty disables publishing.
	Topic string
}

// Server handles event requests. All collaborators are injected; the server
// holds no package-level state.
type Server struct {
	gateway   *store.Gateway
	publisher events.Publisher
	forwarder logsink.Forwarder
	logger    zerolog.Logger
	validate  *validator.Validate
	stream    *streamHub
	opts      Options

	now   func() time.Time
	newID func() string
}

// New returns a Server backed by the given gateway, publisher and log forwarder.
// A nil publisher or forwarder is replaced with a no-op.
func New(g *store.Gateway, p events.Publisher, f logsink.Forwarder, opts Options, logger zerolog.Logger) *Server {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	if f == nil {
		f = logsink.Nop{}
	}
	return &Server{
		gateway:   g,
		publisher: p,
		forwarder: f,
		logger:    logger.With().Str("component", "server").Logger(),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		stream:    newStreamHub(),
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Startup initializes the database once and announces the process to the log
// sink. A failed initialization is logged and the server runs degraded.
// It reports whether the database is connected.
func (s *Server) Startup(ctx context.Context) bool {
	connected := true
	if err := s.gateway.Initialize(ctx); err != nil {
		connected = false
		s.logger.Warn().Err(err).Msg("starting without database connection, event storage is unavailable")
	}
	if connected {
		metrics.DatabaseUp.Set(1)
	} else {
		metrics.DatabaseUp.Set(0)
	}

	s.forwarder.Forward(ctx, logsink.NewRecord(logsink.TypeAppStartup).
		With("environment", s.opts.Environment).
		With("port", s.opts.Port).
		With("dbConnected", connected))
	return connected
}

// createResult is everything the create path learned about one event.
type createResult struct {
	Event     model.Event
	DBID      int64
	MessageID string
}

// createEvent persists then publishes one event. It stops at the first
// failure; a row that was stored before a failed publish stays stored.
func (s *Server) createEvent(ctx context.Context, message string) (*createResult, error) {
	evt := model.Event{
		ID:          s.newID(),
		Message:     message,
		Timestamp:   s.now(),
		Environment: s.opts.Environment,
	}
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("event_id", evt.ID).Msg("processing new event")

	dbID, err := s.gateway.Insert(ctx, evt.ID, evt.Message)
	if err != nil {
		metrics.EventFailures.WithLabelValues("store").Inc()
		return nil, err
	}

	msgID, err := s.publisher.Publish(ctx, s.opts.Topic, evt)
	if err != nil {
		metrics.EventFailures.WithLabelValues("publish").Inc()
		return nil, fmt.Errorf("event %s stored as row %d: %w", evt.ID, dbID, err)
	}
	if msgID != "" {
		logger.Info().Str("message_id", msgID).Str("topic", s.opts.Topic).Msg("event published")
	}

	metrics.EventsCreated.Inc()
	s.stream.broadcast(evt)
	return &createResult{Event: evt, DBID: dbID, MessageID: msgID}, nil
}

// listEvents returns the most recent stored events, newest first.
func (s *Server) listEvents(ctx context.Context) ([]*model.StoredEvent, error) {
	if !s.gateway.Initialized() {
		return nil, unavailableError(msgNotInitialized)
	}
	rows, err := s.gateway.ListRecent(ctx, model.MaxListEvents)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*model.StoredEvent{}
	}
	return rows, nil
}

// health computes a fresh status snapshot.
func (s *Server) health(ctx context.Context) model.HealthStatus {
	db := s.gateway.Ping(ctx)
	if db == model.DatabaseUp {
		metrics.DatabaseUp.Set(1)
	} else {
		metrics.DatabaseUp.Set(0)
	}
	return model.HealthStatus{
		Status:      "ok",
		Timestamp:   s.now(),
		Environment: s.opts.Environment,
		Database:    db,
		Version:     s.opts.Version,
	}
}

// observe forwards r once a request outcome is decided. It never affects the
// response.
func (s *Server) observe(ctx context.Context, r logsink.Record) {
	if id := RequestIDFromContext(ctx); id != "" {
		r.With("request_id", id)
	}
	s.forwarder.Forward(ctx, r)
}
