package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alfredjeanlab/eventsvc/internal/model"
	"github.com/alfredjeanlab/eventsvc/internal/secrets"
	"github.com/rs/zerolog"
)

// Opener connects to the database named by dsn and ensures the schema exists.
type Opener func(ctx context.Context, dsn string) (Store, error)

// Gateway owns the process's database handle. Until Initialize succeeds
// every data operation fails with ErrNotInitialized.
type Gateway struct {
	resolver   secrets.Resolver
	secretName string
	open       Opener
	logger     zerolog.Logger

	mu    sync.RWMutex
	store Store
}

// NewGateway returns an uninitialized gateway that will resolve secretName
// through resolver and connect with open.
func NewGateway(resolver secrets.Resolver, secretName string, open Opener, logger zerolog.Logger) *Gateway {
	return &Gateway{
		resolver:   resolver,
		secretName: secretName,
		open:       open,
		logger:     logger.With().Str("component", "store").Logger(),
	}
}

// NewGatewayWithStore returns a gateway that is already initialized with s.
func NewGatewayWithStore(s Store, logger zerolog.Logger) *Gateway {
	g := NewGateway(nil, "", nil, logger)
	g.store = s
	return g
}

// Initialize resolves the connection string, opens the database, and ensures
// the events table exists. It never retries; on failure the gateway stays
// uninitialized. Calling it again after success is a no-op.
func (g *Gateway) Initialize(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.store != nil {
		return nil
	}
	if g.secretName == "" {
		return fmt.Errorf("%w: DB_SECRET_NAME is not set", secrets.ErrSecretUnavailable)
	}
	if g.resolver == nil || g.open == nil {
		return errors.New("gateway has no secret resolver or opener")
	}

	dsn, err := g.resolver.Resolve(ctx, g.secretName)
	if err != nil {
		return err
	}

	s, err := g.open(ctx, dsn)
	if err != nil {
		return &Error{Op: "open", Err: err}
	}
	g.store = s
	g.logger.Info().Msg("database connection established")
	return nil
}

// Initialized reports whether Initialize has succeeded.
func (g *Gateway) Initialized() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.store != nil
}

func (g *Gateway) current() (Store, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.store == nil {
		return nil, ErrNotInitialized
	}
	return g.store, nil
}

// Insert stores one event row and returns its numeric id.
func (g *Gateway) Insert(ctx context.Context, eventID, message string) (int64, error) {
	s, err := g.current()
	if err != nil {
		return 0, err
	}
	id, err := s.InsertEvent(ctx, eventID, message)
	if err != nil {
		return 0, &Error{Op: "insert", Err: err}
	}
	g.logger.Debug().Int64("db_id", id).Str("event_id", eventID).Msg("event saved")
	return id, nil
}

// ListRecent returns up to limit rows, newest first. Limits outside
// 1..model.MaxListEvents are clamped to model.MaxListEvents.
func (g *Gateway) ListRecent(ctx context.Context, limit int) ([]*model.StoredEvent, error) {
	s, err := g.current()
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > model.MaxListEvents {
		limit = model.MaxListEvents
	}
	rows, err := s.ListRecentEvents(ctx, limit)
	if err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Ping reports database reachability. It never fails; errors are logged and
// reported as model.DatabaseDown.
func (g *Gateway) Ping(ctx context.Context) model.DatabaseStatus {
	s, err := g.current()
	if err != nil {
		return model.DatabaseNotInitialized
	}
	if err := s.Ping(ctx); err != nil {
		g.logger.Error().Err(err).Msg("database health check failed")
		return model.DatabaseDown
	}
	return model.DatabaseUp
}

// Close releases the database handle, if any.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.store == nil {
		return nil
	}
	err := g.store.Close()
	g.store = nil
	return err
}
