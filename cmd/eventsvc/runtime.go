package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alfredjeanlab/eventsvc/internal/config"
	"github.com/alfredjeanlab/eventsvc/internal/secrets"
	"github.com/alfredjeanlab/eventsvc/internal/store"
	"github.com/alfredjeanlab/eventsvc/internal/store/postgres"
	"github.com/rs/zerolog"
)

// loadConfig reads configuration and builds the process logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr).With().
		Str("environment", cfg.Environment).
		Logger()
	return cfg, logger, nil
}

// newResolver returns the secret resolver selected by SECRET_BACKEND.
func newResolver(ctx context.Context, cfg *config.Config) (secrets.Resolver, error) {
	switch cfg.SecretBackend {
	case config.SecretBackendEnv:
		return secrets.EnvResolver{}, nil
	case config.SecretBackendAWS:
		r, err := secrets.NewSecretsManagerResolver(ctx, cfg.Project, cfg.SecretRegion, cfg.SecretEndpoint)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown secret backend %q", cfg.SecretBackend)
	}
}

// newGateway returns an uninitialized gateway wired to Postgres. A resolver
// that cannot be built leaves the gateway permanently uninitialized.
func newGateway(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *store.Gateway {
	resolver, err := newResolver(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("secret resolver unavailable")
		return store.NewGateway(nil, cfg.DBSecretName, postgres.Open, logger)
	}
	return store.NewGateway(resolver, cfg.DBSecretName, postgres.Open, logger)
}
