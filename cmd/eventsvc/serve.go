package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfredjeanlab/eventsvc/internal/events"
	"github.com/alfredjeanlab/eventsvc/internal/logsink"
	"github.com/alfredjeanlab/eventsvc/internal/metrics"
	"github.com/alfredjeanlab/eventsvc/internal/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the event service",
	GroupID: "server",
	// Override PersistentPreRunE so we don't create an API client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()

		metrics.AppInfo.WithLabelValues(cfg.Version, cfg.Environment).Set(1)

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL, cfg.PublishTimeout)
			if err != nil {
				return err
			}
			if cfg.NATSStream != "" && cfg.PubSubTopic != "" {
				if err := pub.EnsureStream(ctx, cfg.NATSStream, cfg.PubSubTopic); err != nil {
					logger.Warn().Err(err).Str("stream", cfg.NATSStream).Msg("JetStream stream not ensured, publishes fail until the broker is reachable")
				} else {
					logger.Info().Str("stream", cfg.NATSStream).Str("topic", cfg.PubSubTopic).Msg("JetStream stream ready")
				}
			}
			if !pub.Connected() {
				logger.Warn().Str("nats_url", cfg.NATSURL).Msg("NATS unreachable, reconnecting in background")
			}
			publisher = pub
			logger.Info().Str("nats_url", cfg.NATSURL).Str("topic", cfg.PubSubTopic).Msg("publishing enabled")
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info().Msg("publishing disabled (NATS_URL not set)")
		}
		if cfg.PubSubTopic == "" {
			logger.Warn().Msg("PUBSUB_TOPIC not set, skipping message publishing")
		}

		forwarder := logsink.NewHTTPForwarder(cfg.LogstashHost, cfg.LogSinkTimeout, logger)
		if !forwarder.Enabled() {
			logger.Warn().Msg("LOGSTASH_HOST not set, skipping log forwarding")
		}

		gateway := newGateway(ctx, cfg, logger)

		srv := server.New(gateway, publisher, forwarder, server.Options{
			Environment: cfg.Environment,
			Version:     cfg.Version,
			Port:        cfg.Port,
			Topic:       cfg.PubSubTopic,
		}, logger)

		initCtx, cancelInit := context.WithTimeout(ctx, 30*time.Second)
		srv.Startup(initCtx)
		cancelInit()

		// Listener failures end the process.
		serveErr := make(chan error, 2)

		// Start optional gRPC health listener.
		var grpcServer *grpc.Server
		if cfg.GRPCAddr != "" {
			lis, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				publisher.Close()
				gateway.Close()
				return err
			}
			grpcServer = server.NewGRPCServer(srv)
			go func() {
				logger.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC health server listening")
				if err := grpcServer.Serve(lis); err != nil {
					serveErr <- fmt.Errorf("gRPC server: %w", err)
				}
			}()
		}

		// Start HTTP server.
		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr(),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		logger.Info().Str("addr", cfg.HTTPAddr()).Msg("HTTP server listening")
		startHTTP(httpServer, serveErr)

		// Wait for SIGINT, SIGTERM, or a listener failure.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		runErr := awaitStop(sigCh, serveErr, logger)

		if grpcServer != nil {
			grpcServer.GracefulStop()
			logger.Info().Msg("gRPC server stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown error")
		}
		logger.Info().Msg("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing publisher")
		}
		if err := gateway.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing database")
		}

		logger.Info().Msg("shutdown complete")
		return runErr
	},
}

// startHTTP runs srv in the background. Any error other than a normal
// shutdown is sent on errc.
func startHTTP(srv *http.Server, errc chan<- error) {
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("HTTP server: %w", err)
		}
	}()
}

// awaitStop blocks until a signal arrives or a listener fails. It returns the
// listener error, or nil for a signal.
func awaitStop(sigCh <-chan os.Signal, errc <-chan error, logger zerolog.Logger) error {
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
		return nil
	case err := <-errc:
		logger.Error().Err(err).Msg("server failed, shutting down")
		return err
	}
}
