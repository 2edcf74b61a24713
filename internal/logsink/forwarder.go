package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alfredjeanlab/eventsvc/internal/metrics"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 5 * time.Second

// Forwarder delivers records to a log sink. Forward never fails the caller.
type Forwarder interface {
	Forward(ctx context.Context, r Record)
}

// HTTPForwarder POSTs records as JSON to a configured URL. With an empty URL
// every call is a silent no-op.
type HTTPForwarder struct {
	url    string
	client *http.Client
	logger zerolog.Logger
}

// NewHTTPForwarder creates a forwarder for url. A zero timeout uses DefaultTimeout.
func NewHTTPForwarder(url string, timeout time.Duration, logger zerolog.Logger) *HTTPForwarder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPForwarder{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "logsink").Logger(),
	}
}

// Enabled reports whether a sink URL is configured.
func (f *HTTPForwarder) Enabled() bool { return f.url != "" }

// Forward delivers r. Failures are logged locally and counted, never returned.
func (f *HTTPForwarder) Forward(ctx context.Context, r Record) {
	if f.url == "" {
		f.logger.Debug().Str("record_type", r.Type()).Msg("LOGSTASH_HOST not set, skipping log forwarding")
		return
	}
	if err := f.send(ctx, r); err != nil {
		metrics.LogForwardFailures.WithLabelValues(r.Type()).Inc()
		f.logger.Error().Err(err).Str("record_type", r.Type()).Msg("failed to send logs to log sink")
	}
}

func (f *HTTPForwarder) send(ctx context.Context, r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	// The request may outlive a cancelled caller context; the client timeout
	// still bounds it.
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, f.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("log sink returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// Nop discards every record.
type Nop struct{}

func (Nop) Forward(context.Context, Record) {}
