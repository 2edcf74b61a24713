package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxParallelWrites bounds concurrent destination writes.
const maxParallelWrites = 4

// Destination is the interface for an export target (S3, git, etc.).
type Destination interface {
	// Name identifies the destination in logs.
	Name() string
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Result summarizes one export run.
type Result struct {
	Events int
	Bytes  int
}

// Run exports once from src and writes the payload to every destination
// concurrently. A failing destination does not stop the others; all failures are joined
// into the returned error.
func Run(ctx context.Context, src Source, environment string, dests []Destination, logger zerolog.Logger) (Result, error) {
	var buf bytes.Buffer
	n, err := ExportJSONL(ctx, src, environment, &buf)
	if err != nil {
		return Result{}, err
	}
	data := buf.Bytes()
	res := Result{Events: n, Bytes: len(data)}

	errs := make([]error, len(dests))
	var g errgroup.Group
	g.SetLimit(maxParallelWrites)
	for i, d := range dests {
		g.Go(func() error {
			if err := d.Write(ctx, data); err != nil {
				logger.Error().Err(err).Str("destination", d.Name()).Msg("export destination write failed")
				errs[i] = fmt.Errorf("%s: %w", d.Name(), err)
				return nil
			}
			logger.Info().Str("destination", d.Name()).Int("events", n).Int("bytes", len(data)).Msg("export written")
			return nil
		})
	}
	_ = g.Wait()
	return res, errors.Join(errs...)
}
