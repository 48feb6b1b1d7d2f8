package measure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrRetriesExhausted is returned once every attempt has failed.
var ErrRetriesExhausted = errors.New("speedtest retries exhausted")

// Probe performs a single speed test against the provider.
type Probe interface {
	Measure(ctx context.Context) (*Result, error)
}

// Runner drives the probe with an immediate, unconditional retry policy.
type Runner struct {
	log        zerolog.Logger
	probe      Probe
	maxRetries int
	now        func() time.Time
}

func NewRunner(log zerolog.Logger, probe Probe, maxRetries int) *Runner {
	return &Runner{
		log:        log,
		probe:      probe,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// Run performs up to maxRetries+1 attempts and returns the first successful
// result.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	return r.run(ctx, 0)
}

// run is one full attempt. Every retry starts over with a fresh clock and a
// fresh probe call; retries only grows.
func (r *Runner) run(ctx context.Context, retries int) (*Result, error) {
	start := r.now()

	ev := r.log.Info()
	if retries > 0 {
		ev = ev.Int("retry", retries)
	}
	ev.Msg("running speedtest")

	res, err := r.probe.Measure(ctx)
	elapsed := int64(r.now().Sub(start) / time.Second)

	if err == nil {
		r.log.Info().
			Str("test_id", res.ID).
			Int64("elapsed_s", elapsed).
			Msgf("finished speedtest '%s' successfully in %ds", res.ID, elapsed)
		return res, nil
	}

	r.log.Error().
		Err(err).
		Int64("elapsed_s", elapsed).
		Int("retry", retries).
		Msgf("finished speedtest with error in %ds", elapsed)

	if retries < r.maxRetries {
		return r.run(ctx, retries+1)
	}

	// WithLevel keeps the fatal entry without zerolog's os.Exit.
	r.log.WithLevel(zerolog.FatalLevel).
		Err(err).
		Int("retries", retries).
		Msgf("terminated speedtest after %d retries, no data has been saved", retries)

	return nil, fmt.Errorf("%w after %d retries: %v", ErrRetriesExhausted, retries, err)
}
