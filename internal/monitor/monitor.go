package monitor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bilal/speedtest-agent/internal/measure"
)

type Bootstrapper interface {
	EnsureDatabase(ctx context.Context, name string) error
}

type Runner interface {
	Run(ctx context.Context) (*measure.Result, error)
}

// ResultWriter persists a result; it reports its own failures.
type ResultWriter interface {
	Write(ctx context.Context, res *measure.Result)
}

type Publisher interface {
	Publish(ctx context.Context, res *measure.Result) error
}

// Monitor runs one bootstrap, measure, store cycle.
type Monitor struct {
	log       zerolog.Logger
	database  string
	bootstrap Bootstrapper
	runner    Runner
	writer    ResultWriter
	publisher Publisher
}

// New wires a monitor. publisher may be nil.
func New(log zerolog.Logger, database string, b Bootstrapper, r Runner, w ResultWriter, p Publisher) *Monitor {
	return &Monitor{
		log:       log,
		database:  database,
		bootstrap: b,
		runner:    r,
		writer:    w,
		publisher: p,
	}
}

// Run returns the bootstrap or measurement error. Write and publish failures
// are logged by their components and do not change the outcome.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.bootstrap.EnsureDatabase(ctx, m.database); err != nil {
		m.log.Error().Err(err).Str("database", m.database).Msg("error creating Influx database")
		return fmt.Errorf("bootstrap: %w", err)
	}

	res, err := m.runner.Run(ctx)
	if err != nil {
		return err
	}

	m.writer.Write(ctx, res)

	if m.publisher != nil {
		if err := m.publisher.Publish(ctx, res); err != nil {
			m.log.Warn().Err(err).Str("test_id", res.ID).Msg("publish result failed")
		}
	}
	return nil
}
