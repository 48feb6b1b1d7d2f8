package influx

import (
	"context"
	"fmt"

	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/rs/zerolog"

	"github.com/bilal/speedtest-agent/internal/config"
)

// NewClient opens an HTTP client against the configured InfluxDB server.
func NewClient(cfg config.InfluxConfig) (client.Client, error) {
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     cfg.URL(),
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  cfg.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("influx client: %w", err)
	}
	return c, nil
}

// Bootstrap makes sure the target database exists before anything is
// measured.
type Bootstrap struct {
	log    zerolog.Logger
	client client.Client
}

func NewBootstrap(log zerolog.Logger, c client.Client) *Bootstrap {
	return &Bootstrap{log: log, client: c}
}

// EnsureDatabase creates name unless SHOW DATABASES already lists it.
func (b *Bootstrap) EnsureDatabase(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	names, err := databaseNames(b.client)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == name {
			b.log.Debug().Str("database", name).Msg("database exists")
			return nil
		}
	}

	if err := query(b.client, fmt.Sprintf("CREATE DATABASE %q", name)); err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	b.log.Info().Str("database", name).Msg("database created")
	return nil
}

func databaseNames(c client.Client) ([]string, error) {
	resp, err := c.Query(client.NewQuery("SHOW DATABASES", "", ""))
	if err != nil {
		return nil, fmt.Errorf("show databases: %w", err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("show databases: %w", err)
	}

	var names []string
	for _, result := range resp.Results {
		for _, row := range result.Series {
			for _, values := range row.Values {
				if len(values) == 0 {
					continue
				}
				if s, ok := values[0].(string); ok {
					names = append(names, s)
				}
			}
		}
	}
	return names, nil
}

func query(c client.Client, q string) error {
	resp, err := c.Query(client.NewQuery(q, "", ""))
	if err != nil {
		return err
	}
	return resp.Error()
}
