package influx

import (
	"context"
	"fmt"

	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/rs/zerolog"

	"github.com/bilal/speedtest-agent/internal/measure"
)

const (
	MeasurementPing     = "ping"
	MeasurementDownload = "download"
	MeasurementUpload   = "upload"
)

// Writer stores speed test results. Failures are reported on the console
// logger and never reach the caller.
type Writer struct {
	console  zerolog.Logger
	client   client.Client
	database string
}

func NewWriter(console zerolog.Logger, c client.Client, database string) *Writer {
	return &Writer{console: console, client: c, database: database}
}

func (w *Writer) Write(ctx context.Context, res *measure.Result) {
	if err := ctx.Err(); err != nil {
		w.console.Error().Err(err).Msg("error saving data to InfluxDB")
		return
	}

	bp, err := Points(w.database, res)
	if err != nil {
		w.console.Error().Err(err).Msg("error saving data to InfluxDB")
		return
	}

	if err := w.client.Write(bp); err != nil {
		w.console.Error().
			Err(err).
			Str("test_id", res.ID).
			Msg("error saving data to InfluxDB")
	}
}

// Points maps a result onto the ping, download and upload measurements.
// Timestamps are left to the server.
func Points(database string, res *measure.Result) (client.BatchPoints, error) {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{Database: database})
	if err != nil {
		return nil, fmt.Errorf("batch points: %w", err)
	}

	tags := Tags(res)
	fields := map[string]map[string]interface{}{
		MeasurementPing: {
			"jitter":     res.Ping.Jitter,
			"latency":    res.Ping.Latency,
			"packetLoss": res.PacketLoss,
		},
		MeasurementDownload: transferFields(res.Download),
		MeasurementUpload:   transferFields(res.Upload),
	}

	for _, name := range []string{MeasurementPing, MeasurementDownload, MeasurementUpload} {
		pt, err := client.NewPoint(name, tags, fields[name])
		if err != nil {
			return nil, fmt.Errorf("%s point: %w", name, err)
		}
		bp.AddPoint(pt)
	}
	return bp, nil
}

// Tags is shared by all three points.
func Tags(res *measure.Result) map[string]string {
	return map[string]string{
		"location": res.Server.Location,
		"country":  res.Server.Country,
		"host":     res.Server.Host,
		"isp":      res.ISP,
	}
}

func transferFields(t measure.Transfer) map[string]interface{} {
	return map[string]interface{}{
		"bandwidth": t.Bandwidth,
		"bytes":     t.Bytes,
		"elapsed":   t.Elapsed,
	}
}
