package influx

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/influxdata/influxdb1-client/models"
	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilal/speedtest-agent/internal/measure"
)

// fakeClient records queries and writes. Methods not overridden here are
// never reached by the package.
type fakeClient struct {
	client.Client

	databases []string
	queryErr  error
	writeErr  error

	queries []string
	written []client.BatchPoints
}

func (f *fakeClient) Query(q client.Query) (*client.Response, error) {
	f.queries = append(f.queries, q.Command)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if q.Command != "SHOW DATABASES" {
		return &client.Response{}, nil
	}

	row := models.Row{Name: "databases", Columns: []string{"name"}}
	for _, name := range f.databases {
		row.Values = append(row.Values, []interface{}{name})
	}
	return &client.Response{Results: []client.Result{{Series: []models.Row{row}}}}, nil
}

func (f *fakeClient) Write(bp client.BatchPoints) error {
	f.written = append(f.written, bp)
	return f.writeErr
}

func (f *fakeClient) creates() int {
	n := 0
	for _, q := range f.queries {
		if strings.HasPrefix(q, "CREATE DATABASE") {
			n++
		}
	}
	return n
}

func sampleResult() *measure.Result {
	return &measure.Result{
		ID:         "abc",
		Server:     measure.Server{Location: "X", Country: "Y", Host: "Z"},
		ISP:        "ISP1",
		Ping:       measure.Ping{Jitter: 2.0, Latency: 30.0},
		PacketLoss: 1.5,
		Download:   measure.Transfer{Bandwidth: 1000, Bytes: 500000, Elapsed: 4000},
		Upload:     measure.Transfer{Bandwidth: 200, Bytes: 100000, Elapsed: 5000},
	}
}

func TestEnsureDatabase_CreatesWhenMissing(t *testing.T) {
	fc := &fakeClient{databases: []string{"_internal", "telegraf"}}

	err := NewBootstrap(zerolog.Nop(), fc).EnsureDatabase(context.Background(), "speedtest_db")
	require.NoError(t, err)

	assert.Equal(t, 1, fc.creates())
	assert.Equal(t, `CREATE DATABASE "speedtest_db"`, fc.queries[len(fc.queries)-1])
}

func TestEnsureDatabase_NoopWhenPresent(t *testing.T) {
	fc := &fakeClient{databases: []string{"_internal", "speedtest_db"}}

	err := NewBootstrap(zerolog.Nop(), fc).EnsureDatabase(context.Background(), "speedtest_db")
	require.NoError(t, err)

	assert.Zero(t, fc.creates())
	assert.Equal(t, []string{"SHOW DATABASES"}, fc.queries)
}

func TestEnsureDatabase_QueryError(t *testing.T) {
	fc := &fakeClient{queryErr: errors.New("connection refused")}

	err := NewBootstrap(zerolog.Nop(), fc).EnsureDatabase(context.Background(), "speedtest_db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Zero(t, fc.creates())
}

func TestPoints_Schema(t *testing.T) {
	bp, err := Points("speedtest_db", sampleResult())
	require.NoError(t, err)
	assert.Equal(t, "speedtest_db", bp.Database())

	pts := bp.Points()
	require.Len(t, pts, 3)

	wantTags := map[string]string{"location": "X", "country": "Y", "host": "Z", "isp": "ISP1"}
	wantFields := map[string]map[string]interface{}{
		"ping":     {"jitter": 2.0, "latency": 30.0, "packetLoss": 1.5},
		"download": {"bandwidth": int64(1000), "bytes": int64(500000), "elapsed": int64(4000)},
		"upload":   {"bandwidth": int64(200), "bytes": int64(100000), "elapsed": int64(5000)},
	}

	var names []string
	for _, pt := range pts {
		names = append(names, pt.Name())
		assert.Equal(t, wantTags, pt.Tags(), pt.Name())

		fields, err := pt.Fields()
		require.NoError(t, err)
		assert.Equal(t, wantFields[pt.Name()], fields, pt.Name())
		assert.True(t, pt.Time().IsZero(), "server assigns the timestamp")
	}
	assert.Equal(t, []string{"ping", "download", "upload"}, names)
}

func TestWriter_WritesOneBatch(t *testing.T) {
	fc := &fakeClient{}
	var console bytes.Buffer

	NewWriter(zerolog.New(&console), fc, "speedtest_db").Write(context.Background(), sampleResult())

	require.Len(t, fc.written, 1)
	assert.Len(t, fc.written[0].Points(), 3)
	assert.Empty(t, console.String())
}

func TestWriter_SwallowsWriteError(t *testing.T) {
	fc := &fakeClient{writeErr: errors.New("partial write: field type conflict")}
	var console bytes.Buffer

	assert.NotPanics(t, func() {
		NewWriter(zerolog.New(&console), fc, "speedtest_db").Write(context.Background(), sampleResult())
	})

	assert.Contains(t, console.String(), `"level":"error"`)
	assert.Contains(t, console.String(), "error saving data to InfluxDB")
	assert.Contains(t, console.String(), "field type conflict")
}
