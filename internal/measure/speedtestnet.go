package measure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/showwin/speedtest-go/speedtest"
	"github.com/showwin/speedtest-go/speedtest/transport"
)

// ProbeOptions are the fixed options every speed test runs with.
type ProbeOptions struct {
	AcceptLicense bool
	AcceptGDPR    bool
	ServerIDs     []int
	PacketLoss    bool
}

// SpeedtestNetProbe measures against the speedtest.net server network.
type SpeedtestNetProbe struct {
	log  zerolog.Logger
	opts ProbeOptions
}

func NewSpeedtestNetProbe(log zerolog.Logger, opts ProbeOptions) *SpeedtestNetProbe {
	return &SpeedtestNetProbe{log: log, opts: opts}
}

func (p *SpeedtestNetProbe) Measure(ctx context.Context) (*Result, error) {
	if !p.opts.AcceptLicense || !p.opts.AcceptGDPR {
		return nil, errors.New("speedtest license and GDPR terms not accepted")
	}

	client := speedtest.New()

	user, err := client.FetchUserInfoContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}

	servers, err := client.FetchServerListContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch servers: %w", err)
	}

	targets, err := servers.FindServer(p.opts.ServerIDs)
	if err != nil {
		return nil, fmt.Errorf("find server: %w", err)
	}
	if len(targets) == 0 {
		return nil, errors.New("no speedtest server available")
	}
	s := targets[0]

	p.log.Debug().
		Str("server", s.Name).
		Str("host", s.Host).
		Str("sponsor", s.Sponsor).
		Msg("speedtest server selected")

	if err := s.PingTestContext(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping test: %w", err)
	}

	start := time.Now()
	if err := s.DownloadTestContext(ctx); err != nil {
		return nil, fmt.Errorf("download test: %w", err)
	}
	download := transfer(float64(s.DLSpeed), client.GetTotalDownload(), time.Since(start))

	start = time.Now()
	if err := s.UploadTestContext(ctx); err != nil {
		return nil, fmt.Errorf("upload test: %w", err)
	}
	upload := transfer(float64(s.ULSpeed), client.GetTotalUpload(), time.Since(start))

	return &Result{
		ID: uuid.NewString(),
		Server: Server{
			Location: s.Name,
			Country:  s.Country,
			Host:     s.Host,
		},
		ISP: user.Isp,
		Ping: Ping{
			Jitter:  millis(s.Jitter),
			Latency: millis(s.Latency),
		},
		PacketLoss: p.packetLoss(ctx, s.Host),
		Download:   download,
		Upload:     upload,
	}, nil
}

// packetLoss is best effort: many servers do not answer the loss probe and a
// missing figure must not fail an otherwise complete test.
func (p *SpeedtestNetProbe) packetLoss(ctx context.Context, host string) float64 {
	if !p.opts.PacketLoss {
		return 0
	}

	loss := 0.0
	analyzer := speedtest.NewPacketLossAnalyzer(nil)
	err := analyzer.RunWithContext(ctx, host, func(pl *transport.PLoss) {
		loss = clampPercent(pl.LossPercent())
	})
	if err != nil {
		p.log.Warn().Err(err).Str("host", host).Msg("packet loss unavailable")
		return 0
	}
	return loss
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// transfer builds the stored download/upload object. When the provider did
// not report a byte count it is derived from bandwidth and elapsed time.
func transfer(bytesPerSec float64, bytes int64, elapsed time.Duration) Transfer {
	ms := elapsed.Milliseconds()
	if bytes <= 0 {
		bytes = int64(bytesPerSec * float64(ms) / 1000)
	}
	return Transfer{
		Bandwidth: int64(bytesPerSec),
		Bytes:     bytes,
		Elapsed:   ms,
	}
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
