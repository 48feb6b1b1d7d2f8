package measure

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeedtestNetProbe_RequiresAcceptedTerms(t *testing.T) {
	p := NewSpeedtestNetProbe(zerolog.Nop(), ProbeOptions{AcceptLicense: true})

	res, err := p.Measure(context.Background())
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GDPR")
}

func TestTransfer(t *testing.T) {
	got := transfer(1000, 500000, 4*time.Second)
	assert.Equal(t, Transfer{Bandwidth: 1000, Bytes: 500000, Elapsed: 4000}, got)
}

func TestTransfer_DerivesBytes(t *testing.T) {
	got := transfer(250, 0, 2*time.Second)
	assert.Equal(t, int64(500), got.Bytes)
	assert.Equal(t, int64(2000), got.Elapsed)
}

func TestMillis(t *testing.T) {
	assert.InDelta(t, 30.5, millis(30500*time.Microsecond), 1e-9)
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0.0, clampPercent(-1))
	assert.Equal(t, 1.5, clampPercent(1.5))
	assert.Equal(t, 100.0, clampPercent(120))
}
