package communicator

import (
	"time"

	"github.com/bilal/speedtest-agent/internal/measure"
)

// ResultPayload is the JSON message mirrored to Kafka.
type ResultPayload struct {
	TestID    string          `json:"test_id"`
	Timestamp time.Time       `json:"timestamp"`
	Result    *measure.Result `json:"result"`
}

func NewResultPayload(res *measure.Result, now time.Time) ResultPayload {
	return ResultPayload{
		TestID:    res.ID,
		Timestamp: now.UTC(),
		Result:    res,
	}
}
