package measure

// Result is one completed speed test. Durations are milliseconds, bandwidth
// is bytes per second.
type Result struct {
	ID         string   `json:"id"`
	Server     Server   `json:"server"`
	ISP        string   `json:"isp"`
	Ping       Ping     `json:"ping"`
	PacketLoss float64  `json:"packetLoss"` // percent, 0-100
	Download   Transfer `json:"download"`
	Upload     Transfer `json:"upload"`
}

type Server struct {
	Location string `json:"location"`
	Country  string `json:"country"`
	Host     string `json:"host"`
}

type Ping struct {
	Jitter  float64 `json:"jitter"`
	Latency float64 `json:"latency"`
}

type Transfer struct {
	Bandwidth int64 `json:"bandwidth"`
	Bytes     int64 `json:"bytes"`
	Elapsed   int64 `json:"elapsed"`
}
