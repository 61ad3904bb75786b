package loadgen

import (
	"encoding/json"
	"fmt"
	"io"
)

// Measurement is the summary of one bombardier run.
type Measurement struct {
	RPS          float64 `json:"rps"`
	LatencyAvgMs float64 `json:"latency_avg_ms"`
	LatencyP99Ms float64 `json:"latency_p99_ms"`
	Errors       int64   `json:"errors"`
	Requests     int64   `json:"requests"`
}

// summary mirrors the subset of bombardier's --format json output we read.
// Latencies are in microseconds.
type summary struct {
	Result struct {
		Req1xx  int64 `json:"req1xx"`
		Req2xx  int64 `json:"req2xx"`
		Req3xx  int64 `json:"req3xx"`
		Req4xx  int64 `json:"req4xx"`
		Req5xx  int64 `json:"req5xx"`
		Others  int64 `json:"others"`
		Latency stats `json:"latency"`
		RPS     stats `json:"rps"`
	} `json:"result"`
}

type stats struct {
	Mean        float64            `json:"mean"`
	Stddev      float64            `json:"stddev"`
	Max         float64            `json:"max"`
	Percentiles map[string]float64 `json:"percentiles"`
}

const microsPerMilli = 1000

// Parse decodes a bombardier JSON summary. Every response outside 2xx and
// every transport error counts as an error.
func Parse(r io.Reader) (Measurement, error) {
	var s summary
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Measurement{}, fmt.Errorf("decode JSON: %w", err)
	}

	res := s.Result

	return Measurement{
		RPS:          res.RPS.Mean,
		LatencyAvgMs: res.Latency.Mean / microsPerMilli,
		LatencyP99Ms: res.Latency.Percentiles["99"] / microsPerMilli,
		Errors:       res.Req1xx + res.Req3xx + res.Req4xx + res.Req5xx + res.Others,
		Requests:     res.Req1xx + res.Req2xx + res.Req3xx + res.Req4xx + res.Req5xx + res.Others,
	}, nil
}

// Best returns the measurement with the highest RPS. Ties keep the earlier
// run. ok is false when ms is empty.
func Best(ms []Measurement) (best Measurement, ok bool) {
	for i, m := range ms {
		if i == 0 || m.RPS > best.RPS {
			best = m
		}
	}

	return best, len(ms) > 0
}
