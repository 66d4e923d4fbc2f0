package score

import "time"

const (
	// FailurePenalty is added to the points for every failure
	FailurePenalty = 50.0
	// WinThreshold is the highest point total that still wins
	WinThreshold = 450.0
)

// Result is the scoring part of a finished session
type Result struct {
	Failures    int       `json:"failures"`
	Successes   int       `json:"successes"`
	Iterations  int64     `json:"iterations"`
	LatenciesMS []float64 `json:"latencies_ms"`
	Points      float64   `json:"points"`
	Winner      bool      `json:"winner"`
	// HasLatency is false when no pass was ever recorded and the average contributed nothing
	HasLatency bool `json:"has_latency"`
}

// Tracker accumulates outcomes for one game session
type Tracker struct {
	failures  int
	successes int
	latencies []time.Duration
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) AddFailure() {
	t.failures++
}

// AddSuccess counts a pass and records its latency
func (t *Tracker) AddSuccess(latency time.Duration) {
	t.successes++
	t.latencies = append(t.latencies, latency)
}

func (t *Tracker) Failures() int  { return t.failures }
func (t *Tracker) Successes() int { return t.successes }

func (t *Tracker) Latencies() []time.Duration {
	out := make([]time.Duration, len(t.latencies))
	copy(out, t.latencies)
	return out
}

// AverageLatency returns the mean latency; ok is false with zero samples
func (t *Tracker) AverageLatency() (time.Duration, bool) {
	if len(t.latencies) == 0 {
		return 0, false
	}
	var sum time.Duration
	for _, l := range t.latencies {
		sum += l
	}
	return sum / time.Duration(len(t.latencies)), true
}

// Points is the average latency in milliseconds plus the failure penalty.
// Without latency samples the average contributes zero.
func (t *Tracker) Points() float64 {
	var avgMS float64
	if len(t.latencies) > 0 {
		var sum float64
		for _, l := range t.latencies {
			sum += millis(l)
		}
		avgMS = sum / float64(len(t.latencies))
	}
	return avgMS + float64(t.failures)*FailurePenalty
}

// Result snapshots the tracker together with the number of iterations reached
func (t *Tracker) Result(iterations int64) Result {
	points := t.Points()
	latencies := make([]float64, len(t.latencies))
	for i, l := range t.latencies {
		latencies[i] = millis(l)
	}
	return Result{
		Failures:    t.failures,
		Successes:   t.successes,
		Iterations:  iterations,
		LatenciesMS: latencies,
		Points:      points,
		Winner:      points <= WinThreshold,
		HasLatency:  len(t.latencies) > 0,
	}
}

func (t *Tracker) Reset() {
	t.failures = 0
	t.successes = 0
	t.latencies = nil
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
