package metrics

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// AdvanceSample is one recorded day-advancement request.
type AdvanceSample struct {
	SaveID        uuid.UUID     `json:"saveId"`
	Days          int           `json:"days"`
	MatchesPlayed int           `json:"matchesPlayed"`
	Latency       time.Duration `json:"latency"`
	Timestamp     time.Time     `json:"timestamp"`
}

// Recorder keeps the most recent advancement samples in memory.
type Recorder struct {
	mu      sync.Mutex
	samples []AdvanceSample
	limit   int
}

func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 256
	}
	return &Recorder{limit: limit}
}

func (r *Recorder) Record(s AdvanceSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
	if len(r.samples) > r.limit {
		r.samples = r.samples[len(r.samples)-r.limit:]
	}
}

// Snapshot returns a copy of the retained samples, oldest first.
func (r *Recorder) Snapshot() []AdvanceSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AdvanceSample, len(r.samples))
	copy(out, r.samples)
	return out
}
