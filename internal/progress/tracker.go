package progress

import (
	"sync"

	"bookrip/internal/config"
)

// Phase identifies a pipeline span contributing to overall job progress.
type Phase string

const (
	PhaseRip    Phase = "rip"
	PhaseSplit  Phase = "split"
	PhaseEncode Phase = "encode"
	PhaseTag    Phase = "tag"
)

type span struct {
	start float64
	end   float64
}

// Fixed weighting between pipeline phases. Combined mode has no split phase, so
// the rip span absorbs its share.
var (
	combinedSpans = map[Phase]span{
		PhaseRip:    {0, 50},
		PhaseEncode: {50, 95},
		PhaseTag:    {95, 100},
	}
	splitSpans = map[Phase]span{
		PhaseRip:    {0, 40},
		PhaseSplit:  {40, 50},
		PhaseEncode: {50, 95},
		PhaseTag:    {95, 100},
	}
)

// Tracker folds per-phase fractions into a single overall percentage for one
// rip job. The overall value never decreases, even when an underlying tool
// reports progress out of order.
type Tracker struct {
	mu      sync.Mutex
	spans   map[Phase]span
	overall float64
}

// NewTracker builds a tracker for the given output mode. An unknown mode falls
// back to the split weighting.
func NewTracker(mode string) *Tracker {
	spans := splitSpans
	if mode == config.ModeCombined {
		spans = combinedSpans
	}
	return &Tracker{spans: spans}
}

// Update maps a phase-local fraction in [0,1] into the overall percentage and
// returns the new overall value.
func (t *Tracker) Update(phase Phase, fraction float64) float64 {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.spans[phase]
	if !ok {
		return t.overall
	}
	value := s.start + fraction*(s.end-s.start)
	if value > t.overall {
		t.overall = value
	}
	return t.overall
}

// Overall returns the current overall percentage in [0,100].
func (t *Tracker) Overall() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.overall
}

// Resume primes the tracker with a previously persisted percentage so a
// restarted job cannot report backwards progress.
func (t *Tracker) Resume(percent float64) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if percent > t.overall {
		t.overall = percent
	}
}
