package stability

import "time"

// DefaultThreshold is the continuous dwell time required before a sighting is
// trusted enough to commit.
const DefaultThreshold = 2 * time.Second

// Status is the gate's verdict for one tick.
type Status struct {
	Candidate    string
	Dwell        time.Duration
	Progress     float64
	ShouldCommit bool
}

// Gate tracks a single candidate identifier across consecutive ticks and
// measures its continuous dwell time. All elapsed-time math uses the tick
// timestamp supplied by the caller, so the gate is deterministic under a
// synthetic clock.
type Gate struct {
	threshold time.Duration
	candidate string
	startedAt time.Time
}

// NewGate constructs a gate with the given hold-to-confirm threshold.
// Non-positive thresholds fall back to the default.
func NewGate(threshold time.Duration) *Gate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Gate{threshold: threshold}
}

// Observe records the tick's single valid identifier, or clears the candidate
// when id is empty (no valid identifier, or a conflicting frame). A change of
// identifier restarts the dwell timer from zero.
func (g *Gate) Observe(id string, now time.Time) Status {
	if id == "" {
		g.Clear()
		return Status{}
	}

	if id != g.candidate {
		g.candidate = id
		g.startedAt = now
	}

	dwell := now.Sub(g.startedAt)
	progress := float64(dwell) / float64(g.threshold)
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	return Status{
		Candidate:    id,
		Dwell:        dwell,
		Progress:     progress,
		ShouldCommit: dwell >= g.threshold,
	}
}

// Clear drops the candidate entirely; the next sighting starts at zero dwell.
func (g *Gate) Clear() {
	g.candidate = ""
	g.startedAt = time.Time{}
}

// Candidate returns the identifier currently under evaluation, if any.
func (g *Gate) Candidate() (string, bool) {
	return g.candidate, g.candidate != ""
}
