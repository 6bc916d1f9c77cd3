package classify

import (
	"time"

	"packwatch/internal/capture"
)

// Result is one tick's classification. When Conflict is set every detection in
// the frame is in conflict and Primary is empty; otherwise Primary names the
// tick's sole identifier candidate, or is empty when nothing was decoded.
type Result struct {
	Detections []capture.Detection
	Primary    string
	Outcome    Outcome
	Fresh      bool
	Conflict   bool
}

// Classifier turns a tick's decoded detections into one outcome per
// identifier, using the debounce cache for repeat sightings.
type Classifier struct {
	cache *Cache
}

// NewClassifier wires a classifier to the manifest resolver and the ledger.
func NewClassifier(resolver Resolver, ledger LedgerView) *Classifier {
	return &Classifier{cache: NewCache(resolver, ledger)}
}

// Classify processes one tick. A frame with more than one distinct payload is
// a transient conflict: no lookup runs and no cache state changes, so the
// conflict cannot corrupt the cache or the ledger.
func (c *Classifier) Classify(detections []capture.Detection, now time.Time) (Result, error) {
	result := Result{Detections: detections}

	payloads := capture.DistinctPayloads(detections)
	switch len(payloads) {
	case 0:
		return result, nil
	case 1:
		outcome, fresh, err := c.cache.LookupOrClassify(payloads[0], now)
		if err != nil {
			return result, err
		}
		result.Primary = payloads[0]
		result.Outcome = outcome
		result.Fresh = fresh
		return result, nil
	default:
		result.Conflict = true
		result.Outcome = Conflict()
		return result, nil
	}
}

// Cache exposes the underlying debounce cache, mainly for inspection in tests
// and status reporting.
func (c *Classifier) Cache() *Cache {
	return c.cache
}
