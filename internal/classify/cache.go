package classify

import (
	"errors"
	"fmt"
	"time"

	"packwatch/internal/manifest"
)

// ErrLookupUnavailable tags manifest lookup failures. The tick that hits it is
// treated as unclassified and the identifier is retried on its next sighting.
var ErrLookupUnavailable = errors.New("manifest lookup unavailable")

// Resolver resolves a decoded payload against the order manifest.
type Resolver interface {
	Resolve(payload string) (manifest.Record, bool, error)
}

// LedgerView is the read side of the session ledger the cache re-validates
// duplicate status against.
type LedgerView interface {
	Contains(id string) bool
}

type cacheEntry struct {
	outcome  Outcome
	lastSeen time.Time
}

// Cache memoizes the last classification per identifier so the manifest is not
// re-queried every tick while an identifier stays visible. Entries are never
// evicted, only refreshed or superseded; the run is a single working day and
// correctness, not memory, is the governing concern.
type Cache struct {
	resolver Resolver
	ledger   LedgerView
	entries  map[string]*cacheEntry
}

// NewCache constructs a debounce cache over the given collaborators.
func NewCache(resolver Resolver, ledger LedgerView) *Cache {
	return &Cache{
		resolver: resolver,
		ledger:   ledger,
		entries:  make(map[string]*cacheEntry),
	}
}

// LookupOrClassify returns the outcome for an identifier, consulting the
// manifest only on first sighting. The bool reports whether a lookup happened
// this call (the identifier's first sighting of the run). Every access
// refreshes the entry's last-seen time, and a cached Found upgrades to
// Duplicate the instant the identifier appears in the ledger.
func (c *Cache) LookupOrClassify(id string, now time.Time) (Outcome, bool, error) {
	if entry, ok := c.entries[id]; ok {
		entry.lastSeen = now
		if entry.outcome.Kind == KindFound && c.ledger.Contains(id) {
			entry.outcome = Duplicate(entry.outcome.Invoice)
		}
		return entry.outcome, false, nil
	}

	record, found, err := c.resolver.Resolve(id)
	if err != nil {
		// Nothing is stored: the next sighting retries the lookup.
		return Outcome{}, false, fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
	}

	var outcome Outcome
	switch {
	case !found:
		outcome = NotFound()
	case c.ledger.Contains(id):
		outcome = Duplicate(record.Invoice)
	default:
		outcome = Found(record.Invoice, record.Recipient)
	}

	c.entries[id] = &cacheEntry{outcome: outcome, lastSeen: now}
	return outcome, true, nil
}

// LastSeen reports when the identifier was last observed, if ever.
func (c *Cache) LastSeen(id string) (time.Time, bool) {
	entry, ok := c.entries[id]
	if !ok {
		return time.Time{}, false
	}
	return entry.lastSeen, true
}
