package session

import "sort"

// Ledger is the run's permanent record of committed identifiers. Membership is
// append-only: once an identifier is granted, it stays for the rest of the run.
type Ledger struct {
	ids map[string]struct{}
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{ids: make(map[string]struct{})}
}

// SeedLedger builds a ledger pre-populated from persisted SUCCESS rows, so a
// same-day restart keeps duplicate detection.
func SeedLedger(ids map[string]struct{}) *Ledger {
	ledger := NewLedger()
	for id := range ids {
		ledger.ids[id] = struct{}{}
	}
	return ledger
}

// Add inserts an identifier. It reports whether the identifier was newly
// added; a second insertion is a no-op.
func (l *Ledger) Add(id string) bool {
	if _, ok := l.ids[id]; ok {
		return false
	}
	l.ids[id] = struct{}{}
	return true
}

// Contains reports ledger membership.
func (l *Ledger) Contains(id string) bool {
	_, ok := l.ids[id]
	return ok
}

// Size returns the number of committed identifiers.
func (l *Ledger) Size() int {
	return len(l.ids)
}

// IDs returns the committed identifiers in sorted order.
func (l *Ledger) IDs() []string {
	out := make([]string, 0, len(l.ids))
	for id := range l.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
