// Package classify produces one scan outcome per identifier per tick.
//
// The outcome is an explicit tagged union (NotFound, Found, Duplicate,
// Conflict); downstream stages switch on the kind and never inspect rendered
// text. The debounce cache memoizes classifications for the process lifetime
// of a run while re-deriving duplicate status live, because the session ledger
// grows as items commit.
package classify
