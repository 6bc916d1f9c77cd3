// Package session holds the recording orchestrator, the central per-tick
// state machine of the scanner.
//
// The controller owns the committed-items ledger and the lifecycle of the
// exclusive video evidence session: commit gating, handoff between
// consecutive matches, the trailing grace window, and evidence linking once a
// session closes. Transitions are decided by a pure function over the tick's
// observation, so the machine tests deterministically with synthetic clocks
// and fake collaborators.
//
// Two invariants are enforced here and nowhere else: an identifier commits at
// most once per run, and at most one recording session is open at any
// instant (every session start routes through stop-before-start).
package session
