package scanlog

import "time"

// Status enumerates persisted scan outcomes.
type Status string

const (
	StatusSuccess   Status = "SUCCESS"
	StatusDuplicate Status = "DUPLICATE"
	StatusError     Status = "ERROR"
)

// Valid reports whether the status is one of the persisted values.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusDuplicate, StatusError:
		return true
	}
	return false
}

// Entry is one append-only scan log row. Evidence is the only field mutated
// after the row is written, via Store.PatchEvidence.
type Entry struct {
	ID         int64
	Timestamp  time.Time
	Identifier string
	Invoice    string
	Status     Status
	Message    string
	Evidence   string
}
