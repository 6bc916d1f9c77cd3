package classify

// Kind discriminates the scan outcome union.
type Kind int

const (
	KindNotFound Kind = iota
	KindFound
	KindDuplicate
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindFound:
		return "found"
	case KindDuplicate:
		return "duplicate"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Outcome is the classification of one identifier for one tick. Exactly one
// kind is active; Invoice and Recipient are populated per kind, never
// inferred from rendered text.
type Outcome struct {
	Kind      Kind
	Invoice   string
	Recipient string
}

// NotFound marks an identifier absent from the manifest.
func NotFound() Outcome {
	return Outcome{Kind: KindNotFound}
}

// Found marks a manifest hit not yet committed this run.
func Found(invoice, recipient string) Outcome {
	return Outcome{Kind: KindFound, Invoice: invoice, Recipient: recipient}
}

// Duplicate marks a manifest hit whose identifier is already in the ledger.
func Duplicate(invoice string) Outcome {
	return Outcome{Kind: KindDuplicate, Invoice: invoice}
}

// Conflict marks every identifier of a multi-identifier tick.
func Conflict() Outcome {
	return Outcome{Kind: KindConflict}
}
