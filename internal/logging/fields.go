package logging

// Standardized attribute keys shared across components so log lines stay
// filterable regardless of which subsystem emitted them.
const (
	FieldComponent  = "component"
	FieldEventType  = "event_type"
	FieldErrorHint  = "error_hint"
	FieldImpact     = "impact"
	FieldRunID      = "run_id"
	FieldSessionID  = "session_id"
	FieldIdentifier = "identifier"
	FieldInvoice    = "invoice"
)
