package ipc

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/station status information.
type StatusResponse struct {
	Running          bool   `json:"running"`
	RecordingInvoice string `json:"recording_invoice"`
	SessionID        string `json:"session_id"`
	LedgerSize       int    `json:"ledger_size"`
	ManifestRows     int    `json:"manifest_rows"`
	ScanLogPath      string `json:"scan_log_path"`
	LockPath         string `json:"lock_path"`
	PID              int    `json:"pid"`
}

// StopRequest shuts the daemon down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// LedgerRequest fetches the in-memory checked set.
type LedgerRequest struct{}

// LedgerResponse contains the tracking codes confirmed this run.
type LedgerResponse struct {
	IDs []string `json:"ids"`
}
