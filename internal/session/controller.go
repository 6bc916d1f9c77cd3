package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"packwatch/internal/classify"
	"packwatch/internal/logging"
	"packwatch/internal/scanlog"
	"packwatch/internal/stability"
)

// DefaultPostScanBuffer is how long a recording keeps running after its
// identifier leaves the frame, so a single dropped frame or a brief
// repositioning of the item does not terminate the evidence file.
const DefaultPostScanBuffer = 3 * time.Second

// ErrVideoSink tags sink open/close failures. The affected session is
// abandoned; no partial video is assumed valid.
var ErrVideoSink = errors.New("video sink failed")

// Log is the slice of the scan log store the controller needs.
type Log interface {
	Append(ctx context.Context, entry scanlog.Entry) (int64, error)
	PatchEvidence(ctx context.Context, invoice, filename string) (int64, error)
}

// Sink is an open video evidence file accepting sequential frames elsewhere;
// the controller only owns its lifecycle.
type Sink interface {
	Close() error
}

// SinkFactory opens the exclusive video sink for an invoice. Open returns the
// sink and the filename the evidence will be linked under.
type SinkFactory interface {
	Open(invoice string) (Sink, string, error)
}

// recording is the at-most-one open evidence session.
type recording struct {
	sessionID     string
	invoice       string
	identifier    string
	filename      string
	sink          Sink
	startedAt     time.Time
	lastValidSeen time.Time
}

// Controller is the per-tick recording orchestrator. It owns the committed
// ledger, decides when to start, stop, or switch video sessions, and triggers
// log commits. All timing uses the tick timestamp handed to Tick, never the
// wall clock, so the machine is deterministic under synthetic clocks.
type Controller struct {
	log            Log
	sinks          SinkFactory
	ledger         *Ledger
	logger         *slog.Logger
	postScanBuffer time.Duration

	rec           *recording
	lastDuplicate string
}

// NewController wires the orchestrator to its collaborators.
func NewController(log Log, sinks SinkFactory, ledger *Ledger, logger *slog.Logger, postScanBuffer time.Duration) *Controller {
	if postScanBuffer <= 0 {
		postScanBuffer = DefaultPostScanBuffer
	}
	if ledger == nil {
		ledger = NewLedger()
	}
	return &Controller{
		log:            log,
		sinks:          sinks,
		ledger:         ledger,
		logger:         logging.NewComponentLogger(logger, "session"),
		postScanBuffer: postScanBuffer,
	}
}

// Ledger returns the controller's committed-items ledger. The classify cache
// shares it as its read view.
func (c *Controller) Ledger() *Ledger {
	return c.ledger
}

// Active reports the open recording session, if any.
func (c *Controller) Active() (invoice string, ok bool) {
	if c.rec == nil {
		return "", false
	}
	return c.rec.invoice, true
}

// SessionID returns the open session's identifier, empty when idle.
func (c *Controller) SessionID() string {
	if c.rec == nil {
		return ""
	}
	return c.rec.sessionID
}

// TickReport summarizes the effects of one tick.
type TickReport struct {
	Committed           bool
	CommittedIdentifier string
	CommittedInvoice    string
	SessionOpened       bool
	SessionClosed       bool
	EvidenceFile        string
	Recording           bool
	RecordingInvoice    string
}

// observation is the per-tick input to the pure decision step.
type observation struct {
	invoice      string
	hasValid     bool // primary carries an invoice (found or duplicate)
	conflict     bool // multiple distinct payloads in the frame
	commitReady  bool // found, uncommitted, candidate held past threshold
	graceExpired bool
}

type action int

const (
	actionNone action = iota
	// actionRefresh keeps the current session alive for another grace window.
	actionRefresh
	// actionCommit commits the primary identifier and opens its session.
	actionCommit
	// actionSwitch closes the current session, then commits and opens the new one.
	actionSwitch
	// actionGraceStop closes the session because the grace window ran out.
	actionGraceStop
)

// decide is the pure transition function over (state, observation). Effects
// are applied by Tick.
func decide(isRecording bool, recordingInvoice string, obs observation) action {
	if !isRecording {
		if obs.commitReady {
			return actionCommit
		}
		return actionNone
	}

	if obs.hasValid && obs.invoice == recordingInvoice {
		return actionRefresh
	}
	if obs.commitReady {
		return actionSwitch
	}
	// A conflict frame needs operator correction, not a session decision:
	// it neither refreshes the grace window nor counts toward its expiry.
	if obs.conflict {
		return actionNone
	}
	if !obs.hasValid && obs.graceExpired {
		return actionGraceStop
	}
	// A different but unstable sighting, a duplicate, or a still-ticking
	// grace window: the session continues unchanged.
	return actionNone
}

// Tick evaluates the transition table once, after classification and
// stability are known for the tick at time now.
func (c *Controller) Tick(ctx context.Context, res classify.Result, st stability.Status, now time.Time) (TickReport, error) {
	var report TickReport
	var errs []error

	if err := c.noteNonCommitOutcomes(ctx, res, now); err != nil {
		errs = append(errs, err)
	}

	obs := c.observe(res, st, now)
	switch decide(c.rec != nil, c.recordingInvoice(), obs) {
	case actionRefresh:
		c.rec.lastValidSeen = now

	case actionCommit:
		if err := c.commit(ctx, res, now, &report); err != nil {
			errs = append(errs, err)
		}

	case actionSwitch:
		if err := c.stop(ctx, now, &report); err != nil {
			errs = append(errs, err)
		}
		if err := c.commit(ctx, res, now, &report); err != nil {
			errs = append(errs, err)
		}

	case actionGraceStop:
		if err := c.stop(ctx, now, &report); err != nil {
			errs = append(errs, err)
		}
	}

	if c.rec != nil {
		report.Recording = true
		report.RecordingInvoice = c.rec.invoice
	}
	return report, errors.Join(errs...)
}

// ForceStop honors an external cancel signal: the active session is flushed
// and its evidence linked regardless of timers. Safe to call when idle.
func (c *Controller) ForceStop(ctx context.Context) error {
	if c.rec == nil {
		return nil
	}
	var report TickReport
	return c.stop(ctx, c.rec.lastValidSeen, &report)
}

func (c *Controller) recordingInvoice() string {
	if c.rec == nil {
		return ""
	}
	return c.rec.invoice
}

func (c *Controller) observe(res classify.Result, st stability.Status, now time.Time) observation {
	var obs observation
	obs.conflict = res.Conflict
	if res.Primary != "" && !res.Conflict {
		switch res.Outcome.Kind {
		case classify.KindFound, classify.KindDuplicate:
			obs.hasValid = true
			obs.invoice = res.Outcome.Invoice
		}
	}
	obs.commitReady = obs.hasValid &&
		res.Outcome.Kind == classify.KindFound &&
		!c.ledger.Contains(res.Primary) &&
		st.ShouldCommit &&
		st.Candidate == res.Primary
	if c.rec != nil {
		obs.graceExpired = now.Sub(c.rec.lastValidSeen) > c.postScanBuffer
	}
	return obs
}

// noteNonCommitOutcomes writes the ERROR and DUPLICATE rows that accompany
// sightings without changing recording state. NotFound is logged once per
// first sighting; DUPLICATE once per entry into a duplicate sighting, and
// never for the identifier whose own session is still recording.
func (c *Controller) noteNonCommitOutcomes(ctx context.Context, res classify.Result, now time.Time) error {
	if res.Primary == "" || res.Conflict {
		c.lastDuplicate = ""
		return nil
	}

	switch res.Outcome.Kind {
	case classify.KindNotFound:
		c.lastDuplicate = ""
		if !res.Fresh {
			return nil
		}
		_, err := c.log.Append(ctx, scanlog.Entry{
			Timestamp:  now,
			Identifier: res.Primary,
			Status:     scanlog.StatusError,
			Message:    "identifier not found in manifest",
		})
		if err != nil {
			return err
		}

	case classify.KindDuplicate:
		if c.rec != nil && res.Outcome.Invoice == c.rec.invoice {
			// The in-session item resighted after its own commit.
			return nil
		}
		if c.lastDuplicate == res.Primary {
			return nil
		}
		c.lastDuplicate = res.Primary
		_, err := c.log.Append(ctx, scanlog.Entry{
			Timestamp:  now,
			Identifier: res.Primary,
			Invoice:    res.Outcome.Invoice,
			Status:     scanlog.StatusDuplicate,
			Message:    fmt.Sprintf("NF: %s already checked", res.Outcome.Invoice),
		})
		if err != nil {
			return err
		}

	default:
		c.lastDuplicate = ""
	}
	return nil
}

// commit inserts the identifier into the ledger, writes the SUCCESS row, and
// opens the new recording session. The ledger insertion is kept even when the
// log append fails: the item was physically packed, and re-allowing a commit
// would permit a second pack-out. The append error is surfaced to the caller.
func (c *Controller) commit(ctx context.Context, res classify.Result, now time.Time, report *TickReport) error {
	var errs []error

	c.ledger.Add(res.Primary)
	report.Committed = true
	report.CommittedIdentifier = res.Primary
	report.CommittedInvoice = res.Outcome.Invoice

	_, err := c.log.Append(ctx, scanlog.Entry{
		Timestamp:  now,
		Identifier: res.Primary,
		Invoice:    res.Outcome.Invoice,
		Status:     scanlog.StatusSuccess,
		Message:    fmt.Sprintf("NF: %s - %s", res.Outcome.Invoice, res.Outcome.Recipient),
	})
	if err != nil {
		c.logger.Warn("success row append failed; ledger insertion kept",
			logging.Error(err),
			logging.String(logging.FieldIdentifier, res.Primary),
			logging.String(logging.FieldInvoice, res.Outcome.Invoice),
		)
		errs = append(errs, err)
	}

	sink, filename, err := c.sinks.Open(res.Outcome.Invoice)
	if err != nil {
		c.logger.Warn("evidence sink open failed; commit stands without video",
			logging.Error(err),
			logging.String(logging.FieldInvoice, res.Outcome.Invoice),
		)
		errs = append(errs, fmt.Errorf("%w: open: %v", ErrVideoSink, err))
		return errors.Join(errs...)
	}

	c.rec = &recording{
		sessionID:     uuid.NewString(),
		invoice:       res.Outcome.Invoice,
		identifier:    res.Primary,
		filename:      filename,
		sink:          sink,
		startedAt:     now,
		lastValidSeen: now,
	}
	report.SessionOpened = true
	c.logger.Info("recording session opened",
		logging.String(logging.FieldSessionID, c.rec.sessionID),
		logging.String(logging.FieldIdentifier, res.Primary),
		logging.String(logging.FieldInvoice, res.Outcome.Invoice),
		logging.String("evidence", filename),
	)
	return errors.Join(errs...)
}

// stop closes the active sink and links its evidence into the log. A close
// failure abandons the session without linking: no partial video is assumed
// valid.
func (c *Controller) stop(ctx context.Context, now time.Time, report *TickReport) error {
	rec := c.rec
	c.rec = nil
	report.SessionClosed = true

	if err := rec.sink.Close(); err != nil {
		c.logger.Warn("evidence sink close failed; session abandoned without link",
			logging.Error(err),
			logging.String(logging.FieldSessionID, rec.sessionID),
			logging.String(logging.FieldInvoice, rec.invoice),
		)
		return fmt.Errorf("%w: close: %v", ErrVideoSink, err)
	}

	rows, err := c.log.PatchEvidence(ctx, rec.invoice, rec.filename)
	if err != nil {
		c.logger.Warn("evidence link failed",
			logging.Error(err),
			logging.String(logging.FieldSessionID, rec.sessionID),
			logging.String(logging.FieldInvoice, rec.invoice),
		)
		return err
	}
	report.EvidenceFile = rec.filename

	c.logger.Info("recording session closed",
		logging.String(logging.FieldSessionID, rec.sessionID),
		logging.String(logging.FieldInvoice, rec.invoice),
		logging.String("evidence", rec.filename),
		logging.Int64("rows_linked", rows),
		logging.Duration("duration", now.Sub(rec.startedAt)),
	)
	return nil
}
