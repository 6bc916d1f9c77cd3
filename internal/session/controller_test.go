package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"packwatch/internal/capture"
	"packwatch/internal/classify"
	"packwatch/internal/manifest"
	"packwatch/internal/scanlog"
	"packwatch/internal/stability"
)

type fixedResolver map[string]manifest.Record

func (r fixedResolver) Resolve(payload string) (manifest.Record, bool, error) {
	rec, ok := r[payload]
	return rec, ok, nil
}

type fakeLog struct {
	entries   []scanlog.Entry
	appendErr error
	patchErr  error
}

func (l *fakeLog) Append(_ context.Context, entry scanlog.Entry) (int64, error) {
	if l.appendErr != nil {
		return 0, l.appendErr
	}
	l.entries = append(l.entries, entry)
	return int64(len(l.entries)), nil
}

func (l *fakeLog) PatchEvidence(_ context.Context, invoice, filename string) (int64, error) {
	if l.patchErr != nil {
		return 0, l.patchErr
	}
	var rows int64
	for i := range l.entries {
		if l.entries[i].Invoice == invoice && l.entries[i].Status == scanlog.StatusSuccess && l.entries[i].Evidence == "" {
			l.entries[i].Evidence = filename
			rows++
		}
	}
	return rows, nil
}

func (l *fakeLog) rows(status scanlog.Status) []scanlog.Entry {
	var out []scanlog.Entry
	for _, entry := range l.entries {
		if entry.Status == status {
			out = append(out, entry)
		}
	}
	return out
}

type fakeSink struct {
	invoice  string
	closed   bool
	closeErr error
}

func (s *fakeSink) Close() error {
	s.closed = true
	return s.closeErr
}

type fakeSinks struct {
	opened   []*fakeSink
	openErr  error
	closeErr error
}

func (f *fakeSinks) Open(invoice string) (Sink, string, error) {
	if f.openErr != nil {
		return nil, "", f.openErr
	}
	sink := &fakeSink{invoice: invoice, closeErr: f.closeErr}
	f.opened = append(f.opened, sink)
	return sink, fmt.Sprintf("NF%s.avi", invoice), nil
}

func (f *fakeSinks) openCount() int {
	n := 0
	for _, sink := range f.opened {
		if !sink.closed {
			n++
		}
	}
	return n
}

// harness drives the full classify -> gate -> orchestrate pipeline with a
// synthetic clock, the way the daemon loop does with real collaborators.
type harness struct {
	t          *testing.T
	classifier *classify.Classifier
	gate       *stability.Gate
	ctrl       *Controller
	log        *fakeLog
	sinks      *fakeSinks
	lastErr    error
}

func newHarness(t *testing.T, records map[string]manifest.Record, seed ...string) *harness {
	t.Helper()
	log := &fakeLog{}
	sinks := &fakeSinks{}
	ledger := NewLedger()
	for _, id := range seed {
		ledger.Add(id)
	}
	ctrl := NewController(log, sinks, ledger, nil, 3*time.Second)
	return &harness{
		t:          t,
		classifier: classify.NewClassifier(fixedResolver(records), ledger),
		gate:       stability.NewGate(2 * time.Second),
		ctrl:       ctrl,
		log:        log,
		sinks:      sinks,
	}
}

func at(seconds float64) time.Time {
	return time.Unix(0, int64(seconds*float64(time.Second)))
}

func (h *harness) tick(seconds float64, payloads ...string) TickReport {
	h.t.Helper()
	now := at(seconds)

	dets := make([]capture.Detection, 0, len(payloads))
	for _, p := range payloads {
		dets = append(dets, capture.Detection{Payload: p})
	}

	res, err := h.classifier.Classify(dets, now)
	if err != nil {
		// Unclassified tick: downstream sees no valid identifier.
		res = classify.Result{Detections: dets}
	}

	gateID := res.Primary
	if res.Conflict {
		gateID = ""
	}
	st := h.gate.Observe(gateID, now)

	report, err := h.ctrl.Tick(context.Background(), res, st, now)
	h.lastErr = err

	if h.sinks.openCount() > 1 {
		h.t.Fatalf("exclusivity violated: %d sinks open", h.sinks.openCount())
	}
	return report
}

var testRecords = map[string]manifest.Record{
	"TRK1": {Invoice: "501", Recipient: "Maria Souza"},
	"TRK2": {Invoice: "502", Recipient: "João Lima"},
}

func TestCommitAtStabilityThreshold(t *testing.T) {
	h := newHarness(t, testRecords)

	for _, tick := range []float64{0.0, 0.4, 0.8, 1.2, 1.6, 1.9} {
		report := h.tick(tick, "TRK1")
		if report.Committed {
			t.Fatalf("committed too early at t=%v", tick)
		}
		if report.Recording {
			t.Fatalf("session opened too early at t=%v", tick)
		}
	}

	report := h.tick(2.0, "TRK1")
	if !report.Committed || report.CommittedInvoice != "501" {
		t.Fatalf("expected commit at t=2.0, got %+v", report)
	}
	if !report.SessionOpened || !report.Recording || report.RecordingInvoice != "501" {
		t.Fatalf("expected open session for 501, got %+v", report)
	}

	successes := h.log.rows(scanlog.StatusSuccess)
	if len(successes) != 1 {
		t.Fatalf("expected 1 SUCCESS row, got %d", len(successes))
	}
	if successes[0].Identifier != "TRK1" || successes[0].Message != "NF: 501 - Maria Souza" {
		t.Fatalf("unexpected SUCCESS row: %+v", successes[0])
	}

	// Continued visibility after commit refreshes the session, commits nothing.
	report = h.tick(2.1, "TRK1")
	if report.Committed || !report.Recording {
		t.Fatalf("unexpected report after commit: %+v", report)
	}
}

func TestGraceWindowSurvivesShortGap(t *testing.T) {
	h := newHarness(t, testRecords)
	for _, tick := range []float64{0.0, 1.0, 2.0, 2.1} {
		h.tick(tick, "TRK1")
	}
	if _, ok := h.ctrl.Active(); !ok {
		t.Fatal("expected active session")
	}

	// Gone from t=2.1 to t=4.5: gap of 2.4s < 3.0s buffer.
	for _, tick := range []float64{2.5, 3.0, 3.5, 4.0, 4.4} {
		report := h.tick(tick)
		if report.SessionClosed {
			t.Fatalf("session closed inside grace window at t=%v", tick)
		}
	}
	report := h.tick(4.5, "TRK1")
	if report.SessionClosed || !report.Recording {
		t.Fatalf("reappearance should keep session, got %+v", report)
	}
}

func TestGraceExpiryClosesAndLinksEvidence(t *testing.T) {
	h := newHarness(t, testRecords)
	for _, tick := range []float64{0.0, 1.0, 2.0, 4.5} {
		h.tick(tick, "TRK1")
	}

	// Absent from t=4.5; inside the buffer nothing closes.
	for _, tick := range []float64{5.0, 6.0, 7.4} {
		if report := h.tick(tick); report.SessionClosed {
			t.Fatalf("closed too early at t=%v", tick)
		}
	}
	report := h.tick(7.6)
	if !report.SessionClosed {
		t.Fatal("expected close after grace expiry")
	}
	if report.EvidenceFile != "NF501.avi" {
		t.Fatalf("expected linked evidence, got %q", report.EvidenceFile)
	}

	successes := h.log.rows(scanlog.StatusSuccess)
	if len(successes) != 1 || successes[0].Evidence != "NF501.avi" {
		t.Fatalf("SUCCESS row not linked: %+v", successes)
	}
	if h.sinks.openCount() != 0 {
		t.Fatal("sink left open after close")
	}
}

func TestDuplicateImmunity(t *testing.T) {
	h := newHarness(t, testRecords)
	for _, tick := range []float64{0.0, 2.0} {
		h.tick(tick, "TRK1")
	}
	h.tick(6.0) // grace expiry, session closed

	// Re-show TRK1 well past the stability threshold.
	for _, tick := range []float64{10.0, 11.0, 12.5, 13.0} {
		report := h.tick(tick, "TRK1")
		if report.Committed || report.SessionOpened {
			t.Fatalf("duplicate must not commit or open, got %+v at t=%v", report, tick)
		}
	}

	if got := len(h.log.rows(scanlog.StatusSuccess)); got != 1 {
		t.Fatalf("expected exactly 1 SUCCESS row, got %d", got)
	}
	dups := h.log.rows(scanlog.StatusDuplicate)
	if len(dups) != 1 {
		t.Fatalf("expected exactly 1 DUPLICATE row for the sighting, got %d", len(dups))
	}
	if dups[0].Identifier != "TRK1" || dups[0].Invoice != "501" {
		t.Fatalf("unexpected DUPLICATE row: %+v", dups[0])
	}
}

func TestDuplicateLoggedAgainOnReentry(t *testing.T) {
	h := newHarness(t, testRecords, "TRK1")

	h.tick(0.0, "TRK1")
	h.tick(0.5, "TRK1")
	// Leaves the frame, then comes back: a second duplicate sighting.
	h.tick(1.0)
	h.tick(1.5, "TRK1")

	if got := len(h.log.rows(scanlog.StatusDuplicate)); got != 2 {
		t.Fatalf("expected 2 DUPLICATE rows across two sightings, got %d", got)
	}
}

func TestSeededLedgerBlocksRecommit(t *testing.T) {
	h := newHarness(t, testRecords, "TRK1")
	for _, tick := range []float64{0.0, 1.0, 2.0, 3.0} {
		report := h.tick(tick, "TRK1")
		if report.Committed || report.Recording {
			t.Fatalf("seeded identifier must never commit, got %+v", report)
		}
	}
	if got := len(h.log.rows(scanlog.StatusSuccess)); got != 0 {
		t.Fatalf("expected no SUCCESS rows, got %d", got)
	}
}

func TestUnstableCompetingSightingNeverStopsSession(t *testing.T) {
	h := newHarness(t, testRecords)
	for _, tick := range []float64{0.0, 2.0} {
		h.tick(tick, "TRK1")
	}

	// A and B alternate: B never holds long enough to commit, so the session
	// for A must never stop.
	ticks := []struct {
		at      float64
		payload string
	}{
		{2.2, "TRK2"}, {2.4, "TRK1"}, {2.6, "TRK2"}, {2.8, "TRK2"},
		{3.0, "TRK1"}, {3.2, "TRK2"}, {3.4, "TRK1"}, {3.6, "TRK2"},
	}
	for _, step := range ticks {
		report := h.tick(step.at, step.payload)
		if report.SessionClosed {
			t.Fatalf("session stopped on unstable sighting at t=%v", step.at)
		}
		if !report.Recording || report.RecordingInvoice != "501" {
			t.Fatalf("expected session for 501 to continue, got %+v", report)
		}
	}
	if got := len(h.log.rows(scanlog.StatusSuccess)); got != 1 {
		t.Fatalf("expected only TRK1 committed, got %d SUCCESS rows", got)
	}
}

func TestStableSwitchHandsOffSession(t *testing.T) {
	h := newHarness(t, testRecords)
	for _, tick := range []float64{0.0, 2.0} {
		h.tick(tick, "TRK1")
	}

	// B appears and holds past the threshold while A's session is open.
	for _, tick := range []float64{2.2, 3.0, 4.0} {
		report := h.tick(tick, "TRK2")
		if report.SessionClosed {
			t.Fatalf("closed before B stabilized at t=%v", tick)
		}
	}
	report := h.tick(4.2, "TRK2")
	if !report.SessionClosed {
		t.Fatal("expected handoff to close the first session")
	}
	if !report.Committed || report.CommittedInvoice != "502" {
		t.Fatalf("expected commit of 502, got %+v", report)
	}
	if !report.SessionOpened || report.RecordingInvoice != "502" {
		t.Fatalf("expected new session for 502, got %+v", report)
	}

	// First session's evidence was linked during the handoff.
	successes := h.log.rows(scanlog.StatusSuccess)
	if len(successes) != 2 {
		t.Fatalf("expected 2 SUCCESS rows, got %d", len(successes))
	}
	if successes[0].Evidence != "NF501.avi" {
		t.Fatalf("first commit not linked: %+v", successes[0])
	}
	if successes[1].Evidence != "" {
		t.Fatalf("second commit linked prematurely: %+v", successes[1])
	}
}

func TestConflictIsolation(t *testing.T) {
	h := newHarness(t, testRecords)

	// Conflict while idle: nothing commits, nothing opens.
	report := h.tick(0.0, "TRK1", "TRK2")
	if report.Committed || report.Recording {
		t.Fatalf("conflict must not mutate state, got %+v", report)
	}
	if h.ctrl.Ledger().Size() != 0 {
		t.Fatal("conflict mutated the ledger")
	}

	// Conflict while recording: the session continues unchanged, no matter
	// how long the conflict lasts.
	for _, tick := range []float64{1.0, 3.0} {
		h.tick(tick, "TRK1")
	}
	for tick := 3.2; tick <= 8.0; tick += 0.4 {
		report = h.tick(tick, "TRK1", "TRK2")
		if report.SessionClosed || !report.Recording {
			t.Fatalf("conflict at t=%.1f interrupted the session: %+v", tick, report)
		}
	}
	// The conflict neither refreshes the grace timer nor counts toward its
	// expiry: the first empty tick after the last valid sighting at t=3.0
	// closes the session.
	if report = h.tick(8.2); !report.SessionClosed {
		t.Fatal("expected grace expiry on the empty tick after the conflict cleared")
	}
}

func TestNotFoundLoggedOncePerFirstSighting(t *testing.T) {
	h := newHarness(t, testRecords)

	for _, tick := range []float64{0.0, 0.5, 1.0, 5.0} {
		h.tick(tick, "GHOST")
	}
	errRows := h.log.rows(scanlog.StatusError)
	if len(errRows) != 1 {
		t.Fatalf("expected exactly 1 ERROR row, got %d", len(errRows))
	}
	if errRows[0].Identifier != "GHOST" {
		t.Fatalf("unexpected ERROR row: %+v", errRows[0])
	}
}

func TestNotFoundNeverAffectsRecording(t *testing.T) {
	h := newHarness(t, testRecords)
	for _, tick := range []float64{0.0, 2.0} {
		h.tick(tick, "TRK1")
	}

	// An unknown label does not refresh the grace timer and does not stop the
	// session before the buffer runs out.
	for _, tick := range []float64{2.2, 3.0, 4.0, 4.9} {
		report := h.tick(tick, "GHOST")
		if report.SessionClosed {
			t.Fatalf("not-found sighting stopped session at t=%v", tick)
		}
	}
	if report := h.tick(5.1, "GHOST"); !report.SessionClosed {
		t.Fatal("grace window should expire during not-found sightings")
	}
}

func TestAppendFailureKeepsLedgerInsertion(t *testing.T) {
	h := newHarness(t, testRecords)
	h.log.appendErr = errors.New("disk full")

	h.tick(0.0, "TRK1")
	report := h.tick(2.0, "TRK1")
	if h.lastErr == nil {
		t.Fatal("expected surfaced append error")
	}
	if !report.Committed {
		t.Fatal("commit should stand despite append failure")
	}
	if !h.ctrl.Ledger().Contains("TRK1") {
		t.Fatal("ledger insertion must be kept on append failure")
	}
	// The session still opened: evidence is still worth capturing.
	if !report.SessionOpened {
		t.Fatalf("expected session despite append failure, got %+v", report)
	}
}

func TestSinkOpenFailureAbandonsSession(t *testing.T) {
	h := newHarness(t, testRecords)
	h.sinks.openErr = errors.New("codec unavailable")

	h.tick(0.0, "TRK1")
	report := h.tick(2.0, "TRK1")
	if !errors.Is(h.lastErr, ErrVideoSink) {
		t.Fatalf("expected ErrVideoSink, got %v", h.lastErr)
	}
	if !report.Committed {
		t.Fatal("commit itself must stand")
	}
	if report.SessionOpened || report.Recording {
		t.Fatalf("no session may open on sink failure, got %+v", report)
	}
	if _, ok := h.ctrl.Active(); ok {
		t.Fatal("controller must be idle after open failure")
	}
}

func TestSinkCloseFailureSkipsEvidenceLink(t *testing.T) {
	h := newHarness(t, testRecords)
	h.sinks.closeErr = errors.New("finalize failed")

	for _, tick := range []float64{0.0, 2.0} {
		h.tick(tick, "TRK1")
	}
	report := h.tick(6.0)
	if !report.SessionClosed {
		t.Fatal("expected session close attempt")
	}
	if !errors.Is(h.lastErr, ErrVideoSink) {
		t.Fatalf("expected ErrVideoSink, got %v", h.lastErr)
	}
	if report.EvidenceFile != "" {
		t.Fatal("no evidence may be linked for an unfinalized video")
	}
	if h.log.rows(scanlog.StatusSuccess)[0].Evidence != "" {
		t.Fatal("SUCCESS row must stay unlinked")
	}
}

func TestForceStopFlushesAndLinks(t *testing.T) {
	h := newHarness(t, testRecords)
	for _, tick := range []float64{0.0, 2.0} {
		h.tick(tick, "TRK1")
	}

	if err := h.ctrl.ForceStop(context.Background()); err != nil {
		t.Fatalf("ForceStop failed: %v", err)
	}
	if _, ok := h.ctrl.Active(); ok {
		t.Fatal("expected idle after force stop")
	}
	if h.log.rows(scanlog.StatusSuccess)[0].Evidence != "NF501.avi" {
		t.Fatal("force stop must link evidence")
	}
	if err := h.ctrl.ForceStop(context.Background()); err != nil {
		t.Fatalf("ForceStop while idle should be a no-op, got %v", err)
	}
}
