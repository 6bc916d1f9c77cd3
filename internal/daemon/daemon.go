package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"packwatch/internal/classify"
	"packwatch/internal/config"
	"packwatch/internal/ipc"
	"packwatch/internal/logging"
	"packwatch/internal/manifest"
	"packwatch/internal/scanlog"
	"packwatch/internal/session"
	"packwatch/internal/stability"
	"packwatch/internal/video"
)

// Daemon runs the scan station: camera loop, classification, recording
// orchestration, and the IPC surface. It enforces single-instance execution
// through a lock file next to the scan log.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *scanlog.Store
	manifest *manifest.Manifest

	classifier *classify.Classifier
	gate       *stability.Gate
	ctrl       *session.Controller
	recorder   *video.Recorder
	monitor    *cameraMonitor

	runID    string
	lockPath string
	lock     *flock.Flock

	// mu guards the controller, the gate, and cancel. The loop mutates
	// the first two; the IPC goroutines read the snapshot and request
	// shutdown.
	mu sync.Mutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// New constructs a daemon with initialized collaborators. The manifest is
// loaded from the configured path; a missing file leaves the station running
// with an empty manifest so every scan reports not-found. The committed
// ledger is seeded from today's SUCCESS rows so a restart does not re-record
// packages already confirmed.
func New(ctx context.Context, cfg *config.Config, store *scanlog.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and scan log store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	mf, err := manifest.Load(cfg.Paths.ManifestFile)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("manifest not found, starting with empty manifest",
				logging.String("path", cfg.Paths.ManifestFile),
				logging.String(logging.FieldEventType, "manifest_missing"),
				logging.String(logging.FieldImpact, "every scan will report not-found"),
				logging.String(logging.FieldErrorHint, "export the order sheet to the configured manifest path and restart"))
			mf = manifest.Empty()
		} else {
			return nil, fmt.Errorf("load manifest: %w", err)
		}
	}

	seed, err := store.TodaysSuccesses(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("seed ledger: %w", err)
	}
	ledger := session.SeedLedger(seed)

	recorder := video.NewRecorder(cfg.Paths.VideoDir, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)
	ctrl := session.NewController(store, recorder, ledger, logger,
		time.Duration(cfg.Scanner.PostScanBufferSeconds*float64(time.Second)))

	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      store,
		manifest:   mf,
		classifier: classify.NewClassifier(mf, ledger),
		gate:       stability.NewGate(time.Duration(cfg.Scanner.StabilitySeconds * float64(time.Second))),
		ctrl:       ctrl,
		recorder:   recorder,
		runID:      uuid.NewString(),
		lockPath:   filepath.Join(cfg.Paths.LogDir, "packwatchd.lock"),
	}
	d.lock = flock.New(d.lockPath)
	d.monitor = newCameraMonitor(cfg, logger)

	if len(seed) > 0 {
		d.logger.Info("ledger seeded from today's log",
			logging.Int("entries", len(seed)),
			logging.String(logging.FieldEventType, "ledger_seeded"))
	}
	return d, nil
}

// RunID identifies this daemon run in log output.
func (d *Daemon) RunID() string { return d.runID }

// Start acquires the instance lock, opens the camera, and launches the frame
// loop. It returns once the loop is running.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another packwatch daemon instance is already running")
	}

	cam, err := openCamera(d.cfg)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("open camera: %w", err)
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	d.running.Store(true)

	if d.monitor != nil {
		_ = d.monitor.Start(d.ctx)
	}
	go d.loop(d.ctx, cam)

	d.logger.Info("packwatch daemon started",
		logging.String(logging.FieldRunID, d.runID),
		logging.String("lock", d.lockPath),
		logging.Int("manifest_rows", d.manifest.Len()),
		logging.String(logging.FieldEventType, "daemon_started"))
	return nil
}

// Stop stops the frame loop, finalizes any open recording, and releases the
// instance lock. Safe to call more than once.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()
	if d.done != nil {
		<-d.done
		d.done = nil
	}
	if d.monitor != nil {
		d.monitor.Stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("packwatch daemon stopped",
		logging.String(logging.FieldRunID, d.runID),
		logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Shutdown implements ipc.Station. The IPC stop request cancels the loop
// asynchronously; the run command's wait on Done unblocks and performs the
// orderly Stop.
func (d *Daemon) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
}

// Done exposes loop termination so the run command can wait on it.
func (d *Daemon) Done() <-chan struct{} {
	return d.done
}

// Close stops the daemon. The store is owned by the caller.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Snapshot implements ipc.Station.
func (d *Daemon) Snapshot(context.Context) ipc.Snapshot {
	d.mu.Lock()
	invoice, _ := d.ctrl.Active()
	sessionID := d.ctrl.SessionID()
	ledgerSize := d.ctrl.Ledger().Size()
	d.mu.Unlock()

	return ipc.Snapshot{
		Running:          d.running.Load(),
		RecordingInvoice: invoice,
		SessionID:        sessionID,
		LedgerSize:       ledgerSize,
		ManifestRows:     d.manifest.Len(),
		ScanLogPath:      d.store.Path(),
		LockPath:         d.lockPath,
		PID:              os.Getpid(),
	}
}

// LedgerIDs implements ipc.Station.
func (d *Daemon) LedgerIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctrl.Ledger().IDs()
}
