// Package worker runs background persistence for a session.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/log"
)

// DefaultSaveTimeout bounds a single save.
const DefaultSaveTimeout = 10 * time.Second

type (
	Store interface {
		Save(ctx context.Context, snap core.Snapshot) error
		Clear(ctx context.Context) error
		SetOnboarded(ctx context.Context) error
	}

	Notifier interface {
		PublishStateSaved(ctx context.Context, msg *amqp.StateSavedMessage) error
	}
)

// job is the pending work. A clear always runs before the snapshot it
// carries, since any snapshot merged into it is newer than the clear.
type job struct {
	clear     bool
	onboarded bool
	snap      *core.Snapshot
}

// SaveWorker persists snapshots off the caller's path. Only the most recent
// pending snapshot is kept: a newer Enqueue replaces an unsaved older one.
type SaveWorker struct {
	store       Store
	notifier    Notifier
	logger      *slog.Logger
	saveTimeout time.Duration

	pending chan job
	enqMu   sync.Mutex

	// Lifecycle management
	mu       sync.Mutex
	running  bool
	stopping bool
	version  int64
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSaveWorker creates a worker. notifier may be nil.
func NewSaveWorker(store Store, notifier Notifier, logger *slog.Logger) *SaveWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaveWorker{
		store:       store,
		notifier:    notifier,
		logger:      logger,
		saveTimeout: DefaultSaveTimeout,
		pending:     make(chan job, 1),
	}
}

// Enqueue schedules snap for saving and returns immediately.
func (w *SaveWorker) Enqueue(snap core.Snapshot) {
	w.merge(func(j *job) {
		if j.snap != nil {
			w.logger.Debug("Replacing pending save")
		}
		j.snap = &snap
	})
}

// EnqueueClear schedules removal of the persisted state. A pending snapshot
// is older than the clear and is dropped.
func (w *SaveWorker) EnqueueClear() {
	w.merge(func(j *job) {
		j.clear = true
		j.snap = nil
	})
}

// EnqueueOnboarded schedules persisting the onboarding flag.
func (w *SaveWorker) EnqueueOnboarded() {
	w.merge(func(j *job) { j.onboarded = true })
}

func (w *SaveWorker) merge(update func(*job)) {
	w.enqMu.Lock()
	defer w.enqMu.Unlock()
	var j job
	select {
	case j = <-w.pending:
	default:
	}
	update(&j)
	w.pending <- j
}

// Start begins the save loop. Returns an error if already running.
func (w *SaveWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("save worker is already running")
	}
	w.running = true
	w.stopping = false
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	w.stopCh, w.doneCh = stopCh, doneCh
	w.mu.Unlock()

	go w.runLoop(ctx, stopCh, doneCh)

	w.logger.InfoContext(ctx, "Save worker started", "notify", w.notifier != nil)
	return nil
}

// Stop saves whatever is still pending and waits for the loop to exit. It
// is safe to call again, or concurrently, after a timed out Stop.
func (w *SaveWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	if !w.stopping {
		w.stopping = true
		close(w.stopCh)
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	select {
	case <-doneCh:
		w.logger.InfoContext(ctx, "Save worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Save worker stop timed out")
		return ctx.Err()
	}
}

func (w *SaveWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Version is the number of successful saves.
func (w *SaveWorker) Version() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.version
}

func (w *SaveWorker) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.stopping = false
		w.mu.Unlock()
		close(doneCh)
	}()

	for {
		select {
		case j := <-w.pending:
			w.run(ctx, j)
		case <-stopCh:
			w.flush()
			return
		case <-ctx.Done():
			w.flush()
			return
		}
	}
}

// flush runs the pending job, if any, on a fresh context since the loop's
// context may already be cancelled.
func (w *SaveWorker) flush() {
	select {
	case j := <-w.pending:
		w.run(context.Background(), j)
	default:
	}
}

func (w *SaveWorker) run(ctx context.Context, j job) {
	if j.clear {
		w.apply(ctx, log.OpClear, "Failed to clear persisted state", w.store.Clear)
	}
	if j.onboarded {
		w.apply(ctx, log.OpSave, "Failed to persist onboarding flag", w.store.SetOnboarded)
	}
	if j.snap != nil {
		w.save(ctx, *j.snap)
	}
}

func (w *SaveWorker) apply(ctx context.Context, op, msg string, fn func(context.Context) error) {
	opCtx, cancel := context.WithTimeout(ctx, w.saveTimeout)
	defer cancel()
	if err := fn(opCtx); err != nil {
		w.logger.ErrorContext(ctx, msg, log.NewFields().WithOperation(op).WithError(err).ToSlice()...)
	}
}

func (w *SaveWorker) save(ctx context.Context, snap core.Snapshot) {
	start := time.Now()
	saveCtx, cancel := context.WithTimeout(ctx, w.saveTimeout)
	defer cancel()

	if err := w.store.Save(saveCtx, snap); err != nil {
		fields := log.NewFields().WithOperation(log.OpSave).WithError(err)
		w.logger.ErrorContext(ctx, "Failed to save state, keeping in-memory copy", fields.ToSlice()...)
		return
	}

	w.mu.Lock()
	w.version++
	version := w.version
	w.mu.Unlock()

	w.logger.DebugContext(ctx, "State saved",
		log.NewFields().WithVersion(version).WithDurationMs(time.Since(start).Milliseconds()).ToSlice()...)

	if w.notifier == nil {
		return
	}
	if err := w.notifier.PublishStateSaved(saveCtx, amqp.NewStateSavedMessage(version, snap)); err != nil {
		fields := log.NewFields().WithOperation(log.OpPublish).WithVersion(version).WithError(err)
		w.logger.WarnContext(ctx, "Failed to publish state saved notification", fields.ToSlice()...)
	}
}
