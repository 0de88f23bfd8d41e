// Package session owns the single in-memory State of a running application.
// It loads the persisted blob once, materializes recurring templates before
// anything reads the state, and serializes every mutation through Dispatch.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"saldo/internal/analysis"
	"saldo/internal/core"
	"saldo/internal/services"
	"saldo/internal/store"
)

// DefaultLoadTimeout bounds the initial load.
const DefaultLoadTimeout = 5 * time.Second

var (
	ErrNotReady    = errors.New("session not ready")
	ErrAlreadyOpen = errors.New("session already open")
)

type Status int

const (
	Loading Status = iota
	Ready
)

func (s Status) String() string {
	if s == Ready {
		return "ready"
	}
	return "loading"
}

type (
	// Gateway is the persistence the session reads from when it opens.
	Gateway interface {
		Load(ctx context.Context) (core.Snapshot, error)
		Onboarded(ctx context.Context) (bool, error)
	}

	// Saver performs persistence writes in the background, in the order they
	// were requested. None of its methods may block.
	Saver interface {
		Enqueue(snap core.Snapshot)
		EnqueueClear()
		EnqueueOnboarded()
	}

	Options struct {
		LoadTimeout    time.Duration
		TrailingMonths int
		Now            func() time.Time
		NewID          services.IDFunc
		Logger         *slog.Logger
	}
)

type Session struct {
	mu        sync.RWMutex
	status    Status
	state     store.State
	gateway   Gateway
	saver     Saver
	reducer   *store.Reducer
	processor *services.RecurringProcessor

	now            func() time.Time
	loadTimeout    time.Duration
	trailingMonths int
	logger         *slog.Logger
}

func New(gw Gateway, saver Saver, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = services.NewID
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	if opts.TrailingMonths <= 0 {
		opts.TrailingMonths = analysis.DefaultTrailingMonths
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		status:         Loading,
		state:          store.New(core.MonthOf(opts.Now())),
		gateway:        gw,
		saver:          saver,
		reducer:        store.NewReducer(opts.Now, opts.NewID),
		processor:      services.NewRecurringProcessor(opts.NewID, opts.Logger),
		now:            opts.Now,
		loadTimeout:    opts.LoadTimeout,
		trailingMonths: opts.TrailingMonths,
		logger:         opts.Logger,
	}
}

// Open loads the persisted state, materializes recurring templates and marks
// the session ready. A failed load is returned but the session still becomes
// ready with an empty state.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Ready {
		return ErrAlreadyOpen
	}

	loadCtx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	snap, loadErr := s.gateway.Load(loadCtx)
	if loadErr != nil {
		s.logger.ErrorContext(ctx, "Failed to load state, starting empty", "error", loadErr)
		snap = core.Snapshot{Categories: store.DefaultCategories()}
	}
	onboarded, err := s.gateway.Onboarded(loadCtx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read onboarding flag", "error", err)
	}

	now := s.now()
	snap, created := s.processor.Process(ctx, snap, now)

	s.state = store.FromSnapshot(snap, core.MonthOf(now))
	s.state.Onboarded = onboarded
	s.status = Ready

	if created > 0 {
		s.saver.Enqueue(s.state.Snapshot())
	}
	s.logger.InfoContext(ctx, "Session ready",
		"transactions", len(s.state.Transactions),
		"templates", len(s.state.RecurringTemplates),
		"materialized", created)
	return loadErr
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// State returns the current state. It is a value and safe to keep.
func (s *Session) State() store.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Onboarded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Onboarded
}

// Dispatch applies cmd. Every write is handed to the saver without waiting;
// persistence failures are logged there and never undo the in-memory change.
func (s *Session) Dispatch(ctx context.Context, cmd store.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Ready {
		return ErrNotReady
	}

	next, err := s.reducer.Apply(s.state, cmd)
	if err != nil {
		s.logger.DebugContext(ctx, "Command rejected", "command", cmd.Name(), "error", err)
		return err
	}
	s.state = next

	switch cmd.(type) {
	case store.SetOnboarded:
		s.saver.EnqueueOnboarded()
	case store.ClearAll:
		s.saver.EnqueueClear()
	}

	if store.Persistent(cmd) {
		s.saver.Enqueue(next.Snapshot())
	}
	return nil
}

// Materialize fills months that elapsed since the session opened.
func (s *Session) Materialize(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Ready {
		return 0, ErrNotReady
	}

	snap, created := s.processor.Process(ctx, s.state.Snapshot(), s.now())
	if created == 0 {
		return 0, nil
	}
	next := store.FromSnapshot(snap, s.state.Filter)
	next.Onboarded = s.state.Onboarded
	s.state = next
	s.saver.Enqueue(next.Snapshot())
	return created, nil
}

// Analysis computes the dashboard figures for the current filter month.
func (s *Session) Analysis() analysis.Result {
	st := s.State()
	return analysis.ForState(st, s.now(), s.trailingMonths)
}

func (s *Session) Suggestions() []analysis.Suggestion {
	return analysis.Suggestions(s.Analysis().Totals)
}
