package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/core"
)

type fakeStore struct {
	mu       sync.Mutex
	fail     int
	clearErr error
	saves    []core.Snapshot
	ops      []string
	done     chan struct{}
}

func newFakeStore() *fakeStore { return &fakeStore{done: make(chan struct{}, 16)} }

func (s *fakeStore) Save(_ context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		s.done <- struct{}{}
	}()
	if s.fail > 0 {
		s.fail--
		return errors.New("disk full")
	}
	s.saves = append(s.saves, snap)
	s.ops = append(s.ops, "save")
	return nil
}

func (s *fakeStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, "clear")
	return s.clearErr
}

func (s *fakeStore) SetOnboarded(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, "onboarded")
	return nil
}

func (s *fakeStore) opLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

func (s *fakeStore) saved() []core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Snapshot(nil), s.saves...)
}

func (s *fakeStore) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for save")
	}
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []*amqp.StateSavedMessage
	err  error
}

func (n *fakeNotifier) PublishStateSaved(_ context.Context, msg *amqp.StateSavedMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

func snapWith(n int) core.Snapshot {
	return core.Snapshot{Transactions: make([]core.Transaction, n)}
}

func TestSaveWorker_LatestWins(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	w := NewSaveWorker(store, notifier, nil)

	w.Enqueue(snapWith(1))
	w.Enqueue(snapWith(2))
	w.Enqueue(snapWith(3))

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	store.wait(t)
	if err := w.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	saves := store.saved()
	if len(saves) != 1 {
		t.Fatalf("saves = %d, want 1", len(saves))
	}
	if len(saves[0].Transactions) != 3 {
		t.Fatalf("saved snapshot has %d txs, want the latest (3)", len(saves[0].Transactions))
	}
	if w.Version() != 1 || notifier.count() != 1 {
		t.Errorf("version = %d, notifications = %d; want 1, 1", w.Version(), notifier.count())
	}
	if notifier.msgs[0].Transactions != 3 {
		t.Errorf("notification counts = %+v", notifier.msgs[0])
	}
}

func TestSaveWorker_FailureIsLoggedAndLoopContinues(t *testing.T) {
	store := newFakeStore()
	store.fail = 1
	notifier := &fakeNotifier{}
	w := NewSaveWorker(store, notifier, nil)

	ctx := context.Background()
	_ = w.Start(ctx)

	w.Enqueue(snapWith(1))
	store.wait(t)
	if w.Version() != 0 || notifier.count() != 0 {
		t.Fatalf("failed save counted: version=%d notifications=%d", w.Version(), notifier.count())
	}

	w.Enqueue(snapWith(2))
	store.wait(t)
	_ = w.Stop(ctx)
	if w.Version() != 1 {
		t.Errorf("version = %d after recovery, want 1", w.Version())
	}
}

func TestSaveWorker_NotifyFailureDoesNotFailSave(t *testing.T) {
	store := newFakeStore()
	w := NewSaveWorker(store, &fakeNotifier{err: errors.New("circuit breaker is open")}, nil)

	ctx := context.Background()
	_ = w.Start(ctx)
	w.Enqueue(snapWith(1))
	store.wait(t)
	_ = w.Stop(ctx)

	if len(store.saved()) != 1 || w.Version() != 1 {
		t.Errorf("saves = %d, version = %d; want 1, 1", len(store.saved()), w.Version())
	}
}

func TestSaveWorker_StopFlushesPending(t *testing.T) {
	store := newFakeStore()
	w := NewSaveWorker(store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Enqueue(snapWith(5))
	_ = w.Start(ctx)

	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if saves := store.saved(); len(saves) != 1 || len(saves[0].Transactions) != 5 {
		t.Fatalf("saves = %+v, want pending snapshot flushed", saves)
	}
}

func TestSaveWorker_Lifecycle(t *testing.T) {
	w := NewSaveWorker(newFakeStore(), nil, nil)
	ctx := context.Background()

	if w.IsRunning() {
		t.Fatal("IsRunning() = true before Start")
	}
	if err := w.Stop(ctx); err != nil {
		t.Errorf("Stop() before Start error = %v", err)
	}
	_ = w.Start(ctx)
	if err := w.Start(ctx); err == nil {
		t.Error("second Start() error = nil")
	}
	_ = w.Stop(ctx)
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

type blockingStore struct {
	release chan struct{}
	started chan struct{}
}

func (s *blockingStore) Save(context.Context, core.Snapshot) error {
	s.started <- struct{}{}
	<-s.release
	return nil
}

func (s *blockingStore) Clear(context.Context) error        { return nil }
func (s *blockingStore) SetOnboarded(context.Context) error { return nil }

func TestSaveWorker_StopAfterTimeout(t *testing.T) {
	store := &blockingStore{release: make(chan struct{}), started: make(chan struct{}, 1)}
	w := NewSaveWorker(store, nil, nil)
	_ = w.Start(context.Background())
	w.Enqueue(snapWith(1))
	<-store.started

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	if err := w.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Stop() error = %v, want DeadlineExceeded", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- w.Stop(context.Background())
		}()
	}
	close(store.release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	}
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	if w.Version() != 1 {
		t.Errorf("Version() = %d, want 1", w.Version())
	}
}

func TestSaveWorker_MergesPendingWrites(t *testing.T) {
	tests := []struct {
		name    string
		enqueue func(w *SaveWorker)
		want    []string
		saved   int
	}{
		{
			name: "clear drops older snapshot",
			enqueue: func(w *SaveWorker) {
				w.Enqueue(snapWith(4))
				w.EnqueueClear()
			},
			want: []string{"clear"},
		},
		{
			name: "snapshot after clear is saved after it",
			enqueue: func(w *SaveWorker) {
				w.EnqueueClear()
				w.Enqueue(snapWith(0))
			},
			want:  []string{"clear", "save"},
			saved: 0,
		},
		{
			name: "onboarding flag survives a newer snapshot",
			enqueue: func(w *SaveWorker) {
				w.EnqueueOnboarded()
				w.Enqueue(snapWith(2))
			},
			want:  []string{"onboarded", "save"},
			saved: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			w := NewSaveWorker(store, nil, nil)
			tt.enqueue(w)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_ = w.Start(ctx)
			if err := w.Stop(context.Background()); err != nil {
				t.Fatalf("Stop() error = %v", err)
			}

			got := store.opLog()
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("ops = %v, want %v", got, tt.want)
			}
			if saves := store.saved(); len(saves) > 0 && len(saves[0].Transactions) != tt.saved {
				t.Errorf("saved snapshot has %d txs, want %d", len(saves[0].Transactions), tt.saved)
			}
		})
	}
}

func TestSaveWorker_ClearFailureDoesNotStopSave(t *testing.T) {
	store := newFakeStore()
	store.clearErr = errors.New("locked")
	w := NewSaveWorker(store, nil, nil)
	w.EnqueueClear()
	w.Enqueue(snapWith(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = w.Start(ctx)
	_ = w.Stop(context.Background())

	if len(store.saved()) != 1 || w.Version() != 1 {
		t.Errorf("saves = %d, version = %d; want 1, 1", len(store.saved()), w.Version())
	}
}
