package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler arms one in-process timer per persisted task. Several schedulers
// may share a Store: each due task is claimed by exactly one of them before
// it runs. A claimed task is forgotten once its run returns with the start
// context still live; a run cut short by shutdown puts it back.
type Scheduler struct {
	store Store
	log   *slog.Logger
	clock func() time.Time

	mu      sync.Mutex
	pending map[string]*entry
	run     RunFunc
	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type entry struct {
	task  Task
	timer *time.Timer
}

// Handle cancels the task it was returned for.
type Handle struct {
	s      *Scheduler
	callID string
}

func (h Handle) CallID() string { return h.callID }

func (h Handle) Cancel(ctx context.Context) (bool, error) {
	return h.s.Cancel(ctx, h.callID)
}

func New(store Store, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		store:   store,
		log:     log,
		clock:   time.Now,
		pending: make(map[string]*entry),
	}
}

// WithClock overrides the time source used to compute timer delays.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.clock = now
	return s
}

// Schedule persists t and, once started, arms its timer.
// Scheduling a call that is already pending replaces it.
func (s *Scheduler) Schedule(ctx context.Context, t Task) (Handle, error) {
	if !t.valid() {
		return Handle{}, ErrInvalidTask
	}
	if err := s.store.Put(ctx, t); err != nil {
		return Handle{}, err
	}
	s.mu.Lock()
	if s.runCtx != nil {
		s.arm(t)
	}
	s.mu.Unlock()
	return Handle{s: s, callID: t.CallID}, nil
}

// Cancel disarms and forgets the task for callID. It reports whether a task was pending.
func (s *Scheduler) Cancel(ctx context.Context, callID string) (bool, error) {
	s.mu.Lock()
	e, armed := s.pending[callID]
	if armed {
		e.timer.Stop()
		delete(s.pending, callID)
	}
	s.mu.Unlock()

	stored, err := s.store.Delete(ctx, callID)
	if err != nil {
		return armed, err
	}
	return armed || stored, nil
}

// Start restores persisted tasks and runs each one when due. Overdue tasks fire immediately.
func (s *Scheduler) Start(ctx context.Context, run RunFunc) error {
	s.mu.Lock()
	if s.runCtx != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.run = run
	s.runCtx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	tasks, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		if _, ok := s.pending[t.CallID]; ok {
			continue
		}
		s.arm(t)
	}
	if len(tasks) > 0 {
		s.log.Info("restored scheduled classifications", "count", len(tasks))
	}
	return nil
}

// Stop disarms every timer and waits for runs in flight.
// Persisted tasks are kept for the next Start.
func (s *Scheduler) Stop() {
	s.Shutdown(context.Background())
}

// Shutdown is Stop with a deadline: runs still in flight when ctx ends see
// their context cancelled, and their tasks are put back for the next Start.
func (s *Scheduler) Shutdown(ctx context.Context) {
	s.mu.Lock()
	for id, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, id)
	}
	cancel := s.cancel
	s.runCtx, s.run, s.cancel = nil, nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		cancel()
		<-done
	}
}

// Pending lists persisted tasks, including ones not yet armed.
func (s *Scheduler) Pending(ctx context.Context) ([]Task, error) {
	return s.store.List(ctx)
}

// arm must be called with mu held.
func (s *Scheduler) arm(t Task) {
	if old, ok := s.pending[t.CallID]; ok {
		old.timer.Stop()
	}
	delay := t.DueAt.Sub(s.clock())
	if delay < 0 {
		delay = 0
	}
	e := &entry{task: t}
	s.pending[t.CallID] = e
	e.timer = time.AfterFunc(delay, func() { s.fire(e) })
}

func (s *Scheduler) fire(e *entry) {
	s.mu.Lock()
	if s.pending[e.task.CallID] != e || s.runCtx == nil {
		s.mu.Unlock()
		return
	}
	delete(s.pending, e.task.CallID)
	ctx, run := s.runCtx, s.run
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	log := s.log.With("call_id", e.task.CallID)
	claimed, err := s.store.Claim(ctx, e.task.CallID)
	if err != nil {
		log.Warn("scheduled task claim failed", "err", err)
		return
	}
	if !claimed {
		log.Debug("scheduled task claimed elsewhere")
		return
	}

	run(ctx, e.task)
	if ctx.Err() != nil {
		// interrupted by shutdown; the next Start runs it again
		if err := s.store.Put(context.WithoutCancel(ctx), e.task); err != nil {
			log.Warn("scheduled task requeue failed", "err", err)
		}
		return
	}
	if err := s.store.Done(ctx, e.task.CallID); err != nil {
		log.Warn("scheduled task cleanup failed", "err", err)
	}
}
