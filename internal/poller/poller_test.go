package poller

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/five82/studio/internal/studio"
)

type step struct {
	progress studio.Progress
	err      error
}

type scriptedFetcher struct {
	mu     sync.Mutex
	steps  []step
	calls  int
	before func(call int)
}

func (f *scriptedFetcher) FetchStatus(ctx context.Context, handle studio.Handle) (studio.Progress, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	var s step
	if len(f.steps) > 0 {
		s = f.steps[0]
		f.steps = f.steps[1:]
	} else {
		s = step{progress: studio.Progress{Status: studio.StatusPending}}
	}
	before := f.before
	f.mu.Unlock()
	if before != nil {
		before(call)
	}
	return s.progress, s.err
}

func (f *scriptedFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recorder struct {
	snapshots []studio.Progress
	artifacts []studio.Artifact
	errs      []error
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnSnapshot: func(p studio.Progress) { r.snapshots = append(r.snapshots, p) },
		OnTerminal: func(a studio.Artifact) { r.artifacts = append(r.artifacts, a) },
		OnError:    func(err error) { r.errs = append(r.errs, err) },
	}
}

func pending(pct int) step {
	return step{progress: studio.Progress{Status: studio.StatusPending, Percent: pct}}
}

func completed(url string) step {
	return step{progress: studio.Progress{Status: studio.StatusCompleted, Percent: 100, Result: &studio.Artifact{FinalVideoURL: url}}}
}

func transportErr() step {
	return step{err: &studio.NetworkError{Op: "fetch status", Err: errors.New("connection refused")}}
}

func newTestPoller(f studio.StatusFetcher, sched Scheduler, retries int) *Poller {
	return New(f, Options{Interval: DefaultInterval, MaxRetries: retries, Scheduler: sched})
}

func TestPoll_PendingThenCompleted(t *testing.T) {
	sched := NewManualScheduler()
	f := &scriptedFetcher{steps: []step{pending(10), pending(55), completed("https://x/y.mp4")}}
	rec := &recorder{}

	token := newTestPoller(f, sched, 0).Poll(context.Background(), studio.Handle{ID: "a1"}, rec.callbacks())

	sched.Advance(0)
	if f.Calls() != 1 || len(rec.snapshots) != 1 || rec.snapshots[0].Percent != 10 {
		t.Fatalf("after first tick calls=%d snapshots=%#v, want one 10%% snapshot", f.Calls(), rec.snapshots)
	}

	sched.Advance(DefaultInterval - time.Millisecond)
	if f.Calls() != 1 {
		t.Fatalf("calls = %d before interval elapsed, want 1", f.Calls())
	}

	sched.Advance(time.Millisecond)
	if len(rec.snapshots) != 2 || rec.snapshots[1].Percent != 55 {
		t.Fatalf("snapshots = %#v, want second at 55%%", rec.snapshots)
	}

	sched.Advance(DefaultInterval)
	if len(rec.artifacts) != 1 || rec.artifacts[0].FinalVideoURL != "https://x/y.mp4" {
		t.Fatalf("artifacts = %#v, want https://x/y.mp4", rec.artifacts)
	}
	if len(rec.errs) != 0 {
		t.Fatalf("errs = %v, want none", rec.errs)
	}
	if token.Active() {
		t.Fatalf("token still active after terminal result")
	}
	select {
	case <-token.Done():
	default:
		t.Fatalf("Done() not closed after terminal result")
	}

	sched.Advance(10 * DefaultInterval)
	if f.Calls() != 3 {
		t.Fatalf("calls = %d after completion, want 3", f.Calls())
	}
}

func TestPoll_ServiceErrorStops(t *testing.T) {
	sched := NewManualScheduler()
	f := &scriptedFetcher{steps: []step{{progress: studio.Progress{Status: studio.StatusError, ErrorDetail: "render failed"}}}}
	rec := &recorder{}

	newTestPoller(f, sched, 0).Poll(context.Background(), studio.Handle{ID: "a1"}, rec.callbacks())
	sched.Advance(0)

	if len(rec.errs) != 1 {
		t.Fatalf("errs = %v, want one", rec.errs)
	}
	var pollErr *PollError
	if !errors.As(rec.errs[0], &pollErr) {
		t.Fatalf("error = %T, want *PollError", rec.errs[0])
	}
	if pollErr.Error() != "render failed" || pollErr.Handle.ID != "a1" {
		t.Fatalf("PollError = %#v, want render failed for a1", pollErr)
	}
	if len(rec.artifacts) != 0 {
		t.Fatalf("artifacts = %#v, want none", rec.artifacts)
	}
	if sched.Pending() != 0 {
		t.Fatalf("pending timers = %d, want 0", sched.Pending())
	}
}

func TestPoll_RetriesTransientFailures(t *testing.T) {
	sched := NewManualScheduler()
	f := &scriptedFetcher{steps: []step{transportErr(), transportErr(), pending(20), transportErr(), completed("https://x/z.mp4")}}
	rec := &recorder{}

	newTestPoller(f, sched, 2).Poll(context.Background(), studio.Handle{ID: "a1"}, rec.callbacks())
	sched.Advance(0)
	sched.Advance(4 * DefaultInterval)

	if f.Calls() != 5 {
		t.Fatalf("calls = %d, want 5", f.Calls())
	}
	if len(rec.errs) != 0 {
		t.Fatalf("errs = %v, want failure counter reset by success", rec.errs)
	}
	if len(rec.artifacts) != 1 {
		t.Fatalf("artifacts = %#v, want one", rec.artifacts)
	}
}

func TestPoll_RetryBudgetExhausted(t *testing.T) {
	sched := NewManualScheduler()
	f := &scriptedFetcher{steps: []step{transportErr(), transportErr(), transportErr(), transportErr(), pending(99)}}
	rec := &recorder{}

	newTestPoller(f, sched, 3).Poll(context.Background(), studio.Handle{ID: "a1"}, rec.callbacks())
	sched.Advance(0)
	sched.Advance(10 * DefaultInterval)

	if f.Calls() != 4 {
		t.Fatalf("calls = %d, want 4 (one query plus three retries)", f.Calls())
	}
	if len(rec.errs) != 1 {
		t.Fatalf("errs = %v, want one", rec.errs)
	}
	var pollErr *PollError
	if !errors.As(rec.errs[0], &pollErr) || pollErr.Attempts != 4 {
		t.Fatalf("error = %#v, want PollError with 4 attempts", rec.errs[0])
	}
	var netErr *studio.NetworkError
	if !errors.As(rec.errs[0], &netErr) {
		t.Fatalf("error %v does not wrap the transport failure", rec.errs[0])
	}
	if len(rec.snapshots) != 0 {
		t.Fatalf("snapshots = %#v, want none", rec.snapshots)
	}
}

func TestPoll_NonTransientFailureSurfacesImmediately(t *testing.T) {
	sched := NewManualScheduler()
	f := &scriptedFetcher{steps: []step{{err: &studio.NetworkError{Op: "fetch status", StatusCode: http.StatusNotFound}}}}
	rec := &recorder{}

	newTestPoller(f, sched, 3).Poll(context.Background(), studio.Handle{ID: "gone"}, rec.callbacks())
	sched.Advance(0)
	sched.Advance(5 * DefaultInterval)

	if f.Calls() != 1 || len(rec.errs) != 1 {
		t.Fatalf("calls = %d errs = %v, want 1 call and 1 error", f.Calls(), rec.errs)
	}
}

func TestPoll_CompletedWithoutResultIsError(t *testing.T) {
	sched := NewManualScheduler()
	f := &scriptedFetcher{steps: []step{{progress: studio.Progress{Status: studio.StatusCompleted, Percent: 100}}}}
	rec := &recorder{}

	newTestPoller(f, sched, 0).Poll(context.Background(), studio.Handle{ID: "a1"}, rec.callbacks())
	sched.Advance(0)

	if len(rec.errs) != 1 || len(rec.artifacts) != 0 {
		t.Fatalf("errs = %v artifacts = %#v, want one error and no artifact", rec.errs, rec.artifacts)
	}
}

func TestToken_CancelBetweenQueries(t *testing.T) {
	sched := NewManualScheduler()
	f := &scriptedFetcher{steps: []step{pending(10), pending(20)}}
	rec := &recorder{}

	token := newTestPoller(f, sched, 0).Poll(context.Background(), studio.Handle{ID: "a1"}, rec.callbacks())
	sched.Advance(0)
	token.Cancel()
	token.Cancel()

	sched.Advance(10 * DefaultInterval)
	if f.Calls() != 1 {
		t.Fatalf("calls = %d after cancel, want 1", f.Calls())
	}
	if sched.Pending() != 0 {
		t.Fatalf("pending timers = %d, want 0", sched.Pending())
	}
	if !token.Cancelled() || token.Active() {
		t.Fatalf("token cancelled=%v active=%v, want cancelled and inactive", token.Cancelled(), token.Active())
	}
}

func TestToken_CancelDiscardsInFlightResponse(t *testing.T) {
	sched := NewManualScheduler()
	f := &scriptedFetcher{steps: []step{completed("https://x/late.mp4")}}
	rec := &recorder{}

	var token *Token
	f.before = func(int) { token.Cancel() }
	token = newTestPoller(f, sched, 0).Poll(context.Background(), studio.Handle{ID: "a1"}, rec.callbacks())
	sched.Advance(0)

	if f.Calls() != 1 {
		t.Fatalf("calls = %d, want 1", f.Calls())
	}
	if len(rec.snapshots)+len(rec.artifacts)+len(rec.errs) != 0 {
		t.Fatalf("callbacks fired after cancel: %#v", rec)
	}
}

func TestPoll_ParentContextCancelStopsPolling(t *testing.T) {
	sched := NewManualScheduler()
	f := &scriptedFetcher{}
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())

	token := newTestPoller(f, sched, 0).Poll(ctx, studio.Handle{ID: "a1"}, rec.callbacks())
	sched.Advance(0)
	cancel()
	sched.Advance(DefaultInterval)

	if f.Calls() != 1 {
		t.Fatalf("calls = %d, want 1", f.Calls())
	}
	if !token.Cancelled() {
		t.Fatalf("token not cancelled after parent context ended")
	}
	if len(rec.errs) != 0 {
		t.Fatalf("errs = %v, want none on shutdown", rec.errs)
	}
}

type blockingFetcher struct{}

func (blockingFetcher) FetchStatus(ctx context.Context, handle studio.Handle) (studio.Progress, error) {
	<-ctx.Done()
	return studio.Progress{}, ctx.Err()
}

func TestPoll_QueryTimeoutCountsAsFailure(t *testing.T) {
	sched := NewManualScheduler()
	rec := &recorder{}
	p := New(blockingFetcher{}, Options{QueryTimeout: 10 * time.Millisecond, MaxRetries: -1, Scheduler: sched})

	p.Poll(context.Background(), studio.Handle{ID: "slow"}, rec.callbacks())
	sched.Advance(0)

	if len(rec.errs) != 1 {
		t.Fatalf("errs = %v, want one timeout error", rec.errs)
	}
	if !errors.Is(rec.errs[0], context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", rec.errs[0])
	}
}

func TestPoll_WallClock(t *testing.T) {
	f := &scriptedFetcher{steps: []step{pending(50), completed("https://x/wall.mp4")}}
	done := make(chan studio.Artifact, 1)
	p := New(f, Options{Interval: 5 * time.Millisecond})

	token := p.Poll(context.Background(), studio.Handle{ID: "a1"}, Callbacks{
		OnTerminal: func(a studio.Artifact) { done <- a },
	})

	select {
	case a := <-done:
		if a.FinalVideoURL != "https://x/wall.mp4" {
			t.Fatalf("artifact = %#v, want wall.mp4", a)
		}
	case <-time.After(2 * time.Second):
		token.Cancel()
		t.Fatalf("timed out waiting for terminal callback")
	}
	<-token.Done()
}

func TestManualScheduler_OrdersTimers(t *testing.T) {
	sched := NewManualScheduler()
	var order []string
	sched.AfterFunc(20*time.Millisecond, func() { order = append(order, "b") })
	sched.AfterFunc(10*time.Millisecond, func() {
		order = append(order, "a")
		sched.AfterFunc(5*time.Millisecond, func() { order = append(order, "a2") })
	})
	stopped := sched.AfterFunc(15*time.Millisecond, func() { order = append(order, "never") })
	if !stopped.Stop() {
		t.Fatalf("Stop() = false, want true for pending timer")
	}

	sched.Advance(20 * time.Millisecond)
	want := []string{"a", "a2", "b"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if sched.Elapsed() != 20*time.Millisecond {
		t.Fatalf("Elapsed = %v, want 20ms", sched.Elapsed())
	}
}
