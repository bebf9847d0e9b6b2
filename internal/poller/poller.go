package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/studio/internal/studio"
)

// Defaults applied by New for zero Options fields.
const (
	DefaultInterval     = 1500 * time.Millisecond
	DefaultQueryTimeout = 30 * time.Second
	DefaultMaxRetries   = 3
)

// Callbacks receive the results of one poll. Exactly one of OnTerminal or
// OnError fires, unless the poll is cancelled first, in which case neither
// does.
type Callbacks struct {
	OnSnapshot func(studio.Progress)
	OnTerminal func(studio.Artifact)
	OnError    func(error)
}

// Options tune a Poller. Zero values select the defaults; a negative
// MaxRetries disables retries.
type Options struct {
	Interval     time.Duration
	QueryTimeout time.Duration
	MaxRetries   int
	Scheduler    Scheduler
	Logger       *slog.Logger
}

// PollError reports a poll that ended without an artifact.
type PollError struct {
	Handle   studio.Handle
	Detail   string // service-reported failure
	Attempts int    // consecutive failed queries, zero for service-reported failures
	Err      error
}

func (e *PollError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Attempts > 1 {
		return fmt.Sprintf("status check failed after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("status check failed: %v", e.Err)
}

func (e *PollError) Unwrap() error { return e.Err }

// Poller repeatedly queries generation status until a terminal state.
type Poller struct {
	fetcher studio.StatusFetcher
	opts    Options
}

// New builds a Poller around fetcher.
func New(fetcher studio.StatusFetcher, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}
	switch {
	case opts.MaxRetries == 0:
		opts.MaxRetries = DefaultMaxRetries
	case opts.MaxRetries < 0:
		opts.MaxRetries = 0
	}
	if opts.Scheduler == nil {
		opts.Scheduler = WallClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Poller{fetcher: fetcher, opts: opts}
}

// Interval returns the effective delay between queries.
func (p *Poller) Interval() time.Duration {
	return p.opts.Interval
}

// Poll starts polling handle. The first query is scheduled immediately;
// later ones follow the interval after the previous query resolved, so at
// most one query is ever in flight. The returned token cancels the poll.
func (p *Poller) Poll(ctx context.Context, handle studio.Handle, cb Callbacks) *Token {
	if ctx == nil {
		ctx = context.Background()
	}
	r := &run{
		p:      p,
		ctx:    ctx,
		handle: handle,
		cb:     cb,
		token:  newToken(),
		logger: p.opts.Logger.With("animation_id", handle.ID),
	}
	r.schedule(0)
	return r.token
}

type run struct {
	p        *Poller
	ctx      context.Context
	handle   studio.Handle
	cb       Callbacks
	token    *Token
	logger   *slog.Logger
	failures int
	queries  int
}

func (r *run) schedule(d time.Duration) {
	r.token.mu.Lock()
	defer r.token.mu.Unlock()
	if r.token.cancelled || r.token.closed {
		return
	}
	r.token.timer = r.p.opts.Scheduler.AfterFunc(d, r.tick)
}

func (r *run) tick() {
	if r.ctx.Err() != nil {
		r.token.Cancel()
		return
	}
	qctx, cancel := context.WithTimeout(r.ctx, r.p.opts.QueryTimeout)
	if !r.token.beginQuery(cancel) {
		cancel()
		return
	}
	r.queries++
	progress, err := r.p.fetcher.FetchStatus(qctx, r.handle)
	cancel()

	if !r.token.endQuery() {
		r.logger.Debug("discarding status response after cancel", "query", r.queries)
		return
	}
	if err != nil {
		r.handleFailure(err)
		return
	}
	r.failures = 0
	if r.cb.OnSnapshot != nil {
		r.cb.OnSnapshot(progress)
	}

	switch progress.Status {
	case studio.StatusCompleted:
		if progress.Result == nil || progress.Result.FinalVideoURL == "" {
			r.fail(&PollError{Handle: r.handle, Detail: "generation completed without a video url"})
			return
		}
		if !r.token.finish() {
			return
		}
		r.logger.Info("generation completed", "queries", r.queries)
		if r.cb.OnTerminal != nil {
			r.cb.OnTerminal(*progress.Result)
		}
	case studio.StatusError:
		r.fail(&PollError{Handle: r.handle, Detail: progress.ErrorDetail})
	default:
		r.schedule(r.p.opts.Interval)
	}
}

func (r *run) handleFailure(err error) {
	if r.ctx.Err() != nil {
		r.token.Cancel()
		return
	}
	r.failures++
	retryable := studio.IsTransient(err) || errors.Is(err, context.DeadlineExceeded)
	if !retryable || r.failures > r.p.opts.MaxRetries {
		r.fail(&PollError{Handle: r.handle, Attempts: r.failures, Err: err})
		return
	}
	r.logger.Warn("status query failed, retrying",
		"attempt", r.failures,
		"max_retries", r.p.opts.MaxRetries,
		"error", err)
	r.schedule(r.p.opts.Interval)
}

func (r *run) fail(err *PollError) {
	if !r.token.finish() {
		return
	}
	r.logger.Warn("generation poll failed", "error", err)
	if r.cb.OnError != nil {
		r.cb.OnError(err)
	}
}

// Token controls one poll's lifetime.
type Token struct {
	mu        sync.Mutex
	cancelled bool
	closed    bool
	timer     Timer
	stopQuery context.CancelFunc
	done      chan struct{}
}

func newToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel stops the poll. Pending timers are stopped, an in-flight query's
// context is cancelled and any response it still produces is discarded.
// Cancel is idempotent and safe on a nil token.
func (t *Token) Cancel() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return
	}
	t.cancelled = true
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.stopQuery != nil {
		t.stopQuery()
	}
	t.closeLocked()
}

// Cancelled reports whether Cancel was called.
func (t *Token) Cancelled() bool {
	if t == nil {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Active reports whether the poll is still running.
func (t *Token) Active() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// Done is closed once the poll reaches a terminal result or is cancelled.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

func (t *Token) beginQuery(cancel context.CancelFunc) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled || t.closed {
		return false
	}
	t.stopQuery = cancel
	return true
}

// endQuery reports whether the response may be delivered.
func (t *Token) endQuery() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopQuery = nil
	return !t.cancelled
}

func (t *Token) finish() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled || t.closed {
		return false
	}
	t.closeLocked()
	return true
}

func (t *Token) closeLocked() {
	if !t.closed {
		t.closed = true
		close(t.done)
	}
}
