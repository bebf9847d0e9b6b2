package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/studio/internal/poller"
	"github.com/five82/studio/internal/studio"
)

// ProgressPoller starts status polling for one generation.
type ProgressPoller interface {
	Poll(ctx context.Context, handle studio.Handle, cb poller.Callbacks) *poller.Token
}

// Ensure *poller.Poller satisfies ProgressPoller at compile time.
var _ ProgressPoller = (*poller.Poller)(nil)

const defaultRequestTimeout = 2 * time.Minute

// Options configure a Controller.
type Options struct {
	Generator studio.Generator
	Catalog   studio.CatalogFetcher
	Poller    ProgressPoller

	// Go runs blocking work (network calls). Defaults to a new goroutine;
	// tests pass a synchronous runner.
	Go func(func())

	// OnChange receives a copy of the session after every processed event,
	// in processing order.
	OnChange func(Session)

	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Controller drives the workflow. Events are processed one at a time to
// completion; events raised while another is being processed (by effects,
// poller callbacks or other goroutines) are queued behind it.
type Controller struct {
	ctx  context.Context
	opts Options

	mu       sync.Mutex
	session  Session
	queue    []Event
	draining bool

	// token is only touched by the goroutine currently draining the queue.
	token *poller.Token
}

// NewController returns a controller in the initial theme step.
func NewController(ctx context.Context, opts Options) *Controller {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Go == nil {
		opts.Go = func(f func()) { go f() }
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		ctx:     ctx,
		opts:    opts,
		session: NewSession(),
	}
}

// Session returns a copy of the current session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// Dispatch processes ev. When no other event is in progress it is handled
// on the caller's goroutine and its rejection error, if any, is returned.
// Otherwise it is queued and Dispatch returns nil; rejections still reach
// the user through Session.Err.
func (c *Controller) Dispatch(ev Event) error {
	c.mu.Lock()
	c.queue = append(c.queue, ev)
	if c.draining {
		c.mu.Unlock()
		return nil
	}
	c.draining = true

	var first error
	processed := false
	for len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]

		prev := c.session.State
		session, effects, err := Reduce(c.session, next)
		c.session = session
		snapshot := session.Clone()
		if !processed {
			first, processed = err, true
		}
		c.mu.Unlock()

		c.log(prev, next, snapshot, err)
		c.apply(effects)
		if c.opts.OnChange != nil {
			c.opts.OnChange(snapshot)
		}

		c.mu.Lock()
	}
	c.draining = false
	c.mu.Unlock()
	return first
}

// SelectTheme records the theme choice.
func (c *Controller) SelectTheme(id string) error {
	return c.Dispatch(SelectTheme{ID: id})
}

// SelectDuration records the duration choice in seconds.
func (c *Controller) SelectDuration(seconds int) error {
	return c.Dispatch(SelectDuration{Seconds: seconds})
}

// ConfirmGenerate submits the current selection.
func (c *Controller) ConfirmGenerate() error {
	return c.Dispatch(ConfirmGenerate{})
}

// Restart cancels any active poll and returns to the theme step.
func (c *Controller) Restart() {
	_ = c.Dispatch(Restart{})
}

// DismissError clears the visible error and catalog banner.
func (c *Controller) DismissError() {
	_ = c.Dispatch(DismissError{})
}

// LoadThemes fetches the catalog in the background and feeds the result
// back as ThemesLoaded or CatalogFailed.
func (c *Controller) LoadThemes() {
	if c.opts.Catalog == nil {
		return
	}
	c.opts.Go(func() {
		themes, err := c.opts.Catalog.FetchThemes(c.ctx)
		if err != nil {
			c.opts.Logger.Warn("theme catalog fetch failed", "error", err)
			_ = c.Dispatch(CatalogFailed{Err: err})
			return
		}
		c.opts.Logger.Info("theme catalog loaded", "themes", len(themes))
		_ = c.Dispatch(ThemesLoaded{Themes: themes})
	})
}

// Close stops any active poll.
func (c *Controller) Close() {
	_ = c.Dispatch(Restart{})
}

func (c *Controller) apply(effects []Effect) {
	for _, eff := range effects {
		switch eff := eff.(type) {
		case CancelPolling:
			if c.token != nil {
				c.token.Cancel()
				c.token = nil
			}
		case RequestGeneration:
			c.requestGeneration(eff)
		case StartPolling:
			c.startPolling(eff)
		}
	}
}

func (c *Controller) requestGeneration(eff RequestGeneration) {
	if c.opts.Generator == nil {
		_ = c.Dispatch(GenerationFailed{Seq: eff.Seq, Err: &studio.RequestError{Message: "no generation service configured"}})
		return
	}
	c.opts.Go(func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.opts.RequestTimeout)
		defer cancel()
		handle, err := c.opts.Generator.Generate(ctx, eff.Selection.ThemeID, eff.Selection.Duration)
		if err != nil {
			_ = c.Dispatch(GenerationFailed{Seq: eff.Seq, Err: err})
			return
		}
		_ = c.Dispatch(GenerationStarted{Seq: eff.Seq, Handle: handle})
	})
}

func (c *Controller) startPolling(eff StartPolling) {
	if c.token != nil {
		c.token.Cancel()
		c.token = nil
	}
	if c.opts.Poller == nil {
		_ = c.Dispatch(PollFailed{Seq: eff.Seq, Err: &poller.PollError{Handle: eff.Handle, Detail: "no status poller configured"}})
		return
	}
	seq := eff.Seq
	c.token = c.opts.Poller.Poll(c.ctx, eff.Handle, poller.Callbacks{
		OnSnapshot: func(p studio.Progress) {
			_ = c.Dispatch(ProgressReported{Seq: seq, Progress: p})
		},
		OnTerminal: func(a studio.Artifact) {
			_ = c.Dispatch(GenerationCompleted{Seq: seq, Artifact: a})
		},
		OnError: func(err error) {
			_ = c.Dispatch(PollFailed{Seq: seq, Err: err})
		},
	})
}

func (c *Controller) log(prev State, ev Event, next Session, err error) {
	logger := c.opts.Logger
	if err != nil {
		logger.Info("intent rejected", "event", eventName(ev), "state", prev.String(), "error", err)
		return
	}
	if prev == next.State {
		if _, ok := ev.(ProgressReported); ok {
			logger.Debug("generation progress",
				"animation_id", next.Handle.ID,
				"percent", next.Progress.Percent,
				"step", next.Progress.StepLabel)
		}
		return
	}
	attrs := []any{"event", eventName(ev), "from", prev.String(), "to", next.State.String()}
	if next.Err != nil {
		attrs = append(attrs, "error", next.Err)
	}
	if !next.Handle.IsZero() {
		attrs = append(attrs, "animation_id", next.Handle.ID)
	}
	logger.Info("workflow transition", attrs...)
}

func eventName(ev Event) string {
	switch ev.(type) {
	case SelectTheme:
		return "select_theme"
	case SelectDuration:
		return "select_duration"
	case ConfirmGenerate:
		return "confirm_generate"
	case Restart:
		return "restart"
	case DismissError:
		return "dismiss_error"
	case ThemesLoaded:
		return "themes_loaded"
	case CatalogFailed:
		return "catalog_failed"
	case GenerationStarted:
		return "generation_started"
	case GenerationFailed:
		return "generation_failed"
	case ProgressReported:
		return "progress_reported"
	case GenerationCompleted:
		return "generation_completed"
	case PollFailed:
		return "poll_failed"
	default:
		return "unknown"
	}
}
