package workflow

import (
	"fmt"
	"slices"
	"strings"

	"github.com/five82/studio/internal/studio"
)

// State is the active workflow step.
type State int

const (
	StateTheme State = iota
	StateDuration
	StateConfirm
	StateGenerating
	StateResult
)

func (s State) String() string {
	switch s {
	case StateTheme:
		return "theme"
	case StateDuration:
		return "duration"
	case StateConfirm:
		return "confirm"
	case StateGenerating:
		return "generating"
	case StateResult:
		return "result"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is everything the presentation layer renders. It is a value:
// Reduce returns a new Session rather than mutating its input.
type Session struct {
	State     State
	Themes    []studio.Theme
	Selection Selection

	// Seq numbers generation attempts. Events from the generator and the
	// poller carry the Seq they were started for and are dropped when it
	// no longer matches.
	Seq         uint64
	Handle      studio.Handle
	Progress    studio.Progress
	HasProgress bool
	Artifact    *studio.Artifact

	Err        error // last workflow error, shown until dismissed
	CatalogErr error // theme catalog banner, non-fatal
}

// NewSession returns the initial session: the theme step with an empty
// catalog waiting for ThemesLoaded.
func NewSession() Session {
	return Session{State: StateTheme}
}

// Theme returns the selected theme when it is in the catalog.
func (s Session) Theme() (studio.Theme, bool) {
	return findTheme(s.Themes, s.Selection.ThemeID)
}

// ThemeName returns the display name of the selected theme, falling back
// to its id.
func (s Session) ThemeName() string {
	if theme, ok := s.Theme(); ok {
		return theme.Name
	}
	return s.Selection.ThemeID
}

// Submitting reports whether the generation request is still outstanding.
func (s Session) Submitting() bool {
	return s.State == StateGenerating && s.Handle.IsZero()
}

// Clone returns a copy that shares no mutable memory with s.
func (s Session) Clone() Session {
	out := s
	out.Themes = slices.Clone(s.Themes)
	if s.Artifact != nil {
		artifact := *s.Artifact
		out.Artifact = &artifact
	}
	if s.Progress.Result != nil {
		result := *s.Progress.Result
		out.Progress.Result = &result
	}
	return out
}

// Event is an input to Reduce.
type Event interface {
	event()
}

// User intents.
type (
	SelectTheme     struct{ ID string }
	SelectDuration  struct{ Seconds int }
	ConfirmGenerate struct{}
	Restart         struct{}
	DismissError    struct{}
)

// Catalog results.
type (
	ThemesLoaded  struct{ Themes []studio.Theme }
	CatalogFailed struct{ Err error }
)

// Generation results, tagged with the Seq they belong to.
type (
	GenerationStarted struct {
		Seq    uint64
		Handle studio.Handle
	}
	GenerationFailed struct {
		Seq uint64
		Err error
	}
	ProgressReported struct {
		Seq      uint64
		Progress studio.Progress
	}
	GenerationCompleted struct {
		Seq      uint64
		Artifact studio.Artifact
	}
	PollFailed struct {
		Seq uint64
		Err error
	}
)

func (SelectTheme) event()         {}
func (SelectDuration) event()      {}
func (ConfirmGenerate) event()     {}
func (Restart) event()             {}
func (DismissError) event()        {}
func (ThemesLoaded) event()        {}
func (CatalogFailed) event()       {}
func (GenerationStarted) event()   {}
func (GenerationFailed) event()    {}
func (ProgressReported) event()    {}
func (GenerationCompleted) event() {}
func (PollFailed) event()          {}

// Effect is work Reduce asks the controller to perform.
type Effect interface {
	effect()
}

// RequestGeneration submits the selection to the generation service.
type RequestGeneration struct {
	Seq       uint64
	Selection Selection
}

// StartPolling begins polling handle for attempt Seq.
type StartPolling struct {
	Seq    uint64
	Handle studio.Handle
}

// CancelPolling stops any active poller.
type CancelPolling struct{}

func (RequestGeneration) effect() {}
func (StartPolling) effect()      {}
func (CancelPolling) effect()     {}

// Reduce applies ev to s. Rejected intents return a non-nil error together
// with a session whose step and selection are unchanged and whose Err holds
// the rejection, so it still reaches the user.
func Reduce(s Session, ev Event) (Session, []Effect, error) {
	switch ev := ev.(type) {
	case SelectTheme:
		return selectTheme(s, ev.ID)
	case SelectDuration:
		return selectDuration(s, ev.Seconds)
	case ConfirmGenerate:
		return confirm(s)
	case Restart:
		return restart(s), []Effect{CancelPolling{}}, nil
	case DismissError:
		s.Err = nil
		s.CatalogErr = nil
		return s, nil, nil
	case ThemesLoaded:
		return themesLoaded(s, ev.Themes), nil, nil
	case CatalogFailed:
		s.CatalogErr = &CatalogError{Err: ev.Err}
		return s, nil, nil
	case GenerationStarted:
		if !s.awaitingHandle(ev.Seq) {
			return s, nil, nil
		}
		s.Handle = ev.Handle
		return s, []Effect{StartPolling{Seq: ev.Seq, Handle: ev.Handle}}, nil
	case GenerationFailed:
		if !s.awaitingHandle(ev.Seq) {
			return s, nil, nil
		}
		s.State = StateConfirm
		s.Err = ev.Err
		s.clearGeneration()
		return s, nil, nil
	case ProgressReported:
		if !s.polling(ev.Seq) {
			return s, nil, nil
		}
		s.Progress = ev.Progress
		s.HasProgress = true
		return s, nil, nil
	case GenerationCompleted:
		if !s.polling(ev.Seq) {
			return s, nil, nil
		}
		artifact := ev.Artifact
		s.State = StateResult
		s.Artifact = &artifact
		s.Handle = studio.Handle{}
		return s, []Effect{CancelPolling{}}, nil
	case PollFailed:
		if !s.polling(ev.Seq) {
			return s, nil, nil
		}
		s.State = StateConfirm
		s.Err = ev.Err
		s.clearGeneration()
		return s, []Effect{CancelPolling{}}, nil
	default:
		return s, nil, fmt.Errorf("unknown event %T", ev)
	}
}

func selectTheme(s Session, id string) (Session, []Effect, error) {
	if s.State == StateGenerating {
		return reject(s, ErrGenerationActive)
	}
	if err := ValidateTheme(id, s.Themes); err != nil {
		return reject(s, err)
	}
	s.Selection.ThemeID = strings.TrimSpace(id)
	s.leaveResult()
	if s.Selection.Duration != 0 {
		s.State = StateConfirm
	} else {
		s.State = StateDuration
	}
	s.Err = nil
	return s, nil, nil
}

func selectDuration(s Session, seconds int) (Session, []Effect, error) {
	if s.State == StateGenerating {
		return reject(s, ErrGenerationActive)
	}
	if err := ValidateDuration(seconds); err != nil {
		return reject(s, err)
	}
	s.Selection.Duration = seconds
	s.leaveResult()
	if s.Selection.ThemeID != "" {
		s.State = StateConfirm
	}
	s.Err = nil
	return s, nil, nil
}

func confirm(s Session) (Session, []Effect, error) {
	if s.State != StateConfirm {
		return reject(s, fmt.Errorf("%w: cannot generate from the %s step", ErrInvalidTransition, s.State))
	}
	if err := s.Selection.Validate(s.Themes); err != nil {
		return reject(s, err)
	}
	s.Seq++
	s.State = StateGenerating
	s.Err = nil
	s.clearGeneration()
	return s, []Effect{CancelPolling{}, RequestGeneration{Seq: s.Seq, Selection: s.Selection}}, nil
}

func restart(s Session) Session {
	return Session{
		State:  StateTheme,
		Themes: s.Themes,
		Seq:    s.Seq,
	}
}

// themesLoaded replaces the catalog. A selected theme that disappeared is
// dropped and the flow returns to the theme step.
func themesLoaded(s Session, themes []studio.Theme) Session {
	s.Themes = slices.Clone(themes)
	s.CatalogErr = nil
	if s.Selection.ThemeID == "" || s.State == StateGenerating || s.State == StateResult {
		return s
	}
	if _, ok := findTheme(s.Themes, s.Selection.ThemeID); !ok {
		s.Selection.ThemeID = ""
		s.State = StateTheme
	}
	return s
}

func reject(s Session, err error) (Session, []Effect, error) {
	s.Err = err
	return s, nil, err
}

func (s Session) awaitingHandle(seq uint64) bool {
	return s.State == StateGenerating && s.Seq == seq && s.Handle.IsZero()
}

func (s Session) polling(seq uint64) bool {
	return s.State == StateGenerating && s.Seq == seq && !s.Handle.IsZero()
}

func (s *Session) clearGeneration() {
	s.Handle = studio.Handle{}
	s.Progress = studio.Progress{}
	s.HasProgress = false
	s.Artifact = nil
}

func (s *Session) leaveResult() {
	if s.State == StateResult {
		s.clearGeneration()
	}
}
