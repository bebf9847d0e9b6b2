package ui

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/studio/internal/logtail"
	"github.com/five82/studio/internal/prefs"
	"github.com/five82/studio/internal/state"
	"github.com/five82/studio/internal/studio"
	"github.com/five82/studio/internal/workflow"
)

// Workflow is the controller surface the UI drives.
type Workflow interface {
	Session() workflow.Session
	SelectTheme(id string) error
	SelectDuration(seconds int) error
	ConfirmGenerate() error
	Restart()
	DismissError()
	LoadThemes()
}

var _ Workflow = (*workflow.Controller)(nil)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Workflow  Workflow
	Notifier  *Notifier
	Store     *state.Store
	APIURL    string
	LogFile   string
	SessionID string
	Palette   string
	PrefsPath string
	Tick      time.Duration // health and log refresh cadence
}

const (
	defaultTick    = time.Second
	logOverlaySize = 200
)

// picker is a selection list opened on top of the current step.
type picker int

const (
	pickerNone picker = iota
	pickerTheme
	pickerDuration
)

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	wf        Workflow
	notifier  *Notifier
	store     *state.Store
	apiURL    string
	logFile   string
	sessionID string
	prefsPath string
	tick      time.Duration

	palette Palette
	styles  Styles
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	bar     progress.Model

	session workflow.Session
	health  state.Snapshot

	width  int
	height int

	themeCursor    int
	durationCursor int
	override       picker // picker opened explicitly with 1 or 2

	showHelp   bool
	showLogs   bool
	logEntries []logtail.Entry
	logErr     error
}

// New creates the Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:       ctx,
		wf:        opts.Workflow,
		notifier:  opts.Notifier,
		store:     opts.Store,
		apiURL:    opts.APIURL,
		logFile:   opts.LogFile,
		sessionID: opts.SessionID,
		prefsPath: prefsPath,
		tick:      tick,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.setPalette(GetPalette(opts.Palette))
	if m.wf != nil {
		m.applySession(m.wf.Session())
	}
	if m.store != nil {
		m.health = m.store.Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.tick),
		m.spinner.Tick,
	}
	if m.wf != nil {
		cmds = append(cmds, waitForChange(m.ctx, m.notifier, m.wf))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = min(max(msg.Width-12, 10), 60)
		return m, nil

	case sessionMsg:
		m.applySession(workflow.Session(msg))
		return m, waitForChange(m.ctx, m.notifier, m.wf)

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(m.tick)}
		if m.store != nil {
			cmds = append(cmds, fetchHealthCmd(m.store))
		}
		if m.showLogs {
			cmds = append(cmds, loadLogsCmd(m.logFile, m.sessionID))
		}
		return m, tea.Batch(cmds...)

	case healthMsg:
		m.health = state.Snapshot(msg)
		return m, nil

	case logsMsg:
		m.logEntries = msg.entries
		m.logErr = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help.
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Logs):
		m.showLogs = !m.showLogs
		if m.showLogs {
			return m, loadLogsCmd(m.logFile, m.sessionID)
		}
		return m, nil
	case key.Matches(msg, m.keys.Palette):
		m.setPalette(GetPalette(NextPalette(m.palette.Name)))
		if err := prefs.Save(m.prefsPath, prefs.Prefs{Palette: m.palette.Name}); err != nil {
			slog.Warn("save preferences failed", "error", err)
		}
		return m, nil
	}

	if m.showLogs {
		if key.Matches(msg, m.keys.Back) {
			m.showLogs = false
		}
		return m, nil
	}
	if m.wf == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Dismiss):
		m.wf.DismissError()
	case key.Matches(msg, m.keys.Reload):
		m.wf.LoadThemes()
	case key.Matches(msg, m.keys.Restart):
		m.override = pickerNone
		m.wf.Restart()
	case key.Matches(msg, m.keys.Back):
		m.override = pickerNone
	case key.Matches(msg, m.keys.Theme):
		if m.session.State != workflow.StateGenerating {
			m.override = pickerTheme
		}
	case key.Matches(msg, m.keys.Length):
		if m.session.State != workflow.StateGenerating {
			m.override = pickerDuration
		}
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Select):
		m.choose()
	default:
		return m, nil
	}

	m.applySession(m.wf.Session())
	return m, nil
}

// activePicker returns the list the user is choosing from, if any.
func (m Model) activePicker() picker {
	if m.override != pickerNone {
		return m.override
	}
	switch m.session.State {
	case workflow.StateTheme:
		return pickerTheme
	case workflow.StateDuration:
		return pickerDuration
	default:
		return pickerNone
	}
}

func (m *Model) moveCursor(delta int) {
	switch m.activePicker() {
	case pickerTheme:
		m.themeCursor = clampIndex(m.themeCursor+delta, len(m.session.Themes))
	case pickerDuration:
		m.durationCursor = clampIndex(m.durationCursor+delta, len(workflow.Durations))
	}
}

// choose acts on enter. Rejections are not handled here: the controller
// records them in the session, which the view renders.
func (m *Model) choose() {
	switch m.activePicker() {
	case pickerTheme:
		if len(m.session.Themes) == 0 {
			return
		}
		if err := m.wf.SelectTheme(m.session.Themes[m.themeCursor].ID); err == nil {
			m.override = pickerNone
		}
	case pickerDuration:
		if err := m.wf.SelectDuration(workflow.Durations[m.durationCursor]); err == nil {
			m.override = pickerNone
		}
	default:
		switch m.session.State {
		case workflow.StateConfirm:
			_ = m.wf.ConfirmGenerate()
		case workflow.StateResult:
			m.wf.Restart()
		}
	}
}

// applySession stores s. Cursors follow the selection only when the step or
// the selection changed, so moving through an open picker is not undone.
func (m *Model) applySession(s workflow.Session) {
	prev := m.session
	m.session = s
	if s.State != prev.State && (s.State == workflow.StateGenerating || s.State == workflow.StateTheme) {
		m.override = pickerNone
	}
	if s.State != prev.State || s.Selection != prev.Selection {
		if idx := slices.IndexFunc(s.Themes, func(t studio.Theme) bool { return t.ID == s.Selection.ThemeID }); idx >= 0 {
			m.themeCursor = idx
		}
		if idx := slices.Index(workflow.Durations, s.Selection.Duration); idx >= 0 {
			m.durationCursor = idx
		}
	}
	m.themeCursor = clampIndex(m.themeCursor, len(s.Themes))
}

func (m *Model) setPalette(p Palette) {
	m.palette = p
	m.styles = p.Styles()
	// Restyle in place: a new spinner would ignore ticks already in flight.
	m.spinner.Style = m.styles.Accent
	width := m.bar.Width
	m.bar = progress.New(progress.WithGradient(p.Accent, p.Success))
	if width > 0 {
		m.bar.Width = width
	}
}

func clampIndex(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Messages

type tickMsg time.Time

type healthMsg state.Snapshot

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchHealthCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return healthMsg(store.Snapshot())
	}
}

func loadLogsCmd(path, sessionID string) tea.Cmd {
	return func() tea.Msg {
		entries, err := logtail.ReadEntries(path, logOverlaySize, sessionID)
		return logsMsg{entries: entries, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
