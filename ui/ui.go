// Package ui provides the terminal front-end for speakr.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speakr/internal/api"
	"github.com/dgnsrekt/speakr/internal/controller"
	"github.com/dgnsrekt/speakr/internal/history"
	"github.com/dgnsrekt/speakr/internal/voice"
	te "github.com/muesli/termenv"
)

const (
	ellipsis    = "…"
	prosodyStep = 5
	minWidth    = 40
)

// NewProgram returns a new Tea program driving ctrl.
func NewProgram(cfg Config, ctrl *controller.Controller) *tea.Program {
	log.Debug(
		"Starting speakr",
		"history_watch",
		cfg.HistoryPath,
		"health_interval",
		cfg.HealthInterval,
	)

	lipgloss.SetHasDarkBackground(te.HasDarkBackground())

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, ctrl), opts...)
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type (
	initDoneMsg     struct{ err error }
	generatedMsg    struct{ err error }
	testedMsg       struct{ err error }
	playbackDoneMsg struct{ err error }
	onlineMsg       bool
	healthTickMsg   struct{}

	historyWatchMsg   struct{ ch <-chan struct{} }
	historyChangedMsg struct{}
)

// focus is the control receiving keys.
type focus int

const (
	focusText focus = iota
	focusLanguage
	focusGender
	focusVoice
	focusRate
	focusVolume
	focusPitch
	focusHistory
	focusCount
)

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	ctrl   *controller.Controller
	ctx    context.Context
	cancel context.CancelFunc
	width  int
	height int
	now    func() time.Time
}

type model struct {
	common   *commonModel
	focus    focus
	fatalErr error

	ready      bool
	generating bool
	testing    bool
	playing    bool
	online     bool

	text     textarea.Model
	language picker
	gender   picker
	voice    picker
	rate     stepper
	volume   stepper
	pitch    stepper
	history  historyModel
	spinner  spinner.Model
	help     help.Model

	status       controller.Status
	stopPlayback context.CancelFunc
	watch        <-chan struct{}
}

func newModel(cfg Config, ctrl *controller.Controller) model {
	ctx, cancel := context.WithCancel(context.Background())
	common := &commonModel{
		cfg:    cfg,
		ctrl:   ctrl,
		ctx:    ctx,
		cancel: cancel,
		width:  80,
		height: 24,
		now:    time.Now,
	}

	ta := textarea.New()
	ta.Placeholder = "Enter the text you want to convert to speech..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(max(cfg.TextHeight, 2))
	ta.Focus()

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(fuchsia)),
	)

	m := model{
		common:   common,
		text:     ta,
		language: picker{title: "Language", placeholder: "Loading..."},
		gender:   picker{title: "Gender"},
		voice:    picker{title: "Voice", placeholder: "Loading..."},
		rate: stepper{
			title: "Rate", lo: api.MinRate, hi: api.MaxRate, step: prosodyStep,
			format: func(v int) string { return api.Prosody{Rate: v}.RateString() },
		},
		volume: stepper{
			title: "Volume", lo: api.MinVolume, hi: api.MaxVolume, step: prosodyStep,
			format: func(v int) string { return api.Prosody{Volume: v}.VolumeString() },
		},
		pitch: stepper{
			title: "Pitch", lo: api.MinPitch, hi: api.MaxPitch, step: prosodyStep,
			format: func(v int) string { return api.Prosody{Pitch: v}.PitchString() },
		},
		spinner: sp,
		help:    help.New(),
		online:  true,
	}
	m.gender.set(genderOptions(), "")
	m.setSize(common.width, common.height)
	return m
}

func genderOptions() []option {
	opts := make([]option, 0, len(voice.Genders))
	for _, g := range voice.Genders {
		label := g
		if g == "" {
			label = "All"
		}
		opts = append(opts, option{value: g, label: label})
	}
	return opts
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		m.spinner.Tick,
		initCmd(m.common.ctx, m.common.ctrl),
		checkOnlineCmd(m.common.ctx, m.common.ctrl),
	}
	if path := m.common.cfg.HistoryPath; path != "" {
		cmds = append(cmds, watchHistoryCmd(m.common.ctx, path))
	}
	return tea.Batch(cmds...)
}

func (m model) busy() bool {
	return !m.ready || m.generating || m.testing
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, m.quit()
		}
	}

	var cmds []tea.Cmd
	ctrl := m.common.ctrl

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)

	case initDoneMsg:
		m.ready = true
		m.syncForm()
		m.status = ctrl.Status()

	case generatedMsg:
		m.generating = false
		m.status = ctrl.Status()
		if msg.err == nil {
			m.history.set(ctrl.History())
			m.history.cursor = 0
		}

	case testedMsg:
		m.testing = false
		m.status = ctrl.Status()

	case playbackDoneMsg:
		m.playing = false
		m.stopPlayback = nil
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.status = controller.Status{Message: msg.err.Error(), Level: controller.LevelError}
		}

	case onlineMsg:
		m.online = bool(msg)
		return m, healthTick(m.common.cfg.HealthInterval)

	case healthTickMsg:
		return m, checkOnlineCmd(m.common.ctx, ctrl)

	case historyWatchMsg:
		m.watch = msg.ch
		return m, waitHistoryCmd(m.watch)

	case historyChangedMsg:
		if err := ctrl.LoadHistory(); err != nil {
			log.Warn("failed to reload history", "error", err)
		}
		m.history.set(ctrl.History())
		return m, waitHistoryCmd(m.watch)

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.fatalErr = msg
		return m, nil
	}

	if m.focus == focusText {
		var cmd tea.Cmd
		m.text, cmd = m.text.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.common.ctrl

	if !key.Matches(msg, keys.Wipe) {
		m.history.confirmClear = false
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, m.quit()

	case msg.String() == "ctrl+z":
		return m, tea.Suspend

	case key.Matches(msg, keys.Next):
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil

	case key.Matches(msg, keys.Prev):
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil

	case key.Matches(msg, keys.Generate):
		return m.generate()

	case key.Matches(msg, keys.Test):
		return m.testVoice()

	case key.Matches(msg, keys.Play):
		return m.play()

	case key.Matches(msg, keys.Stop) && m.playing:
		if m.stopPlayback != nil {
			m.stopPlayback()
		}
		return m, nil

	case key.Matches(msg, keys.Download):
		m.download()
		return m, nil

	case key.Matches(msg, keys.Clear):
		ctrl.ClearForm()
		m.text.Reset()
		m.syncProsody()
		m.status = ctrl.Status()
		return m, nil

	case key.Matches(msg, keys.Paste) && m.focus == focusText:
		s, err := clipboard.ReadAll()
		if err != nil {
			log.Debug("clipboard read failed", "error", err)
			m.status = controller.Status{Message: "Clipboard unavailable", Level: controller.LevelError}
			return m, nil
		}
		m.text.InsertString(s)
		ctrl.SetText(m.text.Value())
		return m, nil
	}

	switch m.focus {
	case focusText:
		before := m.text.Value()
		var cmd tea.Cmd
		m.text, cmd = m.text.Update(msg)
		if v := m.text.Value(); v != before {
			ctrl.SetText(v)
		}
		return m, cmd

	case focusHistory:
		return m.handleHistoryKey(msg)
	}

	if msg.String() == "q" {
		return m, m.quit()
	}

	delta := 0
	switch {
	case key.Matches(msg, keys.Left):
		delta = -1
	case key.Matches(msg, keys.Right):
		delta = 1
	default:
		return m, nil
	}

	switch m.focus {
	case focusLanguage:
		if m.language.move(delta) {
			ctrl.SelectLanguage(m.language.value())
			m.syncVoices()
		}
	case focusGender:
		if m.gender.move(delta) {
			ctrl.SelectGender(m.gender.value())
			m.syncVoices()
		}
	case focusVoice:
		if m.voice.move(delta) {
			if err := ctrl.SelectVoice(m.voice.value()); err != nil {
				log.Warn("voice selection rejected", "voice", m.voice.value(), "error", err)
				m.syncVoices()
			}
		}
	case focusRate:
		if m.rate.add(delta * m.rate.step) {
			ctrl.SetProsody(m.prosody())
		}
	case focusVolume:
		if m.volume.add(delta * m.volume.step) {
			ctrl.SetProsody(m.prosody())
		}
	case focusPitch:
		if m.pitch.add(delta * m.pitch.step) {
			ctrl.SetProsody(m.prosody())
		}
	}
	return m, nil
}

func (m model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.common.ctrl

	switch {
	case key.Matches(msg, keys.Up):
		m.history.move(-1)

	case key.Matches(msg, keys.Down):
		m.history.move(1)

	case key.Matches(msg, keys.Load):
		e, ok := m.history.selected()
		if !ok {
			return m, nil
		}
		if _, err := ctrl.LoadEntry(e.ID); err != nil {
			m.status = controller.Status{Message: err.Error(), Level: controller.LevelError}
			return m, nil
		}
		m.text.SetValue(ctrl.Text())
		m.syncForm()
		m.status = ctrl.Status()
		m.setFocus(focusText)

	case key.Matches(msg, keys.Delete):
		e, ok := m.history.selected()
		if !ok {
			return m, nil
		}
		if err := ctrl.DeleteEntry(e.ID); err != nil {
			m.status = controller.Status{Message: err.Error(), Level: controller.LevelError}
		} else if !ctrl.PersistentHistory() {
			m.status = ctrl.Status()
		}
		m.history.set(ctrl.History())

	case key.Matches(msg, keys.Wipe):
		if len(m.history.entries) == 0 {
			return m, nil
		}
		if !m.history.confirmClear {
			m.history.confirmClear = true
			m.status = controller.Status{Message: "Press C again to clear all history", Level: controller.LevelWarning}
			return m, nil
		}
		m.history.confirmClear = false
		if err := ctrl.ClearHistory(); err != nil {
			m.status = ctrl.Status()
		} else {
			m.status = controller.Status{Message: "History cleared", Level: controller.LevelInfo}
		}
		m.history.set(ctrl.History())

	case msg.String() == "q":
		return m, m.quit()
	}
	return m, nil
}

func (m model) generate() (tea.Model, tea.Cmd) {
	if m.generating || !m.ready {
		return m, nil
	}
	m.generating = true
	m.status = controller.Status{}
	return m, tea.Batch(m.spinner.Tick, generateCmd(m.common.ctx, m.common.ctrl))
}

func (m model) testVoice() (tea.Model, tea.Cmd) {
	if m.testing || !m.ready {
		return m, nil
	}
	if m.common.ctrl.Voice() == "" {
		m.status = controller.Status{Message: controller.MsgNoTestVoice, Level: controller.LevelError}
		return m, nil
	}
	m.testing = true
	return m, tea.Batch(m.spinner.Tick, testVoiceCmd(m.common.ctx, m.common.ctrl))
}

func (m model) play() (tea.Model, tea.Cmd) {
	if m.playing {
		return m, nil
	}
	if m.common.ctrl.Generated() == nil {
		m.status = controller.Status{Message: controller.MsgNoGenerated, Level: controller.LevelError}
		return m, nil
	}
	ctx, cancel := context.WithCancel(m.common.ctx)
	m.playing = true
	m.stopPlayback = cancel
	return m, playCmd(ctx, m.common.ctrl)
}

func (m *model) download() {
	path, err := m.common.ctrl.Download(m.common.cfg.DownloadDir)
	if err != nil {
		m.status = controller.Status{Message: err.Error(), Level: controller.LevelError}
		return
	}
	m.status = controller.Status{Message: "Saved to " + path, Level: controller.LevelSuccess}
}

func (m *model) quit() tea.Cmd {
	if m.stopPlayback != nil {
		m.stopPlayback()
	}
	m.common.cancel()
	return tea.Quit
}

func (m *model) setFocus(f focus) {
	m.focus = f
	if f == focusText {
		m.text.Focus()
	} else {
		m.text.Blur()
	}
}

func (m *model) setSize(w, h int) {
	m.common.width = max(w, minWidth)
	m.common.height = h
	m.text.SetWidth(paneContentWidth(m.common.width))
	m.help.Width = m.common.width
}

// paneContentWidth is the room left inside a pane for a screen width.
// Panes are rendered at width-4; lipgloss counts the horizontal padding
// inside that, and the border adds two columns outside it.
func paneContentWidth(width int) int {
	return width - 6
}

func (m model) prosody() api.Prosody {
	return api.Prosody{Rate: m.rate.value, Volume: m.volume.value, Pitch: m.pitch.value}
}

// syncForm copies every form value from the controller.
func (m *model) syncForm() {
	ctrl := m.common.ctrl

	langs := ctrl.Languages()
	opts := make([]option, 0, len(langs)+1)
	opts = append(opts, option{value: "", label: "Select a language"})
	for _, l := range langs {
		opts = append(opts, option{value: l.Locale, label: l.Name})
	}
	m.language.set(opts, ctrl.Locale())
	m.gender.set(genderOptions(), ctrl.Gender())
	m.syncVoices()
	m.syncProsody()
	m.history.set(ctrl.History())
}

func (m *model) syncVoices() {
	ctrl := m.common.ctrl
	sel := ctrl.Selection()

	opts := make([]option, 0, len(sel.Voices))
	for _, v := range sel.Voices {
		opts = append(opts, option{value: v.Name, label: v.Option()})
	}
	m.voice.placeholder = sel.Label
	m.voice.set(opts, ctrl.Voice())
}

func (m *model) syncProsody() {
	p := m.common.ctrl.Prosody()
	m.rate.value = p.Rate
	m.volume.value = p.Volume
	m.pitch.value = p.Pitch
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}

	width := m.common.width
	inner := width - 4
	content := paneContentWidth(width)

	var b strings.Builder

	// Header
	header := logoStyle.Render("speakr")
	indicator := onlineStyle.Render("● Online")
	if !m.online {
		indicator = offlineStyle.Render("● Offline")
	}
	gap := max(width-lipgloss.Width(header)-lipgloss.Width(indicator), 1)
	b.WriteString(header + strings.Repeat(" ", gap) + indicator + "\n")

	// Compose
	n := utf8.RuneCountInString(m.text.Value())
	counter := counterStyle(controller.CharCountLevel(n)).
		Render(fmt.Sprintf("%d / %d", n, api.MaxTextLength))
	compose := lipgloss.JoinVertical(lipgloss.Right, m.text.View(), counter)
	b.WriteString(m.pane(focusText, compose, inner) + "\n")

	// Voice and prosody
	form := lipgloss.JoinVertical(lipgloss.Left,
		m.language.view(m.focus == focusLanguage, content-9),
		m.gender.view(m.focus == focusGender, content-9),
		m.voice.view(m.focus == focusVoice, content-9),
		m.rate.view(m.focus == focusRate),
		m.volume.view(m.focus == focusVolume),
		m.pitch.view(m.focus == focusPitch),
	)
	formFocused := m.focus >= focusLanguage && m.focus <= focusPitch
	if formFocused {
		b.WriteString(focusedPaneStyle.Width(inner).Render(form) + "\n")
	} else {
		b.WriteString(paneStyle.Width(inner).Render(form) + "\n")
	}

	// Status
	b.WriteString(m.statusView() + "\n")

	// History
	rows := max((m.common.height-lipgloss.Height(b.String())-6)/2, 1)
	title := subtleStyle.Render(fmt.Sprintf("Recent Generations (%d)", len(m.history.entries)))
	list := m.history.view(m.focus == focusHistory, content, rows, m.common.now())
	b.WriteString(m.pane(focusHistory, lipgloss.JoinVertical(lipgloss.Left, title, list), inner) + "\n")

	// Help
	if m.focus == focusHistory {
		b.WriteString(helpStyle.Render(m.help.ShortHelpView(keys.historyHelp())))
	} else {
		b.WriteString(helpStyle.Render(m.help.View(keys)))
	}
	return b.String()
}

func (m model) pane(f focus, content string, width int) string {
	if m.focus == f {
		return focusedPaneStyle.Width(width).Render(content)
	}
	return paneStyle.Width(width).Render(content)
}

func (m model) statusView() string {
	var parts []string
	switch {
	case !m.ready:
		parts = append(parts, m.spinner.View()+" Loading voices...")
	case m.generating:
		parts = append(parts, m.spinner.View()+" Generating...")
	case m.testing:
		parts = append(parts, m.spinner.View()+" Testing...")
	}
	if m.playing {
		parts = append(parts, "▶ Playing")
	}
	if m.status.Visible() {
		parts = append(parts, statusStyle(m.status.Level).Render(m.status.Message))
	}
	if len(parts) == 0 {
		return " "
	}
	return " " + strings.Join(parts, "  ")
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle.Render("ERROR"),
		err,
		subtleStyle.Render(exitMsg),
	)
	return "\n" + indent(s, 3)
}

// COMMANDS

func initCmd(ctx context.Context, ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		// A catalog failure is already on the status line.
		return initDoneMsg{err: ctrl.Init(ctx)}
	}
}

func generateCmd(ctx context.Context, ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		_, err := ctrl.Generate(ctx)
		return generatedMsg{err: err}
	}
}

func testVoiceCmd(ctx context.Context, ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		_, err := ctrl.TestVoice(ctx)
		return testedMsg{err: err}
	}
}

func playCmd(ctx context.Context, ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		return playbackDoneMsg{err: ctrl.Play(ctx)}
	}
}

func checkOnlineCmd(ctx context.Context, ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		return onlineMsg(ctrl.CheckOnline(ctx))
	}
}

func healthTick(d time.Duration) tea.Cmd {
	if d <= 0 {
		return nil
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return healthTickMsg{}
	})
}

func watchHistoryCmd(ctx context.Context, path string) tea.Cmd {
	return func() tea.Msg {
		ch, err := history.Watch(ctx, path)
		if err != nil {
			log.Warn("not watching history", "path", path, "error", err)
			return nil
		}
		return historyWatchMsg{ch: ch}
	}
}

func waitHistoryCmd(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return historyChangedMsg{}
	}
}

// ETC

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
