package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/orb/internal/analysis"
	"github.com/olivier-w/orb/internal/media"
	"github.com/olivier-w/orb/internal/player"
	"github.com/olivier-w/orb/internal/queue"
	"github.com/olivier-w/orb/internal/session"
	"github.com/olivier-w/orb/internal/settings"
	"github.com/olivier-w/orb/internal/util"
	"github.com/olivier-w/orb/internal/visualizer"
)

const (
	statusTTL   = 5 * time.Second
	seekStep    = 5.0
	volumeStep  = 0.05
	queueRows   = 5
	meterCount  = 3
	chromeLines = 14 // lines outside the visualizer
)

// Options configure the Model.
type Options struct {
	Session    *session.Session
	Store      *settings.Store
	FPS        int
	Microphone bool          // connect the microphone on start
	Dir        string        // where the browser starts
	Tracks     []queue.Track // appended after the microphone connects
	Settings   string        // palette and starfield toggles are saved here
	Context    context.Context
	Log        *slog.Logger
}

type needle struct {
	pos, vel float64
}

// Model is the Bubbletea model for the orb TUI.
type Model struct {
	sess   *session.Session
	store  *settings.Store
	ctx    context.Context
	log    *slog.Logger
	fps    int
	dir    string
	saveTo string

	modes   []visualizer.Visualizer
	mode    int
	palette settings.Palette
	meters  [meterCount]progress.Model
	spring  harmonica.Spring
	needles [meterCount]needle
	spinner spinner.Model

	seekInput textinput.Model
	seeking   bool
	browser   *BrowserModel
	pending   []queue.Track

	params    analysis.Parameters
	transport player.State
	source    session.Source
	tracks    []queue.Track
	current   int
	cursor    int

	connecting bool
	status     string
	statusErr  bool
	statusAt   time.Time

	width    int
	height   int
	quitting bool
}

// New creates the model. Call Init through a tea.Program.
func New(opts Options) Model {
	fps := opts.FPS
	if fps <= 0 {
		fps = int(time.Second / analysis.FrameInterval)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	ti := textinput.New()
	ti.Placeholder = "m:ss"
	ti.CharLimit = 16
	ti.Width = 12
	ti.Prompt = "goto "

	m := Model{
		sess:       opts.Session,
		store:      opts.Store,
		ctx:        ctx,
		log:        log,
		fps:        fps,
		dir:        opts.Dir,
		saveTo:     opts.Settings,
		pending:    opts.Tracks,
		modes:      visualizer.Modes(fps),
		spring:     harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.7),
		spinner:    s,
		seekInput:  ti,
		current:    -1,
		connecting: opts.Microphone,
		width:      80,
		height:     30,
	}
	m.applyPalette(settings.LookupPalette(opts.Store.Current().Visual.Palette))
	return m
}

func (m *Model) applyPalette(p settings.Palette) {
	m.palette = p
	colours := [meterCount][2]string{{p.Bass, p.Mid}, {p.Mid, p.High}, {p.Bass, p.High}}
	for i := range m.meters {
		w := m.meters[i].Width
		m.meters[i] = progress.New(
			progress.WithScaledGradient(colours[i][0], colours[i][1]),
			progress.WithoutPercentage(),
		)
		if w > 0 {
			m.meters[i].Width = w
		}
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{frameCmd(m.fps), tea.SetWindowTitle("orb")}
	if m.connecting {
		cmds = append(cmds, m.spinner.Tick, m.connectMic())
	}
	return tea.Batch(cmds...)
}

func (m Model) connectMic() tea.Cmd {
	sess, ctx, cfg := m.sess, m.ctx, m.store.Current().Microphone
	return func() tea.Msg {
		return micResultMsg{err: sess.UseMicrophone(ctx, cfg)}
	}
}

// save writes toggles back to the settings file, if there is one.
func (m *Model) save(f settings.File) {
	if m.saveTo == "" {
		return
	}
	if err := settings.Save(m.saveTo, f); err != nil {
		m.log.Warn("saving settings", "err", err)
		m.setStatus(err.Error(), true)
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
	m.statusAt = time.Now()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.handleMsg(msg)
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		for i := range m.meters {
			m.meters[i].Width = max(10, min(60, msg.Width-14))
		}
		if m.browser != nil {
			m.browser.SetSize(msg.Width, msg.Height)
		}
		return m, nil

	case frameMsg:
		if m.quitting {
			return m, nil
		}
		m.frame()
		return m, frameCmd(m.fps)

	case spinner.TickMsg:
		if !m.connecting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case micResultMsg:
		m.connecting = false
		if msg.err == nil {
			m.setStatus("microphone connected", false)
		}
		if len(m.pending) > 0 {
			m.sess.Append(m.pending...)
			m.pending = nil
			m.tracks, m.current = m.sess.Tracks()
		}
		// Failures surface once through the session on the next frame.
		return m, nil

	case SettingsChangedMsg:
		m.sess.SetThresholds(msg.File.Detector)
		if err := m.sess.SetLayout(msg.File.Bands); err != nil {
			m.log.Warn("keeping previous bands", "err", err)
			m.setStatus("settings reloaded, bands kept: "+err.Error(), true)
			return m, nil
		}
		m.setStatus("settings reloaded", false)
		return m, nil

	case BrowserSelectedMsg:
		m.browser = nil
		m.addPaths(msg.Path)
		return m, nil

	case BrowserCancelledMsg:
		m.browser = nil
		return m, nil

	case tea.KeyMsg:
		if m.browser != nil {
			b, cmd := m.browser.Update(msg)
			m.browser = &b
			return m, cmd
		}
		if m.seeking {
			return m.updateSeekInput(msg)
		}
		return m.handleKey(msg)
	}

	if m.browser != nil {
		b, cmd := m.browser.Update(msg)
		m.browser = &b
		return m, cmd
	}
	if m.seeking {
		var cmd tea.Cmd
		m.seekInput, cmd = m.seekInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// frame advances the parameters and redraws the visualizer.
func (m *Model) frame() {
	cfg := m.store.Current()
	if cfg.Visual.Palette != m.palette.Name {
		m.applyPalette(settings.LookupPalette(cfg.Visual.Palette))
	}

	m.params = m.sess.Frame(cfg.Visual.Settings)
	m.transport = m.sess.Transport()
	m.source = m.sess.Source()
	m.tracks, m.current = m.sess.Tracks()
	m.cursor = max(0, min(m.cursor, len(m.tracks)-1))

	if err := m.sess.TakeError(); err != nil {
		m.setStatus(err.Error(), true)
	} else if m.status != "" && time.Since(m.statusAt) > statusTTL {
		m.status = ""
	}

	targets := [meterCount]float64{m.params.BassIntensity, m.params.MidIntensity, m.params.TrebleIntensity}
	for i, t := range targets {
		n := &m.needles[i]
		n.pos, n.vel = m.spring.Update(n.pos, n.vel, t)
	}

	style := visualizer.Style{Palette: m.palette, Starfield: cfg.Visual.ShowStarfield}
	m.modes[m.mode].Update(m.params, style, max(m.width-4, 4), m.vizHeight())
}

func (m Model) vizHeight() int {
	return max(m.height-chromeLines-min(len(m.tracks), queueRows), 4)
}

func (m *Model) addPaths(paths ...string) {
	entries, errs := media.Expand(paths)
	for _, err := range errs {
		m.log.Warn("skipping input", "err", err)
	}
	if len(errs) > 0 {
		m.setStatus(errs[0].Error(), true)
	}
	tracks := make([]queue.Track, 0, len(entries))
	for _, e := range entries {
		tracks = append(tracks, queue.Track{Title: e.Title, Path: e.Path})
	}
	if len(tracks) > 0 {
		m.sess.Append(tracks...)
		if len(errs) == 0 {
			m.setStatus(fmt.Sprintf("added %d track(s)", len(tracks)), false)
		}
	}
	m.tracks, m.current = m.sess.Tracks()
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if isQuit(msg) {
		m.quitting = true
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
	}

	switch msg.String() {
	case " ":
		m.sess.TogglePause()
	case "s":
		if err := m.sess.Stop(); err != nil {
			m.setStatus(err.Error(), true)
		}
	case "left", "h":
		m.seekBy(-seekStep)
	case "right", "l":
		m.seekBy(seekStep)
	case "g":
		m.seeking = true
		m.seekInput.Reset()
		return m, m.seekInput.Focus()
	case "+", "=", "up":
		m.sess.SetVolume(m.sess.Volume() + volumeStep)
	case "-", "down":
		m.sess.SetVolume(m.sess.Volume() - volumeStep)
	case "n":
		m.sess.Next()
	case "p":
		m.sess.Previous()
	case "m":
		if m.sess.Source() == session.SourceMicrophone {
			m.sess.UseFile()
			return m, nil
		}
		if m.connecting {
			return m, nil
		}
		m.connecting = true
		return m, tea.Batch(m.spinner.Tick, m.connectMic())
	case "v":
		m.mode = (m.mode + 1) % len(m.modes)
	case "c":
		next := settings.NextPalette(m.palette.Name)
		m.save(m.store.Update(func(f *settings.File) { f.Visual.Palette = next.Name }))
		m.applyPalette(next)
	case "t":
		m.save(m.store.Update(func(f *settings.File) { f.Visual.ShowStarfield = !f.Visual.ShowStarfield }))
	case "a":
		b := NewBrowser(m.dir)
		b.SetSize(m.width, m.height)
		m.browser = &b
	case "j":
		m.cursor = min(m.cursor+1, len(m.tracks)-1)
	case "k":
		m.cursor = max(m.cursor-1, 0)
	case "enter":
		if m.cursor < len(m.tracks) {
			m.sess.Select(m.cursor)
		}
	case "x", "delete":
		if m.cursor < len(m.tracks) {
			m.sess.Remove(m.cursor)
		}
	case "J":
		if m.sess.Move(m.cursor, m.cursor+1) {
			m.cursor++
		}
	case "K":
		if m.sess.Move(m.cursor, m.cursor-1) {
			m.cursor--
		}
	}

	m.transport = m.sess.Transport()
	m.source = m.sess.Source()
	m.tracks, m.current = m.sess.Tracks()
	m.cursor = max(0, min(m.cursor, len(m.tracks)-1))
	return m, nil
}

func (m *Model) seekBy(delta float64) {
	st := m.sess.Transport()
	target := max(0, st.Position.Seconds()+delta)
	if st.Duration > 0 {
		target = min(target, st.Duration.Seconds())
	}
	if err := m.sess.SeekSeconds(target); err != nil {
		m.setStatus(err.Error(), true)
	}
}

func (m Model) updateSeekInput(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.seeking = false
		m.seekInput.Blur()
		sec, err := util.ParseClock(m.seekInput.Value())
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		if err := m.sess.SeekSeconds(sec); err != nil {
			m.setStatus(err.Error(), true)
		}
		return m, nil
	case "esc":
		m.seeking = false
		m.seekInput.Blur()
		return m, nil
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.seekInput, cmd = m.seekInput.Update(msg)
	return m, cmd
}
