package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/strokebridge"
	"github.com/wippyai/strokebridge/bridge"
	"github.com/wippyai/strokebridge/logging"
	"github.com/wippyai/strokebridge/stroke"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	stateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const (
	logTail     = 6
	logCapacity = 200
	sampleStep  = 16
	defaultSize = 4
	tableHeight = 12
)

// logBuffer collects log lines for the TUI. Bridge calls run on command
// goroutines, so access is locked.
type logBuffer struct {
	lines []logLine
	mu    sync.Mutex
	limit int
}

type logLine struct {
	level logging.Level
	msg   string
}

func newLogBuffer(limit int) *logBuffer {
	return &logBuffer{limit: limit}
}

func (b *logBuffer) sink(level logging.Level, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, logLine{level: level, msg: msg})
	if len(b.lines) > b.limit {
		b.lines = b.lines[len(b.lines)-b.limit:]
	}
}

func (b *logBuffer) tail(n int) []logLine {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.lines) < n {
		n = len(b.lines)
	}
	return append([]logLine(nil), b.lines[len(b.lines)-n:]...)
}

type modelState int

const (
	stateBrowse modelState = iota
	stateInput
)

type interactiveModel struct {
	ctx     context.Context
	err     error
	bridge  *bridge.Bridge
	tracker *stroke.Tracker
	out     *strokebridge.Output
	logs    *logBuffer
	load    func(ctx context.Context) error
	script  string
	status  string
	table   table.Model
	input   textinput.Model
	width   float32
	height  float32
	time    float32
	pointer int
	state   modelState
}

type reloadedMsg struct {
	err error
}

func newInteractiveModel(ctx context.Context, b *bridge.Bridge, logs *logBuffer, script string, width, height float32, load func(context.Context) error) *interactiveModel {
	columns := []table.Column{
		{Title: "#", Width: 5},
		{Title: "x", Width: 9},
		{Title: "y", Width: 9},
		{Title: "time", Width: 9},
		{Title: "size", Width: 7},
		{Title: "speed", Width: 7},
		{Title: "distance", Width: 9},
		{Title: "counter", Width: 7},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(tableHeight),
		table.WithFocused(false),
	)

	ti := textinput.New()
	ti.Placeholder = "x y [size]"
	ti.Prompt = "sample: "
	ti.Width = 30

	if script == "" {
		script = "<default>"
	}
	return &interactiveModel{
		ctx:     ctx,
		bridge:  b,
		tracker: stroke.NewTracker(),
		out:     strokebridge.NewOutput(64),
		logs:    logs,
		load:    load,
		script:  script,
		table:   t,
		input:   ti,
		width:   width,
		height:  height,
		state:   stateBrowse,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.reload
}

func (m *interactiveModel) reload() tea.Msg {
	return reloadedMsg{err: m.load(m.ctx)}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.state == stateInput {
			return m.updateInput(msg)
		}
		switch msg.String() {
		case "q":
			return m.quit()
		case "r":
			m.status = "reloading " + m.script
			return m, m.reload
		case "n":
			m.newStroke()
		case "d":
			m.demo()
		case "c":
			m.out.Reset()
			m.refresh()
			m.status = "output cleared"
		case "enter", "a":
			m.state = stateInput
			m.input.Focus()
			return m, textinput.Blink
		case "up", "k", "down", "j":
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case reloadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = "loaded " + m.script
		} else {
			m.status = "load failed, state " + m.bridge.State().String()
		}
	}
	return m, nil
}

func (m *interactiveModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = stateBrowse
		m.input.Blur()
		return m, nil
	case "enter":
		s, err := parseSample(m.input.Value())
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.input.SetValue("")
		m.push(s)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) quit() (tea.Model, tea.Cmd) {
	_ = m.bridge.Close(m.ctx)
	return m, tea.Quit
}

// push feeds one sample of the current stroke through the tracker and
// the script.
func (m *interactiveModel) push(s stroke.Sample) {
	s.Time = m.time
	m.time += sampleStep
	before := m.out.Len()
	if prev, cur, ok := m.tracker.Point(m.pointer, s); ok {
		m.bridge.Invoke(m.ctx, &prev, &cur, m.width, m.height, m.out)
	}
	m.refresh()
	m.status = fmt.Sprintf("+%d point(s)", m.out.Len()-before)
}

func (m *interactiveModel) newStroke() {
	m.tracker.Stop(m.pointer)
	m.time = 0
	m.status = fmt.Sprintf("new stroke (%d so far)", m.tracker.Strokes())
}

func (m *interactiveModel) demo() {
	m.tracker.Stop(m.pointer)
	n := stroke.Replay(m.ctx, m.bridge, m.tracker, stroke.DemoPath(m.width, m.height, DefaultDemoSamples), m.width, m.height, m.out)
	m.refresh()
	m.status = fmt.Sprintf("demo stroke: %d invocation(s)", n)
}

func (m *interactiveModel) refresh() {
	points := m.out.Points()
	rows := make([]table.Row, len(points))
	for i, p := range points {
		rows[i] = table.Row{strconv.Itoa(i), ff(p.X), ff(p.Y), ff(p.Time), ff(p.Size), ff(p.Speed), ff(p.Distance), ff(p.Counter)}
	}
	m.table.SetRows(rows)
	m.table.GotoBottom()
}

func parseSample(text string) (stroke.Sample, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 || len(fields) > 3 {
		return stroke.Sample{}, fmt.Errorf("want x y [size], got %q", text)
	}
	vals := []float32{0, 0, defaultSize}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return stroke.Sample{}, fmt.Errorf("invalid number %q", f)
		}
		vals[i] = float32(v)
	}
	return stroke.Sample{X: vals[0], Y: vals[1], Size: vals[2]}, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Stroke Bridge"))
	b.WriteString(" ")
	b.WriteString(m.script)
	b.WriteString(" ")
	b.WriteString(stateStyle.Render(m.bridge.State().String()))
	b.WriteString("\n\n")

	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	if m.state == stateInput {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}
	if m.status != "" {
		b.WriteString(infoStyle.Render(m.status))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	for _, l := range m.logs.tail(logTail) {
		if l.level == logging.LevelError {
			b.WriteString(errorStyle.Render(l.msg))
		} else {
			b.WriteString(helpStyle.Render(l.msg))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.state == stateInput {
		b.WriteString(helpStyle.Render("enter push sample • esc back"))
	} else {
		b.WriteString(helpStyle.Render("a add samples • n new stroke • d demo • r reload • c clear • q quit"))
	}
	return b.String()
}

// NewInteractiveCommand creates the interactive command.
func NewInteractiveCommand(rootOpts *RootOptions) *cobra.Command {
	var script string
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Draw strokes in a terminal UI with live script output",
		Long: `Open a terminal UI that feeds typed samples through the script and
shows the output points as they are produced. Press r to reload the script
from disk and n to start a new stroke.`,
		Aliases:       []string{"i"},
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), rootOpts, script, cmd)
		},
	}
	cmd.Flags().StringVarP(&script, "script", "s", "", "script file (overrides script.path)")
	return cmd
}

func runInteractive(ctx context.Context, opts *RootOptions, script string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}

	level, err := zap.ParseAtomicLevel(s.cfg.Log.Level)
	if err != nil {
		return WrapExitError(ExitCommandError, "log level", err)
	}
	logs := newLogBuffer(logCapacity)
	log := zap.New(logging.NewSinkCore(logs.sink, level))

	b, err := s.newBridge(log)
	if err != nil {
		return s.formatter.Fail(ExitCommandError, "bridge options", err)
	}
	defer b.Close(ctx)

	path := s.scriptPath(script)
	load := func(ctx context.Context) error {
		if path == "" {
			return b.LoadDefault(ctx)
		}
		text, err := ReadScript(path)
		if err != nil {
			log.Error("read script", zap.String("path", path), zap.Error(err))
			return err
		}
		return b.LoadScript(ctx, text)
	}

	m := newInteractiveModel(ctx, b, logs, path, float32(s.cfg.Canvas.Width), float32(s.cfg.Canvas.Height), load)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil {
		return WrapExitError(ExitFailure, "interactive", err)
	}
	return nil
}
