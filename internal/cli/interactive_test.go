package cli

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/strokebridge/bridge"
	"github.com/wippyai/strokebridge/engine"
	"github.com/wippyai/strokebridge/logging"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, script string) (*interactiveModel, *bridge.Bridge) {
	t.Helper()
	ctx := context.Background()
	logs := newLogBuffer(8)
	b := bridge.New(bridge.Options{
		Logger: zap.New(logging.NewSinkCore(logs.sink, zapcore.DebugLevel)),
		Engine: engine.Config{Compilation: engine.ModeInterpreter},
	})
	t.Cleanup(func() { _ = b.Close(ctx) })
	load := func(ctx context.Context) error { return b.LoadScript(ctx, script) }
	return newInteractiveModel(ctx, b, logs, "", 64, 48, load), b
}

func TestInteractiveSamples(t *testing.T) {
	m, b := newTestModel(t, "")
	m.Update(m.reload())
	require.NoError(t, m.err)
	assert.Equal(t, bridge.StateReadyCallable, b.State())
	assert.Equal(t, "loaded <default>", m.status)

	m.Update(key("a"))
	require.Equal(t, stateInput, m.state)

	m.input.SetValue("10 10 2")
	m.Update(key("enter"))
	assert.Equal(t, 0, m.out.Len())

	m.input.SetValue("20 20")
	m.Update(key("enter"))
	assert.Equal(t, 2, m.out.Len())
	assert.Equal(t, "+2 point(s)", m.status)
	assert.Len(t, m.table.Rows(), 2)

	m.input.SetValue("nope")
	m.Update(key("enter"))
	assert.Contains(t, m.status, "want x y [size]")

	m.Update(key("esc"))
	assert.Equal(t, stateBrowse, m.state)

	m.Update(key("n"))
	assert.Equal(t, 0, m.tracker.Active())
	assert.Equal(t, 1, m.tracker.Strokes())
	assert.Contains(t, m.View(), "ready(callable)")
}

func TestInteractiveDemoAndClear(t *testing.T) {
	m, _ := newTestModel(t, "")
	m.Update(m.reload())

	m.Update(key("d"))
	assert.Equal(t, 2*(DefaultDemoSamples-1), m.out.Len())
	assert.Equal(t, 1, m.tracker.Strokes())

	m.Update(key("c"))
	assert.Equal(t, 0, m.out.Len())
	assert.Empty(t, m.table.Rows())
}

func TestInteractiveReloadFailure(t *testing.T) {
	m, b := newTestModel(t, "(module")
	m.Update(m.reload())
	require.Error(t, m.err)
	assert.Equal(t, bridge.StateReadyNoEntry, b.State())
	assert.Contains(t, m.View(), "script failed to load")
}

func TestInteractiveQuit(t *testing.T) {
	m, b := newTestModel(t, "")
	m.Update(m.reload())
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Equal(t, bridge.StateClosed, b.State())
}

func TestParseSample(t *testing.T) {
	s, err := parseSample("1.5 2")
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), s.X)
	assert.Equal(t, float32(defaultSize), s.Size)

	_, err = parseSample("1 x")
	assert.Error(t, err)
}

func TestLogBufferTail(t *testing.T) {
	b := newLogBuffer(3)
	for _, msg := range []string{"a", "b", "c", "d"} {
		b.sink(logging.LevelInfo, msg)
	}
	tail := b.tail(10)
	require.Len(t, tail, 3)
	assert.Equal(t, "b", tail[0].msg)
	assert.Equal(t, "d", b.tail(1)[0].msg)
}
