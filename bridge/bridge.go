package bridge

import (
	"context"
	_ "embed"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/strokebridge"
	"github.com/wippyai/strokebridge/engine"
	"github.com/wippyai/strokebridge/errors"
	"github.com/wippyai/strokebridge/layout"
)

// DefaultScript forwards start then end unchanged.
//
//go:embed default.wat
var DefaultScript string

// State of the engine and script pair.
type State uint8

const (
	StateUninitialized State = iota
	StateReadyNoEntry
	StateReadyCallable
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReadyNoEntry:
		return "ready(no-entry-point)"
	case StateReadyCallable:
		return "ready(callable)"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Bridge is the context object owning the engine and the current script.
type Bridge struct {
	log    *zap.Logger
	engine *engine.Engine
	script *engine.Script
	opts   Options
	mu     sync.Mutex
	// callable is true when script has a valid main.
	callable bool
	closed   bool
}

// New creates a bridge. The engine is created lazily by the first load.
func New(opts Options) *Bridge {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Engine.Logger == nil {
		opts.Engine.Logger = log
	}
	if opts.InvokeTimeout > 0 {
		opts.Engine.CloseOnContextDone = true
	}
	return &Bridge{log: log, opts: opts}
}

// LoadDefault loads the built-in identity script.
func (b *Bridge) LoadDefault(ctx context.Context) error {
	return b.LoadScript(ctx, "")
}

// LoadScript compiles and instantiates text, replacing the current script.
// Empty or blank text loads DefaultScript.
//
// The returned error is a BootstrapFailure, LoadFailure or NoEntryPoint
// from the errors package, or nil. Every failure is also logged.
func (b *Bridge) LoadScript(ctx context.Context, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.Closed(errors.PhaseLoad, "bridge")
	}
	if strings.TrimSpace(text) == "" {
		text = DefaultScript
	}

	if b.engine == nil {
		e, err := engine.New(ctx, b.opts.Engine)
		if err != nil {
			b.log.Error(fmt.Sprintf("ffi init script failed to load: %s", err))
			return err
		}
		b.engine = e
	}

	s, err := b.engine.LoadScript(ctx, text)
	if err != nil {
		b.log.Error(fmt.Sprintf("script failed to load: %s", err))
		if b.opts.ReloadPolicy == ClearOnFailure {
			b.dropScript(ctx)
		}
		return err
	}

	b.dropScript(ctx)
	b.script = s
	if _, err := s.Entry(); err != nil {
		b.log.Error("no main function defined", zap.String("module", s.Name()), zap.Error(err))
		return err
	}
	b.callable = true
	b.log.Info("script loaded", zap.String("module", s.Name()))
	b.log.Info("main function defined", zap.String("module", s.Name()))
	return nil
}

// Invoke runs main with the two keyframes, the canvas x and y, and out.
// It is a no-op without a callable script, after Close, or when any
// pointer argument is nil. Points appended before a failure stay in out.
func (b *Bridge) Invoke(ctx context.Context, start, end *layout.PointRecord, x, y float32, out *strokebridge.Output) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.engine == nil || b.script == nil || !b.callable {
		return
	}
	if start == nil || end == nil || out == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.log.Error(fmt.Sprintf("script failed to run: %v", r))
		}
	}()

	if b.opts.InvokeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.InvokeTimeout)
		defer cancel()
	}

	err := b.script.Invoke(ctx, *start, *end, x, y, out)
	if err == nil {
		return
	}
	b.log.Error(fmt.Sprintf("script failed to run: %s", err))
	if stderrors.Is(err, errors.ErrTimeout) {
		name := b.script.Name()
		b.dropScript(ctx)
		b.log.Warn("script terminated and dropped", zap.String("module", name), zap.Duration("timeout", b.opts.InvokeTimeout))
	}
}

// Close releases the script and the engine. Further calls on the bridge
// are no-ops. Safe to call more than once.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.dropScript(ctx)
	err := b.engine.Close(ctx)
	b.engine = nil
	return err
}

// State reports the current state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.closed:
		return StateClosed
	case b.engine == nil:
		return StateUninitialized
	case b.script != nil && b.callable:
		return StateReadyCallable
	}
	return StateReadyNoEntry
}

// ScriptName returns the module name of the current script, or "".
func (b *Bridge) ScriptName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.script == nil {
		return ""
	}
	return b.script.Name()
}

func (b *Bridge) dropScript(ctx context.Context) {
	if b.script == nil {
		return
	}
	if err := b.script.Close(context.WithoutCancel(ctx)); err != nil {
		b.log.Debug("close script", zap.String("module", b.script.Name()), zap.Error(err))
	}
	b.script = nil
	b.callable = false
}
