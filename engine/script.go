package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"

	"github.com/wippyai/strokebridge"
	"github.com/wippyai/strokebridge/engine/internal/marshal"
	"github.com/wippyai/strokebridge/errors"
	"github.com/wippyai/strokebridge/layout"
	"github.com/wippyai/strokebridge/wat"
)

// EntryPoint is the export every script provides.
const EntryPoint = "main"

// EntryParams is the signature of main: start, end, x, y, out.
var EntryParams = []api.ValueType{
	api.ValueTypeI32, api.ValueTypeI32,
	api.ValueTypeF32, api.ValueTypeF32,
	api.ValueTypeI32,
}

// Script is one instantiated script module.
type Script struct {
	engine   *Engine
	compiled wazero.CompiledModule
	mod      api.Module
	name     string
	closed   atomic.Bool
}

func newModuleName() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "script." + id.String()
}

// LoadScript compiles WAT source and instantiates it against the ffi module
// under a fresh module name. A script without a valid main still loads;
// use Entry to check it.
func (e *Engine) LoadScript(ctx context.Context, source string) (*Script, error) {
	if e.Closed() {
		return nil, errors.Closed(errors.PhaseLoad, "engine")
	}
	name := newModuleName()

	wasm, err := wat.Compile(source)
	if err != nil {
		return nil, errors.LoadFailure(name, "compile", err)
	}
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.LoadFailure(name, "validate", err)
	}
	cfg := wazero.NewModuleConfig().
		WithName(name).
		WithStdout(e.stdout).
		WithStderr(e.stdout)
	mod, err := e.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, errors.LoadFailure(name, "instantiate", err)
	}
	return &Script{engine: e, compiled: compiled, mod: mod, name: name}, nil
}

// Name returns the unique module name of the script.
func (s *Script) Name() string {
	return s.name
}

// Exports lists the script's exported functions, sorted.
func (s *Script) Exports() []string {
	defs := s.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Entry resolves main from the live instance and checks its signature.
func (s *Script) Entry() (api.Function, error) {
	fn := s.mod.ExportedFunction(EntryPoint)
	if fn == nil {
		return nil, errors.NoEntryPoint(s.name, EntryPoint, "not exported")
	}
	def := fn.Definition()
	if !slices.Equal(def.ParamTypes(), EntryParams) || len(def.ResultTypes()) != 0 {
		return nil, errors.NoEntryPoint(s.name, EntryPoint,
			fmt.Sprintf("signature %s, want %s", signature(def.ParamTypes(), def.ResultTypes()), signature(EntryParams, nil)))
	}
	return fn, nil
}

// Invoke writes the keyframes into their slots, binds out to a handle and
// calls main. Points appended before a trap stay in out. The handle and the
// bump heap are released on every path.
func (s *Script) Invoke(ctx context.Context, start, end layout.PointRecord, x, y float32, out *strokebridge.Output) error {
	if s.closed.Load() {
		return errors.Closed(errors.PhaseInvoke, "script")
	}
	e := s.engine
	if e.Closed() {
		return errors.Closed(errors.PhaseInvoke, "engine")
	}
	fn, err := s.Entry()
	if err != nil {
		return err
	}

	sp, ep, err := marshal.WriteKeyframes(e.mem, start, end)
	if err != nil {
		return errors.InvocationFailure(s.name, err)
	}
	h := e.outputs.Bind(out)
	if h == 0 {
		return errors.Closed(errors.PhaseInvoke, "output table")
	}
	defer func() {
		e.outputs.Unbind(h)
		e.heap.Set(api.EncodeU32(marshal.HeapBase))
	}()

	_, err = fn.Call(ctx,
		api.EncodeU32(sp), api.EncodeU32(ep),
		api.EncodeF32(x), api.EncodeF32(y),
		api.EncodeU32(uint32(h)))
	if err != nil {
		if terminated(err) {
			return errors.Timeout(s.name, err)
		}
		return errors.InvocationFailure(s.name, err)
	}
	return nil
}

// Close releases the instance. Safe to call more than once.
func (s *Script) Close(ctx context.Context) error {
	if s == nil || !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := s.mod.Close(ctx)
	if cerr := s.compiled.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

// terminated reports whether err is wazero closing a module on context done.
// Traps are never terminations, whatever the state of the context.
func terminated(err error) bool {
	var exitErr *sys.ExitError
	if stderrors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case sys.ExitCodeDeadlineExceeded, sys.ExitCodeContextCanceled:
			return true
		}
	}
	return false
}

func signature(params, results []api.ValueType) string {
	name := func(ts []api.ValueType) string {
		parts := make([]string, len(ts))
		for i, t := range ts {
			parts[i] = api.ValueTypeName(t)
		}
		return strings.Join(parts, " ")
	}
	return fmt.Sprintf("(%s) -> (%s)", name(params), name(results))
}
