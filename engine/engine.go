package engine

import (
	"context"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"

	"github.com/wippyai/strokebridge/engine/internal/marshal"
	"github.com/wippyai/strokebridge/errors"
	"github.com/wippyai/strokebridge/layout"
	"github.com/wippyai/strokebridge/resource"
	"github.com/wippyai/strokebridge/wat"
)

// Engine owns one wazero runtime with the host and ffi modules installed.
// Scripts loaded into it share the ffi memory.
//
// An Engine is not safe for concurrent use. Callers serialize access.
type Engine struct {
	runtime wazero.Runtime
	cache   wazero.CompilationCache
	ffi     api.Module
	heap    api.MutableGlobal
	mem     *marshal.Wrapper
	outputs *marshal.Outputs
	schema  *layout.Schema
	log     *zap.Logger
	stdout  *zapio.Writer
	mode    Mode
	closed  atomic.Bool
}

// New creates an engine. Any failure while building the runtime or its
// bootstrap modules is a BootstrapFailure and leaves nothing allocated.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	rc, cache, mode, err := cfg.runtimeConfig()
	if err != nil {
		return nil, errors.BootstrapFailure("runtime config", err)
	}
	r := wazero.NewRuntimeWithConfig(ctx, rc)

	log := cfg.logger()
	e := &Engine{
		runtime: r,
		cache:   cache,
		outputs: marshal.NewOutputs(),
		schema:  layout.Point(),
		log:     log,
		stdout:  &zapio.Writer{Log: log.Named("stdout"), Level: zap.InfoLevel},
		mode:    mode,
	}
	fail := func(detail string, err error) (*Engine, error) {
		_ = r.Close(ctx)
		closeCache(ctx, cache)
		return nil, errors.BootstrapFailure(detail, err)
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		return fail("instantiate wasi", err)
	}
	if _, err := e.instantiateHost(ctx, r); err != nil {
		return fail("instantiate host module", err)
	}

	src := cfg.Bootstrap
	if src == "" {
		src = BootstrapSource(e.schema)
	}
	wasm, err := wat.Compile(src)
	if err != nil {
		return fail("compile ffi module", err)
	}
	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		return fail("validate ffi module", err)
	}
	ffi, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(FFIModule))
	if err != nil {
		return fail("instantiate ffi module", err)
	}

	e.mem = marshal.WrapMemory(ffi.ExportedMemory(ExportMemory))
	if e.mem == nil {
		return fail("ffi module exports no memory", nil)
	}
	heap, ok := ffi.ExportedGlobal(ExportHeap).(api.MutableGlobal)
	if !ok {
		return fail("ffi module exports no mutable heap global", nil)
	}
	e.ffi = ffi
	e.heap = heap
	e.outputs.Subscribe(resource.ObserverFunc(e.onOutputEvent))

	log.Debug("engine ready", zap.Stringer("mode", mode), zap.Uint32("record_size", e.schema.Size))
	return e, nil
}

// Close releases the runtime and every module in it. It is safe to call
// more than once and on a nil engine.
func (e *Engine) Close(ctx context.Context) error {
	if e == nil || !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = e.stdout.Close()
	_ = e.outputs.Close()
	err := e.runtime.Close(ctx)
	closeCache(ctx, e.cache)
	return err
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	return e == nil || e.closed.Load()
}

// Mode returns the execution mode actually in use.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Schema returns the record layout the ffi module was generated from.
func (e *Engine) Schema() *layout.Schema {
	return e.schema
}

// BoundOutputs returns the number of output handles currently resolvable.
// It is zero between invocations.
func (e *Engine) BoundOutputs() int {
	return e.outputs.Len()
}

// HeapTop returns the bump allocator's next address.
func (e *Engine) HeapTop() uint32 {
	return api.DecodeU32(e.heap.Get())
}
