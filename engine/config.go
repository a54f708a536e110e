package engine

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
)

// Mode selects how wazero executes script code.
type Mode uint8

const (
	// ModeAuto uses the compiler where the platform supports it.
	ModeAuto Mode = iota
	// ModeCompiler compiles to native code ahead of the first call. It
	// falls back to the interpreter on unsupported platforms.
	ModeCompiler
	// ModeInterpreter never generates native code.
	ModeInterpreter
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeCompiler:
		return "compiler"
	case ModeInterpreter:
		return "interpreter"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode parses "auto", "compiler" or "interpreter". Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "compiler", "jit":
		return ModeCompiler, nil
	case "interpreter":
		return ModeInterpreter, nil
	}
	return ModeAuto, fmt.Errorf("unknown compilation mode %q", s)
}

// Config holds configuration for engine creation
type Config struct {
	// Logger receives engine and script messages. Nil uses Logger().
	Logger *zap.Logger

	// CacheDir persists compiled code across processes. Empty keeps the
	// cache in memory for the lifetime of the engine.
	CacheDir string

	// MemoryLimitPages caps the shared ffi memory in 64KB pages.
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// Bootstrap replaces the generated ffi module source. Empty uses
	// BootstrapSource(layout.Point()).
	Bootstrap string

	Compilation Mode

	// CloseOnContextDone terminates a running script when its context is
	// cancelled or its deadline passes.
	CloseOnContextDone bool
}

func (c *Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return Logger()
}

// compilerSupported mirrors the platforms wazero's compiler targets.
func compilerSupported() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
	default:
		return false
	}
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd", "netbsd", "dragonfly", "windows", "illumos", "solaris":
		return true
	}
	return false
}

// runtimeConfig builds the wazero configuration. The returned cache is
// owned by the caller.
func (c *Config) runtimeConfig() (wazero.RuntimeConfig, wazero.CompilationCache, Mode, error) {
	mode := c.Compilation
	var rc wazero.RuntimeConfig
	switch mode {
	case ModeInterpreter:
		rc = wazero.NewRuntimeConfigInterpreter()
	case ModeCompiler:
		if compilerSupported() {
			rc = wazero.NewRuntimeConfigCompiler()
			break
		}
		c.logger().Warn("compiler unsupported on this platform, using interpreter",
			zap.String("goos", runtime.GOOS), zap.String("goarch", runtime.GOARCH))
		mode = ModeInterpreter
		rc = wazero.NewRuntimeConfigInterpreter()
	default:
		rc = wazero.NewRuntimeConfig()
		if compilerSupported() {
			mode = ModeCompiler
		} else {
			mode = ModeInterpreter
		}
	}

	var cache wazero.CompilationCache
	if c.CacheDir != "" {
		var err error
		cache, err = wazero.NewCompilationCacheWithDir(c.CacheDir)
		if err != nil {
			return nil, nil, mode, fmt.Errorf("compilation cache: %w", err)
		}
	} else {
		cache = wazero.NewCompilationCache()
	}
	rc = rc.WithCompilationCache(cache)

	if c.MemoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(c.MemoryLimitPages)
	}
	if c.CloseOnContextDone {
		rc = rc.WithCloseOnContextDone(true)
	}
	return rc, cache, mode, nil
}

// closeCache releases a cache returned by runtimeConfig.
func closeCache(ctx context.Context, cache wazero.CompilationCache) {
	if cache != nil {
		_ = cache.Close(ctx)
	}
}
