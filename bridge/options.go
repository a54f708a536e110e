package bridge

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/strokebridge/engine"
)

// ReloadPolicy decides what a failed LoadScript does to the current script.
type ReloadPolicy uint8

const (
	// RetainStale keeps the previous script callable after a failed load.
	RetainStale ReloadPolicy = iota
	// ClearOnFailure drops the previous script when a load fails, so
	// Invoke produces no output until a later load succeeds.
	ClearOnFailure
)

func (p ReloadPolicy) String() string {
	switch p {
	case RetainStale:
		return "retain"
	case ClearOnFailure:
		return "clear"
	}
	return fmt.Sprintf("policy(%d)", uint8(p))
}

// ParseReloadPolicy parses "retain" or "clear". Empty means retain.
func ParseReloadPolicy(s string) (ReloadPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "retain", "retain-stale":
		return RetainStale, nil
	case "clear", "clear-on-failure":
		return ClearOnFailure, nil
	}
	return RetainStale, fmt.Errorf("unknown reload policy %q", s)
}

// Options configures a Bridge.
type Options struct {
	// Logger is the logging collaborator. Nil discards everything.
	Logger *zap.Logger

	// Engine is passed to engine.New on first load. Its Logger defaults to
	// Options.Logger.
	Engine engine.Config

	// InvokeTimeout bounds a single main call. Zero means no limit.
	InvokeTimeout time.Duration

	ReloadPolicy ReloadPolicy
}
