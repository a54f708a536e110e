package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/strokebridge/engine"
)

// CheckResult describes a compiled script.
type CheckResult struct {
	Script   string   `json:"script"`
	Module   string   `json:"module"`
	Mode     string   `json:"mode"`
	Exports  []string `json:"exports"`
	Callable bool     `json:"callable"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <script.wat>",
		Short: "Compile a script and verify its main export",
		Long: `Compile and instantiate a WAT script against the ffi module without
running it, then check that it exports main with the expected signature.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCheck(ctx context.Context, opts *RootOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.log.Sync() }()

	text, err := ReadScript(path)
	if err != nil {
		return s.readFailure(path, err)
	}

	bo, err := s.cfg.BridgeOptions(s.log)
	if err != nil {
		return s.formatter.Fail(ExitCommandError, "engine options", err)
	}
	bo.Engine.Logger = s.log
	e, err := engine.New(ctx, bo.Engine)
	if err != nil {
		return s.formatter.Fail(ExitFailure, "ffi init script failed to load", err)
	}
	defer e.Close(ctx)

	script, err := e.LoadScript(ctx, text)
	if err != nil {
		return s.formatter.Fail(ExitFailure, "script failed to load", err)
	}
	defer script.Close(ctx)

	result := CheckResult{
		Script:  path,
		Module:  script.Name(),
		Mode:    e.Mode().String(),
		Exports: script.Exports(),
	}
	s.formatter.VerboseLog("Compiled %s in %s mode", path, result.Mode)

	if _, err := script.Entry(); err != nil {
		return s.formatter.Fail(ExitFailure, "no main function defined", err)
	}
	result.Callable = true

	text = fmt.Sprintf("✓ %s: %s found (exports: %s)", path, engine.EntryPoint, strings.Join(result.Exports, ", "))
	return s.formatter.Success(s.runID, result, text)
}
