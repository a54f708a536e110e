package cli

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/wippyai/strokebridge/bridge"
	"github.com/wippyai/strokebridge/config"
	"github.com/wippyai/strokebridge/logging"
)

// session is the per-command state shared by every subcommand: the
// resolved config, a logger and the output formatter.
type session struct {
	cfg       *config.Config
	log       *zap.Logger
	formatter *OutputFormatter
	runID     string
}

func newSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
			return nil, WrapExitError(ExitCommandError, "load config", err)
		}
		cfg = loaded
	}
	switch {
	case opts.LogLevel != "":
		cfg.Log.Level = opts.LogLevel
	case opts.Verbose:
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	log, err := logging.New(logging.Options{
		Output: cmd.ErrOrStderr(),
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "build logger", err)
	}

	runID := uuid.Must(uuid.NewV7()).String()
	return &session{
		cfg:       cfg,
		log:       log.With(zap.String("run", runID)),
		formatter: formatter,
		runID:     runID,
	}, nil
}

// scriptPath returns override when set, else the configured script path.
func (s *session) scriptPath(override string) string {
	if override != "" {
		return override
	}
	return s.cfg.Script.Path
}

// newBridge builds a bridge from the session config with log as its logger.
func (s *session) newBridge(log *zap.Logger) (*bridge.Bridge, error) {
	opts, err := s.cfg.BridgeOptions(log)
	if err != nil {
		return nil, err
	}
	return bridge.New(opts), nil
}

// loadScript reads path and loads it into b. An empty path loads the
// built-in identity script.
func (s *session) loadScript(ctx context.Context, b *bridge.Bridge, path string) error {
	if path == "" {
		if err := b.LoadDefault(ctx); err != nil {
			return s.formatter.Fail(ExitFailure, "load default script", err)
		}
		return nil
	}
	text, err := ReadScript(path)
	if err != nil {
		return s.readFailure(path, err)
	}
	s.formatter.VerboseLog("Loaded %d byte(s) from %s", len(text), path)
	if err := b.LoadScript(ctx, text); err != nil {
		return s.formatter.Fail(ExitFailure, "load "+path, err)
	}
	return nil
}

func (s *session) readFailure(path string, err error) error {
	if stderrors.Is(err, fs.ErrNotExist) {
		_ = s.formatter.Error(ErrCodeNotFound, path+": not found", nil)
		return WrapExitError(ExitCommandError, "read "+path, err)
	}
	return s.formatter.Fail(ExitCommandError, "read "+path, err)
}

// ReadScript reads a WAT file. A UTF-8 or UTF-16 byte order mark selects
// the encoding; without one the file is read as UTF-8.
func ReadScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return DecodeScript(data)
}

// DecodeScript converts raw script bytes to a UTF-8 string.
func DecodeScript(data []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
