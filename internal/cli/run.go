package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/wippyai/strokebridge"
	"github.com/wippyai/strokebridge/layout"
	"github.com/wippyai/strokebridge/stroke"
)

// DefaultDemoSamples is the sample count of the built-in demo stroke.
const DefaultDemoSamples = 32

// strokeOptions are the flags shared by run and render.
type strokeOptions struct {
	Script  string
	Path    string
	Samples int
}

func (o *strokeOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Script, "script", "s", "", "script file (overrides script.path)")
	cmd.Flags().StringVarP(&o.Path, "path", "p", "", "stroke path file (yaml); empty plays the demo stroke")
	cmd.Flags().IntVar(&o.Samples, "samples", DefaultDemoSamples, "samples in the demo stroke")
}

// Float is a float32 that encodes non-finite values as JSON null.
type Float float32

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 32), nil
}

// PointView is the JSON form of an output point.
type PointView struct {
	X        Float `json:"x"`
	Y        Float `json:"y"`
	Time     Float `json:"time"`
	Size     Float `json:"size"`
	Speed    Float `json:"speed"`
	Distance Float `json:"distance"`
	Counter  Float `json:"counter"`
}

func newPointViews(points []layout.PointRecord) []PointView {
	views := make([]PointView, len(points))
	for i, p := range points {
		views[i] = PointView{
			X: Float(p.X), Y: Float(p.Y), Time: Float(p.Time), Size: Float(p.Size),
			Speed: Float(p.Speed), Distance: Float(p.Distance), Counter: Float(p.Counter),
		}
	}
	return views
}

// RunResult is the outcome of replaying a stroke through a script.
type RunResult struct {
	Script      string      `json:"script"`
	Module      string      `json:"module"`
	State       string      `json:"state"`
	Points      []PointView `json:"points"`
	Invocations int         `json:"invocations"`
	Strokes     int         `json:"strokes"`
}

// replay loads the script and feeds the stroke path through it.
func (s *session) replay(ctx context.Context, o *strokeOptions) (*RunResult, []layout.PointRecord, error) {
	path, err := s.strokePath(o)
	if err != nil {
		return nil, nil, err
	}

	b, err := s.newBridge(s.log)
	if err != nil {
		return nil, nil, s.formatter.Fail(ExitCommandError, "bridge options", err)
	}
	defer b.Close(ctx)

	script := s.scriptPath(o.Script)
	if err := s.loadScript(ctx, b, script); err != nil {
		return nil, nil, err
	}

	out := strokebridge.NewOutput(path.Len() * 2)
	tracker := stroke.NewTracker()
	w, h := float32(s.cfg.Canvas.Width), float32(s.cfg.Canvas.Height)
	n := stroke.Replay(ctx, b, tracker, path, w, h, out)
	s.formatter.VerboseLog("Replayed %d sample(s) in %d invocation(s)", path.Len(), n)

	if script == "" {
		script = "<default>"
	}
	points := out.Points()
	return &RunResult{
		Script:      script,
		Module:      b.ScriptName(),
		State:       b.State().String(),
		Points:      newPointViews(points),
		Invocations: n,
		Strokes:     tracker.Strokes(),
	}, points, nil
}

func (s *session) strokePath(o *strokeOptions) (*stroke.Path, error) {
	if o.Path == "" {
		return stroke.DemoPath(float32(s.cfg.Canvas.Width), float32(s.cfg.Canvas.Height), o.Samples), nil
	}
	data, err := os.ReadFile(o.Path)
	if err != nil {
		return nil, s.readFailure(o.Path, err)
	}
	p, err := stroke.ParsePath(data)
	if err != nil {
		return nil, s.formatter.Fail(ExitCommandError, "parse "+o.Path, err)
	}
	return p, nil
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	o := &strokeOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay a stroke through a script and print the points",
		Long: `Replay a recorded stroke path (or the built-in demo stroke) through
a stroke tracker and the script, printing every interpolated point.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), rootOpts, o, cmd)
		},
	}
	o.bind(cmd)
	return cmd
}

func runRun(ctx context.Context, opts *RootOptions, o *strokeOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.log.Sync() }()

	result, points, err := s.replay(ctx, o)
	if err != nil {
		return err
	}
	if s.formatter.Format == "json" {
		return s.formatter.Success(s.runID, result, "")
	}
	text := fmt.Sprintf("%s\n%s: %d invocation(s), %d point(s), state %s",
		pointTable(points), result.Script, result.Invocations, len(points), result.State)
	return s.formatter.Success(s.runID, result, text)
}

func pointTable(points []layout.PointRecord) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "x", "y", "time", "size", "speed", "distance", "counter")
	for i, p := range points {
		t.Row(strconv.Itoa(i), ff(p.X), ff(p.Y), ff(p.Time), ff(p.Size), ff(p.Speed), ff(p.Distance), ff(p.Counter))
	}
	return t.String()
}

func ff(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', 2, 32)
}

var _ json.Marshaler = Float(0)
