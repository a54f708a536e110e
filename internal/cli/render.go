package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wippyai/strokebridge/render"
)

type renderOptions struct {
	strokeOptions
	Output      string
	Supersample int
}

// RenderResult is the outcome of the render command.
type RenderResult struct {
	RunResult
	Output string `json:"output"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	o := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Replay a stroke and write the points as a PNG",
		Long: `Replay a stroke like run does, then draw one disc per output point
(radius = size) on a canvas-sized image and write it as PNG.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), rootOpts, o, cmd)
		},
	}
	o.bind(cmd)
	cmd.Flags().StringVarP(&o.Output, "output", "o", "", "PNG file to write")
	cmd.Flags().IntVar(&o.Supersample, "supersample", 2, "render at this multiple and downscale")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runRender(ctx context.Context, opts *RootOptions, o *renderOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.log.Sync() }()

	result, points, err := s.replay(ctx, &o.strokeOptions)
	if err != nil {
		return err
	}

	img := render.Render(points, render.Options{
		Width:       s.cfg.Canvas.Width,
		Height:      s.cfg.Canvas.Height,
		Supersample: o.Supersample,
	})
	f, err := os.Create(o.Output)
	if err != nil {
		return s.formatter.Fail(ExitCommandError, "create "+o.Output, err)
	}
	if err := render.WritePNG(f, img); err != nil {
		f.Close()
		return s.formatter.Fail(ExitCommandError, "encode png", err)
	}
	if err := f.Close(); err != nil {
		return s.formatter.Fail(ExitCommandError, "write "+o.Output, err)
	}

	res := RenderResult{
		RunResult: *result,
		Output:    o.Output,
		Width:     s.cfg.Canvas.Width,
		Height:    s.cfg.Canvas.Height,
	}
	text := fmt.Sprintf("✓ wrote %s (%dx%d, %d point(s), state %s)",
		o.Output, res.Width, res.Height, len(points), res.State)
	return s.formatter.Success(s.runID, res, text)
}
