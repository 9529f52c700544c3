package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwkaltz/gravitas/pkg/cache"
	"github.com/jwkaltz/gravitas/pkg/export"
	"github.com/jwkaltz/gravitas/pkg/pipeline"
	"github.com/jwkaltz/gravitas/pkg/viewport"
)

// Output formats for the frame command.
const (
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatPDF  = "pdf"
	formatPNG  = "png"
)

// pngScale is the raster scale factor for PNG output.
const pngScale = 2.0

// frameFlags are the frame command's flag values.
type frameFlags struct {
	output     string
	format     string
	noCache    bool
	refresh    bool
	configPath string
}

// frameCommand creates the frame command for reducing layouts to frames.
func (c *CLI) frameCommand() *cobra.Command {
	var flags frameFlags
	var query pipeline.Query

	cmd := &cobra.Command{
		Use:   "frame [graph.layout.json]",
		Short: "Reduce a solved layout to a renderer-ready frame",
		Long: `Reduce a solved layout to a renderer-ready frame.

The frame command takes a layout.json file (produced by 'solve') and reduces
it for one viewport: it classifies a detail tier from zoom and density, culls
nodes outside the view, keeps the most important nodes within the tier's
budget, and bundles or samples edges at coarse tiers.

Output formats: json (default), dot, svg, pdf, png. Graphical formats are
rendered through Graphviz from the reduced frame, not the full graph.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFrame(cmd.Context(), args[0], query, flags)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: <input>.frame.<ext>)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", formatJSON, "output format: json, dot, svg, pdf, png")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "bypass cached frames")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "TOML config file with layout, coarsen and viewport sections")

	// Viewport flags
	cmd.Flags().Float64Var(&query.X, "x", 0, "viewport origin x in world units")
	cmd.Flags().Float64Var(&query.Y, "y", 0, "viewport origin y in world units")
	cmd.Flags().Float64Var(&query.W, "width", 1920, "viewport width in world units at zoom 1")
	cmd.Flags().Float64Var(&query.H, "height", 1080, "viewport height in world units at zoom 1")
	cmd.Flags().Float64Var(&query.Zoom, "zoom", 1, "zoom factor, higher means closer")
	cmd.Flags().IntVar(&query.Bias, "bias", 0, "detail bias, each step coarsens by one tier")

	return cmd
}

// runFrame loads the layout, produces the frame, and writes output.
func (c *CLI) runFrame(ctx context.Context, input string, query pipeline.Query, flags frameFlags) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}
	l, err := export.ReadLayout(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse layout %s: %w", input, err)
	}

	opts := pipeline.Options{Query: query, Refresh: flags.refresh, Logger: c.Logger}
	if flags.configPath != "" {
		fileOpts := pipeline.Options{}
		if err := loadConfig(flags.configPath, &fileOpts); err != nil {
			return err
		}
		opts.Viewport = fileOpts.Viewport
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Producing frame...")
	spinner.Start()

	frame, cacheHit, err := runner.FrameWithCacheInfo(ctx, l, cache.Hash(data), opts)
	if err != nil {
		spinner.StopWithError("Frame failed")
		return fmt.Errorf("produce frame: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := flags.output
	if outputPath == "" {
		outputPath = defaultOutputPath(input, ".frame."+flags.format)
	}
	if err := writeFrameOutput(frame, flags.format, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Frame ready")
	printFile(outputPath)
	printStats(len(frame.Nodes), len(frame.Edges), cacheHit)
	printDetail("Tier %s, transition %s", frame.Tier.Name, frame.Transition)
	if len(frame.Boundaries) > 0 {
		printDetail("%d cluster boundaries", len(frame.Boundaries))
	}

	return nil
}

// writeFrameOutput serializes the frame in the requested format.
func writeFrameOutput(frame *viewport.Frame, format, path string) error {
	switch format {
	case formatJSON:
		return export.ExportFrame(frame, path)
	case formatDOT:
		return os.WriteFile(path, []byte(export.ToDOT(frame)), 0o644)
	case formatSVG:
		data, err := export.RenderSVG(export.ToDOT(frame))
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	case formatPDF:
		data, err := export.RenderPDF(export.ToDOT(frame))
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	case formatPNG:
		data, err := export.RenderPNG(export.ToDOT(frame), pngScale)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	default:
		return fmt.Errorf("unknown format %q (want json, dot, svg, pdf or png)", format)
	}
}
