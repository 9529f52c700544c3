package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jwkaltz/gravitas/pkg/export"
	"github.com/jwkaltz/gravitas/pkg/layout/tune"
	"github.com/jwkaltz/gravitas/pkg/pipeline"
)

// solveFlags are the solve command's flag values that cannot be bound
// directly to pipeline options.
type solveFlags struct {
	output     string
	noCache    bool
	refresh    bool
	configPath string
	auto       bool
}

// solveCommand creates the solve command for computing graph layouts.
func (c *CLI) solveCommand() *cobra.Command {
	var flags solveFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "solve [graph.json|graph.dot|url]",
		Short: "Solve a force-directed layout for a graph",
		Long: `Solve a force-directed layout for a graph.

The solve command reads a snapshot from a JSON or DOT file (or fetches one
from an http(s) URL) and runs the force simulation until the layout settles.
Graphs above the coarsening threshold are solved through a multi-level
hierarchy. The output is a layout.json file holding the snapshot plus final
positions, ready for the 'frame' and 'view' commands.

Solved layouts are cached by content hash, so re-solving an unchanged graph
with the same configuration is a cache read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSolve(cmd.Context(), args[0], opts, flags, cmd)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "bypass cached snapshots and layouts")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "TOML config file with layout, coarsen and viewport sections")
	cmd.Flags().BoolVar(&flags.auto, "auto", false, "derive solver parameters from graph size")

	// Solver flags
	cmd.Flags().Float64Var(&opts.Layout.Repulsion, "repulsion", 0, "node repulsion strength")
	cmd.Flags().Float64Var(&opts.Layout.SpringLength, "spring-length", 0, "edge rest length")
	cmd.Flags().Float64Var(&opts.Layout.Gravity, "gravity", 0, "pull toward the world center")
	cmd.Flags().Float64Var(&opts.Layout.Theta, "theta", 0, "Barnes-Hut accuracy parameter")
	cmd.Flags().IntVar(&opts.Layout.MaxIterations, "iterations", 0, "iteration cap for the solve")
	cmd.Flags().IntVar(&opts.Coarsen.Threshold, "coarsen-threshold", 0, "node count above which multi-level solving kicks in")

	return cmd
}

// runSolve loads the snapshot, solves the layout, and writes output.
func (c *CLI) runSolve(ctx context.Context, input string, opts pipeline.Options, flags solveFlags, cmd *cobra.Command) error {
	if flags.configPath != "" {
		fileOpts := pipeline.Options{}
		if err := loadConfig(flags.configPath, &fileOpts); err != nil {
			return err
		}
		fileOpts = mergeSolverFlags(fileOpts, opts, cmd)
		opts = fileOpts
	}
	opts.Source = input
	opts.Refresh = flags.refresh
	opts.Logger = c.Logger

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	snap, err := runner.Load(ctx, opts)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	if flags.auto {
		suggested := tune.Suggest(len(snap.Nodes), len(snap.Edges))
		opts.Layout = mergeSolverFlags(pipeline.Options{Layout: suggested}, opts, cmd).Layout
	}

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Solving layout...")
	spinner.Start()

	solved, err := runner.Solve(ctx, snap, opts)
	if err != nil {
		spinner.StopWithError("Solve failed")
		return fmt.Errorf("solve layout: %w", err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Positioned %d nodes", len(snap.Nodes)))

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := flags.output
	if outputPath == "" {
		outputPath = defaultOutputPath(layoutBase(input), ".layout.json")
	}
	if err := export.ExportLayout(solved.Layout, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout solved")
	printFile(outputPath)
	printStats(len(snap.Nodes), len(snap.Edges), solved.Cached)
	if !solved.Cached {
		printDetail("%d iterations across %d levels", solved.Run.Iterations, solved.Run.Levels)
		if solved.Diagnostics.DroppedEdges > 0 {
			printWarning("Dropped %d edges with unknown or identical endpoints", solved.Diagnostics.DroppedEdges)
		}
	}
	printNewline()
	printNextStep("Frame", "gravitas frame "+outputPath+" --width 1920 --height 1080 --zoom 1")
	printNextStep("Explore", "gravitas view "+outputPath)

	return nil
}

// mergeSolverFlags copies solver fields that were set on the command line
// from flagged onto base, so flags win over config files and suggestions.
func mergeSolverFlags(base, flagged pipeline.Options, cmd *cobra.Command) pipeline.Options {
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	if set("repulsion") {
		base.Layout.Repulsion = flagged.Layout.Repulsion
	}
	if set("spring-length") {
		base.Layout.SpringLength = flagged.Layout.SpringLength
	}
	if set("gravity") {
		base.Layout.Gravity = flagged.Layout.Gravity
	}
	if set("theta") {
		base.Layout.Theta = flagged.Layout.Theta
	}
	if set("iterations") {
		base.Layout.MaxIterations = flagged.Layout.MaxIterations
	}
	if set("coarsen-threshold") {
		base.Coarsen.Threshold = flagged.Coarsen.Threshold
	}
	return base
}

// layoutBase returns a local filename stem for the layout output. URL
// sources do not map to a local path, so they fall back to "graph".
func layoutBase(input string) string {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return "graph"
	}
	return input
}
