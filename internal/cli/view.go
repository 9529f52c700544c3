package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jwkaltz/gravitas/pkg/export"
	"github.com/jwkaltz/gravitas/pkg/geom"
	"github.com/jwkaltz/gravitas/pkg/graph"
	"github.com/jwkaltz/gravitas/pkg/layout"
	"github.com/jwkaltz/gravitas/pkg/layout/tune"
	"github.com/jwkaltz/gravitas/pkg/pipeline"
	"github.com/jwkaltz/gravitas/pkg/source"
	"github.com/jwkaltz/gravitas/pkg/viewport"
)

const (
	// viewFrameInterval is the simulation tick rate of the TUI.
	viewFrameInterval = 33 * time.Millisecond

	// viewBatchSize is the nominal integration steps per TUI tick. The
	// governor halves it when frames run slow.
	viewBatchSize = 10

	// panFraction is how much of the visible rectangle one pan step moves.
	panFraction = 0.1

	// zoomStep is the zoom multiplier per key press.
	zoomStep = 1.25
)

// viewCommand creates the view command for interactive exploration.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		watch      bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "view [graph.json|graph.layout.json]",
		Short: "Explore a graph interactively in the terminal",
		Long: `Explore a graph interactively in the terminal.

The view command runs the force simulation live and draws the current frame
for your viewport. Pan with the arrow keys, zoom with +/-, and watch the
layout settle. When frames run slow, an adaptive governor coarsens the
detail tier and shrinks simulation batches to keep the view responsive.

Inputs produced by 'solve' start from their solved positions; raw snapshots
start from scratch. With --watch, edits to the input file are applied to the
running simulation without restarting it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), args[0], watch, configPath)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "reload the input file when it changes")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML config file with layout, coarsen and viewport sections")

	return cmd
}

// runView builds the model and hands control to bubbletea.
func (c *CLI) runView(ctx context.Context, input string, watch bool, configPath string) error {
	opts := pipeline.Options{}
	if configPath != "" {
		if err := loadConfig(configPath, &opts); err != nil {
			return err
		}
	}

	g, err := loadViewGraph(input)
	if err != nil {
		return err
	}

	cfg := opts.Layout
	if cfg == (layout.Config{}) {
		cfg = tune.Suggest(g.NodeCount(), g.EdgeCount())
	}
	it, err := layout.NewIntegrator(g, cfg)
	if err != nil {
		return err
	}
	opt, err := viewport.NewOptimizer(opts.Viewport)
	if err != nil {
		return err
	}
	governor, err := tune.NewGovernor(tune.GovernorOptions{})
	if err != nil {
		return err
	}

	var watcher *source.Watcher
	if watch {
		watcher, err = source.NewWatcher(input)
		if err != nil {
			return fmt.Errorf("watch %s: %w", input, err)
		}
		defer watcher.Close()
		loggerFromContext(ctx).Debug("watching input", "path", input)
	}

	m := newViewModel(g, it, opt, governor, watcher)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("view: %w", err)
	}
	return nil
}

// loadViewGraph reads either a solved layout or a raw snapshot into a graph.
func loadViewGraph(input string) (*graph.Graph, error) {
	if l, err := export.ImportLayout(input); err == nil {
		return l.Graph()
	}
	snap, err := source.LoadFile(input)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", input, err)
	}
	g := graph.New()
	if _, err := g.ApplySnapshot(*snap); err != nil {
		return nil, err
	}
	return g, nil
}

// =============================================================================
// Key Map
// =============================================================================

type viewKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Pause   key.Binding
	Reset   key.Binding
	Quit    key.Binding
}

func defaultViewKeyMap() viewKeyMap {
	return viewKeyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "pan up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "pan down")),
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan left")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pan right")),
		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Pause:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart solve")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

func (k viewKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.ZoomIn, k.ZoomOut, k.Pause, k.Reset, k.Quit}
}

func (k viewKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.ZoomIn, k.ZoomOut, k.Pause, k.Reset, k.Quit},
	}
}

// =============================================================================
// Model
// =============================================================================

type tickMsg time.Time

type snapshotMsg *graph.Snapshot

type watchErrMsg struct{ err error }

// viewModel is the bubbletea model driving the live simulation view.
type viewModel struct {
	graph    *graph.Graph
	it       *layout.Integrator
	opt      *viewport.Optimizer
	governor *tune.Governor
	watcher  *source.Watcher

	vp     viewport.Viewport
	frame  *viewport.Frame
	paused bool
	err    error

	width  int
	height int

	keys     viewKeyMap
	help     help.Model
	progress progress.Model
}

func newViewModel(g *graph.Graph, it *layout.Integrator, opt *viewport.Optimizer, governor *tune.Governor, watcher *source.Watcher) viewModel {
	it.Initialize()
	bounds := g.Bounds()
	if bounds.W <= 0 || bounds.H <= 0 {
		bounds = geom.Rect{X: -500, Y: -500, W: 1000, H: 1000}
	}
	return viewModel{
		graph:    g,
		it:       it,
		opt:      opt,
		governor: governor,
		watcher:  watcher,
		vp: viewport.Viewport{
			Origin: geom.Vec{X: bounds.X, Y: bounds.Y},
			Size:   geom.Vec{X: bounds.W, Y: bounds.H},
			Zoom:   1,
		},
		width:    80,
		height:   24,
		keys:     defaultViewKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

func (m viewModel) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}
	if m.watcher != nil {
		cmds = append(cmds, waitSnapshot(m.watcher))
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(viewFrameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitSnapshot blocks on the watcher until the input file changes.
func waitSnapshot(w *source.Watcher) tea.Cmd {
	return func() tea.Msg {
		select {
		case snap, ok := <-w.Snapshots():
			if !ok {
				return nil
			}
			return snapshotMsg(snap)
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			return watchErrMsg{err: err}
		}
	}
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = msg.Width - 4

	case tickMsg:
		if !m.paused {
			batch := m.governor.BatchSize(viewBatchSize)
			for i := 0; i < batch; i++ {
				if !m.it.Step() {
					break
				}
			}
		}
		start := time.Now()
		frame, err := m.opt.Optimize(m.graph, m.governor.TierBias(), m.vp)
		if err != nil {
			m.err = err
		} else {
			m.frame = frame
			m.err = nil
		}
		m.governor.Observe(time.Since(start))
		return m, tickCmd()

	case snapshotMsg:
		// Live topology update: surviving nodes keep their motion.
		if _, err := m.graph.ApplySnapshot(*msg); err != nil {
			m.err = err
		} else {
			m.it.Rebind()
			if m.it.Status() != layout.Running {
				m.it.Initialize()
			}
		}
		return m, waitSnapshot(m.watcher)

	case watchErrMsg:
		m.err = msg.err
		return m, waitSnapshot(m.watcher)
	}
	return m, nil
}

func (m viewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.vp.VisibleRect()
	stepX := visible.W * panFraction
	stepY := visible.H * panFraction

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.vp.Origin.Y -= stepY
	case key.Matches(msg, m.keys.Down):
		m.vp.Origin.Y += stepY
	case key.Matches(msg, m.keys.Left):
		m.vp.Origin.X -= stepX
	case key.Matches(msg, m.keys.Right):
		m.vp.Origin.X += stepX
	case key.Matches(msg, m.keys.ZoomIn):
		m.vp.Zoom *= zoomStep
	case key.Matches(msg, m.keys.ZoomOut):
		m.vp.Zoom /= zoomStep
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
	case key.Matches(msg, m.keys.Reset):
		m.it.Initialize()
		m.paused = false
	}
	return m, nil
}

// =============================================================================
// View
// =============================================================================

func (m viewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("gravitas view"))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(m.statusLine()))
	b.WriteString("\n")

	pct := float64(m.it.Iteration()) / float64(m.it.Config().MaxIterations)
	if pct > 1 {
		pct = 1
	}
	b.WriteString("  " + m.progress.ViewAs(pct))
	b.WriteString("\n\n")

	plotHeight := m.height - 7
	if plotHeight < 5 {
		plotHeight = 5
	}
	b.WriteString(m.plot(m.width, plotHeight))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(StyleWarning.Render("! " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m viewModel) statusLine() string {
	status := m.it.Status().String()
	if m.paused {
		status = "paused"
	}
	line := fmt.Sprintf("iter %d · energy %.2f · %s · zoom %.2f",
		m.it.Iteration(), m.it.Energy(), status, m.vp.Zoom)
	if m.frame != nil {
		line += fmt.Sprintf(" · tier %s · %d/%d visible",
			m.frame.Tier.Name, len(m.frame.Nodes), m.graph.NodeCount())
	}
	if level := m.governor.Level(); level > 0 {
		line += fmt.Sprintf(" · governor L%d", level)
	}
	return line
}

// plot draws the current frame's nodes into a character grid mapped onto
// the visible world rectangle.
func (m viewModel) plot(width, height int) string {
	grid := make([][]rune, height)
	for y := range grid {
		grid[y] = make([]rune, width)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	if m.frame != nil {
		visible := m.vp.VisibleRect()
		for _, n := range m.frame.Nodes {
			if visible.W <= 0 || visible.H <= 0 {
				break
			}
			x := int((n.X - visible.X) / visible.W * float64(width))
			y := int((n.Y - visible.Y) / visible.H * float64(height))
			if x < 0 || x >= width || y < 0 || y >= height {
				continue
			}
			mark := '·'
			if n.LabelVisible {
				mark = '●'
			}
			grid[y][x] = mark
		}
	}

	var b strings.Builder
	for y, row := range grid {
		b.WriteString(StyleHighlight.Render(string(row)))
		if y < height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
