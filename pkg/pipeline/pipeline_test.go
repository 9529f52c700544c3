package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jwkaltz/gravitas/pkg/cache"
)

// writeSnapshot writes a small triangle-plus-leaf snapshot and returns its
// path.
func writeSnapshot(t *testing.T) string {
	t.Helper()
	data := `{
		"nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}, {"id": "d"}],
		"edges": [
			{"source_id": "a", "target_id": "b", "weight": 1},
			{"source_id": "b", "target_id": "c", "weight": 1},
			{"source_id": "c", "target_id": "a", "weight": 1},
			{"source_id": "c", "target_id": "d", "weight": 0.5}
		]
	}`
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecute_SolveAndFrame(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	opts := Options{
		Source: writeSnapshot(t),
		Query:  Query{X: -500, Y: -500, W: 1000, H: 1000, Zoom: 1},
	}

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Stats.NodeCount != 4 {
		t.Errorf("NodeCount = %d, want 4", result.Stats.NodeCount)
	}
	if result.Stats.EdgeCount != 4 {
		t.Errorf("EdgeCount = %d, want 4", result.Stats.EdgeCount)
	}
	if len(result.Layout.Positions) != 4 {
		t.Errorf("layout has %d positions, want 4", len(result.Layout.Positions))
	}
	if result.LayoutHash == "" {
		t.Error("LayoutHash is empty")
	}
	if result.Frame == nil {
		t.Fatal("Frame is nil despite a query")
	}
	if len(result.Frame.Nodes) == 0 {
		t.Error("frame has no visible nodes")
	}
}

func TestExecute_NoQuerySkipsFrame(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	result, err := runner.Execute(context.Background(), Options{Source: writeSnapshot(t)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Frame != nil {
		t.Error("Frame produced without a query")
	}
}

func TestExecute_LayoutCacheHit(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil, nil)
	opts := Options{Source: writeSnapshot(t)}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if first.CacheInfo.LayoutHit {
		t.Error("first run reported a layout cache hit")
	}

	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("second run missed the layout cache")
	}
	if first.LayoutHash != second.LayoutHash {
		t.Errorf("layout hash changed across cached runs: %s vs %s", first.LayoutHash, second.LayoutHash)
	}
}

func TestExecute_RefreshBypassesCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil, nil)
	opts := Options{Source: writeSnapshot(t)}

	if _, err := runner.Execute(context.Background(), opts); err != nil {
		t.Fatal(err)
	}

	opts.Refresh = true
	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if result.CacheInfo.LayoutHit {
		t.Error("refresh run still hit the layout cache")
	}
}

func TestLoad_RequiresSource(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	if _, err := runner.Load(context.Background(), Options{}); err == nil {
		t.Error("Load() with empty source succeeded, want error")
	}
}

func TestExecute_InvalidQuery(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	opts := Options{
		Source: writeSnapshot(t),
		Query:  Query{W: -10, H: 100, Zoom: 1},
	}
	if _, err := runner.Execute(context.Background(), opts); err == nil {
		t.Error("Execute() with negative viewport width succeeded, want error")
	}
}
