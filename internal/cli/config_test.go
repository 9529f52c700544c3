package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jwkaltz/gravitas/pkg/pipeline"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gravitas.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[layout]
repulsion = 12000.0
gravity = 0.08
max_iterations = 250

[coarsen]
threshold = 500

[viewport]
cull_margin = 96.0
`)

	var opts pipeline.Options
	if err := loadConfig(path, &opts); err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if opts.Layout.Repulsion != 12000 {
		t.Errorf("Repulsion = %v, want 12000", opts.Layout.Repulsion)
	}
	if opts.Layout.MaxIterations != 250 {
		t.Errorf("MaxIterations = %d, want 250", opts.Layout.MaxIterations)
	}
	if opts.Coarsen.Threshold != 500 {
		t.Errorf("Threshold = %d, want 500", opts.Coarsen.Threshold)
	}
	if opts.Viewport.CullMargin != 96 {
		t.Errorf("CullMargin = %v, want 96", opts.Viewport.CullMargin)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := writeConfig(t, `
[layout]
repulsionn = 1.0
`)

	var opts pipeline.Options
	if err := loadConfig(path, &opts); err == nil {
		t.Error("loadConfig() accepted an unknown key")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var opts pipeline.Options
	if err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"), &opts); err == nil {
		t.Error("loadConfig() accepted a missing file")
	}
}
