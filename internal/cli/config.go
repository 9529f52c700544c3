package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/jwkaltz/gravitas/pkg/layout"
	"github.com/jwkaltz/gravitas/pkg/layout/coarsen"
	"github.com/jwkaltz/gravitas/pkg/pipeline"
	"github.com/jwkaltz/gravitas/pkg/viewport"
)

// fileConfig is the on-disk TOML configuration. Every section is optional;
// zero values fall through to the engine defaults.
//
// Example:
//
//	[layout]
//	repulsion = 12000.0
//	gravity = 0.08
//
//	[coarsen]
//	threshold = 500
//
//	[viewport]
//	cull_margin = 96.0
type fileConfig struct {
	Layout   layout.Config    `toml:"layout"`
	Coarsen  coarsen.Options  `toml:"coarsen"`
	Viewport viewport.Options `toml:"viewport"`
}

// loadConfig reads a TOML config file into opts. Command-line flags are
// applied after the file, so flags win over file values.
func loadConfig(path string, opts *pipeline.Options) error {
	var fc fileConfig
	meta, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q in config %s", undecoded[0].String(), path)
	}
	opts.Layout = fc.Layout
	opts.Coarsen = fc.Coarsen
	opts.Viewport = fc.Viewport
	return nil
}
