package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwkaltz/gravitas/pkg/errors"
	"github.com/jwkaltz/gravitas/pkg/graph"
)

// Load reads a snapshot from ref, which may be a local file path or an
// http(s) URL.
//
// URLs are fetched through a [Client] with the default response cache, so
// repeated loads of the same URL within [cache.TTLSnapshot] hit disk instead
// of the network. File paths dispatch on extension: .dot and .gv are parsed
// as DOT, everything else as JSON.
func Load(ctx context.Context, ref string) (*graph.Snapshot, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		cache, err := NewSnapshotCache()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCache, err, "create snapshot cache")
		}
		return NewClient(cache).Fetch(ctx, ref, false)
	}
	return LoadFile(ref)
}

// LoadFile reads a snapshot from a local file, choosing the parser by
// extension (.dot and .gv are DOT, everything else JSON).
func LoadFile(path string) (*graph.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "snapshot file not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()

	if isDOT(path) {
		return ReadDOT(f)
	}
	return ReadJSON(f)
}

// isDOT reports whether path carries a Graphviz extension.
func isDOT(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot", ".gv":
		return true
	}
	return false
}
