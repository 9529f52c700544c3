// Package source loads graph snapshots from external inputs.
//
// The engine consumes full-replace snapshots ([graph.Snapshot]); this package
// produces them from the formats the CLI and API accept:
//
//   - JSON files and readers ([ReadJSON], the canonical wire format)
//   - DOT files in Graphviz notation ([ReadDOT])
//   - HTTP(S) URLs with response caching and retries ([Client])
//   - live files via [Watcher], which re-emits a snapshot on every change
//
// [Load] dispatches between them: URLs go through an HTTP client with a
// file-backed response cache, paths ending in .dot or .gv are parsed as DOT,
// and everything else is read as JSON.
//
// # Usage
//
//	snap, err := source.Load(ctx, "graph.dot")
//	if err != nil {
//	    return err
//	}
//	diag, err := g.ApplySnapshot(*snap)
//
// Watching a file for live reload:
//
//	w, err := source.NewWatcher("graph.json")
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//	for snap := range w.Snapshots() {
//	    // re-run the layout with the new snapshot
//	}
//
// Loaders validate structure ([graph.Snapshot.Validate]) but not topology:
// edges referencing unknown nodes pass through and are dropped and counted
// when the snapshot is applied.
package source
