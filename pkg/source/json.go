package source

import (
	"encoding/json"
	"io"

	"github.com/jwkaltz/gravitas/pkg/errors"
	"github.com/jwkaltz/gravitas/pkg/graph"
)

// ReadJSON decodes a snapshot from its canonical JSON form.
//
// The input must be a JSON object with "nodes" and "edges" arrays:
//
//	{
//	  "nodes": [{"id": "a"}, {"id": "b", "size": 12}],
//	  "edges": [{"source_id": "a", "target_id": "b", "weight": 2}]
//	}
//
// Each node must have a non-empty unique "id". Optional node fields are
// "size", "fixed" and "payload"; optional edge fields are "weight"
// (non-negative) and "payload". Edges referencing unknown node IDs are not
// rejected here; they are dropped and counted when the snapshot is applied.
//
// Malformed JSON returns an error with code [errors.ErrCodeInvalidFormat];
// structural violations (empty or duplicate IDs, negative weights) return
// [errors.ErrCodeInvalidSnapshot]. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*graph.Snapshot, error) {
	var snap graph.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode snapshot JSON")
	}
	if err := snap.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "invalid snapshot")
	}
	return &snap, nil
}
