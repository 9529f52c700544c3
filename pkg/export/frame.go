package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jwkaltz/gravitas/pkg/viewport"
)

// WriteFrame encodes a frame as indented JSON and writes it to w.
// Frames arrive already sorted from the viewport optimizer, so identical
// queries produce byte-identical output.
func WriteFrame(f *viewport.Frame, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportFrame writes a frame to a JSON file at path.
// This is a convenience wrapper around [WriteFrame] for file-based output.
func ExportFrame(f *viewport.Frame, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()
	return WriteFrame(f, out)
}
