package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bafb/internal/paths"
)

// manifest.json sits beside the archives it describes. It only feeds
// `tools list`; fetch decisions look at the archives themselves.
const manifestFileName = "manifest.json"

func manifestPath(p paths.DataPaths) string {
	return filepath.Join(p.ToolsDir, manifestFileName)
}

func newManifest() Manifest {
	return Manifest{Entries: map[ID]ManifestEntry{}}
}

// loadManifest returns an empty manifest until the first download records one.
func loadManifest(p paths.DataPaths) (Manifest, error) {
	path := manifestPath(p)
	contents, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return newManifest(), nil
	case err != nil:
		return Manifest{}, fmt.Errorf("read tools manifest: %w", err)
	}

	m := newManifest()
	if err := json.Unmarshal(contents, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if m.Entries == nil {
		m.Entries = map[ID]ManifestEntry{}
	}
	return m, nil
}

func saveManifest(p paths.DataPaths, m Manifest) error {
	return paths.WriteAtomic(manifestPath(p), 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode tools manifest: %w", err)
		}
		return nil
	})
}

// recordDownload notes the source of a freshly downloaded archive. An
// unreadable manifest is replaced rather than blocking the record.
func recordDownload(p paths.DataPaths, entry ManifestEntry) error {
	m, err := loadManifest(p)
	if err != nil {
		m = newManifest()
	}
	m.Entries[entry.Tool] = entry
	return saveManifest(p, m)
}
