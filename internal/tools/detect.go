package tools

import (
	"os"
	"path/filepath"

	"bafb/internal/paths"
	"bafb/internal/platform"
)

// Detect returns the on-disk status of each tool, pruning manifest entries
// whose archive no longer exists.
func Detect(p paths.DataPaths, defs []ToolDefinition) ([]Status, error) {
	manifest, err := loadManifest(p)
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(defs))
	changed := false
	for _, def := range defs {
		status := detectOne(p, def)
		if entry, ok := manifest.Entries[def.ID]; ok {
			if status.Downloaded {
				status.Source = entry.URL
				status.DownloadedAt = entry.DownloadedAt
			} else {
				delete(manifest.Entries, def.ID)
				changed = true
			}
		}
		statuses = append(statuses, status)
	}

	if changed {
		if err := saveManifest(p, manifest); err != nil {
			return nil, err
		}
	}
	return statuses, nil
}

func detectOne(p paths.DataPaths, def ToolDefinition) Status {
	status := Status{
		Tool:    def.ID,
		Name:    def.Name,
		Archive: p.ToolArchive(def.Name),
		Binary:  filepath.Join(p.ToolDir(def.Name), def.ExecutableName()),
	}

	if ok, err := paths.FileExists(status.Archive); err != nil {
		status.Error = err.Error()
	} else {
		status.Downloaded = ok
	}

	info, err := os.Stat(status.Binary)
	switch {
	case err == nil && info.Mode().IsRegular():
		status.Extracted = true
		status.Executable = platform.IsWindows() || info.Mode().Perm()&0o111 != 0
	case err != nil && !os.IsNotExist(err):
		status.Error = err.Error()
	}
	return status
}
