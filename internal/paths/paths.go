package paths

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// DataDirEnv overrides the data root for every command.
const DataDirEnv = "BAFB_DATA_DIR"

// DataPaths captures canonical locations under the bafb data root.
type DataPaths struct {
	Root      string
	ToolsDir  string
	IL2CPPDir string
	APKDir    string
	LogsDir   string
}

// Resolve determines the data root using the explicit override, then the
// BAFB_DATA_DIR environment variable, then the per-user data directory.
func Resolve(override string) (DataPaths, error) {
	if override == "" {
		if env, ok := os.LookupEnv(DataDirEnv); ok && env != "" {
			override = env
		}
	}
	if override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return DataPaths{}, fmt.Errorf("resolve data dir: %w", err)
		}
		return New(abs), nil
	}

	root, err := defaultRoot()
	if err != nil {
		return DataPaths{}, err
	}
	return New(root), nil
}

// New lays out the standard hierarchy below root.
func New(root string) DataPaths {
	return DataPaths{
		Root:      root,
		ToolsDir:  filepath.Join(root, "tools"),
		IL2CPPDir: filepath.Join(root, "il2cpp"),
		APKDir:    filepath.Join(root, "apk"),
		LogsDir:   filepath.Join(root, "logs"),
	}
}

func defaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("detect user home: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "bafb"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "bafb"), nil
		}
		return filepath.Join(home, "AppData", "Local", "bafb"), nil
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "bafb"), nil
		}
		return filepath.Join(home, ".local", "share", "bafb"), nil
	}
}

// ToolArchive is the downloaded archive for a tool.
func (p DataPaths) ToolArchive(tool string) string {
	return filepath.Join(p.ToolsDir, tool+".zip")
}

// ToolDir is the extraction directory for a tool.
func (p DataPaths) ToolDir(tool string) string {
	return filepath.Join(p.ToolsDir, tool)
}

// LibIL2CPP is the extracted game binary for a region.
func (p DataPaths) LibIL2CPP(region string) string {
	return filepath.Join(p.IL2CPPDir, region, "libil2cpp.so")
}

// Metadata is the extracted global-metadata.dat for a region.
func (p DataPaths) Metadata(region string) string {
	return filepath.Join(p.IL2CPPDir, region, "global-metadata.dat")
}

// APK is the downloaded package for a region.
func (p DataPaths) APK(region string) string {
	return filepath.Join(p.APKDir, region+".apk")
}

// EnsureDirs creates the data hierarchy.
func (p DataPaths) EnsureDirs() error {
	dirs := []string{p.Root, p.ToolsDir, p.IL2CPPDir, p.APKDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// WriteAtomic streams write into a temp file beside path and renames it into
// place once write and close succeed. On failure path is left untouched.
func WriteAtomic(path string, perm os.FileMode, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prepare %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.part")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}
	committed = true
	return nil
}
