package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"bafb/internal/archive"
	"bafb/internal/download"
	"bafb/internal/logx"
	"bafb/internal/paths"
	"bafb/internal/platform"
)

const (
	lockFileName   = ".lock"
	lockPollEvery  = 100 * time.Millisecond
	lockStaleAfter = 30 * time.Minute
)

// Fetcher downloads tool archives into the tools directory.
type Fetcher struct {
	Paths      paths.DataPaths
	Downloader *download.Downloader
	Logger     *slog.Logger
	APIBase    string
	Token      string
	GOOS       string
	GOARCH     string
}

// NewFetcher builds a fetcher for the running platform, picking up the GitHub
// API overrides from the environment.
func NewFetcher(p paths.DataPaths, d *download.Downloader, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		Paths:      p,
		Downloader: d,
		Logger:     logger,
		APIBase:    os.Getenv(GitHubAPIEnv),
		Token:      os.Getenv(GitHubTokenEnv),
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
	}
}

// ResolveURL turns the tool's source into a concrete download URL.
func (f *Fetcher) ResolveURL(ctx context.Context, def ToolDefinition) (string, error) {
	goos, goarch := f.platform()
	if isURL(def.Source) {
		if !strings.Contains(def.Source, "{platform}") {
			return def.Source, nil
		}
		tag, err := platform.Resolve(goos, goarch, def.MacPrefix)
		if err != nil {
			return "", fmt.Errorf("%s: %w", def.Name, err)
		}
		return strings.ReplaceAll(def.Source, "{platform}", tag), nil
	}

	suffix, err := def.assetSuffix(goos, goarch)
	if err != nil {
		return "", fmt.Errorf("%s: %w", def.Name, err)
	}
	return f.latestAssetURL(ctx, def.Source, suffix)
}

// Fetch downloads the tool archive, replacing any previous copy, and returns
// its path.
func (f *Fetcher) Fetch(ctx context.Context, def ToolDefinition) (string, error) {
	url, err := f.ResolveURL(ctx, def)
	if err != nil {
		return "", err
	}

	dest := f.Paths.ToolArchive(def.Name)
	f.logger().Info("downloading tool", "tool", def.Name)
	f.logger().Debug("download source", "tool", def.Name, "url", url, "dest", dest)
	if err := f.Downloader.Download(ctx, url, dest); err != nil {
		return "", fmt.Errorf("download %s: %w", def.Name, err)
	}

	entry := ManifestEntry{
		Tool:         def.ID,
		URL:          url,
		Archive:      dest,
		DownloadedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := recordDownload(f.Paths, entry); err != nil {
		f.logger().Warn("could not update tools manifest", "err", err)
	}
	logx.Success(f.logger(), "downloaded", "tool", def.Name)
	return dest, nil
}

func (f *Fetcher) platform() (string, string) {
	goos, goarch := f.GOOS, f.GOARCH
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	return goos, goarch
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger == nil {
		return logx.Discard()
	}
	return f.Logger
}

// Extractor unpacks downloaded tool archives.
type Extractor struct {
	Paths  paths.DataPaths
	Logger *slog.Logger
}

// Extract unpacks the tool archive and returns the binary path. Without
// forced, an existing binary is kept and the archive is not opened.
func (e *Extractor) Extract(ctx context.Context, def ToolDefinition, forced bool) (string, error) {
	logger := e.Logger
	if logger == nil {
		logger = logx.Discard()
	}

	target := e.Paths.ToolDir(def.Name)
	binary := filepath.Join(target, def.ExecutableName())
	if !forced {
		exists, err := paths.FileExists(binary)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", binary, err)
		}
		if exists {
			logger.Warn("already extracted, skipping", "tool", def.Name)
			return binary, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	archivePath := e.Paths.ToolArchive(def.Name)
	logger.Info("extracting tool", "tool", def.Name)
	opts := archive.Options{Nested: def.Nested, Executable: def.ExecutableName()}
	if err := archive.Install(archivePath, target, opts); err != nil {
		return "", fmt.Errorf("extract %s: %w", def.Name, err)
	}

	if exists, _ := paths.FileExists(binary); !exists {
		logger.Warn("archive did not contain the expected binary", "tool", def.Name, "binary", def.ExecutableName())
	}
	logx.Success(logger, "extracted", "tool", def.Name)
	return binary, nil
}

// Manager fetches and extracts tools on demand while holding the tools lock.
type Manager struct {
	Paths     paths.DataPaths
	Defs      []ToolDefinition
	Fetcher   *Fetcher
	Extractor *Extractor
}

// Ensure downloads the archive only when it is missing and extracts it only
// when the binary is missing.
func (m *Manager) Ensure(ctx context.Context, id ID) (string, error) {
	return m.install(ctx, id, false)
}

// Update downloads and extracts the tool unconditionally.
func (m *Manager) Update(ctx context.Context, id ID) (string, error) {
	return m.install(ctx, id, true)
}

func (m *Manager) install(ctx context.Context, id ID, force bool) (string, error) {
	def, err := Lookup(m.Defs, string(id))
	if err != nil {
		return "", err
	}

	unlock, err := acquireLock(ctx, m.Paths.ToolsDir)
	if err != nil {
		return "", err
	}
	defer unlock()

	have, err := paths.FileExists(m.Paths.ToolArchive(def.Name))
	if err != nil {
		return "", fmt.Errorf("stat %s archive: %w", def.Name, err)
	}
	if force || !have {
		if _, err := m.Fetcher.Fetch(ctx, def); err != nil {
			return "", err
		}
	}
	return m.Extractor.Extract(ctx, def, force)
}

// acquireLock takes the advisory lock on the tools directory. A lock file
// older than lockStaleAfter is assumed abandoned and removed.
func acquireLock(ctx context.Context, dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare tools dir: %w", err)
	}

	lockPath := filepath.Join(dir, lockFileName)
	ticker := time.NewTicker(lockPollEvery)
	defer ticker.Stop()

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			_ = f.Close()
			return func() { _ = os.Remove(lockPath) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > lockStaleAfter {
			_ = os.Remove(lockPath)
			continue
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
