package apk

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"bafb/internal/archive"
	"bafb/internal/config"
	"bafb/internal/download"
	"bafb/internal/logx"
	"bafb/internal/paths"
)

const (
	LibIL2CPPEntry = "lib/arm64-v8a/libil2cpp.so"
	MetadataEntry  = "assets/bin/Data/Managed/Metadata/global-metadata.dat"
)

// Fetcher downloads regional APKs into the data directory.
type Fetcher struct {
	Paths      paths.DataPaths
	Downloader *download.Downloader
	Logger     *slog.Logger
	Sources    map[Region]string
}

func NewFetcher(p paths.DataPaths, d *download.Downloader, logger *slog.Logger, cfg config.APKConfig) *Fetcher {
	sources := map[Region]string{}
	if cfg.Global != "" {
		sources[Global] = cfg.Global
	}
	if cfg.Japan != "" {
		sources[Japan] = cfg.Japan
	}
	return &Fetcher{Paths: p, Downloader: d, Logger: logger, Sources: sources}
}

// Source returns the configured URL for region, or its default.
func (f *Fetcher) Source(r Region) string {
	if s, ok := f.Sources[r]; ok && s != "" {
		return s
	}
	return r.DefaultSource()
}

// Download fetches the region's APK unless it is already present. force
// always re-downloads.
func (f *Fetcher) Download(ctx context.Context, r Region, force bool) (string, error) {
	logger := f.Logger
	if logger == nil {
		logger = logx.Discard()
	}

	dest := f.Paths.APK(string(r))
	if !force {
		exists, err := paths.FileExists(dest)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", dest, err)
		}
		if exists {
			logger.Warn("apk already downloaded, skipping", "region", r)
			return dest, nil
		}
	}

	logger.Info("downloading apk", "region", r)
	if err := f.Downloader.Download(ctx, f.Source(r), dest); err != nil {
		return "", fmt.Errorf("download %s apk: %w", r, err)
	}
	logx.Success(logger, "downloaded apk", "region", r)
	return dest, nil
}

// Extractor pulls the IL2CPP inputs out of a downloaded APK.
type Extractor struct {
	Paths  paths.DataPaths
	Logger *slog.Logger
}

// ExtractIL2CPP writes libil2cpp.so and global-metadata.dat for region. The
// APK may be a plain APK or an XAPK bundle of split APKs.
func (e *Extractor) ExtractIL2CPP(r Region) error {
	logger := e.Logger
	if logger == nil {
		logger = logx.Discard()
	}

	apkPath := e.Paths.APK(string(r))
	reader, err := zip.OpenReader(apkPath)
	if err != nil {
		return fmt.Errorf("open apk %s: %w", apkPath, err)
	}
	defer reader.Close()

	logger.Info("extracting il2cpp files", "region", r)
	found, err := locate(&reader.Reader, LibIL2CPPEntry, MetadataEntry)
	if err != nil {
		return fmt.Errorf("%s: %w", apkPath, err)
	}

	targets := map[string]string{
		LibIL2CPPEntry: e.Paths.LibIL2CPP(string(r)),
		MetadataEntry:  e.Paths.Metadata(string(r)),
	}
	for entry, target := range targets {
		if err := writeAtomic(found[entry], target); err != nil {
			return err
		}
	}
	logx.Success(logger, "extracted il2cpp files", "region", r)
	return nil
}

// locate finds each wanted entry in zr or, failing that, in the split APKs
// bundled inside it.
func locate(zr *zip.Reader, wanted ...string) (map[string]*zip.File, error) {
	found := make(map[string]*zip.File, len(wanted))
	collect(zr, wanted, found)

	for _, f := range zr.File {
		if len(found) == len(wanted) {
			break
		}
		if !strings.EqualFold(path.Ext(f.Name), ".apk") {
			continue
		}
		nested, err := archive.OpenNested(f)
		if err != nil {
			return nil, err
		}
		collect(nested, wanted, found)
	}

	for _, name := range wanted {
		if _, ok := found[name]; !ok {
			return nil, fmt.Errorf("%w: %s", archive.ErrEntryNotFound, name)
		}
	}
	return found, nil
}

func collect(zr *zip.Reader, wanted []string, found map[string]*zip.File) {
	for _, name := range wanted {
		if _, ok := found[name]; ok {
			continue
		}
		if f, err := archive.Find(zr, name); err == nil {
			found[name] = f
		}
	}
}

func writeAtomic(f *zip.File, target string) error {
	return paths.WriteAtomic(target, 0o644, func(w io.Writer) error {
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", f.Name, err)
		}
		defer rc.Close()
		if _, err := io.Copy(w, rc); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
		return nil
	})
}
