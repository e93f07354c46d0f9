package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/xi2/xz"
)

// Format identifies an archive container.
type Format string

const (
	FormatUnknown Format = ""
	FormatZip     Format = "zip"
	FormatTarGz   Format = "tar.gz"
	FormatTarXz   Format = "tar.xz"
)

var (
	// ErrEntryNotFound is returned when a required archive entry is missing.
	ErrEntryNotFound = errors.New("archive entry not found")
	// ErrUnknownFormat is returned for files that are not a supported archive.
	ErrUnknownFormat = errors.New("unknown archive format")
)

var (
	// Local file header, end of central directory (empty zip) and the
	// spanned-archive marker.
	magicZip      = []byte("PK\x03\x04")
	magicZipEmpty = []byte("PK\x05\x06")
	magicZipSpan  = []byte("PK\x07\x08")
	magicGzip     = []byte{0x1f, 0x8b}
	magicXz       = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// Options controls extraction.
type Options struct {
	// Nested unwraps a zip whose first entry is itself a zip.
	Nested bool
	// Executable marks entries whose name ends with this value 0755.
	Executable string
}

// Detect sniffs the archive format from the leading bytes of path.
func Detect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, 6)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FormatUnknown, fmt.Errorf("read archive %s: %w", path, err)
	}
	return sniff(head[:n]), nil
}

func sniff(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, magicZip),
		bytes.HasPrefix(head, magicZipEmpty),
		bytes.HasPrefix(head, magicZipSpan):
		return FormatZip
	case bytes.HasPrefix(head, magicGzip):
		return FormatTarGz
	case bytes.HasPrefix(head, magicXz):
		return FormatTarXz
	default:
		return FormatUnknown
	}
}

// Install extracts archivePath into dest atomically. Entries are written to a
// staging directory next to dest which then replaces dest, so an interrupted
// extraction never leaves a partial tree at dest.
func Install(archivePath, dest string, opts Options) error {
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("prepare %s: %w", parent, err)
	}

	staging, err := os.MkdirTemp(parent, "."+filepath.Base(dest)+"-extract-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging)
		}
	}()

	if err := Extract(archivePath, staging, opts); err != nil {
		return err
	}

	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("replace %s: %w", dest, err)
	}
	if err := os.Rename(staging, dest); err != nil {
		return fmt.Errorf("commit %s: %w", dest, err)
	}
	committed = true
	return nil
}

// Extract writes every entry of archivePath below dest, keeping the archive's
// relative names.
func Extract(archivePath, dest string, opts Options) error {
	format, err := Detect(archivePath)
	if err != nil {
		return err
	}

	switch format {
	case FormatZip:
		reader, err := zip.OpenReader(archivePath)
		if err != nil {
			return fmt.Errorf("open zip %s: %w", archivePath, err)
		}
		defer reader.Close()
		return extractZipArchive(archivePath, &reader.Reader, dest, opts)
	case FormatTarGz, FormatTarXz:
		if err := extractTar(archivePath, format, dest, opts.Executable); err != nil {
			return fmt.Errorf("extract %s: %w", archivePath, err)
		}
		return nil
	default:
		// Prefixed and self-extracting zips keep their central directory at
		// the end of the file.
		reader, err := zip.OpenReader(archivePath)
		if err != nil {
			return fmt.Errorf("extract %s: %w", archivePath, ErrUnknownFormat)
		}
		defer reader.Close()
		return extractZipArchive(archivePath, &reader.Reader, dest, opts)
	}
}

func extractZipArchive(archivePath string, zr *zip.Reader, dest string, opts Options) error {
	if opts.Nested {
		if len(zr.File) == 0 {
			return fmt.Errorf("open nested zip in %s: %w", archivePath, ErrEntryNotFound)
		}
		inner, err := OpenNested(zr.File[0])
		if err != nil {
			return fmt.Errorf("open nested zip in %s: %w", archivePath, err)
		}
		zr = inner
	}
	if err := ExtractZip(zr, dest, opts.Executable); err != nil {
		return fmt.Errorf("extract %s: %w", archivePath, err)
	}
	return nil
}

// OpenNested reads a zip entry into memory and opens it as a zip.
func OpenNested(f *zip.File) (*zip.Reader, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open entry %s as zip: %w", f.Name, err)
	}
	return zr, nil
}

// Find returns the first entry whose slash-separated name equals name.
func Find(zr *zip.Reader, name string) (*zip.File, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
}

// ExtractZip writes each entry of zr below dest.
func ExtractZip(zr *zip.Reader, dest, executable string) error {
	for _, file := range zr.File {
		target, err := safeJoin(dest, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
			continue
		}
		if err := writeEntry(file, target); err != nil {
			return err
		}
		if err := markExecutable(target, file.Name, executable); err != nil {
			return err
		}
	}
	return nil
}

// writeEntry copies a single zip entry to target, creating parent dirs.
func writeEntry(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("prepare file %s: %w", target, err)
	}
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", file.Name, err)
	}
	defer rc.Close()

	return writeFile(target, rc, 0o644)
}

func extractTar(archivePath string, format Format, dest, executable string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	var stream io.Reader
	switch format {
	case FormatTarGz:
		gz, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		stream = gz
	case FormatTarXz:
		xzr, err := xz.NewReader(file, 0)
		if err != nil {
			return fmt.Errorf("xz reader: %w", err)
		}
		stream = xzr
	}

	tr := tar.NewReader(stream)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}
		target, err := safeJoin(dest, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("prepare file %s: %w", target, err)
			}
			if err := writeFile(target, tr, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
			if err := markExecutable(target, header.Name, executable); err != nil {
				return err
			}
		default:
			// Links and devices are not part of tool releases.
		}
	}
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", target, err)
	}
	return nil
}

func markExecutable(target, name, executable string) error {
	if runtime.GOOS == "windows" || executable == "" || !strings.HasSuffix(name, executable) {
		return nil
	}
	if err := os.Chmod(target, 0o755); err != nil {
		return fmt.Errorf("chmod %s: %w", target, err)
	}
	return nil
}

// safeJoin rejects entry names that escape dest.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes %s", name, dest)
	}
	return target, nil
}
