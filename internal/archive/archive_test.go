package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetect(t *testing.T) {
	cases := []struct {
		data []byte
		want Format
	}{
		{zipBytes(t, map[string]string{"a": "b"}), FormatZip},
		{zipBytes(t, nil), FormatZip},
		{[]byte("PK\x07\x08rest"), FormatZip},
		{[]byte{0x1f, 0x8b, 0x08, 0x00}, FormatTarGz},
		{[]byte{0xfd, '7', 'z', 'X', 'Z', 0x00, 0x00}, FormatTarXz},
		{[]byte("plain text"), FormatUnknown},
		{nil, FormatUnknown},
	}
	for i, tc := range cases {
		got, err := Detect(writeTemp(t, "archive", tc.data))
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if got != tc.want {
			t.Fatalf("case %d: got %q, want %q", i, got, tc.want)
		}
	}
}

func TestExtractZipMarksExecutable(t *testing.T) {
	src := writeTemp(t, "tool.zip", zipBytes(t, map[string]string{
		"flatc":          "binary",
		"docs/README.md": "readme",
	}))
	dest := t.TempDir()

	if err := Extract(src, dest, Options{Executable: "flatc"}); err != nil {
		t.Fatalf("extract: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dest, "docs", "README.md"))
	if err != nil || string(data) != "readme" {
		t.Fatalf("nested entry not preserved: %q %v", data, err)
	}

	if runtime.GOOS == "windows" {
		return
	}
	info, err := os.Stat(filepath.Join(dest, "flatc"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("expected 0755 on binary, got %v", info.Mode().Perm())
	}
	info, err = os.Stat(filepath.Join(dest, "docs", "README.md"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o111 != 0 {
		t.Fatalf("expected non-executable readme, got %v", info.Mode().Perm())
	}
}

func TestExtractNestedZip(t *testing.T) {
	inner := zipBytes(t, map[string]string{"FbsDumper": "dumper", "FbsDumper.pdb": "symbols"})
	src := writeTemp(t, "outer.zip", zipBytes(t, map[string]string{"FbsDumperV2-linux-x64.zip": string(inner)}))
	dest := t.TempDir()

	if err := Extract(src, dest, Options{Nested: true, Executable: "FbsDumper"}); err != nil {
		t.Fatalf("extract nested: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "FbsDumper"))
	if err != nil || string(data) != "dumper" {
		t.Fatalf("inner binary missing: %q %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(dest, "FbsDumperV2-linux-x64.zip")); !os.IsNotExist(err) {
		t.Fatalf("outer entry should not be written, stat err=%v", err)
	}
}

func TestExtractNestedEmpty(t *testing.T) {
	src := writeTemp(t, "empty.zip", zipBytes(t, nil))
	err := Extract(src, t.TempDir(), Options{Nested: true})
	if !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestExtractCorruptZip(t *testing.T) {
	src := writeTemp(t, "corrupt.zip", append([]byte("PK\x03\x04"), bytes.Repeat([]byte{0}, 32)...))
	err := Extract(src, t.TempDir(), Options{})
	if err == nil {
		t.Fatal("expected error for corrupt zip")
	}
}

func TestExtractMissingArchive(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.zip")
	err := Extract(missing, t.TempDir(), Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestExtractRejectsEscapingEntries(t *testing.T) {
	src := writeTemp(t, "slip.zip", zipBytes(t, map[string]string{"../evil": "x"}))
	if err := Extract(src, t.TempDir(), Options{}); err == nil {
		t.Fatal("expected error for escaping entry")
	}
}

func TestExtractTarGz(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	body := []byte("compiler")
	if err := tw.WriteHeader(&tar.Header{Name: "bin/flatc", Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(body); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	src := writeTemp(t, "flatc.tar.gz", buf.Bytes())
	dest := t.TempDir()
	if err := Extract(src, dest, Options{Executable: "flatc"}); err != nil {
		t.Fatalf("extract tar.gz: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "bin", "flatc"))
	if err != nil || string(data) != "compiler" {
		t.Fatalf("unexpected content %q %v", data, err)
	}
}

func TestExtractTarXz(t *testing.T) {
	dest := t.TempDir()
	if err := Extract(filepath.Join("testdata", "flatc.tar.xz"), dest, Options{Executable: "flatc"}); err != nil {
		t.Fatalf("extract tar.xz: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dest, "bin", "flatc"))
	if err != nil || string(data) != "compiler" {
		t.Fatalf("unexpected binary %q %v", data, err)
	}
	data, err = os.ReadFile(filepath.Join(dest, "LICENSE.txt"))
	if err != nil || string(data) != "apache" {
		t.Fatalf("unexpected license %q %v", data, err)
	}

	if runtime.GOOS == "windows" {
		return
	}
	info, err := os.Stat(filepath.Join(dest, "bin", "flatc"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("expected 0755 on binary, got %v", info.Mode().Perm())
	}
	info, err = os.Stat(filepath.Join(dest, "LICENSE.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o111 != 0 {
		t.Fatalf("expected non-executable license, got %v", info.Mode().Perm())
	}
}

func TestExtractPrefixedZip(t *testing.T) {
	data := append([]byte("#!/bin/sh\nexit 0\n"), zipBytes(t, map[string]string{"flatc": "binary"})...)
	src := writeTemp(t, "sfx.zip", data)
	dest := t.TempDir()

	if err := Extract(src, dest, Options{Executable: "flatc"}); err != nil {
		t.Fatalf("extract prefixed zip: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dest, "flatc"))
	if err != nil || string(got) != "binary" {
		t.Fatalf("unexpected binary %q %v", got, err)
	}
}

func TestExtractGarbageIsUnknownFormat(t *testing.T) {
	src := writeTemp(t, "tool.zip", []byte("not an archive at all"))
	if err := Extract(src, t.TempDir(), Options{}); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestInstallReplacesDestination(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "FlatC")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "stale"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := writeTemp(t, "FlatC.zip", zipBytes(t, map[string]string{"flatc": "new"}))
	if err := Install(src, dest, Options{Executable: "flatc"}); err != nil {
		t.Fatalf("install: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dest, "stale")); !os.IsNotExist(err) {
		t.Fatalf("stale file should be gone, stat err=%v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "flatc"))
	if err != nil || string(data) != "new" {
		t.Fatalf("unexpected binary %q %v", data, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("staging dir left behind: %v", entries)
	}
}

func TestInstallFailureKeepsDestination(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "FlatC")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "flatc"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := writeTemp(t, "FlatC.zip", []byte("not an archive"))
	if err := Install(src, dest, Options{}); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "flatc"))
	if err != nil || string(data) != "old" {
		t.Fatalf("destination should be untouched, got %q %v", data, err)
	}
}

func TestFind(t *testing.T) {
	data := zipBytes(t, map[string]string{"lib/arm64-v8a/libil2cpp.so": "elf"})
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Find(zr, "lib/arm64-v8a/libil2cpp.so"); err != nil {
		t.Fatalf("find: %v", err)
	}
	if _, err := Find(zr, "missing"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}
