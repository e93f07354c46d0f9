package tools

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"bafb/internal/config"
	"bafb/internal/download"
	"bafb/internal/logx"
	"bafb/internal/paths"
	"bafb/internal/platform"
)

func makeZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func newTestFetcher(p paths.DataPaths, goos, goarch string) *Fetcher {
	f := NewFetcher(p, download.New(logx.Discard(), nil), logx.Discard())
	f.GOOS, f.GOARCH = goos, goarch
	f.APIBase, f.Token = "", ""
	return f
}

func TestDefinitionsApplyOverrides(t *testing.T) {
	mac := true
	defs := Definitions(config.ToolsConfig{
		FlatC: config.ToolConfig{Source: "google/flatbuffers", Binary: "flatc2", MacPrefix: &mac},
	})
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	flatc, err := Lookup(defs, "FLATC")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if flatc.Source != "google/flatbuffers" || flatc.Binary != "flatc2" || !flatc.MacPrefix {
		t.Fatalf("override not applied: %+v", flatc)
	}
	fbs, err := Lookup(defs, "fbs-dumper")
	if err != nil || !fbs.Nested {
		t.Fatalf("fbs lookup = %+v, %v", fbs, err)
	}
	if _, err := Lookup(defs, "Il2CppInspectorRedux"); err != nil {
		t.Fatalf("lookup by directory name: %v", err)
	}
	if _, err := Lookup(defs, "ffmpeg"); err == nil {
		t.Fatal("expected unknown tool error")
	}
}

func TestResolveURLTemplate(t *testing.T) {
	p := paths.New(t.TempDir())
	defs := Definitions(config.ToolsConfig{})
	il2cpp, _ := Lookup(defs, string(Il2CppDumper))

	url, err := newTestFetcher(p, "linux", "amd64").ResolveURL(context.Background(), il2cpp)
	if err != nil {
		t.Fatalf("ResolveURL: %v", err)
	}
	if !strings.HasSuffix(url, "/Il2CppInspectorRedux.CLI-linux-x64.zip") {
		t.Fatalf("unexpected url %s", url)
	}

	il2cpp.MacPrefix = true
	url, err = newTestFetcher(p, "darwin", "arm64").ResolveURL(context.Background(), il2cpp)
	if err != nil {
		t.Fatalf("ResolveURL: %v", err)
	}
	if !strings.HasSuffix(url, "-mac-arm64.zip") {
		t.Fatalf("mac prefix not applied: %s", url)
	}

	_, err = newTestFetcher(p, "plan9", "386").ResolveURL(context.Background(), il2cpp)
	if !errors.Is(err, platform.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func releaseServer(t *testing.T, assets []string, token *string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/repos/google/flatbuffers/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		if token != nil {
			*token = r.Header.Get("Authorization")
		}
		var items []string
		for _, name := range assets {
			items = append(items, fmt.Sprintf(`{"name":%q,"browser_download_url":"%s/download/%s"}`, name, srv.URL, name))
		}
		fmt.Fprintf(w, `{"tag_name":"v25.2.10","assets":[%s]}`, strings.Join(items, ","))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveURLFromRelease(t *testing.T) {
	var auth string
	srv := releaseServer(t, []string{
		"Linux.flatc.binary.g++-13.zip",
		"MacIntel.flatc.binary.zip",
		"Mac.flatc.binary.zip",
		"Windows.flatc.binary.zip",
	}, &auth)

	defs := Definitions(config.ToolsConfig{FlatC: config.ToolConfig{Source: "google/flatbuffers"}})
	flatc, _ := Lookup(defs, string(FlatC))

	cases := []struct {
		goos, goarch string
		want         string
	}{
		{"linux", "amd64", "Linux.flatc.binary.g++-13.zip"},
		{"darwin", "amd64", "MacIntel.flatc.binary.zip"},
		{"darwin", "arm64", "Mac.flatc.binary.zip"},
		{"windows", "amd64", "Windows.flatc.binary.zip"},
	}
	for _, tc := range cases {
		f := newTestFetcher(paths.New(t.TempDir()), tc.goos, tc.goarch)
		f.APIBase = srv.URL
		f.Token = "secret"
		url, err := f.ResolveURL(context.Background(), flatc)
		if err != nil {
			t.Fatalf("%s/%s: %v", tc.goos, tc.goarch, err)
		}
		if !strings.HasSuffix(url, "/download/"+tc.want) {
			t.Fatalf("%s/%s: got %s, want %s", tc.goos, tc.goarch, url, tc.want)
		}
	}
	if auth != "Bearer secret" {
		t.Fatalf("authorization header = %q", auth)
	}
}

func TestResolveURLNoAsset(t *testing.T) {
	srv := releaseServer(t, []string{"flatc-source.tar.gz"}, nil)
	defs := Definitions(config.ToolsConfig{FlatC: config.ToolConfig{Source: "google/flatbuffers"}})
	flatc, _ := Lookup(defs, string(FlatC))

	f := newTestFetcher(paths.New(t.TempDir()), "linux", "amd64")
	f.APIBase = srv.URL
	if _, err := f.ResolveURL(context.Background(), flatc); !errors.Is(err, ErrNoAsset) {
		t.Fatalf("expected ErrNoAsset, got %v", err)
	}
}

type toolServer struct {
	srv      *httptest.Server
	requests atomic.Int32
}

func newToolServer(t *testing.T, body []byte) *toolServer {
	t.Helper()
	ts := &toolServer{}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.requests.Add(1)
		http.ServeContent(w, r, "tool.zip", time.Time{}, bytes.NewReader(body))
	}))
	t.Cleanup(ts.srv.Close)
	return ts
}

func newTestManager(p paths.DataPaths, defs []ToolDefinition) *Manager {
	return &Manager{
		Paths:     p,
		Defs:      defs,
		Fetcher:   newTestFetcher(p, runtime.GOOS, runtime.GOARCH),
		Extractor: &Extractor{Paths: p, Logger: logx.Discard()},
	}
}

func TestManagerEnsureAndUpdate(t *testing.T) {
	exe := platform.ExecutableName("flatc")
	ts := newToolServer(t, makeZip(t, map[string][]byte{exe: []byte("binary"), "LICENSE": []byte("text")}))

	p := paths.New(t.TempDir())
	defs := Definitions(config.ToolsConfig{FlatC: config.ToolConfig{Source: ts.srv.URL + "/flatc-{platform}.zip"}})
	m := newTestManager(p, defs)
	ctx := context.Background()

	binary, err := m.Ensure(ctx, FlatC)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if want := filepath.Join(p.ToolsDir, "Flatc", exe); binary != want {
		t.Fatalf("binary = %s, want %s", binary, want)
	}
	info, err := os.Stat(binary)
	if err != nil {
		t.Fatalf("stat binary: %v", err)
	}
	if !platform.IsWindows() && info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("binary not executable: %v", info.Mode())
	}
	if _, err := os.Stat(filepath.Join(p.ToolsDir, "Flatc.zip")); err != nil {
		t.Fatalf("archive missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(p.ToolsDir, lockFileName)); !os.IsNotExist(err) {
		t.Fatalf("lock not released: %v", err)
	}

	firstRequests := ts.requests.Load()
	if firstRequests == 0 {
		t.Fatal("Ensure did not download")
	}

	if _, err := m.Ensure(ctx, FlatC); err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if got := ts.requests.Load(); got != firstRequests {
		t.Fatalf("Ensure re-downloaded: %d requests, want %d", got, firstRequests)
	}

	if _, err := m.Update(ctx, FlatC); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := ts.requests.Load(); got <= firstRequests {
		t.Fatalf("Update did not download again: %d requests", got)
	}

	statuses, err := Detect(p, defs)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for _, st := range statuses {
		if st.Tool != FlatC {
			if st.Downloaded || st.Extracted {
				t.Fatalf("unexpected status for %s: %+v", st.Tool, st)
			}
			continue
		}
		if !st.Downloaded || !st.Extracted || !st.Executable {
			t.Fatalf("flatc status incomplete: %+v", st)
		}
		if !strings.HasPrefix(st.Source, ts.srv.URL) || st.DownloadedAt == "" {
			t.Fatalf("manifest details missing: %+v", st)
		}
	}
}

func TestManagerEnsureNestedArchive(t *testing.T) {
	exe := platform.ExecutableName("FbsDumper")
	inner := makeZip(t, map[string][]byte{exe: []byte("binary"), "FbsDumper.dll": []byte("dll")})
	ts := newToolServer(t, makeZip(t, map[string][]byte{"FbsDumperV2-linux-x64.zip": inner}))

	p := paths.New(t.TempDir())
	defs := Definitions(config.ToolsConfig{FbsDumper: config.ToolConfig{Source: ts.srv.URL + "/fbs.zip"}})
	binary, err := newTestManager(p, defs).Ensure(context.Background(), FbsDumper)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	data, err := os.ReadFile(binary)
	if err != nil || string(data) != "binary" {
		t.Fatalf("nested binary = %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(p.ToolsDir, "FbsDumperV2", "FbsDumper.dll")); err != nil {
		t.Fatalf("sibling entry missing: %v", err)
	}
}

func TestFetchFailureLeavesNoArchive(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	p := paths.New(t.TempDir())
	defs := Definitions(config.ToolsConfig{FlatC: config.ToolConfig{Source: srv.URL + "/missing.zip"}})
	_, err := newTestManager(p, defs).Ensure(context.Background(), FlatC)
	if !errors.Is(err, download.ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
	if _, err := os.Stat(p.ToolArchive("Flatc")); !os.IsNotExist(err) {
		t.Fatalf("archive should not exist after failed download: %v", err)
	}
}

func TestExtractSkipsExistingBinary(t *testing.T) {
	p := paths.New(t.TempDir())
	defs := Definitions(config.ToolsConfig{})
	def, _ := Lookup(defs, string(Il2CppDumper))

	binary := filepath.Join(p.ToolDir(def.Name), def.ExecutableName())
	if err := os.MkdirAll(filepath.Dir(binary), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(binary, []byte("old"), 0o755); err != nil {
		t.Fatal(err)
	}

	e := &Extractor{Paths: p, Logger: logx.Discard()}
	got, err := e.Extract(context.Background(), def, false)
	if err != nil {
		t.Fatalf("Extract without archive should skip: %v", err)
	}
	if got != binary {
		t.Fatalf("path = %s, want %s", got, binary)
	}

	if _, err := e.Extract(context.Background(), def, true); err == nil {
		t.Fatal("forced extract without an archive should fail")
	} else if !strings.Contains(err.Error(), "Il2CppInspectorRedux.zip") {
		t.Fatalf("error does not name the archive: %v", err)
	}
	if data, _ := os.ReadFile(binary); string(data) != "old" {
		t.Fatal("failed extraction must keep the previous tree")
	}
}

func TestLockWaitsAndRecoversStale(t *testing.T) {
	dir := t.TempDir()
	unlock, err := acquireLock(context.Background(), dir)
	if err != nil {
		t.Fatalf("acquireLock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := acquireLock(ctx, dir); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline while lock held, got %v", err)
	}
	unlock()

	lockPath := filepath.Join(dir, lockFileName)
	if err := os.WriteFile(lockPath, []byte("123\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * lockStaleAfter)
	if err := os.Chtimes(lockPath, old, old); err != nil {
		t.Fatal(err)
	}
	unlock, err = acquireLock(context.Background(), dir)
	if err != nil {
		t.Fatalf("stale lock not recovered: %v", err)
	}
	unlock()
}

func TestDetectPrunesStaleManifest(t *testing.T) {
	p := paths.New(t.TempDir())
	defs := Definitions(config.ToolsConfig{})
	err := saveManifest(p, Manifest{Entries: map[ID]ManifestEntry{
		FlatC: {Tool: FlatC, URL: "https://example.com/flatc.zip"},
	}})
	if err != nil {
		t.Fatalf("saveManifest: %v", err)
	}

	statuses, err := Detect(p, defs)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	manifest, err := loadManifest(p)
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if _, ok := manifest.Entries[FlatC]; ok {
		t.Fatal("entry for a missing archive should be pruned")
	}
}
