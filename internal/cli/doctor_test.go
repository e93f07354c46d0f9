package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"bafb/internal/apk"
	"bafb/internal/config"
	"bafb/internal/paths"
	"bafb/internal/tools"
)

func TestCheckConfigWithError(t *testing.T) {
	result := checkConfig(config.Config{}, fmt.Errorf("config file not found"))
	if result.Status != "error" {
		t.Errorf("got status=%q, want error", result.Status)
	}
	if result.Name != "Config" {
		t.Errorf("got name=%q, want Config", result.Name)
	}
}

func TestCheckConfigLevels(t *testing.T) {
	if got := checkConfig(config.Default(), nil); got.Status != "ok" || got.Summary != "built-in defaults" {
		t.Errorf("defaults: %+v", got)
	}

	warn := config.Default()
	warn.Path = "bafb.toml"
	warn.Unknown = []string{"flatc.mystery"}
	if got := checkConfig(warn, nil); got.Status != "warning" || !strings.Contains(got.Summary, "flatc.mystery") {
		t.Errorf("unknown key: %+v", got)
	}

	bad := config.Default()
	bad.APK.Japan = "ftp://example.com/ba.apk"
	if got := checkConfig(bad, nil); got.Status != "error" {
		t.Errorf("bad apk source: %+v", got)
	}
}

func TestCheckToolsAndRegion(t *testing.T) {
	dp := paths.New(t.TempDir())
	defs := tools.Definitions(config.ToolsConfig{})

	if got := checkTools(dp, defs); got.Status != "warning" || !strings.Contains(got.Summary, "0 of 3") {
		t.Errorf("empty tools: %+v", got)
	}
	for _, def := range defs {
		seedTool(t, dp, def.Name, def.ExecutableName())
	}
	if got := checkTools(dp, defs); got.Status != "ok" {
		t.Errorf("seeded tools: %+v", got)
	}

	if got := checkRegion(dp, apk.Global); got.Status != "warning" {
		t.Errorf("missing region files: %+v", got)
	}
	writeFile(t, dp.APK("global"), "apk", 0o644)
	writeFile(t, dp.LibIL2CPP("global"), "elf", 0o644)
	writeFile(t, dp.Metadata("global"), "meta", 0o644)
	if got := checkRegion(dp, apk.Global); got.Status != "ok" {
		t.Errorf("present region files: %+v", got)
	}
}

func TestDoctorJSON(t *testing.T) {
	t.Chdir(t.TempDir())
	stdout, _, err := execute(t, "--data-dir", t.TempDir(), "doctor", "--json")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}

	var checks []healthCheck
	if err := json.Unmarshal([]byte(stdout), &checks); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	var names []string
	for _, c := range checks {
		names = append(names, c.Name)
	}
	want := "Config,Platform,Tools,APK japan,APK global"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("checks = %s, want %s", got, want)
	}
}
