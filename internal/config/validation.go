package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"bafb/internal/wrappers"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

var repoPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// Validate reports problems that would only surface once a tool is fetched
// or run.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	for _, key := range c.Unknown {
		results = append(results, ValidationResult{Level: "warning", Message: "unknown key " + key})
	}
	results = append(results, c.validateToolSources()...)
	results = append(results, c.validateAPKSources()...)
	results = append(results, c.validateFlatC()...)
	results = append(results, c.validateIgnored()...)
	return results
}

// HasErrors reports whether any finding is an error.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}

func (c Config) validateToolSources() []ValidationResult {
	var results []ValidationResult
	for _, tool := range []struct {
		name   string
		source string
	}{
		{"il2cpp_dumper", c.Tools.Il2CppDumper.Source},
		{"fbs_dumper", c.Tools.FbsDumper.Source},
		{"flatc", c.Tools.FlatC.Source},
	} {
		name, source := tool.name, tool.source
		if source == "" {
			continue
		}
		if isHTTP(source) {
			if _, err := url.Parse(strings.ReplaceAll(source, "{platform}", "x")); err != nil {
				results = append(results, ValidationResult{
					Level:   "error",
					Message: fmt.Sprintf("tools.%s.source: %v", name, err),
				})
			}
			continue
		}
		if !repoPattern.MatchString(source) {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("tools.%s.source %q is neither a URL nor owner/repo", name, source),
			})
		}
	}
	return results
}

func (c Config) validateAPKSources() []ValidationResult {
	var results []ValidationResult
	for _, region := range []string{"global", "japan"} {
		source := c.APK.Global
		if region == "japan" {
			source = c.APK.Japan
		}
		if source != "" && !isHTTP(source) {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("apk.%s %q must be an http(s) URL", region, source),
			})
		}
	}
	return results
}

func (c Config) validateFlatC() []ValidationResult {
	var results []ValidationResult
	if std := c.FlatC.CppStd; std != nil {
		if _, ok := std.Token(); !ok {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("flatc.cpp_std %q must be one of c++0x, c++11, c++17", string(*std)),
			})
		}
	}
	return results
}

func (c Config) validateIgnored() []ValidationResult {
	var names []string
	names = append(names, ignoredFields("il2cpp_dumper", c.Il2CppDumper, wrappers.DefaultIl2CppDumperOptions())...)
	names = append(names, ignoredFields("fbs_dumper", c.FbsDumper, wrappers.FbsDumperOptions{})...)
	names = append(names, ignoredFields("flatc", c.FlatC, wrappers.FlatCOptions{})...)

	results := make([]ValidationResult, 0, len(names))
	for _, name := range names {
		results = append(results, ValidationResult{
			Level:   "warning",
			Message: name + " is set by the command and ignored in config",
		})
	}
	return results
}

func isHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
