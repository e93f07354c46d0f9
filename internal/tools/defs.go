package tools

import (
	"fmt"
	"strings"

	"bafb/internal/config"
	"bafb/internal/platform"
)

var toolDefinitions = []ToolDefinition{
	{
		ID:     Il2CppDumper,
		Name:   "Il2CppInspectorRedux",
		Binary: "Il2CppInspector.Redux.CLI",
		Source: "https://nightly.link/LukeFZ/Il2CppInspectorRedux/workflows/build/new-ui/Il2CppInspectorRedux.CLI-{platform}.zip",
	},
	{
		ID:     FbsDumper,
		Name:   "FbsDumperV2",
		Binary: "FbsDumper",
		Source: "https://nightly.link/Deathemonic/FbsDumperV2/workflows/build/main/FbsDumperV2-{platform}.zip",
		Nested: true,
	},
	{
		ID:     FlatC,
		Name:   "Flatc",
		Binary: "flatc",
		Source: "https://deathemonic.github.io/storage/tools/flatc/flatc-{platform}.zip",
		AssetSuffixes: map[string]string{
			"windows":      "Windows.flatc.binary",
			"darwin/arm64": "Mac.flatc.binary",
			"darwin/amd64": "MacIntel.flatc.binary",
			"linux":        "Linux.flatc.binary",
		},
	},
}

// Definitions returns the built-in tool definitions with any configured
// overrides applied, in a fixed order.
func Definitions(cfg config.ToolsConfig) []ToolDefinition {
	overrides := map[ID]config.ToolConfig{
		Il2CppDumper: cfg.Il2CppDumper,
		FbsDumper:    cfg.FbsDumper,
		FlatC:        cfg.FlatC,
	}

	defs := make([]ToolDefinition, 0, len(toolDefinitions))
	for _, def := range toolDefinitions {
		o := overrides[def.ID]
		if o.Source != "" {
			def.Source = o.Source
		}
		if o.Binary != "" {
			def.Binary = o.Binary
		}
		if o.MacPrefix != nil {
			def.MacPrefix = *o.MacPrefix
		}
		defs = append(defs, def)
	}
	return defs
}

// KnownTools returns the list of managed tool IDs.
func KnownTools() []ID {
	ids := make([]ID, 0, len(toolDefinitions))
	for _, def := range toolDefinitions {
		ids = append(ids, def.ID)
	}
	return ids
}

// Lookup finds a definition by ID or directory name, case-insensitively.
// Dashes are accepted in place of underscores.
func Lookup(defs []ToolDefinition, name string) (ToolDefinition, error) {
	key := strings.ReplaceAll(strings.ToLower(name), "-", "_")
	for _, def := range defs {
		if string(def.ID) == key || strings.ToLower(def.Name) == key {
			return def, nil
		}
	}
	return ToolDefinition{}, fmt.Errorf("unknown tool %q", name)
}

// ExecutableName is the binary file name on the running OS.
func (d ToolDefinition) ExecutableName() string {
	return platform.ExecutableName(d.Binary)
}

// assetSuffix picks the release asset suffix for goos/goarch.
func (d ToolDefinition) assetSuffix(goos, goarch string) (string, error) {
	if s, ok := d.AssetSuffixes[goos+"/"+goarch]; ok {
		return s, nil
	}
	if s, ok := d.AssetSuffixes[goos]; ok {
		return s, nil
	}
	return platform.Resolve(goos, goarch, d.MacPrefix)
}
