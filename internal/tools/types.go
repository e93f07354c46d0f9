package tools

// ID names a managed tool in config sections and on the command line.
type ID string

const (
	Il2CppDumper ID = "il2cpp_dumper"
	FbsDumper    ID = "fbs_dumper"
	FlatC        ID = "flatc"
)

// ToolDefinition contains metadata required to fetch and unpack a tool.
type ToolDefinition struct {
	ID ID
	// Name is the archive base name and the extraction directory.
	Name string
	// Binary is the executable inside the archive, without any .exe suffix.
	Binary string
	// Source is either a URL template containing {platform} or an
	// owner/repo whose latest GitHub release is searched.
	Source    string
	MacPrefix bool
	// Nested marks archives whose first entry is the real zip.
	Nested bool
	// AssetSuffixes overrides the release asset suffix per "goos/goarch" or
	// "goos" key. Without an entry the platform tag is used.
	AssetSuffixes map[string]string
}

// Status captures the on-disk state of a managed tool.
type Status struct {
	Tool         ID     `json:"tool"`
	Name         string `json:"name"`
	Archive      string `json:"archive"`
	Downloaded   bool   `json:"downloaded"`
	Binary       string `json:"binary"`
	Extracted    bool   `json:"extracted"`
	Executable   bool   `json:"executable"`
	Source       string `json:"source,omitempty"`
	DownloadedAt string `json:"downloaded_at,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ManifestEntry records where a downloaded archive came from.
type ManifestEntry struct {
	Tool         ID     `json:"tool"`
	URL          string `json:"url"`
	Archive      string `json:"archive"`
	DownloadedAt string `json:"downloaded_at,omitempty"`
}

// Manifest wraps persisted entries for quick lookup.
type Manifest struct {
	Entries map[ID]ManifestEntry `json:"entries"`
}
