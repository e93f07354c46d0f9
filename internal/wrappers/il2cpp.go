package wrappers

import (
	"context"
	"fmt"
)

// Il2CppDumperOptions mirrors the Il2CppInspectorRedux CLI. Fields tagged
// merge:"-" are filled in by the command that runs the dumper and are never
// taken from a config file.
type Il2CppDumperOptions struct {
	BinaryFiles           []string `toml:"binary_files" yaml:"binary_files" flag:"--bin" list:"join" merge:"-"`
	MetadataFile          *string  `toml:"metadata_file" yaml:"metadata_file" flag:"--metadata" merge:"-"`
	ImageBase             *string  `toml:"image_base" yaml:"image_base" flag:"--image-base"`
	SelectOutputsOnly     bool     `toml:"select_outputs_only" yaml:"select_outputs_only" flag:"--select-outputs"`
	CSOut                 *string  `toml:"cs_out" yaml:"cs_out" flag:"--cs-out" merge:"-"`
	PyOut                 *string  `toml:"py_out" yaml:"py_out" flag:"--py-out" merge:"-"`
	CppOut                *string  `toml:"cpp_out" yaml:"cpp_out" flag:"--cpp-out"`
	JSONOut               *string  `toml:"json_out" yaml:"json_out" flag:"--json-out" merge:"-"`
	DLLOut                *string  `toml:"dll_out" yaml:"dll_out" flag:"--dll-out" merge:"-"`
	MetadataOut           *string  `toml:"metadata_out" yaml:"metadata_out" flag:"--metadata-out"`
	BinaryOut             *string  `toml:"binary_out" yaml:"binary_out" flag:"--binary-out"`
	ExcludedNamespaces    []string `toml:"excluded_namespaces" yaml:"excluded_namespaces" flag:"--exclude-namespaces" list:"join"`
	Layout                *string  `toml:"layout" yaml:"layout" flag:"--layout"`
	Sort                  *string  `toml:"sort" yaml:"sort" flag:"--sort"`
	Flatten               bool     `toml:"flatten" yaml:"flatten" flag:"--flatten"`
	SuppressMetadata      bool     `toml:"suppress_metadata" yaml:"suppress_metadata" flag:"--suppress-metadata"`
	SuppressDLLMetadata   bool     `toml:"suppress_dll_metadata" yaml:"suppress_dll_metadata" flag:"--suppress-dll-metadata"`
	MustCompile           bool     `toml:"must_compile" yaml:"must_compile" flag:"--must-compile"`
	SeparateAttributes    bool     `toml:"separate_attributes" yaml:"separate_attributes" flag:"--separate-attributes"`
	CreateProject         bool     `toml:"create_project" yaml:"create_project" flag:"--project"`
	CppCompiler           *string  `toml:"cpp_compiler" yaml:"cpp_compiler" flag:"--cpp-compiler"`
	ScriptTarget          *string  `toml:"script_target" yaml:"script_target" flag:"--script-target"`
	UnityPath             *string  `toml:"unity_path" yaml:"unity_path" flag:"--unity-path"`
	UnityAssemblies       *string  `toml:"unity_assemblies" yaml:"unity_assemblies" flag:"--unity-assemblies"`
	UnityVersion          *string  `toml:"unity_version" yaml:"unity_version" flag:"--unity-version"`
	UnityVersionFromAsset *string  `toml:"unity_version_from_asset" yaml:"unity_version_from_asset" flag:"--unity-version-from-asset"`
	PluginOptions         []string `toml:"plugin_options" yaml:"plugin_options" flag:"--plugins" list:"spread"`
}

// DefaultIl2CppDumperOptions returns the options used when nothing is configured.
func DefaultIl2CppDumperOptions() Il2CppDumperOptions {
	return Il2CppDumperOptions{
		BinaryFiles:  []string{"libil2cpp.so"},
		MetadataFile: Ptr("global-metadata.dat"),
		ExcludedNamespaces: []string{
			"System",
			"Mono",
			"Microsoft.Reflection",
			"Microsoft.Win32",
			"Internal.Runtime",
			"Unity",
			"UnityEditor",
			"UnityEngine",
			"UnityEngineInternal",
			"AOT",
			"JetBrains.Annotations",
		},
		Layout:       Ptr("single"),
		Sort:         Ptr("index"),
		ScriptTarget: Ptr("IDA"),
	}
}

type Il2CppDumper struct {
	proc process
}

func NewIl2CppDumper(binary string, env Env) (*Il2CppDumper, error) {
	proc, err := newProcess("Il2CppInspectorRedux", binary, env)
	if err != nil {
		return nil, err
	}
	return &Il2CppDumper{proc: proc}, nil
}

func (d *Il2CppDumper) Run(ctx context.Context, opts Il2CppDumperOptions) error {
	args, err := Args(opts)
	if err != nil {
		return fmt.Errorf("il2cpp dumper options: %w", err)
	}
	return d.proc.run(ctx, args)
}

// Ptr returns a pointer to v, for filling optional option fields.
func Ptr[T any](v T) *T {
	return &v
}
