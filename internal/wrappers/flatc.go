package wrappers

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Language selects a flatc code generator.
type Language string

const (
	LangCpp        Language = "cpp"
	LangJava       Language = "java"
	LangKotlin     Language = "kotlin"
	LangKotlinKmp  Language = "kotlin-kmp"
	LangCSharp     Language = "c-sharp"
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangJavaScript Language = "java-script"
	LangTypeScript Language = "type-script"
	LangPHP        Language = "php"
	LangDart       Language = "dart"
	LangLua        Language = "lua"
	LangLobster    Language = "lobster"
	LangRust       Language = "rust"
	LangSwift      Language = "swift"
	LangNim        Language = "nim"
)

var languageFlags = map[Language]string{
	LangCpp:        "--cpp",
	LangJava:       "--java",
	LangKotlin:     "--kotlin",
	LangKotlinKmp:  "--kotlin-kmp",
	LangCSharp:     "--csharp",
	LangGo:         "--go",
	LangPython:     "--python",
	LangJavaScript: "--js",
	LangTypeScript: "--ts",
	LangPHP:        "--php",
	LangDart:       "--dart",
	LangLua:        "--lua",
	LangLobster:    "--lobster",
	LangRust:       "--rust",
	LangSwift:      "--swift",
	LangNim:        "--nim",
}

var languageAliases = map[string]Language{
	"c++":        LangCpp,
	"csharp":     LangCSharp,
	"cs":         LangCSharp,
	"c#":         LangCSharp,
	"golang":     LangGo,
	"py":         LangPython,
	"javascript": LangJavaScript,
	"js":         LangJavaScript,
	"typescript": LangTypeScript,
	"ts":         LangTypeScript,
	"kotlinkmp":  LangKotlinKmp,
	"rs":         LangRust,
}

func (l Language) Token() (string, bool) {
	flag, ok := languageFlags[l]
	return flag, ok
}

// ParseLanguage accepts the canonical kebab-case names plus a few common
// aliases, case-insensitively.
func ParseLanguage(s string) (Language, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if _, ok := languageFlags[Language(key)]; ok {
		return Language(key), nil
	}
	if lang, ok := languageAliases[key]; ok {
		return lang, nil
	}
	return "", fmt.Errorf("unknown language %q (valid: %s)", s, strings.Join(LanguageNames(), ", "))
}

// LanguageNames lists the canonical language names in sorted order.
func LanguageNames() []string {
	names := make([]string, 0, len(languageFlags))
	for lang := range languageFlags {
		names = append(names, string(lang))
	}
	sort.Strings(names)
	return names
}

// CppStd is the C++ standard targeted by --cpp.
type CppStd string

const (
	Cpp0x CppStd = "c++0x"
	Cpp11 CppStd = "c++11"
	Cpp17 CppStd = "c++17"
)

func (s CppStd) Token() (string, bool) {
	switch s {
	case Cpp0x, Cpp11, Cpp17:
		return string(s), true
	}
	return "", false
}

// FlatCOptions mirrors the flatc command line. Arguments are emitted in field
// order, languages first.
type FlatCOptions struct {
	Languages                []Language `toml:"languages" yaml:"languages" flag:"" list:"tokens" merge:"-"`
	GRPC                     bool       `toml:"grpc" yaml:"grpc" flag:"--grpc"`
	OutputPath               *string    `toml:"output_path" yaml:"output_path" flag:"-o" merge:"-"`
	IncludePaths             []string   `toml:"include_paths" yaml:"include_paths" flag:"-I"`
	Binary                   bool       `toml:"binary" yaml:"binary" flag:"--binary" merge:"-"`
	JSON                     bool       `toml:"json" yaml:"json" flag:"--json" merge:"-"`
	JSONSchema               bool       `toml:"jsonschema" yaml:"jsonschema" flag:"--jsonschema"`
	StrictJSON               bool       `toml:"strict_json" yaml:"strict_json" flag:"--strict-json"`
	AllowNonUTF8             bool       `toml:"allow_non_utf8" yaml:"allow_non_utf8" flag:"--allow-non-utf8"`
	NaturalUTF8              bool       `toml:"natural_utf8" yaml:"natural_utf8" flag:"--natural-utf8"`
	DefaultsJSON             bool       `toml:"defaults_json" yaml:"defaults_json" flag:"--defaults-json"`
	UnknownJSON              bool       `toml:"unknown_json" yaml:"unknown_json" flag:"--unknown-json"`
	NoPrefix                 bool       `toml:"no_prefix" yaml:"no_prefix" flag:"--no-prefix"`
	ScopedEnums              bool       `toml:"scoped_enums" yaml:"scoped_enums" flag:"--scoped-enums"`
	NoEmitMinMaxEnumValues   bool       `toml:"no_emit_min_max_enum_values" yaml:"no_emit_min_max_enum_values" flag:"--no-emit-min-max-enum-values"`
	SwiftImplementationOnly  bool       `toml:"swift_implementation_only" yaml:"swift_implementation_only" flag:"--swift-implementation-only"`
	NoIncludes               bool       `toml:"no_includes" yaml:"no_includes" flag:"--no-includes"`
	GenMutable               bool       `toml:"gen_mutable" yaml:"gen_mutable" flag:"--gen-mutable"`
	GenOnefile               bool       `toml:"gen_onefile" yaml:"gen_onefile" flag:"--gen-onefile"`
	GenNameStrings           bool       `toml:"gen_name_strings" yaml:"gen_name_strings" flag:"--gen-name-strings"`
	GenObjectAPI             bool       `toml:"gen_object_api" yaml:"gen_object_api" flag:"--gen-object-api"`
	GenCompare               bool       `toml:"gen_compare" yaml:"gen_compare" flag:"--gen-compare"`
	GenNullable              bool       `toml:"gen_nullable" yaml:"gen_nullable" flag:"--gen-nullable"`
	JavaPackagePrefix        *string    `toml:"java_package_prefix" yaml:"java_package_prefix" flag:"--java-package-prefix"`
	JavaCheckerframework     bool       `toml:"java_checkerframework" yaml:"java_checkerframework" flag:"--java-checkerframework"`
	GenGenerated             bool       `toml:"gen_generated" yaml:"gen_generated" flag:"--gen-generated"`
	GenJVMStatic             bool       `toml:"gen_jvmstatic" yaml:"gen_jvmstatic" flag:"--gen-jvmstatic"`
	GenAll                   bool       `toml:"gen_all" yaml:"gen_all" flag:"--gen-all"`
	GenJSONEmit              bool       `toml:"gen_json_emit" yaml:"gen_json_emit" flag:"--gen-json-emit"`
	CppInclude               []string   `toml:"cpp_include" yaml:"cpp_include" flag:"--cpp-include"`
	CppPtrType               *string    `toml:"cpp_ptr_type" yaml:"cpp_ptr_type" flag:"--cpp-ptr-type"`
	CppStrType               *string    `toml:"cpp_str_type" yaml:"cpp_str_type" flag:"--cpp-str-type"`
	CppStrFlexCtor           bool       `toml:"cpp_str_flex_ctor" yaml:"cpp_str_flex_ctor" flag:"--cpp-str-flex-ctor"`
	CppFieldCaseStyle        *string    `toml:"cpp_field_case_style" yaml:"cpp_field_case_style" flag:"--cpp-field-case-style"`
	NoCppDirectCopy          bool       `toml:"no_cpp_direct_copy" yaml:"no_cpp_direct_copy" flag:"--no-cpp-direct-copy"`
	CppStd                   *CppStd    `toml:"cpp_std" yaml:"cpp_std" flag:"--cpp-std"`
	CppStaticReflection      bool       `toml:"cpp_static_reflection" yaml:"cpp_static_reflection" flag:"--cpp-static-reflection"`
	ObjectPrefix             *string    `toml:"object_prefix" yaml:"object_prefix" flag:"--object-prefix"`
	ObjectSuffix             *string    `toml:"object_suffix" yaml:"object_suffix" flag:"--object-suffix"`
	GoNamespace              *string    `toml:"go_namespace" yaml:"go_namespace" flag:"--go-namespace"`
	GoImport                 *string    `toml:"go_import" yaml:"go_import" flag:"--go-import"`
	GoModuleName             *string    `toml:"go_module_name" yaml:"go_module_name" flag:"--go-module-name"`
	RawBinary                bool       `toml:"raw_binary" yaml:"raw_binary" flag:"--raw-binary"`
	SizePrefixed             bool       `toml:"size_prefixed" yaml:"size_prefixed" flag:"--size-prefixed"`
	Proto                    bool       `toml:"proto" yaml:"proto" flag:"--proto"`
	ProtoNamespaceSuffix     *string    `toml:"proto_namespace_suffix" yaml:"proto_namespace_suffix" flag:"--proto-namespace-suffix"`
	OneofUnion               bool       `toml:"oneof_union" yaml:"oneof_union" flag:"--oneof-union"`
	KeepProtoID              bool       `toml:"keep_proto_id" yaml:"keep_proto_id" flag:"--keep-proto-id"`
	ProtoIDGap               *string    `toml:"proto_id_gap" yaml:"proto_id_gap" flag:"--proto-id-gap"`
	Schema                   bool       `toml:"schema" yaml:"schema" flag:"--schema"`
	BFBSFilenames            *string    `toml:"bfbs_filenames" yaml:"bfbs_filenames" flag:"--bfbs-filenames"`
	BFBSAbsolutePaths        bool       `toml:"bfbs_absolute_paths" yaml:"bfbs_absolute_paths" flag:"--bfbs-absolute-paths"`
	BFBSComments             bool       `toml:"bfbs_comments" yaml:"bfbs_comments" flag:"--bfbs-comments"`
	BFBSBuiltins             bool       `toml:"bfbs_builtins" yaml:"bfbs_builtins" flag:"--bfbs-builtins"`
	BFBSGenEmbed             bool       `toml:"bfbs_gen_embed" yaml:"bfbs_gen_embed" flag:"--bfbs-gen-embed"`
	Conform                  *string    `toml:"conform" yaml:"conform" flag:"--conform"`
	ConformIncludes          []string   `toml:"conform_includes" yaml:"conform_includes" flag:"--conform-includes"`
	FilenameSuffix           *string    `toml:"filename_suffix" yaml:"filename_suffix" flag:"--filename-suffix"`
	FilenameExt              *string    `toml:"filename_ext" yaml:"filename_ext" flag:"--filename-ext"`
	IncludePrefix            *string    `toml:"include_prefix" yaml:"include_prefix" flag:"--include-prefix"`
	KeepPrefix               bool       `toml:"keep_prefix" yaml:"keep_prefix" flag:"--keep-prefix"`
	ReflectTypes             bool       `toml:"reflect_types" yaml:"reflect_types" flag:"--reflect-types"`
	ReflectNames             bool       `toml:"reflect_names" yaml:"reflect_names" flag:"--reflect-names"`
	RustSerialize            bool       `toml:"rust_serialize" yaml:"rust_serialize" flag:"--rust-serialize"`
	RustModuleRootFile       bool       `toml:"rust_module_root_file" yaml:"rust_module_root_file" flag:"--rust-module-root-file"`
	RootType                 *string    `toml:"root_type" yaml:"root_type" flag:"--root-type"`
	RequireExplicitIDs       bool       `toml:"require_explicit_ids" yaml:"require_explicit_ids" flag:"--require-explicit-ids"`
	ForceDefaults            bool       `toml:"force_defaults" yaml:"force_defaults" flag:"--force-defaults"`
	ForceEmpty               bool       `toml:"force_empty" yaml:"force_empty" flag:"--force-empty"`
	ForceEmptyVectors        bool       `toml:"force_empty_vectors" yaml:"force_empty_vectors" flag:"--force-empty-vectors"`
	Flexbuffers              bool       `toml:"flexbuffers" yaml:"flexbuffers" flag:"--flexbuffers"`
	NoWarnings               bool       `toml:"no_warnings" yaml:"no_warnings" flag:"--no-warnings"`
	WarningsAsErrors         bool       `toml:"warnings_as_errors" yaml:"warnings_as_errors" flag:"--warnings-as-errors"`
	CSGlobalAlias            bool       `toml:"cs_global_alias" yaml:"cs_global_alias" flag:"--cs-global-alias"`
	CSGenJSONSerializer      bool       `toml:"cs_gen_json_serializer" yaml:"cs_gen_json_serializer" flag:"--cs-gen-json-serializer"`
	JSONNestedBytes          bool       `toml:"json_nested_bytes" yaml:"json_nested_bytes" flag:"--json-nested-bytes"`
	TSFlatFiles              bool       `toml:"ts_flat_files" yaml:"ts_flat_files" flag:"--ts-flat-files"`
	TSEntryPoints            bool       `toml:"ts_entry_points" yaml:"ts_entry_points" flag:"--ts-entry-points"`
	AnnotateSparseVectors    bool       `toml:"annotate_sparse_vectors" yaml:"annotate_sparse_vectors" flag:"--annotate-sparse-vectors"`
	Annotate                 *string    `toml:"annotate" yaml:"annotate" flag:"--annotate"`
	NoLeakPrivateAnnotation  bool       `toml:"no_leak_private_annotation" yaml:"no_leak_private_annotation" flag:"--no-leak-private-annotation"`
	PythonNoTypePrefixSuffix bool       `toml:"python_no_type_prefix_suffix" yaml:"python_no_type_prefix_suffix" flag:"--python-no-type-prefix-suffix"`
	PythonTyping             bool       `toml:"python_typing" yaml:"python_typing" flag:"--python-typing"`
	PythonVersion            *string    `toml:"python_version" yaml:"python_version" flag:"--python-version"`
	PythonGenNumpy           bool       `toml:"python_gen_numpy" yaml:"python_gen_numpy" flag:"--python-gen-numpy"`
	TSOmitEntrypoint         bool       `toml:"ts_omit_entrypoint" yaml:"ts_omit_entrypoint" flag:"--ts-omit-entrypoint"`
	FileNamesOnly            bool       `toml:"file_names_only" yaml:"file_names_only" flag:"--file-names-only"`
	GRPCFilenameSuffix       *string    `toml:"grpc_filename_suffix" yaml:"grpc_filename_suffix" flag:"--grpc-filename-suffix"`
	GRPCAdditionalHeader     []string   `toml:"grpc_additional_header" yaml:"grpc_additional_header" flag:"--grpc-additional-header"`
	GRPCSearchPath           *string    `toml:"grpc_search_path" yaml:"grpc_search_path" flag:"--grpc-search-path"`
	GRPCUseSystemHeaders     bool       `toml:"grpc_use_system_headers" yaml:"grpc_use_system_headers" flag:"--grpc-use-system-headers"`
	GRPCPythonTypedHandlers  bool       `toml:"grpc_python_typed_handlers" yaml:"grpc_python_typed_handlers" flag:"--grpc-python-typed-handlers"`
}

type FlatC struct {
	proc process
}

func NewFlatC(binary string, env Env) (*FlatC, error) {
	proc, err := newProcess("flatc", binary, env)
	if err != nil {
		return nil, err
	}
	return &FlatC{proc: proc}, nil
}

// Compile runs flatc over files. binaryFiles, when given, follow a "--"
// separator so flatc reads them as FlatBuffers binaries.
func (f *FlatC) Compile(ctx context.Context, opts FlatCOptions, files, binaryFiles []string) error {
	args, err := CompileArgs(opts, files, binaryFiles)
	if err != nil {
		return err
	}
	return f.proc.run(ctx, args)
}

// CompileArgs builds the argument vector Compile passes to flatc.
func CompileArgs(opts FlatCOptions, files, binaryFiles []string) ([]string, error) {
	args, err := Args(opts)
	if err != nil {
		return nil, fmt.Errorf("flatc options: %w", err)
	}
	args = append(args, files...)
	if len(binaryFiles) > 0 {
		args = append(args, "--")
		args = append(args, binaryFiles...)
	}
	return args, nil
}

func (f *FlatC) CompileSchema(ctx context.Context, schemaFiles []string, lang Language, outputPath string) error {
	return f.Compile(ctx, FlatCOptions{
		Languages:  []Language{lang},
		OutputPath: Ptr(outputPath),
	}, schemaFiles, nil)
}

// JSONToBinary serializes jsonFile into a FlatBuffers binary. An empty
// outputPath leaves the output in flatc's working directory.
func (f *FlatC) JSONToBinary(ctx context.Context, schemaFile, jsonFile, outputPath string) error {
	opts := FlatCOptions{Binary: true}
	if outputPath != "" {
		opts.OutputPath = Ptr(outputPath)
	}
	return f.Compile(ctx, opts, []string{schemaFile, jsonFile}, nil)
}

// BinaryToJSON renders binaryFile as JSON. The binary goes after "--" since
// flatc otherwise parses every positional file as text.
func (f *FlatC) BinaryToJSON(ctx context.Context, schemaFile, binaryFile, outputPath string) error {
	opts := FlatCOptions{JSON: true, StrictJSON: true}
	if outputPath != "" {
		opts.OutputPath = Ptr(outputPath)
	}
	return f.Compile(ctx, opts, []string{schemaFile}, []string{binaryFile})
}
