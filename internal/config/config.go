package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"bafb/internal/wrappers"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("config file is malformed")
)

// DefaultFileNames are searched, in order, in the working directory when no
// explicit config path is given.
var DefaultFileNames = []string{"bafb.toml", "bafb.yaml", "bafb.yml"}

// Config holds per-tool options plus the sources the tools and APKs are
// fetched from.
type Config struct {
	Il2CppDumper wrappers.Il2CppDumperOptions `toml:"il2cpp_dumper" yaml:"il2cpp_dumper"`
	FbsDumper    wrappers.FbsDumperOptions    `toml:"fbs_dumper" yaml:"fbs_dumper"`
	FlatC        wrappers.FlatCOptions        `toml:"flatc" yaml:"flatc"`
	Tools        ToolsConfig                  `toml:"tools" yaml:"tools"`
	APK          APKConfig                    `toml:"apk" yaml:"apk"`

	// Path is the file the config was read from, empty for built-in defaults.
	Path string `toml:"-" yaml:"-"`
	// Unknown lists keys present in the file that no field recognises.
	Unknown []string `toml:"-" yaml:"-"`
}

type ToolsConfig struct {
	Il2CppDumper ToolConfig `toml:"il2cpp_dumper" yaml:"il2cpp_dumper"`
	FbsDumper    ToolConfig `toml:"fbs_dumper" yaml:"fbs_dumper"`
	FlatC        ToolConfig `toml:"flatc" yaml:"flatc"`
}

// ToolConfig overrides where a tool comes from. Empty fields keep the
// built-in definition.
type ToolConfig struct {
	Source    string `toml:"source,omitempty" yaml:"source,omitempty"`
	Binary    string `toml:"binary,omitempty" yaml:"binary,omitempty"`
	MacPrefix *bool  `toml:"mac_prefix,omitempty" yaml:"mac_prefix,omitempty"`
}

// APKConfig overrides the per-region APK download URLs.
type APKConfig struct {
	Global string `toml:"global,omitempty" yaml:"global,omitempty"`
	Japan  string `toml:"japan,omitempty" yaml:"japan,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Il2CppDumper: wrappers.DefaultIl2CppDumperOptions(),
	}
}

// Load reads the config at path. An explicit path must exist. With an empty
// path the default file names are tried in the working directory, and the
// built-in defaults are returned when none exists.
func Load(path string) (Config, error) {
	if path == "" {
		for _, name := range DefaultFileNames {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
		if path == "" {
			return Default(), nil
		}
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	var unknown []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		unknown, err = decodeYAML(contents, &cfg)
	default:
		unknown, err = decodeTOML(contents, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}
	cfg.Path = path
	cfg.Unknown = unknown
	return cfg, nil
}

func decodeTOML(contents []byte, cfg *Config) ([]string, error) {
	md, err := toml.Decode(string(contents), cfg)
	if err != nil {
		return nil, err
	}
	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	return unknown, nil
}

// decodeYAML decodes strictly first to learn which keys are unknown, then
// leniently so unknown keys do not reject the file.
func decodeYAML(contents []byte, cfg *Config) ([]string, error) {
	strict := *cfg
	dec := yaml.NewDecoder(bytes.NewReader(contents))
	dec.KnownFields(true)
	err := dec.Decode(&strict)
	switch {
	case err == nil:
		*cfg = strict
		return nil, nil
	case errors.Is(err, io.EOF):
		return nil, nil
	}

	var typeErr *yaml.TypeError
	if !errors.As(err, &typeErr) {
		return nil, err
	}
	var unknown []string
	for _, msg := range typeErr.Errors {
		if !strings.Contains(msg, "not found in type") {
			return nil, err
		}
		unknown = append(unknown, msg)
	}
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, err
	}
	return unknown, nil
}

// Marshal renders the configuration as TOML.
func (c Config) Marshal() ([]byte, error) {
	return c.Encode("toml")
}

// Encode renders the configuration as "toml" or "yaml".
func (c Config) Encode(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "toml", "":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, fmt.Errorf("marshal config: %w", err)
		}
		return buf.Bytes(), nil
	case "yaml", "yml":
		buf, err := yaml.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("marshal config: %w", err)
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}
}
