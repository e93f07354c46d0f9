package wrappers

import (
	"context"
	"errors"
	"fmt"
)

type FbsDumperOptions struct {
	DummyDir           string  `toml:"dummy_dir" yaml:"dummy_dir" flag:"--dummy-dir" merge:"-"`
	Libil2cppPath      string  `toml:"libil2cpp_path" yaml:"libil2cpp_path" flag:"--libil2cpp-path" merge:"-"`
	OutputFile         *string `toml:"output_file" yaml:"output_file" flag:"--output-file" merge:"-"`
	Namespace          *string `toml:"namespace" yaml:"namespace" flag:"--namespace"`
	ForceSnakeCase     bool    `toml:"force_snake_case" yaml:"force_snake_case" flag:"--force-snake-case"`
	NamespaceToLookFor *string `toml:"namespace_to_look_for" yaml:"namespace_to_look_for" flag:"--namespace-to-look-for"`
}

type FbsDumper struct {
	proc process
}

func NewFbsDumper(binary string, env Env) (*FbsDumper, error) {
	proc, err := newProcess("FbsDumperV2", binary, env)
	if err != nil {
		return nil, err
	}
	return &FbsDumper{proc: proc}, nil
}

// Run dumps the FlatBuffers schema. DummyDir and Libil2cppPath are required.
func (d *FbsDumper) Run(ctx context.Context, opts FbsDumperOptions) error {
	if opts.DummyDir == "" || opts.Libil2cppPath == "" {
		return errors.New("fbs dumper: dummy dir and libil2cpp path are required")
	}
	args, err := Args(opts)
	if err != nil {
		return fmt.Errorf("fbs dumper options: %w", err)
	}
	return d.proc.run(ctx, args)
}
