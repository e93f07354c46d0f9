package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"bafb/internal/apk"
	"bafb/internal/logx"
	"bafb/internal/paths"
	"bafb/internal/tools"
	"bafb/internal/wrappers"
)

var dumpOutput string

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump the IL2CPP types and FlatBuffers schema of a region",
	}

	for _, region := range []apk.Region{apk.Global, apk.Japan} {
		cmd.AddCommand(newDumpRegionCmd(region))
	}
	return cmd
}

func newDumpRegionCmd(region apk.Region) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(region),
		Short: fmt.Sprintf("Dump the %s server build", region),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDump(cmd, region)
		},
	}
	cmd.Flags().StringVarP(&dumpOutput, "output", "o", "", "Directory receiving the dump")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// dumpOutputs lists the files the dumpers write below the output directory.
type dumpOutputs struct {
	Types    string
	Python   string
	Metadata string
	Dummy    string
	Schema   string
}

func newDumpOutputs(dir string) dumpOutputs {
	return dumpOutputs{
		Types:    filepath.Join(dir, "types.cs"),
		Python:   filepath.Join(dir, "il2cpp.py"),
		Metadata: filepath.Join(dir, "metadata.json"),
		Dummy:    filepath.Join(dir, "dummy"),
		Schema:   filepath.Join(dir, "BlueArchive.fbs"),
	}
}

func runDump(cmd *cobra.Command, region apk.Region) error {
	a, err := appFrom(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := newDumpOutputs(dumpOutput)

	if err := a.prepareIL2CPP(ctx, region); err != nil {
		return err
	}

	il2cppBin, err := a.tools.Ensure(ctx, tools.Il2CppDumper)
	if err != nil {
		return err
	}
	fbsBin, err := a.tools.Ensure(ctx, tools.FbsDumper)
	if err != nil {
		return err
	}
	il2cppDumper, err := wrappers.NewIl2CppDumper(il2cppBin, a.wrapEnv)
	if err != nil {
		return err
	}
	fbsDumper, err := wrappers.NewFbsDumper(fbsBin, a.wrapEnv)
	if err != nil {
		return err
	}

	libil2cpp := a.paths.LibIL2CPP(string(region))

	il2cppOpts := wrappers.DefaultIl2CppDumperOptions()
	il2cppOpts.BinaryFiles = []string{libil2cpp}
	il2cppOpts.MetadataFile = wrappers.Ptr(a.paths.Metadata(string(region)))
	il2cppOpts.CSOut = wrappers.Ptr(out.Types)
	il2cppOpts.PyOut = wrappers.Ptr(out.Python)
	il2cppOpts.JSONOut = wrappers.Ptr(out.Metadata)
	il2cppOpts.DLLOut = wrappers.Ptr(out.Dummy)
	a.cfg.MergeIl2CppDumper(&il2cppOpts)

	err = a.runTool("dumping il2cpp metadata", func() error {
		return il2cppDumper.Run(ctx, il2cppOpts)
	})
	if err != nil {
		return err
	}
	logx.Success(a.logger, "il2cpp dump written", "region", region, "output", dumpOutput)

	fbsOpts := wrappers.FbsDumperOptions{
		DummyDir:      out.Dummy,
		Libil2cppPath: libil2cpp,
		OutputFile:    wrappers.Ptr(out.Schema),
	}
	a.cfg.MergeFbsDumper(&fbsOpts)

	err = a.runTool("dumping flatbuffers schema", func() error {
		return fbsDumper.Run(ctx, fbsOpts)
	})
	if err != nil {
		return err
	}
	logx.Success(a.logger, "schema written", "region", region, "file", out.Schema)
	return nil
}

// prepareIL2CPP downloads the region's APK when missing and extracts the
// IL2CPP inputs when either of them is missing.
func (a *app) prepareIL2CPP(ctx context.Context, region apk.Region) error {
	if _, err := a.apks.Download(ctx, region, false); err != nil {
		return err
	}

	for _, path := range []string{a.paths.LibIL2CPP(string(region)), a.paths.Metadata(string(region))} {
		exists, err := paths.FileExists(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if !exists {
			return a.il2cpp.ExtractIL2CPP(region)
		}
	}
	return nil
}
