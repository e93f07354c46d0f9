package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bafb/internal/logx"
	"bafb/internal/tools"
	"bafb/internal/wrappers"
)

var (
	convertSchema string
	convertTo     string
	convertOutput string
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert FILE...",
		Short: "Convert FlatBuffers data between JSON and binary",
		Long: "Convert FlatBuffers data with flatc. --to binary reads JSON files and\n" +
			"writes binaries; --to json reads binaries and writes strict JSON.",
		Args: cobra.MinimumNArgs(1),
		RunE: runConvert,
	}

	cmd.Flags().StringVar(&convertSchema, "schema", "", "Schema describing the data")
	cmd.Flags().StringVar(&convertTo, "to", "", "Output format: json or binary")
	cmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Directory receiving the converted files (default: working directory)")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	target := strings.ToLower(strings.TrimSpace(convertTo))
	if target != "json" && target != "binary" {
		return fmt.Errorf("unknown conversion target %q (valid: json, binary)", convertTo)
	}

	a, err := appFrom(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	bin, err := a.tools.Ensure(ctx, tools.FlatC)
	if err != nil {
		return err
	}
	flatc, err := wrappers.NewFlatC(bin, a.wrapEnv)
	if err != nil {
		return err
	}

	for _, file := range args {
		err := a.runTool("converting "+file, func() error {
			if target == "json" {
				return flatc.BinaryToJSON(ctx, convertSchema, file, convertOutput)
			}
			return flatc.JSONToBinary(ctx, convertSchema, file, convertOutput)
		})
		if err != nil {
			return fmt.Errorf("convert %s: %w", file, err)
		}
		logx.Success(a.logger, "converted", "file", file, "to", target)
	}
	return nil
}
