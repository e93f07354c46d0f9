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
	generateSchema   string
	generateLanguage string
	generateOutput   string
	generateIncludes []string
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate code from a FlatBuffers schema with flatc",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}

	cmd.Flags().StringVar(&generateSchema, "fbs", "", "Schema file to compile")
	cmd.Flags().StringVarP(&generateLanguage, "language", "l", "", "Target language ("+strings.Join(wrappers.LanguageNames(), ", ")+")")
	cmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Directory receiving the generated code")
	cmd.Flags().StringArrayVarP(&generateIncludes, "include", "I", nil, "Additional include directory (repeatable)")
	_ = cmd.MarkFlagRequired("fbs")
	_ = cmd.MarkFlagRequired("language")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.RegisterFlagCompletionFunc("language", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return wrappers.LanguageNames(), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	lang, err := wrappers.ParseLanguage(generateLanguage)
	if err != nil {
		return err
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

	var opts wrappers.FlatCOptions
	a.cfg.MergeFlatC(&opts)
	opts.Languages = []wrappers.Language{lang}
	opts.OutputPath = wrappers.Ptr(generateOutput)
	opts.IncludePaths = append(opts.IncludePaths, generateIncludes...)

	err = a.runTool(fmt.Sprintf("generating %s code", lang), func() error {
		return flatc.Compile(ctx, opts, []string{generateSchema}, nil)
	})
	if err != nil {
		return err
	}
	logx.Success(a.logger, "code generated", "language", lang, "output", generateOutput)
	return nil
}
