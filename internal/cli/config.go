package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"bafb/internal/config"
	"bafb/internal/paths"
)

var (
	configFormat string
	initForce    bool
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the bafb configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
	cmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml or yaml")
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write the default configuration to bafb.toml (or the given file)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigInit,
	}
	cmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	data, err := cfg.Encode(configFormat)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.Path != "" {
		fmt.Fprintf(out, "# loaded from %s\n", cfg.Path)
	} else {
		fmt.Fprintln(out, "# built-in defaults")
	}
	fmt.Fprint(out, string(data))
	if len(data) == 0 || data[len(data)-1] != '\n' {
		fmt.Fprintln(out)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	target := config.DefaultFileNames[0]
	if len(args) == 1 {
		target = args[0]
	}

	exists, err := paths.FileExists(target)
	if err != nil {
		return fmt.Errorf("check config: %w", err)
	}
	if exists && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", target)
	}

	format := "toml"
	switch strings.ToLower(filepath.Ext(target)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	data, err := config.Default().Encode(format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", target)
	return nil
}
