package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"bafb/internal/wrappers"
)

var (
	configPath string
	dataDir    string
	updateAll  bool
	verbose    bool
	cleanTools bool
	noProgress bool
	outputJSON bool
)

// newRunner builds the process runner handed to the tool wrappers. Tests swap
// it for a fake.
var newRunner = func() wrappers.Runner { return wrappers.CmdRunner{} }

// Execute runs the root cobra command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bafb",
		Short: "Blue Archive FlatBuffers dump orchestrator",
		Long: "bafb downloads the Blue Archive APKs and the dumping tools, then runs\n" +
			"Il2CppInspectorRedux, FbsDumperV2 and flatc to produce FlatBuffers schemas.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: runMaintenance,
		RunE:              runRoot,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a bafb.toml or bafb.yaml config file")
	flags.StringVar(&dataDir, "data-dir", "", "Override the data directory (default $BAFB_DATA_DIR or the user data dir)")
	flags.BoolVarP(&updateAll, "update", "u", false, "Force re-download of both APKs and every tool")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log debug output and echo tool output")
	flags.BoolVar(&cleanTools, "clean", false, "Delete the tools directory before running")
	flags.BoolVar(&noProgress, "no-progress", false, "Disable interactive progress bars")

	cmd.AddCommand(newDumpCmd())
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newConvertCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	if !updateAll && !cleanTools {
		return cmd.Help()
	}
	return nil
}

// runMaintenance applies --clean and then --update before any subcommand.
func runMaintenance(cmd *cobra.Command, _ []string) error {
	if !updateAll && !cleanTools {
		return nil
	}

	a, err := appFrom(cmd)
	if err != nil {
		return err
	}
	if cleanTools {
		if err := a.cleanTools(); err != nil {
			return err
		}
	}
	if updateAll {
		if err := a.updateAll(cmd.Context()); err != nil {
			return err
		}
	}
	return nil
}
