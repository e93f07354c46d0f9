package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"bafb/internal/tools"
	"bafb/internal/tui"
)

var installForce bool

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Manage the external dumping tools",
	}

	cmd.AddCommand(newToolsListCmd())
	cmd.AddCommand(newToolsInstallCmd())

	return cmd
}

func newToolsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show which tools are downloaded and extracted",
		Args:  cobra.NoArgs,
		RunE:  runToolsList,
	}
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	return cmd
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	a, err := appFrom(cmd)
	if err != nil {
		return err
	}
	statuses, err := tools.Detect(a.paths, a.tools.Defs)
	if err != nil {
		return err
	}
	return writeStatuses(cmd, statuses)
}

func newToolsInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install [tool|all]",
		Short: "Download and extract managed tools",
		Long: "Install one tool or all of them. Without --force a tool is only\n" +
			"downloaded when its archive is missing and only extracted when its\n" +
			"binary is missing.",
		Args: cobra.MaximumNArgs(1),
		RunE: runToolsInstall,
	}

	cmd.Flags().BoolVar(&installForce, "force", false, "Re-download and re-extract even if present")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")

	return cmd
}

func runToolsInstall(cmd *cobra.Command, args []string) error {
	a, err := appFrom(cmd)
	if err != nil {
		return err
	}

	target := "all"
	if len(args) == 1 {
		target = strings.ToLower(args[0])
	}

	var ids []tools.ID
	if target == "all" {
		ids = tools.KnownTools()
	} else {
		def, err := tools.Lookup(a.tools.Defs, target)
		if err != nil {
			return err
		}
		ids = []tools.ID{def.ID}
	}

	ctx := cmd.Context()
	var errs []error
	for _, id := range ids {
		install := a.tools.Ensure
		if installForce {
			install = a.tools.Update
		}
		if _, err := install(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}

	statuses, err := tools.Detect(a.paths, a.tools.Defs)
	if err != nil {
		errs = append(errs, err)
	} else if err := writeStatuses(cmd, statuses); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func writeStatuses(cmd *cobra.Command, statuses []tools.Status) error {
	if outputJSON {
		data, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	printStatusTable(cmd.OutOrStdout(), statuses)
	return nil
}

func statusLabel(st tools.Status) string {
	switch {
	case st.Error != "":
		return "error"
	case st.Extracted && st.Executable:
		return "extracted"
	case st.Downloaded:
		return "downloaded"
	default:
		return "missing"
	}
}

func printStatusTable(out io.Writer, statuses []tools.Status) {
	if len(statuses) == 0 {
		fmt.Fprintln(out, "(no tools)")
		return
	}

	fmt.Fprintln(out, tui.HeaderStyle.Render(fmt.Sprintf("%-22s %-12s %-20s %s", "Tool", "Status", "Downloaded", "Binary")))
	for _, st := range statuses {
		label := statusLabel(st)
		binary := st.Binary
		if !st.Extracted {
			binary = "(missing)"
		}
		fmt.Fprintf(out, "%-22s %s %-20s %s\n",
			st.Name,
			tui.StatusStyle(label).Render(fmt.Sprintf("%-12s", label)),
			tui.NonEmptyOrDash(st.DownloadedAt),
			binary,
		)
		if st.Source != "" {
			fmt.Fprintf(out, "  source: %s\n", tui.TruncateWithEllipsis(st.Source, 100))
		}
		if st.Error != "" {
			fmt.Fprintf(out, "  error: %s\n", st.Error)
		}
	}
}
