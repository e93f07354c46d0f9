package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bafb/internal/apk"
	"bafb/internal/config"
	"bafb/internal/paths"
	"bafb/internal/platform"
	"bafb/internal/tools"
	"bafb/internal/tui"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check config, platform, tools and extracted game files",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	return cmd
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	dp, err := paths.Resolve(dataDir)
	if err != nil {
		return err
	}

	cfg, cfgErr := config.Load(configPath)
	checks := []healthCheck{
		checkConfig(cfg, cfgErr),
		checkPlatform(),
	}
	if cfgErr != nil {
		cfg = config.Default()
	}
	checks = append(checks, checkTools(dp, tools.Definitions(cfg.Tools)))
	for _, region := range apk.Regions() {
		checks = append(checks, checkRegion(dp, region))
	}

	return writeDoctorResult(cmd, dp.Root, checks)
}

func checkConfig(cfg config.Config, loadErr error) healthCheck {
	if loadErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: loadErr.Error()}
	}

	source := cfg.Path
	if source == "" {
		source = "built-in defaults"
	}

	var errs, warns []string
	for _, r := range cfg.Validate() {
		if r.Level == "error" {
			errs = append(errs, r.Message)
		} else {
			warns = append(warns, r.Message)
		}
	}
	switch {
	case len(errs) > 0:
		return healthCheck{Name: "Config", Status: "error", Summary: strings.Join(errs, "; ")}
	case len(warns) > 0:
		return healthCheck{Name: "Config", Status: "warning", Summary: fmt.Sprintf("%s: %s", source, strings.Join(warns, "; "))}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: source}
}

func checkPlatform() healthCheck {
	tag, err := platform.Current(false)
	if err != nil {
		return healthCheck{Name: "Platform", Status: "error", Summary: err.Error()}
	}
	return healthCheck{Name: "Platform", Status: "ok", Summary: tag}
}

func checkTools(dp paths.DataPaths, defs []tools.ToolDefinition) healthCheck {
	statuses, err := tools.Detect(dp, defs)
	if err != nil {
		return healthCheck{Name: "Tools", Status: "error", Summary: err.Error()}
	}

	var ready, missing []string
	for _, st := range statuses {
		if st.Extracted && st.Executable {
			ready = append(ready, st.Name)
		} else {
			missing = append(missing, st.Name)
		}
	}
	if len(missing) == 0 {
		return healthCheck{Name: "Tools", Status: "ok", Summary: strings.Join(ready, ", ")}
	}
	// Missing tools are fetched on demand, so this is not fatal.
	return healthCheck{
		Name:    "Tools",
		Status:  "warning",
		Summary: fmt.Sprintf("%d of %d tools ready, missing: %s", len(ready), len(statuses), strings.Join(missing, ", ")),
	}
}

func checkRegion(dp paths.DataPaths, region apk.Region) healthCheck {
	name := "APK " + string(region)
	files := []string{dp.APK(string(region)), dp.LibIL2CPP(string(region)), dp.Metadata(string(region))}

	var missing []string
	for _, f := range files {
		ok, err := paths.FileExists(f)
		if err != nil {
			return healthCheck{Name: name, Status: "error", Summary: err.Error()}
		}
		if !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return healthCheck{Name: name, Status: "ok", Summary: "apk and il2cpp files present"}
	}
	return healthCheck{Name: name, Status: "warning", Summary: "missing " + strings.Join(missing, ", ")}
}

func writeDoctorResult(cmd *cobra.Command, root string, checks []healthCheck) error {
	if outputJSON {
		data, err := json.MarshalIndent(checks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tui.HeaderStyle.Render("DATA DIR:")+" "+root)
	for _, c := range checks {
		fmt.Fprintf(out, "  %-12s %-5s    %s\n", c.Name+":", tui.CheckLabel(c.Status), c.Summary)
	}
	return nil
}
