package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bafb/internal/apk"
	"bafb/internal/config"
	"bafb/internal/download"
	"bafb/internal/logx"
	"bafb/internal/paths"
	"bafb/internal/tools"
	"bafb/internal/tui"
	"bafb/internal/wrappers"
)

type appKey struct{}

// app holds the collaborators shared by every command of one invocation.
type app struct {
	cfg    config.Config
	paths  paths.DataPaths
	logger *slog.Logger
	stderr io.Writer
	mode   tui.OutputMode

	tools   *tools.Manager
	apks    *apk.Fetcher
	il2cpp  *apk.Extractor
	wrapEnv wrappers.Env
}

// appFrom returns the app attached to the command context, building it on
// first use. The config file is loaded once per invocation.
func appFrom(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a, ok := ctx.Value(appKey{}).(*app); ok {
		return a, nil
	}

	a, err := newApp(cmd)
	if err != nil {
		return nil, err
	}
	cmd.SetContext(context.WithValue(ctx, appKey{}, a))
	return a, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	stderr := cmd.ErrOrStderr()
	logger := logx.New(stderr, logx.Options{Verbose: verbose})

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		logger.Debug("loaded config", "path", cfg.Path)
	}
	results := cfg.Validate()
	for _, r := range results {
		if r.Level == "error" {
			logger.Error("config", "problem", r.Message)
		} else {
			logger.Warn("config", "problem", r.Message)
		}
	}
	if config.HasErrors(results) {
		return nil, fmt.Errorf("invalid config %s", tui.NonEmptyOrDash(cfg.Path))
	}

	dp, err := paths.Resolve(dataDir)
	if err != nil {
		return nil, err
	}
	if err := dp.EnsureDirs(); err != nil {
		return nil, err
	}
	logger.Debug("data directory", "path", dp.Root)

	mode := tui.DetectMode(stderr, noProgress)
	var progress download.Progress
	if mode == tui.ModeTUI {
		progress = tui.NewDownloadProgress(stderr)
	} else {
		progress = &tui.PlainProgress{Logger: logger}
	}
	dl := download.New(logger, progress)

	env := wrappers.Env{
		Runner:  newRunner(),
		LogsDir: dp.LogsDir,
		Logger:  logger,
	}
	if verbose {
		env.Echo = stderr
	}

	return &app{
		cfg:    cfg,
		paths:  dp,
		logger: logger,
		stderr: stderr,
		mode:   mode,
		tools: &tools.Manager{
			Paths:     dp,
			Defs:      tools.Definitions(cfg.Tools),
			Fetcher:   tools.NewFetcher(dp, dl, logger),
			Extractor: &tools.Extractor{Paths: dp, Logger: logger},
		},
		apks:    apk.NewFetcher(dp, dl, logger, cfg.APK),
		il2cpp:  &apk.Extractor{Paths: dp, Logger: logger},
		wrapEnv: env,
	}, nil
}

func (a *app) cleanTools() error {
	a.logger.Info("removing tools directory", "path", a.paths.ToolsDir)
	if err := os.RemoveAll(a.paths.ToolsDir); err != nil {
		return fmt.Errorf("clean tools: %w", err)
	}
	logx.Success(a.logger, "tools directory removed")
	return nil
}

// updateAll force-downloads both APKs, refreshes their IL2CPP files and
// reinstalls every tool.
func (a *app) updateAll(ctx context.Context) error {
	a.logger.Info("forcing update")
	for _, region := range apk.Regions() {
		if _, err := a.apks.Download(ctx, region, true); err != nil {
			return err
		}
		if err := a.il2cpp.ExtractIL2CPP(region); err != nil {
			return err
		}
	}
	for _, id := range tools.KnownTools() {
		if _, err := a.tools.Update(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// runTool shows a spinner while fn runs a child process. The spinner is
// skipped when tool output is echoed or the terminal is not interactive.
func (a *app) runTool(label string, fn func() error) error {
	start := time.Now()
	defer func() {
		a.logger.Debug("step finished", "step", label, "elapsed", tui.Elapsed(time.Since(start)))
	}()

	if a.mode != tui.ModeTUI || a.wrapEnv.Echo != nil {
		a.logger.Info(label)
		return fn()
	}
	status := tui.NewStatusWriter(a.stderr)
	status.Update(label)
	defer status.Stop()
	return fn()
}
