package wrappers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"bafb/internal/logx"
)

// Env carries what every wrapper needs to launch its child process.
type Env struct {
	Runner  Runner
	LogsDir string
	// Echo receives child output as it is produced. Nil keeps the terminal quiet.
	Echo   io.Writer
	Logger *slog.Logger
}

type process struct {
	name   string
	binary string
	env    Env
}

func newProcess(name, binary string, env Env) (process, error) {
	info, err := os.Stat(binary)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return process{}, fmt.Errorf("%s: %w: %s", name, ErrBinaryNotFound, binary)
		}
		return process{}, fmt.Errorf("stat %s: %w", binary, err)
	}
	if info.IsDir() {
		return process{}, fmt.Errorf("%s: %w: %s is a directory", name, ErrBinaryNotFound, binary)
	}
	if env.Runner == nil {
		env.Runner = CmdRunner{}
	}
	if env.Logger == nil {
		env.Logger = logx.Discard()
	}
	return process{name: name, binary: binary, env: env}, nil
}

type exitCoder interface {
	ExitCode() int
}

func (p process) run(ctx context.Context, args []string) error {
	logger := p.env.Logger.With("tool", p.name)
	logger.Debug("running", "binary", p.binary, "args", args)

	var sinks []io.Writer
	var logPath string
	if p.env.LogsDir != "" {
		logFile, err := logx.NewRunLog(p.env.LogsDir, p.name)
		if err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
		defer logFile.Close()
		logPath = logFile.Name()
		fmt.Fprintf(logFile, "$ %s %q\n", p.binary, args)
		sinks = append(sinks, logFile)
	}
	if p.env.Echo != nil {
		sinks = append(sinks, p.env.Echo)
	}

	var out io.Writer
	if len(sinks) > 0 {
		out = &syncWriter{w: io.MultiWriter(sinks...)}
	}

	res, err := p.env.Runner.Run(ctx, p.binary, args, RunOptions{Stdout: out, Stderr: out})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", p.name, ctxErr)
	}
	var coder exitCoder
	if errors.As(err, &coder) {
		return &ExitError{
			Tool:    p.name,
			Code:    coder.ExitCode(),
			Output:  tail(res.Stdout, res.Stderr),
			LogPath: logPath,
		}
	}
	return fmt.Errorf("execute %s: %w", p.binary, err)
}
