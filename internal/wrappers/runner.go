package wrappers

import (
	"context"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// RunOptions routes child output. Nil writers only feed the captured tail.
type RunOptions struct {
	Stdout io.Writer
	Stderr io.Writer
}

// RunResult holds the last bytes each stream produced.
type RunResult struct {
	Stdout []byte
	Stderr []byte
}

// Runner launches child processes. Errors from a process that ran and exited
// non-zero implement ExitCode() int.
type Runner interface {
	Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error)
}

const (
	// captureLimit bounds the output kept in memory per stream.
	captureLimit = 64 << 10
	// interruptGrace is how long a cancelled child gets to exit after an
	// interrupt before it is killed.
	interruptGrace = 5 * time.Second
)

// CmdRunner runs real processes via os/exec.
type CmdRunner struct{}

func (CmdRunner) Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	if runtime.GOOS != "windows" {
		cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
		cmd.WaitDelay = interruptGrace
	}

	stdout := &tailBuffer{limit: captureLimit}
	stderr := &tailBuffer{limit: captureLimit}
	cmd.Stdout = teeTo(stdout, opts.Stdout)
	cmd.Stderr = teeTo(stderr, opts.Stderr)

	err := cmd.Run()
	return RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
}

func teeTo(capture io.Writer, extra io.Writer) io.Writer {
	if extra == nil {
		return capture
	}
	return io.MultiWriter(capture, extra)
}

// syncWriter serialises writes to a writer shared by the stdout and stderr
// copy goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) Bytes() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.buf...)
}

var _ Runner = CmdRunner{}
