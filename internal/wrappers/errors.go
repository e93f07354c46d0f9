package wrappers

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBinaryNotFound = errors.New("tool binary not found")

// ExitError reports a child process that ran but did not succeed.
type ExitError struct {
	Tool    string
	Code    int
	Output  string
	LogPath string
}

func (e *ExitError) Error() string {
	var b strings.Builder
	if e.Code < 0 {
		fmt.Fprintf(&b, "%s terminated without an exit code", e.Tool)
	} else {
		fmt.Fprintf(&b, "%s exited with code %d", e.Tool, e.Code)
	}
	if e.LogPath != "" {
		fmt.Fprintf(&b, " (log: %s)", e.LogPath)
	}
	if e.Output != "" {
		b.WriteString(":\n")
		b.WriteString(e.Output)
	}
	return b.String()
}

const outputTailLines = 20

func tail(stdout, stderr []byte) string {
	text := strings.TrimRight(string(stdout)+string(stderr), "\r\n\t ")
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > outputTailLines {
		lines = lines[len(lines)-outputTailLines:]
	}
	return strings.Join(lines, "\n")
}
