package tui

import (
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/mattn/go-isatty"
)

// OutputMode selects how progress is shown.
type OutputMode int

const (
	// ModeTUI redraws progress bars and spinners in place.
	ModeTUI OutputMode = iota
	// ModePlain reports progress as log records.
	ModePlain
)

// DetectMode picks ModeTUI only for an interactive, capable terminal.
func DetectMode(out io.Writer, noProgress bool) OutputMode {
	if noProgress || !IsTerminal(out) || dumbTerminal() {
		return ModePlain
	}
	return ModeTUI
}

// IsTerminal reports whether w is a terminal, counting Cygwin and MSYS ptys.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func dumbTerminal() bool {
	if runtime.GOOS == "windows" {
		return false
	}
	term := os.Getenv("TERM")
	return term == "" || strings.EqualFold(term, "dumb")
}
