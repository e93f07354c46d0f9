package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

const clearLine = "\r\033[K"

// StatusWriter keeps a single spinner line alive while a child process runs,
// showing the current step and how long it has been running.
type StatusWriter struct {
	w       io.Writer
	spinner spinner.Spinner

	mu    sync.Mutex
	label string
	since time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewStatusWriter starts drawing to w immediately.
func NewStatusWriter(w io.Writer) *StatusWriter {
	sw := &StatusWriter{
		w:       w,
		spinner: spinner.MiniDot,
		since:   time.Now(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go sw.loop()
	return sw
}

// Update replaces the step label and restarts its timer.
func (sw *StatusWriter) Update(label string) {
	sw.mu.Lock()
	sw.label = label
	sw.since = time.Now()
	sw.mu.Unlock()
}

// Stop waits for the last frame and erases the line. Later calls do nothing.
func (sw *StatusWriter) Stop() {
	sw.once.Do(func() {
		close(sw.stop)
		<-sw.done
		fmt.Fprint(sw.w, clearLine)
	})
}

func (sw *StatusWriter) loop() {
	defer close(sw.done)
	ticker := time.NewTicker(sw.spinner.FPS)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-sw.stop:
			return
		case <-ticker.C:
		}

		sw.mu.Lock()
		label, since := sw.label, sw.since
		sw.mu.Unlock()

		glyph := sw.spinner.Frames[frame%len(sw.spinner.Frames)]
		fmt.Fprintf(sw.w, "%s%s %s %s", clearLine,
			spinnerStyle.Render(glyph), label,
			elapsedStyle.Render("("+Elapsed(time.Since(since))+")"))
	}
}

// Elapsed renders d compactly: 850ms, 4.2s, 37s, 2m05s.
func Elapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < 10*time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
