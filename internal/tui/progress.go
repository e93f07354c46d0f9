package tui

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

const barWidth = 40

// downloadModel renders a single download as a progress bar.
type downloadModel struct {
	name    string
	total   int64
	current int64
	bar     progress.Model
	done    bool
	err     error
}

func newDownloadModel() downloadModel {
	return downloadModel{
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
	}
}

// Init satisfies the tea.Model interface.
func (m downloadModel) Init() tea.Cmd {
	return nil
}

// Update satisfies the tea.Model interface.
func (m downloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case downloadStartMsg:
		m.name = msg.Name
		m.total = msg.Total
		m.current = 0
		return m, nil

	case downloadAddMsg:
		m.current += msg.N
		return m, nil

	case downloadDoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View satisfies the tea.Model interface.
func (m downloadModel) View() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(TruncateWithEllipsis(NonEmptyOrDash(m.name), 32)))
	b.WriteString("  ")

	if m.total > 0 {
		pct := float64(m.current) / float64(m.total)
		if pct > 1 {
			pct = 1
		}
		b.WriteString(m.bar.ViewAs(pct))
		fmt.Fprintf(&b, "  %s / %s", HumanBytes(m.current), HumanBytes(m.total))
	} else {
		b.WriteString(HumanBytes(m.current))
	}

	if m.done {
		status := "complete"
		if m.err != nil {
			status = "error"
		}
		b.WriteString("  ")
		b.WriteString(StatusStyle(status).Render(status))
	}
	b.WriteByte('\n')
	return b.String()
}

// DownloadProgress drives a bubbletea progress bar for one download at a time.
// It satisfies download.Progress.
type DownloadProgress struct {
	out io.Writer

	mu      sync.Mutex
	program *tea.Program
	exited  chan struct{}
}

// NewDownloadProgress renders progress bars to out.
func NewDownloadProgress(out io.Writer) *DownloadProgress {
	return &DownloadProgress{out: out}
}

// Start begins or resets the bar.
func (p *DownloadProgress) Start(name string, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.program == nil {
		p.program = tea.NewProgram(newDownloadModel(), tea.WithOutput(p.out), tea.WithInput(nil))
		p.exited = make(chan struct{})
		go func(prog *tea.Program, exited chan struct{}) {
			defer close(exited)
			_, _ = prog.Run()
		}(p.program, p.exited)
	}
	p.program.Send(downloadStartMsg{Name: name, Total: total})
}

// Add advances the bar.
func (p *DownloadProgress) Add(n int64) {
	p.mu.Lock()
	prog := p.program
	p.mu.Unlock()
	if prog != nil {
		prog.Send(downloadAddMsg{N: n})
	}
}

// Finish stops the bar and waits for the final frame.
func (p *DownloadProgress) Finish(err error) {
	p.mu.Lock()
	prog, exited := p.program, p.exited
	p.program, p.exited = nil, nil
	p.mu.Unlock()

	if prog == nil {
		return
	}
	prog.Send(downloadDoneMsg{Err: err})
	<-exited
}

// PlainProgress reports downloads as log records at 25% steps. It is used when
// output is not an interactive terminal.
type PlainProgress struct {
	Logger *slog.Logger

	mu      sync.Mutex
	name    string
	total   int64
	current int64
	step    int64
}

// Start records the transfer size.
func (p *PlainProgress) Start(name string, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name, p.total, p.current, p.step = name, total, 0, 0
	if p.Logger != nil {
		p.Logger.Info("downloading", "file", name, "size", HumanBytes(total))
	}
}

// Add logs each crossed quarter of the transfer.
func (p *PlainProgress) Add(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += n
	if p.total <= 0 || p.Logger == nil {
		return
	}
	step := p.current * 4 / p.total
	if step > p.step && step < 4 {
		p.step = step
		p.Logger.Info("download progress", "file", p.name, "percent", step*25)
	}
}

// Finish is a no-op; the caller logs the outcome.
func (p *PlainProgress) Finish(error) {}

// HumanBytes formats a byte count with binary units.
func HumanBytes(n int64) string {
	if n < 0 {
		return "?"
	}
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// NonEmptyOrDash returns "-" for empty/whitespace strings.
func NonEmptyOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

// TruncateWithEllipsis truncates a string and adds "..." if it exceeds max length.
func TruncateWithEllipsis(value string, max int) string {
	if max <= 0 {
		return ""
	}
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
