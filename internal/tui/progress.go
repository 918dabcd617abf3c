// internal/tui/progress.go
// Package tui renders live benchmark progress with Bubble Tea.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hrbzhq/deepconf/internal/benchmark"
	"github.com/hrbzhq/deepconf/internal/util"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// eventMsg wraps a benchmark progress event.
type eventMsg struct{ ev benchmark.Event }

// doneMsg is sent when the benchmark run returns.
type doneMsg struct {
	report *benchmark.Report
	err    error
}

// tickMsg drives the elapsed-time display.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// caseLine is one finished case, kept unstyled so the view can truncate it
// to the terminal width before styling.
type caseLine struct {
	text string
	ok   bool
}

// model is the Bubble Tea model for the benchmark progress view.
type model struct {
	title     string
	spinner   spinner.Model
	cancel    context.CancelFunc
	lines     []caseLine
	current   string
	caseStart time.Time
	completed int
	total     int
	running   bool
	quitting  bool
	report    *benchmark.Report
	err       error
	width     int
	height    int
}

func newModel(title string, cancel context.CancelFunc) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return &model{title: title, spinner: s, cancel: cancel}
}

// Init starts the spinner animation and the elapsed-time ticker.
func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			m.cancel()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case eventMsg:
		switch msg.ev.Type {
		case benchmark.EventCaseStarted:
			m.running = true
			m.total = msg.ev.Total
			m.current = fmt.Sprintf("%s %s (%s)", msg.ev.Case.ID, msg.ev.Case.Domain, msg.ev.Case.Subject)
			m.caseStart = time.Now()
		case benchmark.EventCaseFinished:
			m.running = false
			m.completed++
			m.lines = append(m.lines, finishedLine(msg.ev.Result))
		}
		return m, nil

	case doneMsg:
		m.report = msg.report
		m.err = msg.err
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func finishedLine(r *benchmark.CaseResult) caseLine {
	if r == nil {
		return caseLine{}
	}
	if r.Status == benchmark.StatusSuccess {
		return caseLine{
			text: fmt.Sprintf("✓ %s %s  confidence %.3f  (%.2fs)", r.TestID, r.Domain, r.IntegratedConfidence, r.ExecutionTime),
			ok:   true,
		}
	}
	return caseLine{text: fmt.Sprintf("✗ %s %s  %s", r.TestID, r.Domain, r.Error)}
}

func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}
	lineWidth := m.width - 4
	if lineWidth < 10 {
		lineWidth = 10
	}

	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render(util.TruncateRunes(m.title, lineWidth)) + "\n\n")
	for _, line := range m.lines {
		text := util.TruncateRunes(line.text, lineWidth)
		if line.ok {
			text = okStyle.Render(text)
		} else {
			text = failStyle.Render(text)
		}
		b.WriteString("  " + text + "\n")
	}
	if m.quitting {
		b.WriteString("\n  " + dimStyle.Render("Stopping after the current case...") + "\n")
	} else if m.running {
		timer := fmt.Sprintf("%.1f", time.Since(m.caseStart).Seconds())
		b.WriteString(fmt.Sprintf("\n  %s %s  %ss\n", m.spinner.View(), util.TruncateRunes(m.current, lineWidth), timer))
	}
	if m.total > 0 {
		b.WriteString("\n  " + dimStyle.Render(fmt.Sprintf("%d/%d completed  (q to stop)", m.completed, m.total)) + "\n")
	}
	return b.String()
}

// Run drives start under the progress view. start receives a derived context
// and an event callback safe to call from its own goroutine; quitting the
// view cancels that context. The report and error are whatever start
// returned.
func Run(ctx context.Context, title string, start func(ctx context.Context, onEvent func(benchmark.Event)) (*benchmark.Report, error)) (*benchmark.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(title, cancel)
	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		report, err := start(ctx, func(ev benchmark.Event) { p.Send(eventMsg{ev: ev}) })
		p.Send(doneMsg{report: report, err: err})
	}()

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("error running progress view: %w", err)
	}
	return m.report, m.err
}
