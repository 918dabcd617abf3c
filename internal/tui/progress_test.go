// internal/tui/progress_test.go
package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hrbzhq/deepconf/internal/benchmark"
)

func testEvent(t benchmark.EventType, index int, result *benchmark.CaseResult) eventMsg {
	return eventMsg{ev: benchmark.Event{
		Type:   t,
		Index:  index,
		Total:  6,
		Case:   benchmark.Case{ID: "test_001", Domain: "education", Subject: "Alex Lee"},
		Result: result,
	}}
}

func TestUpdateTracksBenchmarkProgress(t *testing.T) {
	m := newModel("DeepConf Benchmark", func() {})

	if view := m.View(); view != "Initializing..." {
		t.Errorf("expected initializing view before window size, got %q", view)
	}

	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if m.width != 80 {
		t.Fatalf("window width not stored, got %d", m.width)
	}

	m.Update(testEvent(benchmark.EventCaseStarted, 1, nil))
	view := m.View()
	if !strings.Contains(view, "test_001 education (Alex Lee)") {
		t.Errorf("running case missing from view:\n%s", view)
	}

	m.Update(testEvent(benchmark.EventCaseFinished, 1, &benchmark.CaseResult{
		TestID:               "test_001",
		Domain:               "education",
		Status:               benchmark.StatusSuccess,
		IntegratedConfidence: 0.812,
		ExecutionTime:        1.5,
	}))
	view = m.View()
	if !strings.Contains(view, "✓ test_001 education  confidence 0.812  (1.50s)") {
		t.Errorf("finished case missing from view:\n%s", view)
	}
	if !strings.Contains(view, "1/6 completed") {
		t.Errorf("progress counter missing from view:\n%s", view)
	}

	m.Update(testEvent(benchmark.EventCaseFinished, 2, &benchmark.CaseResult{
		TestID: "test_002",
		Domain: "career",
		Status: benchmark.StatusFailed,
		Error:  "backend unreachable",
	}))
	view = m.View()
	if !strings.Contains(view, "✗ test_002 career  backend unreachable") {
		t.Errorf("failed case missing from view:\n%s", view)
	}
	if !strings.Contains(view, "2/6 completed") {
		t.Errorf("progress counter not advanced:\n%s", view)
	}
}

func TestUpdateQuitsOnDone(t *testing.T) {
	m := newModel("DeepConf Benchmark", func() {})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	report := &benchmark.Report{}
	runErr := errors.New("run failed")
	_, cmd := m.Update(doneMsg{report: report, err: runErr})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg from the done handler")
	}
	if m.report != report || !errors.Is(m.err, runErr) {
		t.Error("done handler did not record the run outcome")
	}
}

func TestKeyPressCancelsRun(t *testing.T) {
	canceled := false
	m := newModel("DeepConf Benchmark", func() { canceled = true })
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd != nil {
		t.Error("quit key should wait for the run to stop, not quit immediately")
	}
	if !canceled {
		t.Error("quit key did not cancel the run context")
	}
	if view := m.View(); !strings.Contains(view, "Stopping after the current case") {
		t.Errorf("expected stopping notice in view:\n%s", view)
	}
}

func TestViewTruncatesToWindowWidth(t *testing.T) {
	m := newModel("DeepConf Benchmark", func() {})
	m.Update(tea.WindowSizeMsg{Width: 30, Height: 24})
	m.Update(testEvent(benchmark.EventCaseFinished, 1, &benchmark.CaseResult{
		TestID: "test_002",
		Domain: "career",
		Status: benchmark.StatusFailed,
		Error:  strings.Repeat("backend unreachable ", 10),
	}))

	for _, line := range strings.Split(m.View(), "\n") {
		if strings.Contains(line, "backend unreachable backend unreachable backend") {
			t.Errorf("long failure line not truncated: %q", line)
		}
	}
}
