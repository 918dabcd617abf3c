// internal/cli/behavior_test.go
package deepconf

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hrbzhq/deepconf/internal/behavior"
)

func TestBehaviorCommandWritesOutputAndReport(t *testing.T) {
	configPath := writeTempConfig(t, "")
	useTempConfig(t, configPath)
	for _, name := range []string{"debug", "metrics", "timeout"} {
		resetFlag(name)
	}

	dir := t.TempDir()
	outPath := filepath.Join(dir, "result.json")
	reportPath := filepath.Join(dir, "report.md")
	profileJSON := `{"name": "Alex Lee", "age": 24, "goal": "Become a machine learning engineer", "skills": ["Python basics", "Data structures"]}`

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{
		"--config", configPath,
		"behavior", "--profile", profileJSON, "--output", outPath, "--report", reportPath,
	})
	t.Cleanup(func() { rootCmd.SetArgs([]string{}) })

	if _, err := rootCmd.ExecuteC(); err != nil {
		t.Fatalf("behavior command: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Behavioral analysis completed") {
		t.Fatalf("expected completion line, got %s", out)
	}
	if !strings.Contains(out, "Results saved to: "+outPath) {
		t.Fatalf("expected output confirmation, got %s", out)
	}
	if !strings.Contains(out, "Report saved to: "+reportPath) {
		t.Fatalf("expected report confirmation, got %s", out)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var result behavior.Result
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if result.Status != behavior.StatusCompleted {
		t.Errorf("expected completed status, got %s", result.Status)
	}
	if len(result.Paths) == 0 {
		t.Error("expected trajectory steps in the result")
	}
	if result.ConfidenceScore <= 0 || result.ConfidenceScore > 1 {
		t.Errorf("confidence score out of range: %f", result.ConfidenceScore)
	}

	reportData, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(reportData), "# Behavioral Trajectory Analysis Report") {
		t.Errorf("unexpected report contents: %s", reportData)
	}
}

func TestBehaviorCommandRejectsUnknownSource(t *testing.T) {
	configPath := writeTempConfig(t, "")
	useTempConfig(t, configPath)
	for _, name := range []string{"debug", "metrics", "timeout"} {
		resetFlag(name)
	}

	sourcesPath := filepath.Join(t.TempDir(), "sources.json")
	if err := os.WriteFile(sourcesPath, []byte(`["text", "telepathy"]`), 0o644); err != nil {
		t.Fatalf("write sources: %v", err)
	}

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{
		"--config", configPath,
		"behavior", "--profile", `{"name": "Sam"}`, "--multimodal", sourcesPath,
	})
	t.Cleanup(func() { rootCmd.SetArgs([]string{}) })

	_, err := rootCmd.ExecuteC()
	if err == nil {
		t.Fatal("expected error for an unknown source name")
	}
	if !strings.Contains(err.Error(), "telepathy") {
		t.Fatalf("expected the unknown source named in the error, got %v", err)
	}
}
