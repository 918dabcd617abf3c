// internal/cli/integrated_test.go
package deepconf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hrbzhq/deepconf/internal/integrated"
)

func TestIntegratedCommandDegradesWithoutBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close()

	extra := fmt.Sprintf(`"hosts": [{"name": "dead", "url": %q, "type": "ollama", "models": ["qwen3:0.6b"]}], "deepconf": {"model": "qwen3:0.6b", "backend": "dead", "numPaths": 2}`, deadURL)
	configPath := writeTempConfig(t, extra)
	useTempConfig(t, configPath)
	for _, name := range []string{"debug", "metrics", "timeout"} {
		resetFlag(name)
	}

	outPath := filepath.Join(t.TempDir(), "result.json")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{
		"--config", configPath,
		"integrated",
		"--prompt", "Should I move into machine learning engineering?",
		"--profile", `{"name": "Alex Lee", "age": 24, "goal": "Become a machine learning engineer", "skills": ["Python basics"]}`,
		"--output", outPath,
	})
	t.Cleanup(func() { rootCmd.SetArgs([]string{}) })

	if _, err := rootCmd.ExecuteC(); err != nil {
		t.Fatalf("integrated command: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Integrated analysis completed") {
		t.Fatalf("expected completion line, got %s", out)
	}
	if !strings.Contains(out, "Reasoning side failed:") {
		t.Fatalf("expected the reasoning failure note, got %s", out)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var result integrated.Result
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if result.Status != integrated.StatusSuccess {
		t.Errorf("expected degraded success, got status %s", result.Status)
	}
	if result.DeepConfError == "" {
		t.Error("expected the reasoning error recorded in the result")
	}
	if result.DeepConfResult != nil {
		t.Error("expected no reasoning output from a dead backend")
	}
	if result.BehaviorResult == nil {
		t.Fatal("expected the behavior side to complete")
	}
	if result.IntegratedConfidence <= 0 {
		t.Errorf("expected a fused confidence, got %f", result.IntegratedConfidence)
	}

	historyPath := filepath.Join(filepath.Dir(configPath), "data", "runs", "qwen3_0-6b.jsonl")
	historyData, err := os.ReadFile(historyPath)
	if err != nil {
		t.Fatalf("expected a history record at %s: %v", historyPath, err)
	}
	if !strings.Contains(string(historyData), `"kind":"integrated"`) {
		t.Errorf("unexpected history record: %s", historyData)
	}
}
