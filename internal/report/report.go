// internal/report/report.go
// Package report renders Markdown reports for behavior, integrated, and
// benchmark results.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"text/template"
	"time"

	"github.com/hrbzhq/deepconf/internal/behavior"
	"github.com/hrbzhq/deepconf/internal/benchmark"
	"github.com/hrbzhq/deepconf/internal/integrated"
)

var behaviorTemplate = template.Must(template.New("behavior").Parse(`# Behavioral Trajectory Analysis Report

## Analysis Overview
- Analysis Status: {{.Status}}
- Path Count: {{.PathCount}}
- Average Confidence: {{.AverageConfidence}}

## Detailed Results
{{.Details}}
`))

var integratedTemplate = template.Must(template.New("integrated").Parse(`# Integrated Analysis Report

## Analysis Overview
- Analysis Status: {{.Status}}
- Integrated Confidence: {{.IntegratedConfidence}}
- Analysis Consistency: {{.AnalysisConsistency}}
- Recommendation Score: {{.RecommendationScore}}

## Reasoning Side
{{if .HasReasoning}}- Final Answer: {{.FinalAnswer}}
- Average Confidence: {{.AverageConfidence}}
- Kept Paths: {{.KeptPaths}} of {{.TotalPaths}}
{{else}}- Failed: {{.DeepConfError}}
{{end}}
## Behavioral Side
{{if .HasBehavior}}- Trajectory Steps: {{.BehaviorSteps}}
- Confidence Score: {{.BehaviorConfidence}}
{{else}}- Failed: {{.BehaviorError}}
{{end}}
## Detailed Results
{{.Details}}
`))

var benchmarkTemplate = template.Must(template.New("benchmark").Parse(`# Benchmark Report

- Generated: {{.GeneratedAt}}
- Backend: {{.Backend}} ({{.Model}})

## Summary
- Cases Passed: {{.Passed}}/{{.Total}}
- Integrated Confidence: {{.Confidence}}
- Analysis Consistency: {{.Consistency}}
- Execution Time: {{.Execution}}
- Mean Confidence Error: {{.MeanError}}

## Domain Averages

| Domain | Integrated Confidence |
| --- | --- |
{{range .Domains}}| {{.Name}} | {{.Average}} |
{{end}}
## Case Results

| Test | Domain | Status | Integrated | Expected | Confidence Error | Time |
| --- | --- | --- | --- | --- | --- | --- |
{{range .Cases}}| {{.ID}} | {{.Domain}} | {{.Status}} | {{.Integrated}} | {{.Expected}} | {{.ConfidenceError}} | {{.Time}} |
{{end}}{{if .Failures}}
## Failures
{{range .Failures}}- {{.ID}}: {{.Message}}
{{end}}{{end}}`))

type behaviorView struct {
	Status            string
	PathCount         int
	AverageConfidence string
	Details           string
}

type integratedView struct {
	Status               string
	IntegratedConfidence string
	AnalysisConsistency  string
	RecommendationScore  string
	HasReasoning         bool
	FinalAnswer          string
	AverageConfidence    string
	KeptPaths            int
	TotalPaths           int
	DeepConfError        string
	HasBehavior          bool
	BehaviorSteps        int
	BehaviorConfidence   string
	BehaviorError        string
	Details              string
}

type domainRow struct {
	Name    string
	Average string
}

type caseRow struct {
	ID              string
	Domain          string
	Status          string
	Integrated      string
	Expected        string
	ConfidenceError string
	Time            string
}

type failureRow struct {
	ID      string
	Message string
}

type benchmarkView struct {
	GeneratedAt string
	Backend     string
	Model       string
	Passed      int
	Total       int
	Confidence  string
	Consistency string
	Execution   string
	MeanError   string
	Domains     []domainRow
	Cases       []caseRow
	Failures    []failureRow
}

// Behavior renders the trajectory analysis report.
func Behavior(result *behavior.Result) (string, error) {
	details, err := detailJSON(result)
	if err != nil {
		return "", err
	}
	view := behaviorView{
		Status:            result.Status,
		PathCount:         len(result.Paths),
		AverageConfidence: score(result.ConfidenceScore),
		Details:           details,
	}
	return render(behaviorTemplate, view)
}

// Integrated renders the fused analysis report. A side that failed is shown
// with its error instead of its scores.
func Integrated(result *integrated.Result) (string, error) {
	details, err := detailJSON(result)
	if err != nil {
		return "", err
	}
	view := integratedView{
		Status:               result.Status,
		IntegratedConfidence: score(result.IntegratedConfidence),
		AnalysisConsistency:  score(result.AnalysisConsistency),
		RecommendationScore:  score(result.RecommendationScore),
		DeepConfError:        result.DeepConfError,
		BehaviorError:        result.BehaviorError,
		Details:              details,
	}
	if result.DeepConfResult != nil {
		view.HasReasoning = true
		view.FinalAnswer = result.DeepConfResult.FinalAnswer
		view.AverageConfidence = score(result.DeepConfResult.AverageConfidence)
		view.KeptPaths = len(result.DeepConfResult.KeptPaths)
		view.TotalPaths = len(result.DeepConfResult.AllPaths)
	}
	if result.BehaviorResult != nil {
		view.HasBehavior = true
		view.BehaviorSteps = len(result.BehaviorResult.Paths)
		view.BehaviorConfidence = score(result.BehaviorResult.ConfidenceScore)
	}
	return render(integratedTemplate, view)
}

// Benchmark renders the suite report with summary statistics, per-domain
// averages, and the case table.
func Benchmark(rep *benchmark.Report) (string, error) {
	summary := rep.Summary
	view := benchmarkView{
		GeneratedAt: rep.GeneratedAt.Format(time.RFC3339),
		Backend:     rep.ModelInfo.Backend,
		Model:       rep.ModelInfo.Model,
		Passed:      summary.Passed,
		Total:       summary.Total,
		Confidence:  meanLine(summary.Confidence, ""),
		Consistency: meanLine(summary.Consistency, ""),
		Execution:   meanLine(summary.Execution, "s"),
		MeanError:   score(summary.MeanConfidenceError),
	}

	names := make([]string, 0, len(summary.DomainAverages))
	for name := range summary.DomainAverages {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		view.Domains = append(view.Domains, domainRow{Name: name, Average: score(summary.DomainAverages[name])})
	}

	for _, r := range rep.Results {
		row := caseRow{
			ID:       r.TestID,
			Domain:   r.Domain,
			Status:   r.Status,
			Expected: score(r.ExpectedConfidence),
			Time:     fmt.Sprintf("%.2fs", r.ExecutionTime),
		}
		if r.Status == benchmark.StatusSuccess {
			row.Integrated = score(r.IntegratedConfidence)
			row.ConfidenceError = score(r.ConfidenceError)
		} else {
			row.Integrated = "-"
			row.ConfidenceError = "-"
			view.Failures = append(view.Failures, failureRow{ID: r.TestID, Message: r.Error})
		}
		view.Cases = append(view.Cases, row)
	}
	return render(benchmarkTemplate, view)
}

func render(t *template.Template, view any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("error rendering report: %w", err)
	}
	return buf.String(), nil
}

func detailJSON(v any) (string, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error serializing report details: %w", err)
	}
	return string(raw), nil
}

func score(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func meanLine(s benchmark.StatLine, unit string) string {
	return fmt.Sprintf("%.3f%s ± %.3f%s", s.Mean, unit, s.StdDev, unit)
}
