package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/boyarskiy/ctsdiff/internal/classify"
	"github.com/boyarskiy/ctsdiff/internal/model"
)

// RenderMarkdown renders the N-way report as a Markdown string.
func RenderMarkdown(report *model.Report) string {
	if report == nil {
		return ""
	}

	var sb strings.Builder

	sb.WriteString("# CTS Result Comparison\n\n")

	// Summary section
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Files Compared | %d |\n", len(report.Files)))
	sb.WriteString(fmt.Sprintf("| Diff Only | %t |\n", report.DiffOnly))
	sb.WriteString(fmt.Sprintf("| Total Tests | %s |\n", humanize.Comma(int64(report.TotalTests))))
	sb.WriteString(fmt.Sprintf("| Stable | %s |\n", humanize.Comma(int64(report.StableCount))))
	sb.WriteString(fmt.Sprintf("| Deterministic Failures | %s |\n", humanize.Comma(int64(report.DetFailCount))))
	sb.WriteString(fmt.Sprintf("| Flaky | %s |\n", humanize.Comma(int64(report.FlakyCount))))
	sb.WriteString(fmt.Sprintf("| Incomplete | %s |\n", humanize.Comma(int64(report.IncompleteCount))))
	sb.WriteString("\n")

	if !report.Diverged() {
		sb.WriteString("No divergence detected.\n")
		return sb.String()
	}

	writeMissingMarkdown(&sb, "Missing Modules", report.MissingModules)
	writeMissingMarkdown(&sb, "Missing Test Cases", report.MissingTestCases())

	tests := report.Tests()
	if flaky := classify.FilterByClassification(tests, model.ClassificationFlaky); len(flaky) > 0 {
		sb.WriteString("## Flaky Tests\n\n")
		for _, test := range flaky {
			sb.WriteString(fmt.Sprintf("- `%s`\n", test.ID))
		}
		sb.WriteString("\n")
	}

	if len(tests) > 0 {
		sb.WriteString("## Test Status\n\n")

		sb.WriteString("| Test |")
		for _, f := range report.Files {
			sb.WriteString(fmt.Sprintf(" %s |", escapeMarkdown(filepath.Base(f))))
		}
		sb.WriteString("\n|------|")
		sb.WriteString(strings.Repeat("------|", len(report.Files)))
		sb.WriteString("\n")

		for _, test := range tests {
			sb.WriteString(fmt.Sprintf("| %s |", escapeMarkdown(test.ID)))
			for _, fs := range test.Files {
				sb.WriteString(fmt.Sprintf(" %s |", markdownStatus(fs.Status)))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderDiffMarkdown renders a baseline difference as a Markdown string.
func RenderDiffMarkdown(d *model.Diff) string {
	if d == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("# CTS Baseline Comparison\n\n")

	if !d.Diverged() {
		sb.WriteString("No divergence from baseline.\n")
		return sb.String()
	}

	writeListMarkdown(&sb, "Modules Missing From Current Result", d.MissingModules)
	writeListMarkdown(&sb, "New Modules In Current Result", d.NewModules)
	writeListMarkdown(&sb, "Test Cases Missing From Current Result", d.MissingTestCases)
	writeListMarkdown(&sb, "New Test Cases In Current Result", d.NewTestCases)
	writeListMarkdown(&sb, "Tests Missing From Current Result", d.MissingTests)
	writeListMarkdown(&sb, "New Tests In Current Result", d.NewTests)

	if len(d.Changes) > 0 {
		sb.WriteString("## Outcome Changes\n\n")
		sb.WriteString("| Test | Baseline | Current |\n")
		sb.WriteString("|------|----------|---------|\n")
		for _, c := range d.Changes {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", escapeMarkdown(c.ID), c.From, c.To))
		}
		sb.WriteString("\n")
	}

	writeListMarkdown(&sb, "Regressions", d.Regressions)

	return sb.String()
}

func writeMissingMarkdown(sb *strings.Builder, title string, entries []model.MissingEntry) {
	if len(entries) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	sb.WriteString("| Name | Missing From |\n")
	sb.WriteString("|------|--------------|\n")
	for _, e := range entries {
		files := make([]string, len(e.Files))
		for i, f := range e.Files {
			files[i] = escapeMarkdown(f)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", escapeMarkdown(e.Name), strings.Join(files, ", ")))
	}
	sb.WriteString("\n")
}

func writeListMarkdown(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("- `%s`\n", item))
	}
	sb.WriteString("\n")
}

func markdownStatus(o model.Outcome) string {
	switch o {
	case model.OutcomePass:
		return "PASS"
	case model.OutcomeFail:
		return "**FAIL**"
	default:
		return "-"
	}
}

// escapeMarkdown escapes special Markdown characters in a string.
func escapeMarkdown(s string) string {
	// Escape pipe characters which break tables
	s = strings.ReplaceAll(s, "|", "\\|")
	return s
}
