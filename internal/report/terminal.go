// Package report implements reporting for ctsdiff.
package report

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/boyarskiy/ctsdiff/internal/model"
)

// fileColumnWidth is the padded width of the file name in per-test lines.
const fileColumnWidth = 20

// TerminalConfig holds configuration for terminal output.
type TerminalConfig struct {
	Writer  io.Writer
	Color   bool // Colour outcome tokens
	Summary bool // Append a classification summary table
}

// DefaultTerminalConfig returns the default terminal configuration.
func DefaultTerminalConfig(w io.Writer) *TerminalConfig {
	return &TerminalConfig{Writer: w}
}

// RenderTerminal writes the N-way report to the configured writer. A report
// without divergence produces no output unless a summary is requested.
func RenderTerminal(cfg *TerminalConfig, report *model.Report) error {
	if cfg.Writer == nil {
		return fmt.Errorf("writer is required")
	}
	if report == nil {
		return fmt.Errorf("report is required")
	}

	w := cfg.Writer

	for _, m := range report.MissingModules {
		writeMissing(w, "module", m)
	}
	for _, m := range report.Modules {
		for _, tc := range m.MissingTestCases {
			writeMissing(w, "test case", tc)
		}
		for _, test := range m.Tests {
			fmt.Fprintf(w, "Test: %s:\n", test.ID)
			for _, fs := range test.Files {
				fmt.Fprintf(w, "\t- %-*s%s\n", fileColumnWidth, filepath.Base(fs.File), statusColumn(fs.Status, cfg.Color))
			}
		}
	}

	if cfg.Summary {
		if report.Diverged() {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, summaryTable(report))
	}

	return nil
}

func writeMissing(w io.Writer, kind string, m model.MissingEntry) {
	fmt.Fprintf(w, "Missing %s: %s, from:\n", kind, m.Name)
	for _, f := range m.Files {
		fmt.Fprintf(w, "\t- %s\n", f)
	}
}

// statusColumn indents each outcome to its own column so that pass/fail
// flips stand out when scanning a block.
func statusColumn(status model.Outcome, useColor bool) string {
	switch status {
	case model.OutcomePass:
		return paint(color.FgGreen, useColor, "PASS")
	case model.OutcomeFail:
		return "     " + paint(color.FgRed, useColor, "FAIL")
	default:
		return paint(color.FgYellow, useColor, " --   --  (missing)")
	}
}

func paint(attr color.Attribute, enabled bool, s string) string {
	c := color.New(attr)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

func summaryTable(report *model.Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.SetTitle(fmt.Sprintf("%d result files compared", len(report.Files)))
	tw.AppendHeader(table.Row{"Classification", "Tests"})
	tw.AppendRows([]table.Row{
		{"stable", humanize.Comma(int64(report.StableCount))},
		{"deterministic fail", humanize.Comma(int64(report.DetFailCount))},
		{"flaky", humanize.Comma(int64(report.FlakyCount))},
		{"incomplete", humanize.Comma(int64(report.IncompleteCount))},
	})
	tw.AppendFooter(table.Row{"total", humanize.Comma(int64(report.TotalTests))})
	return tw.Render()
}
