package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/boyarskiy/ctsdiff/internal/model"
	"github.com/boyarskiy/ctsdiff/internal/tree"
)

// Diff compares a baseline tree with a current result tree, writes the
// difference as text and reports whether anything diverged. It is the
// single-call form of tree.Compare followed by RenderDiff; callers that need
// the diff itself, for other formats or gates, use those directly.
func Diff(cfg *TerminalConfig, baseline, current *tree.Tree) (bool, error) {
	d := tree.Compare(baseline, current)
	if err := RenderDiff(cfg, d); err != nil {
		return false, err
	}
	return d.Diverged(), nil
}

// RenderDiff writes the baseline difference. Only non-empty sections are
// written, so a diff without divergence produces no output.
func RenderDiff(cfg *TerminalConfig, d *model.Diff) error {
	if cfg.Writer == nil {
		return fmt.Errorf("writer is required")
	}
	if d == nil {
		return fmt.Errorf("diff is required")
	}

	w := cfg.Writer

	writeSection(w, "Modules missing from current result:", d.MissingModules)
	writeSection(w, "New modules appeared in current result:", d.NewModules)
	writeSection(w, "Test cases missing from current result:", d.MissingTestCases)
	writeSection(w, "New test cases appeared in current result:", d.NewTestCases)
	writeSection(w, "Tests missing from current result:", d.MissingTests)
	writeSection(w, "New tests appeared in current result:", d.NewTests)

	for _, c := range d.Changes {
		fmt.Fprintf(w, "Test: %s, change: %s -> %s\n", c.ID, outcomeToken(c.From, cfg.Color), outcomeToken(c.To, cfg.Color))
	}

	return nil
}

// RenderRegressions writes the tests that pass in the baseline but are
// missing or not passing in the current result.
func RenderRegressions(cfg *TerminalConfig, d *model.Diff) error {
	if cfg.Writer == nil {
		return fmt.Errorf("writer is required")
	}

	w := cfg.Writer
	switch n := len(d.Regressions); n {
	case 0:
		return nil
	case 1:
		fmt.Fprintln(w, "1 test that consistently passes in the baseline is missing or failing in the current result:")
	default:
		fmt.Fprintf(w, "%d tests that consistently pass in the baseline are missing or failing in the current result:\n", n)
	}
	for _, id := range d.Regressions {
		fmt.Fprintf(w, "\t- %s\n", id)
	}
	return nil
}

func writeSection(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	for _, item := range items {
		fmt.Fprintf(w, "\t- %s\n", item)
	}
}

func outcomeToken(o model.Outcome, useColor bool) string {
	switch o {
	case model.OutcomePass:
		return paint(color.FgGreen, useColor, string(o))
	case model.OutcomeFail:
		return paint(color.FgRed, useColor, string(o))
	default:
		return paint(color.FgYellow, useColor, string(o))
	}
}
