package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/boyarskiy/ctsdiff/internal/config"
	ctserrors "github.com/boyarskiy/ctsdiff/internal/errors"
	"github.com/boyarskiy/ctsdiff/internal/model"
	"github.com/boyarskiy/ctsdiff/internal/parser"
	"github.com/boyarskiy/ctsdiff/internal/report"
	"github.com/boyarskiy/ctsdiff/internal/tree"
)

func newBaselineCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline RESULT...",
		Short: "Diff current results against recorded baseline results",
		Long: `Compare current CTS test_result.xml files against baseline result files.

Baseline files are given with --baseline and may use ** glob patterns.
Both sides are merged into one tree each; a test seen with both outcomes
on one side counts as FLAKY. Missing and new modules, test cases and tests
are listed, followed by every test whose outcome changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBaseline(cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceP("baseline", "b", nil, "Baseline result files or glob patterns")
	flags.Bool("no-baseline", false, "Skip the baseline comparison")
	flags.String("gate", config.GateAny, "Exit code gate: any or regressions")
	flags.String("save-result", "", "Copy the first current result file to this path")
	flags.StringP("format", "f", report.FormatText, "Output format: text, markdown, json or yaml")

	return cmd
}

func (a *app) runBaseline(cmd *cobra.Command, results []string) error {
	if len(results) == 0 {
		return ctserrors.Usage("at least one current result file is required")
	}

	cfg, log, term, err := a.setup(cmd)
	if err != nil {
		return err
	}

	if cfg.Report.Format == report.FormatText {
		if err := a.printSummaries(results); err != nil {
			return err
		}
	}

	if cfg.Baseline.Skip {
		log.Info("baseline comparison skipped")
		return saveResult(log, results[0], cfg.Baseline.SaveResult)
	}

	baselines, err := expandBaseline(cfg.Baseline.Files)
	if err != nil {
		return err
	}
	log.Debug("resolved baseline files", "patterns", cfg.Baseline.Files, "files", baselines)

	base, err := mergeFiles(log, baselines)
	if err != nil {
		return err
	}
	current, err := mergeFiles(log, results)
	if err != nil {
		return err
	}

	d := tree.Compare(base, current)
	log.Info("compared against baseline",
		"baseline_files", len(baselines),
		"result_files", len(results),
		"changes", len(d.Changes),
		"regressions", len(d.Regressions),
	)

	if err := report.WriteDiff(term, cfg.Report.Format, d); err != nil {
		return ctserrors.Wrap(err, "failed to render diff")
	}
	if cfg.Baseline.Gate == config.GateRegressions && cfg.Report.Format == report.FormatText {
		if err := report.RenderRegressions(term, d); err != nil {
			return ctserrors.Wrap(err, "failed to render regressions")
		}
	}

	if err := saveResult(log, results[0], cfg.Baseline.SaveResult); err != nil {
		return err
	}

	return gate(cfg.Baseline.Gate, d)
}

// gate turns a diff into a divergence error according to the gate mode.
func gate(mode string, d *model.Diff) error {
	switch mode {
	case config.GateRegressions:
		if d.Regressed() {
			return ctserrors.Divergence(fmt.Sprintf("%d baseline tests regressed", len(d.Regressions)))
		}
	default:
		if d.Diverged() {
			return ctserrors.Divergence("current result diverges from baseline")
		}
	}
	return nil
}

// printSummaries echoes the <Summary line of each current result file.
func (a *app) printSummaries(results []string) error {
	for _, p := range results {
		line, ok, err := parser.ReadSummary(p)
		if err != nil {
			return classifyError(p, err)
		}
		fmt.Fprintf(a.stdout, "Summary from current test results: %s\n", p)
		if ok {
			fmt.Fprintln(a.stdout, line)
		}
	}
	return nil
}

// expandBaseline resolves baseline patterns into file paths. Matches of each
// pattern are sorted; a file matched by several patterns is kept once.
func expandBaseline(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, ctserrors.Usage("no baseline given; use --baseline or --no-baseline")
	}

	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, ctserrors.Usagef("bad baseline pattern %q: %v", pattern, err)
		}
		slices.Sort(matches)
		for _, m := range matches {
			if !slices.Contains(files, m) {
				files = append(files, m)
			}
		}
	}

	if len(files) == 0 {
		return nil, ctserrors.Usagef("no baseline result files match %v", patterns)
	}
	return files, nil
}

// saveResult copies src to dst, creating dst's directory. An empty dst is a
// no-op.
func saveResult(log *slog.Logger, src, dst string) error {
	if dst == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ctserrors.IO("cannot save result", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return ctserrors.IO("cannot save result", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return ctserrors.IO("cannot save result", err)
	}

	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return ctserrors.IOPath(dst, "cannot save result", err)
	}

	log.Info("saved result", "from", src, "to", dst, "bytes", n)
	return nil
}
