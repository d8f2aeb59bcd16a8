package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boyarskiy/ctsdiff/internal/classify"
	ctserrors "github.com/boyarskiy/ctsdiff/internal/errors"
	"github.com/boyarskiy/ctsdiff/internal/report"
)

func newCompareCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare FILE...",
		Short: "Report tests whose outcome differs across result files",
		Long: `Compare one or more CTS test_result.xml files.

Modules and test cases missing from some files are listed first, followed
by every test that does not pass in all files. Files are reported in the
order given on the command line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompare(cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.Bool("diff-only", false, "Omit tests that fail in every file")
	flags.StringP("format", "f", report.FormatText, "Output format: text, markdown, json or yaml")
	flags.Bool("summary", false, "Append a classification summary table (text format)")
	flags.Bool("fail-on-divergence", false, "Exit with code 2 when anything is reported")

	return cmd
}

func (a *app) runCompare(cmd *cobra.Command, files []string) error {
	if len(files) == 0 {
		return ctserrors.Usage("at least one result file is required")
	}

	cfg, log, term, err := a.setup(cmd)
	if err != nil {
		return err
	}

	t, err := mergeFiles(log, files)
	if err != nil {
		return err
	}

	r := classify.Evaluate(t, files, cfg.Report.DiffOnly)
	log.Info("compared result files",
		"files", len(files),
		"modules", t.Len(),
		"tests", r.TotalTests,
		"reported", len(r.Tests()),
		"flaky", r.FlakyCount,
	)

	if err := report.Write(term, cfg.Report.Format, r); err != nil {
		return ctserrors.Wrap(err, "failed to render report")
	}

	if cfg.Report.FailOnDivergence && r.Diverged() {
		return ctserrors.Divergence(fmt.Sprintf("%d tests diverge across %d result files", len(r.Tests()), len(files)))
	}
	return nil
}
