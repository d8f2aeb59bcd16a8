// Package main is the entry point for the ctsdiff CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/boyarskiy/ctsdiff/internal/config"
	ctserrors "github.com/boyarskiy/ctsdiff/internal/errors"
	"github.com/boyarskiy/ctsdiff/internal/logger"
	"github.com/boyarskiy/ctsdiff/internal/parser"
	"github.com/boyarskiy/ctsdiff/internal/report"
	"github.com/boyarskiy/ctsdiff/internal/tree"
)

var version = "v1.0.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return ctserrors.ExitSuccess
	}
	// Divergence has already been reported on stdout.
	if !ctserrors.IsKind(err, ctserrors.KindDivergence) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return ctserrors.GetExitCode(err)
}

// app carries state shared by all subcommands.
type app struct {
	configPath string
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "ctsdiff",
		Short: "Compare CTS test_result.xml files",
		Long: `ctsdiff compares Android CTS test_result.xml files.

Commands:
  compare   Report tests whose outcome differs across several result files
  baseline  Diff current results against recorded baseline results`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default .ctsdiff.yaml in the working directory or $HOME)")
	pf.String("log-level", "warn", "Log level: debug, info, warn or error")
	pf.String("log-format", logger.FormatAuto, "Log format: auto, terminal, text or json")
	pf.Bool("no-color", false, "Disable coloured output")

	root.AddCommand(newCompareCommand(a))
	root.AddCommand(newBaselineCommand(a))
	root.AddCommand(newVersionCommand(a))

	return root
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "ctsdiff %s\n", version)
		},
	}
}

// setup loads the configuration for cmd and builds the logger and the
// terminal renderer settings from it.
func (a *app) setup(cmd *cobra.Command) (*config.Config, *slog.Logger, *report.TerminalConfig, error) {
	cfg, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return nil, nil, nil, ctserrors.Usage(err.Error())
	}

	log, err := logger.New(a.stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, nil, ctserrors.Usage(err.Error())
	}

	term := &report.TerminalConfig{
		Writer:  a.stdout,
		Color:   a.colorEnabled(cfg),
		Summary: cfg.Report.Summary,
	}
	return cfg, log, term, nil
}

// colorEnabled reports whether outcome tokens should be coloured. Colour
// is only used when writing to the process stdout and it is a terminal.
func (a *app) colorEnabled(cfg *config.Config) bool {
	if cfg.Report.NoColor || color.NoColor {
		return false
	}
	f, ok := a.stdout.(*os.File)
	return ok && f == os.Stdout
}

// mergeFiles folds the result files into one tree, indexing them in order.
func mergeFiles(log *slog.Logger, paths []string) (*tree.Tree, error) {
	t := tree.New()
	for i, p := range paths {
		if err := t.MergeFile(p, i); err != nil {
			return nil, classifyError(p, err)
		}
		log.Debug("merged result file", "path", p, "index", i, "modules", t.Len(), "tests", t.NumTests())
	}
	return t, nil
}

// classifyError maps a failure reading path to a ctsdiff error kind.
func classifyError(path string, err error) error {
	var parseErr *parser.ParseError
	var pathErr *fs.PathError
	switch {
	case errors.As(err, &parseErr):
		return ctserrors.Parse(err)
	case errors.Is(err, tree.ErrNoModule), errors.Is(err, tree.ErrNoTestCase):
		return ctserrors.Structure(err)
	case errors.As(err, &pathErr):
		return ctserrors.IO("cannot read result file", err)
	default:
		return ctserrors.IOPath(path, "cannot read result file", err)
	}
}
