// Package model defines shared data types for ctsdiff.
package model

import "strings"

// EventKind identifies the structural element a result line declared.
type EventKind int

const (
	EventModule EventKind = iota
	EventTestCase
	EventTest
)

func (k EventKind) String() string {
	switch k {
	case EventModule:
		return "module"
	case EventTestCase:
		return "test case"
	case EventTest:
		return "test"
	default:
		return "unknown"
	}
}

// Event is one structural record read from a result file.
// Passed is only meaningful for EventTest.
type Event struct {
	Kind   EventKind
	Name   string
	Passed bool
	Line   int
}

// Outcome is the single collapsed outcome of a test within one result tree.
type Outcome string

const (
	OutcomePass    Outcome = "PASS"
	OutcomeFail    Outcome = "FAIL"
	OutcomeFlaky   Outcome = "FLAKY"
	OutcomeMissing Outcome = "MISSING"
)

// Classification describes how a test behaved across all compared files.
type Classification string

const (
	ClassificationStable            Classification = "stable"
	ClassificationDeterministicFail Classification = "deterministic_fail"
	ClassificationFlaky             Classification = "flaky"
	ClassificationIncomplete        Classification = "incomplete"
)

// FileStatus is a test's outcome in one particular file.
type FileStatus struct {
	File   string  `json:"file" yaml:"file"`
	Status Outcome `json:"status" yaml:"status"`
}

// MissingEntry names a module or test case absent from some of the files.
type MissingEntry struct {
	Name  string   `json:"name" yaml:"name"`
	Files []string `json:"files" yaml:"files"`
}

// TestReport lists the per-file status of one reported test.
type TestReport struct {
	ID             string         `json:"id" yaml:"id"`
	Classification Classification `json:"classification" yaml:"classification"`
	Files          []FileStatus   `json:"files" yaml:"files"`
}

// ModuleReport is what the N-way report lists for one module: its missing
// test cases, then its reported tests.
type ModuleReport struct {
	Name             string         `json:"name" yaml:"name"`
	MissingTestCases []MissingEntry `json:"missingTestCases,omitempty" yaml:"missingTestCases,omitempty"`
	Tests            []TestReport   `json:"tests,omitempty" yaml:"tests,omitempty"`
}

// Report is the N-way comparison result across a list of files. Modules
// holds only modules with something to report, in first-encounter order.
type Report struct {
	Files           []string       `json:"files" yaml:"files"`
	DiffOnly        bool           `json:"diffOnly" yaml:"diffOnly"`
	MissingModules  []MissingEntry `json:"missingModules" yaml:"missingModules"`
	Modules         []ModuleReport `json:"modules" yaml:"modules"`
	TotalTests      int            `json:"totalTests" yaml:"totalTests"`
	StableCount     int            `json:"stableCount" yaml:"stableCount"`
	DetFailCount    int            `json:"deterministicFailCount" yaml:"deterministicFailCount"`
	FlakyCount      int            `json:"flakyCount" yaml:"flakyCount"`
	IncompleteCount int            `json:"incompleteCount" yaml:"incompleteCount"`
}

// Diverged reports whether the report has anything to show.
func (r *Report) Diverged() bool {
	return len(r.MissingModules) > 0 || len(r.Modules) > 0
}

// MissingTestCases returns the missing test cases of every module, in
// reporting order.
func (r *Report) MissingTestCases() []MissingEntry {
	var out []MissingEntry
	for _, m := range r.Modules {
		out = append(out, m.MissingTestCases...)
	}
	return out
}

// Tests returns the reported tests of every module, in reporting order.
func (r *Report) Tests() []TestReport {
	var out []TestReport
	for _, m := range r.Modules {
		out = append(out, m.Tests...)
	}
	return out
}

// Change is an outcome transition of a test present in both trees.
type Change struct {
	ID   string  `json:"id" yaml:"id"`
	From Outcome `json:"from" yaml:"from"`
	To   Outcome `json:"to" yaml:"to"`
}

// Diff is the structural and outcome difference between a baseline tree and
// a current result tree. Names are slash-joined paths (module/case/test).
type Diff struct {
	MissingModules   []string `json:"missingModules" yaml:"missingModules"`
	NewModules       []string `json:"newModules" yaml:"newModules"`
	MissingTestCases []string `json:"missingTestCases" yaml:"missingTestCases"`
	NewTestCases     []string `json:"newTestCases" yaml:"newTestCases"`
	MissingTests     []string `json:"missingTests" yaml:"missingTests"`
	NewTests         []string `json:"newTests" yaml:"newTests"`
	Changes          []Change `json:"changes" yaml:"changes"`

	// Regressions lists tests passing in the baseline that are missing or
	// not passing in the current result, including those under a missing
	// module or test case.
	Regressions []string `json:"regressions" yaml:"regressions"`
}

// Diverged reports whether any structural or outcome difference was found.
func (d *Diff) Diverged() bool {
	return len(d.MissingModules) > 0 || len(d.NewModules) > 0 ||
		len(d.MissingTestCases) > 0 || len(d.NewTestCases) > 0 ||
		len(d.MissingTests) > 0 || len(d.NewTests) > 0 ||
		len(d.Changes) > 0
}

// Regressed reports whether a baseline-passing test was lost or broken.
func (d *Diff) Regressed() bool {
	return len(d.Regressions) > 0
}

// JoinID builds the slash-separated identity of a node.
func JoinID(parts ...string) string {
	return strings.Join(parts, "/")
}
