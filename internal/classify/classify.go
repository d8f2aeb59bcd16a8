// Package classify decides which nodes of an aggregated tree diverge across
// the compared files and assembles the N-way report.
package classify

import (
	"github.com/boyarskiy/ctsdiff/internal/model"
	"github.com/boyarskiy/ctsdiff/internal/tree"
)

// Classify determines how a test behaved across n files.
func Classify(test *tree.Test, n int) model.Classification {
	switch {
	case test.Passing.Full(n):
		return model.ClassificationStable
	case test.Failing.Full(n):
		return model.ClassificationDeterministicFail
	case !test.Passing.Empty() && !test.Failing.Empty():
		return model.ClassificationFlaky
	default:
		// Consistent where present, but absent from at least one file.
		return model.ClassificationIncomplete
	}
}

// Reportable reports whether a test belongs in the N-way report: it did not
// pass in every file, and, in diff-only mode, it did not fail in every file
// either.
func Reportable(test *tree.Test, n int, diffOnly bool) bool {
	if test.Passing.Full(n) {
		return false
	}
	if diffOnly && test.Failing.Full(n) {
		return false
	}
	return true
}

// Evaluate builds the N-way report for a tree merged from files, where the
// i-th file was merged under index i. Missing modules come first; then, per
// module in first-encounter order, its missing test cases followed by its
// reported tests.
func Evaluate(t *tree.Tree, files []string, diffOnly bool) *model.Report {
	n := len(files)
	r := &model.Report{
		Files:    files,
		DiffOnly: diffOnly,
	}

	for m := range t.Modules() {
		if !m.Present.Full(n) {
			r.MissingModules = append(r.MissingModules, missingEntry(m.Name, &m.Present, files))
		}
	}

	for m := range t.Modules() {
		mr := model.ModuleReport{Name: m.Name}

		for tc := range m.TestCases() {
			if !tc.Present.Full(n) {
				mr.MissingTestCases = append(mr.MissingTestCases,
					missingEntry(model.JoinID(m.Name, tc.Name), &tc.Present, files))
			}
		}

		for tc := range m.TestCases() {
			for test := range tc.Tests() {
				class := Classify(test, n)
				tally(r, class)

				if !Reportable(test, n, diffOnly) {
					continue
				}
				mr.Tests = append(mr.Tests, model.TestReport{
					ID:             model.JoinID(m.Name, tc.Name, test.Name),
					Classification: class,
					Files:          fileStatuses(test, files),
				})
			}
		}

		if len(mr.MissingTestCases) > 0 || len(mr.Tests) > 0 {
			r.Modules = append(r.Modules, mr)
		}
	}

	return r
}

func tally(r *model.Report, class model.Classification) {
	r.TotalTests++
	switch class {
	case model.ClassificationStable:
		r.StableCount++
	case model.ClassificationDeterministicFail:
		r.DetFailCount++
	case model.ClassificationFlaky:
		r.FlakyCount++
	case model.ClassificationIncomplete:
		r.IncompleteCount++
	}
}

func missingEntry(name string, present *model.FileSet, files []string) model.MissingEntry {
	idx := present.Missing(len(files))
	e := model.MissingEntry{Name: name, Files: make([]string, 0, len(idx))}
	for _, i := range idx {
		e.Files = append(e.Files, files[i])
	}
	return e
}

func fileStatuses(test *tree.Test, files []string) []model.FileStatus {
	out := make([]model.FileStatus, len(files))
	for i, f := range files {
		out[i] = model.FileStatus{File: f, Status: test.Status(i)}
	}
	return out
}

// FilterByClassification returns tests matching the given classification.
// The returned slice maintains the original order.
func FilterByClassification(tests []model.TestReport, class model.Classification) []model.TestReport {
	result := make([]model.TestReport, 0)
	for _, t := range tests {
		if t.Classification == class {
			result = append(result, t)
		}
	}
	return result
}
