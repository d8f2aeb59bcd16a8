// Package tree aggregates test results from several files into one
// module -> test case -> test hierarchy, tagging every node with the indices
// of the files it was observed in.
package tree

import (
	"errors"
	"fmt"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/boyarskiy/ctsdiff/internal/model"
	"github.com/boyarskiy/ctsdiff/internal/parser"
)

// Structural context errors. A result file declaring a test case before any
// module, or a test before any test case of the current module, is corrupt.
var (
	ErrNoModule   = errors.New("test case declared outside of any module")
	ErrNoTestCase = errors.New("test declared outside of any test case")
)

// Tree is the aggregated result hierarchy. Iteration order of every level is
// the order in which nodes were first encountered across all merges.
type Tree struct {
	modules *orderedmap.OrderedMap[string, *Module]
}

// Module is a top-level grouping of test cases.
type Module struct {
	Name    string
	Present model.FileSet

	testCases *orderedmap.OrderedMap[string, *TestCase]
}

// TestCase is a named group of tests within a module.
type TestCase struct {
	Name    string
	Present model.FileSet

	tests *orderedmap.OrderedMap[string, *Test]
}

// Test is a single test with its per-file outcomes.
type Test struct {
	Name    string
	Passing model.FileSet
	Failing model.FileSet
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{modules: orderedmap.New[string, *Module]()}
}

// FromFiles builds a tree by merging the given result files in order; the
// i-th path gets file index i.
func FromFiles(paths ...string) (*Tree, error) {
	t := New()
	for i, path := range paths {
		if err := t.MergeFile(path, i); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MergeFile reads the result file at path and merges it under fileIndex.
func (t *Tree) MergeFile(path string, fileIndex int) error {
	err := t.Merge(parser.Read(path), fileIndex)
	if errors.Is(err, ErrNoModule) || errors.Is(err, ErrNoTestCase) {
		return fmt.Errorf("%s: %w", path, err)
	}
	return err
}

// Merge consumes one file's event sequence and records every node it names
// as present in fileIndex. Merging the same sequence twice under the same
// index leaves the tree unchanged. The first error from the sequence, or a
// structural context error, aborts the merge.
func (t *Tree) Merge(events iter.Seq2[model.Event, error], fileIndex int) error {
	var (
		module   *Module
		testCase *TestCase
	)

	for ev, err := range events {
		if err != nil {
			return err
		}

		switch ev.Kind {
		case model.EventModule:
			module = t.getOrCreateModule(ev.Name)
			module.Present.Add(fileIndex)
			testCase = nil
		case model.EventTestCase:
			if module == nil {
				return fmt.Errorf("line %d: test case %q: %w", ev.Line, ev.Name, ErrNoModule)
			}
			testCase = module.getOrCreateTestCase(ev.Name)
			testCase.Present.Add(fileIndex)
		case model.EventTest:
			if testCase == nil {
				return fmt.Errorf("line %d: test %q: %w", ev.Line, ev.Name, ErrNoTestCase)
			}
			testCase.getOrCreateTest(ev.Name).setOutcome(ev.Passed, fileIndex)
		default:
			return fmt.Errorf("line %d: unknown event kind %d", ev.Line, ev.Kind)
		}
	}

	return nil
}

func (t *Tree) getOrCreateModule(name string) *Module {
	if m, ok := t.modules.Get(name); ok {
		return m
	}
	m := &Module{Name: name, testCases: orderedmap.New[string, *TestCase]()}
	t.modules.Set(name, m)
	return m
}

func (m *Module) getOrCreateTestCase(name string) *TestCase {
	if tc, ok := m.testCases.Get(name); ok {
		return tc
	}
	tc := &TestCase{Name: name, tests: orderedmap.New[string, *Test]()}
	m.testCases.Set(name, tc)
	return tc
}

func (tc *TestCase) getOrCreateTest(name string) *Test {
	if test, ok := tc.tests.Get(name); ok {
		return test
	}
	test := &Test{Name: name}
	tc.tests.Set(name, test)
	return test
}

func (test *Test) setOutcome(passed bool, fileIndex int) {
	if passed {
		test.Passing.Add(fileIndex)
	} else {
		test.Failing.Add(fileIndex)
	}
}

// Len returns the number of modules.
func (t *Tree) Len() int {
	return t.modules.Len()
}

// Module looks up a module by name.
func (t *Tree) Module(name string) (*Module, bool) {
	return t.modules.Get(name)
}

// Modules iterates modules in first-encounter order.
func (t *Tree) Modules() iter.Seq[*Module] {
	return values(t.modules)
}

// NumTests returns the number of distinct tests in the tree.
func (t *Tree) NumTests() int {
	n := 0
	for m := range t.Modules() {
		for tc := range m.TestCases() {
			n += tc.Len()
		}
	}
	return n
}

// Len returns the number of test cases in the module.
func (m *Module) Len() int {
	return m.testCases.Len()
}

// TestCase looks up a test case by name.
func (m *Module) TestCase(name string) (*TestCase, bool) {
	return m.testCases.Get(name)
}

// TestCases iterates test cases in first-encounter order.
func (m *Module) TestCases() iter.Seq[*TestCase] {
	return values(m.testCases)
}

// Len returns the number of tests in the test case.
func (tc *TestCase) Len() int {
	return tc.tests.Len()
}

// Test looks up a test by name.
func (tc *TestCase) Test(name string) (*Test, bool) {
	return tc.tests.Get(name)
}

// Tests iterates tests in first-encounter order.
func (tc *TestCase) Tests() iter.Seq[*Test] {
	return values(tc.tests)
}

// Status returns the test's outcome in file i. A pass recorded for the file
// takes precedence over a fail.
func (test *Test) Status(i int) model.Outcome {
	switch {
	case test.Passing.Has(i):
		return model.OutcomePass
	case test.Failing.Has(i):
		return model.OutcomeFail
	default:
		return model.OutcomeMissing
	}
}

// Outcome collapses the per-file outcomes into one: PASS if it never failed,
// FAIL if it never passed and FLAKY if it did both.
func (test *Test) Outcome() model.Outcome {
	passed, failed := !test.Passing.Empty(), !test.Failing.Empty()
	switch {
	case passed && failed:
		return model.OutcomeFlaky
	case passed:
		return model.OutcomePass
	case failed:
		return model.OutcomeFail
	default:
		return model.OutcomeMissing
	}
}

func values[V any](om *orderedmap.OrderedMap[string, V]) iter.Seq[V] {
	return func(yield func(V) bool) {
		for pair := om.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Value) {
				return
			}
		}
	}
}
