// Package parser reads CTS test_result.xml style files into structural events.
//
// Parsing is line based and tolerant: each line is matched against the module,
// test case and test patterns in that order and the first match wins. Lines
// matching none of them are skipped, so surrounding markup is ignored without
// parsing the document structure.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"regexp"

	"github.com/boyarskiy/ctsdiff/internal/model"
)

// maxLineSize bounds a single line; CTS results embed stack traces inline.
const maxLineSize = 16 * 1024 * 1024

var (
	reModule   = regexp.MustCompile(`<Module\s[^>]*?\bname="([^"]*)"`)
	reTestCase = regexp.MustCompile(`<TestCase\s[^>]*?\bname="([^"]*)"`)
	reTest     = regexp.MustCompile(`<Test\s([^>]*)`)
	reResult   = regexp.MustCompile(`\bresult="([^"]*)"`)
	reName     = regexp.MustCompile(`\bname="([^"]*)"`)
	reSummary  = regexp.MustCompile(`<Summary\s`)
)

// Read returns the events of the result file at path, in file order.
// The sequence opens the file on every iteration, so it can be ranged over
// more than once. Iteration stops after the first error.
func Read(path string) iter.Seq2[model.Event, error] {
	return func(yield func(model.Event, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(model.Event{}, fmt.Errorf("failed to open result file: %w", err))
			return
		}
		defer f.Close()

		for ev, err := range Scan(f, path) {
			if !yield(ev, err) || err != nil {
				return
			}
		}
	}
}

// Scan returns the events read from r. name is used in error messages only.
// Unlike Read, the sequence consumes r and can be ranged over once.
func Scan(r io.Reader, name string) iter.Seq2[model.Event, error] {
	return func(yield func(model.Event, error) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		line := 0
		for sc.Scan() {
			line++
			ev, ok, err := parseLine(sc.Text())
			if err != nil {
				yield(model.Event{}, &ParseError{
					File:    name,
					Line:    line,
					Message: err.Error(),
					Action:  "Expected result=\"pass\" or result=\"fail\". The result file may be corrupted or in an unsupported format.",
				})
				return
			}
			if !ok {
				continue
			}
			ev.Line = line
			if !yield(ev, nil) {
				return
			}
		}

		if err := sc.Err(); err != nil {
			yield(model.Event{}, &ParseError{
				File:    name,
				Line:    line + 1,
				Message: fmt.Sprintf("failed to read line: %v", err),
				Action:  "Ensure the result file is readable and lines are not unreasonably long.",
			})
		}
	}
}

// ReadAll collects every event of the result file at path.
func ReadAll(path string) ([]model.Event, error) {
	var events []model.Event
	for ev, err := range Read(path) {
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// ReadSummary returns the first line of the file carrying a <Summary element.
func ReadSummary(path string) (string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to open result file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		if reSummary.MatchString(sc.Text()) {
			return sc.Text(), true, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return "", false, nil
}

// parseLine matches one line against the module, test case and test patterns,
// in that order.
func parseLine(text string) (model.Event, bool, error) {
	if m := reModule.FindStringSubmatch(text); m != nil {
		return model.Event{Kind: model.EventModule, Name: m[1]}, true, nil
	}
	if m := reTestCase.FindStringSubmatch(text); m != nil {
		return model.Event{Kind: model.EventTestCase, Name: m[1]}, true, nil
	}
	m := reTest.FindStringSubmatch(text)
	if m == nil {
		return model.Event{}, false, nil
	}
	result := reResult.FindStringSubmatch(m[1])
	name := reName.FindStringSubmatch(m[1])
	if result == nil || name == nil {
		return model.Event{}, false, nil
	}

	passed, err := mapResult(result[1])
	if err != nil {
		return model.Event{}, false, fmt.Errorf("test %q: %w", name[1], err)
	}
	return model.Event{Kind: model.EventTest, Name: name[1], Passed: passed}, true, nil
}

// mapResult converts a result attribute value to a pass flag.
func mapResult(result string) (bool, error) {
	switch result {
	case "pass":
		return true, nil
	case "fail":
		return false, nil
	default:
		return false, fmt.Errorf("unknown result: %q", result)
	}
}

// ParseError provides actionable error information for parsing failures.
type ParseError struct {
	File    string
	Line    int
	Message string
	Action  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s:%d: %s. %s", e.File, e.Line, e.Message, e.Action)
}
