package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ctserrors "github.com/boyarskiy/ctsdiff/internal/errors"
	"github.com/boyarskiy/ctsdiff/internal/logger"
	"github.com/boyarskiy/ctsdiff/internal/model"
)

// resultXML renders a result file with module M, test case C and one test
// per outcome, named t1, t2, ...
func resultXML(outcomes ...string) string {
	var sb strings.Builder
	sb.WriteString("<?xml version='1.0' encoding='UTF-8' standalone='no' ?>\n")
	sb.WriteString("<Result suite_name=\"CTS\">\n")
	fmt.Fprintf(&sb, "  <Summary pass=\"%d\" failed=\"0\" />\n", len(outcomes))
	sb.WriteString("  <Module name=\"M\" abi=\"arm64-v8a\">\n")
	sb.WriteString("    <TestCase name=\"C\">\n")
	for i, o := range outcomes {
		fmt.Fprintf(&sb, "      <Test result=\"%s\" name=\"t%d\" />\n", o, i+1)
	}
	sb.WriteString("    </TestCase>\n  </Module>\n</Result>\n")
	return sb.String()
}

// workspace isolates config discovery and returns a temp directory.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func writeResult(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestVersion(t *testing.T) {
	workspace(t)

	code, out, _ := execute("version")
	assert.Equal(t, ctserrors.ExitSuccess, code)
	assert.Equal(t, "ctsdiff "+version+"\n", out)
}

func TestHelp(t *testing.T) {
	workspace(t)

	code, out, _ := execute("--help")
	assert.Equal(t, ctserrors.ExitSuccess, code)
	assert.Contains(t, out, "baseline")
	assert.Contains(t, out, "compare")
}

func TestUnknownCommand(t *testing.T) {
	workspace(t)

	code, _, errOut := execute("frobnicate")
	assert.Equal(t, ctserrors.ExitError, code)
	assert.Contains(t, errOut, "unknown command")
}

func TestCompareRequiresFiles(t *testing.T) {
	workspace(t)

	code, out, errOut := execute("compare")
	assert.Equal(t, ctserrors.ExitError, code)
	assert.Empty(t, out)
	assert.Equal(t, "Error: at least one result file is required\n", errOut)
}

func TestCompareIdenticalFiles(t *testing.T) {
	dir := workspace(t)
	a := writeResult(t, dir, "a.xml", resultXML("pass", "pass"))
	b := writeResult(t, dir, "b.xml", resultXML("pass", "pass"))

	code, out, errOut := execute("compare", "--fail-on-divergence", a, b)
	assert.Equal(t, ctserrors.ExitSuccess, code)
	assert.Empty(t, out)
	assert.Empty(t, errOut)
}

func TestCompareReportsFlip(t *testing.T) {
	dir := workspace(t)
	a := writeResult(t, dir, "a.xml", resultXML("pass", "pass"))
	b := writeResult(t, dir, "b.xml", resultXML("pass", "fail"))

	code, out, _ := execute("compare", a, b)
	assert.Equal(t, ctserrors.ExitSuccess, code)

	expected := "Test: M/C/t2:\n" +
		"\t- a.xml               PASS\n" +
		"\t- b.xml                    FAIL\n"
	assert.Equal(t, expected, out)
}

func TestCompareFailOnDivergence(t *testing.T) {
	dir := workspace(t)
	a := writeResult(t, dir, "a.xml", resultXML("pass"))
	b := writeResult(t, dir, "b.xml", resultXML("fail"))

	code, out, errOut := execute("compare", "--fail-on-divergence", a, b)
	assert.Equal(t, ctserrors.ExitDivergence, code)
	assert.Contains(t, out, "Test: M/C/t1:")
	assert.Empty(t, errOut)
}

func TestCompareDiffOnly(t *testing.T) {
	dir := workspace(t)
	a := writeResult(t, dir, "a.xml", resultXML("fail"))
	b := writeResult(t, dir, "b.xml", resultXML("fail"))

	code, out, _ := execute("compare", a, b)
	assert.Equal(t, ctserrors.ExitSuccess, code)
	assert.Contains(t, out, "Test: M/C/t1:")

	code, out, _ = execute("compare", "--diff-only", a, b)
	assert.Equal(t, ctserrors.ExitSuccess, code)
	assert.Empty(t, out)
}

func TestCompareJSON(t *testing.T) {
	dir := workspace(t)
	a := writeResult(t, dir, "a.xml", resultXML("pass", "fail"))
	b := writeResult(t, dir, "b.xml", resultXML("fail", "fail"))

	code, out, _ := execute("compare", "--format", "json", a, b)
	require.Equal(t, ctserrors.ExitSuccess, code)

	var r model.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, []string{a, b}, r.Files)
	assert.Equal(t, 2, r.TotalTests)
	tests := r.Tests()
	require.Len(t, tests, 2)
	assert.Equal(t, "M/C/t1", tests[0].ID)
	assert.Equal(t, model.ClassificationFlaky, tests[0].Classification)
	assert.Equal(t, model.ClassificationDeterministicFail, tests[1].Classification)
}

func TestCompareConfigFile(t *testing.T) {
	dir := workspace(t)
	a := writeResult(t, dir, "a.xml", resultXML("fail"))
	b := writeResult(t, dir, "b.xml", resultXML("fail"))
	writeResult(t, dir, ".ctsdiff.yaml", "report:\n  diff_only: true\n")

	code, out, _ := execute("compare", a, b)
	assert.Equal(t, ctserrors.ExitSuccess, code)
	assert.Empty(t, out)
}

func TestCompareInvalidFormat(t *testing.T) {
	dir := workspace(t)
	a := writeResult(t, dir, "a.xml", resultXML("pass"))

	code, _, errOut := execute("compare", "--format", "html", a)
	assert.Equal(t, ctserrors.ExitError, code)
	assert.Contains(t, errOut, "invalid report format")
}

func TestCompareMalformedFile(t *testing.T) {
	dir := workspace(t)
	a := writeResult(t, dir, "a.xml", resultXML("pass"))
	b := writeResult(t, dir, "b.xml", resultXML("not_executed"))

	code, out, errOut := execute("compare", a, b)
	assert.Equal(t, ctserrors.ExitError, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "parse error in "+b+":6")
}

func TestCompareOrphanTest(t *testing.T) {
	dir := workspace(t)
	a := writeResult(t, dir, "a.xml", "<Result>\n<Test result=\"pass\" name=\"t1\" />\n</Result>\n")

	code, _, errOut := execute("compare", a)
	assert.Equal(t, ctserrors.ExitError, code)
	assert.Contains(t, errOut, "corrupt result structure")
}

func TestCompareMissingFile(t *testing.T) {
	dir := workspace(t)

	code, _, errOut := execute("compare", filepath.Join(dir, "absent.xml"))
	assert.Equal(t, ctserrors.ExitError, code)
	assert.Contains(t, errOut, "cannot read result file")
}

func TestBaselineNoChange(t *testing.T) {
	dir := workspace(t)
	base := writeResult(t, dir, "base.xml", resultXML("pass", "fail"))
	cur := writeResult(t, dir, "cur.xml", resultXML("pass", "fail"))

	code, out, errOut := execute("baseline", "--baseline", base, cur)
	assert.Equal(t, ctserrors.ExitSuccess, code)
	assert.Equal(t,
		"Summary from current test results: "+cur+"\n"+
			"  <Summary pass=\"2\" failed=\"0\" />\n",
		out)
	assert.Empty(t, errOut)
}

func TestBaselineChange(t *testing.T) {
	dir := workspace(t)
	base := writeResult(t, dir, "base.xml", resultXML("pass"))
	cur := writeResult(t, dir, "cur.xml", resultXML("fail"))

	code, out, errOut := execute("baseline", "-b", base, cur)
	assert.Equal(t, ctserrors.ExitDivergence, code)
	assert.True(t, strings.HasSuffix(out, "Test: M/C/t1, change: PASS -> FAIL\n"))
	assert.Empty(t, errOut)
}

func TestBaselineGlob(t *testing.T) {
	dir := workspace(t)
	writeResult(t, dir, "baselines/r1/test_result.xml", resultXML("pass", "pass"))
	writeResult(t, dir, "baselines/r2/test_result.xml", resultXML("pass", "fail"))
	cur := writeResult(t, dir, "cur.xml", resultXML("pass", "pass"))

	code, out, _ := execute("baseline", "--format", "yaml", "--baseline", "baselines/**/test_result.xml", cur)
	assert.Equal(t, ctserrors.ExitDivergence, code)
	assert.Contains(t, out, "- id: M/C/t2\n    from: FLAKY\n    to: PASS\n")
}

func TestBaselineRegressionsGate(t *testing.T) {
	dir := workspace(t)
	base := writeResult(t, dir, "base.xml", resultXML("fail", "pass"))
	fixed := writeResult(t, dir, "fixed.xml", resultXML("pass", "pass"))
	broken := writeResult(t, dir, "broken.xml", resultXML("pass", "fail"))

	code, out, _ := execute("baseline", "--gate", "regressions", "-b", base, fixed)
	assert.Equal(t, ctserrors.ExitSuccess, code)
	assert.Contains(t, out, "Test: M/C/t1, change: FAIL -> PASS\n")

	code, out, _ = execute("baseline", "--gate", "regressions", "-b", base, broken)
	assert.Equal(t, ctserrors.ExitDivergence, code)
	assert.Contains(t, out, "1 test that consistently passes in the baseline")
	assert.Contains(t, out, "\t- M/C/t2\n")
}

func TestBaselineNoMatch(t *testing.T) {
	dir := workspace(t)
	cur := writeResult(t, dir, "cur.xml", resultXML("pass"))

	code, _, errOut := execute("baseline", "-b", "nowhere/*.xml", cur)
	assert.Equal(t, ctserrors.ExitError, code)
	assert.Contains(t, errOut, "no baseline result files match")

	code, _, errOut = execute("baseline", cur)
	assert.Equal(t, ctserrors.ExitError, code)
	assert.Contains(t, errOut, "no baseline given")
}

func TestBaselineSkipAndSave(t *testing.T) {
	dir := workspace(t)
	cur := writeResult(t, dir, "cur.xml", resultXML("pass"))
	saved := filepath.Join(dir, "archive", "latest.xml")

	code, out, _ := execute("baseline", "--no-baseline", "--save-result", saved, cur)
	assert.Equal(t, ctserrors.ExitSuccess, code)
	assert.Contains(t, out, "Summary from current test results: "+cur)

	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, resultXML("pass"), string(data))
}

func TestBaselineSaveAfterDivergence(t *testing.T) {
	dir := workspace(t)
	base := writeResult(t, dir, "base.xml", resultXML("pass"))
	cur := writeResult(t, dir, "cur.xml", resultXML("fail"))
	saved := filepath.Join(dir, "saved.xml")

	code, _, _ := execute("baseline", "-b", base, "--save-result", saved, cur)
	assert.Equal(t, ctserrors.ExitDivergence, code)
	assert.FileExists(t, saved)
}

func TestExpandBaselineDedup(t *testing.T) {
	dir := workspace(t)
	writeResult(t, dir, "b/2.xml", resultXML("pass"))
	writeResult(t, dir, "b/1.xml", resultXML("pass"))

	files, err := expandBaseline([]string{"b/*.xml", "b/1.xml"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("b", "1.xml"), filepath.Join("b", "2.xml")}, files)
}

func TestMergeFilesErrorKinds(t *testing.T) {
	dir := workspace(t)
	good := writeResult(t, dir, "good.xml", resultXML("pass", "fail"))
	bad := writeResult(t, dir, "bad.xml", resultXML("skipped"))
	orphan := writeResult(t, dir, "orphan.xml", "<TestCase name=\"C\">\n")

	tr, err := mergeFiles(logger.Discard(), []string{good, good})
	require.NoError(t, err)
	assert.Equal(t, 2, tr.NumTests())

	tests := []struct {
		name string
		path string
		kind ctserrors.ErrorKind
	}{
		{"malformed outcome", bad, ctserrors.KindParse},
		{"orphan test case", orphan, ctserrors.KindStructure},
		{"missing file", filepath.Join(dir, "absent.xml"), ctserrors.KindIO},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mergeFiles(logger.Discard(), []string{good, tc.path})
			require.Error(t, err)
			assert.True(t, ctserrors.IsKind(err, tc.kind), "got %v", err)
		})
	}
}

func TestSaveResult(t *testing.T) {
	dir := workspace(t)
	src := writeResult(t, dir, "cur.xml", resultXML("pass"))

	require.NoError(t, saveResult(logger.Discard(), src, ""))

	dst := filepath.Join(dir, "nested", "dir", "saved.xml")
	require.NoError(t, saveResult(logger.Discard(), src, dst))
	assert.FileExists(t, dst)

	err := saveResult(logger.Discard(), filepath.Join(dir, "absent.xml"), filepath.Join(dir, "x.xml"))
	assert.True(t, ctserrors.IsKind(err, ctserrors.KindIO))
}
