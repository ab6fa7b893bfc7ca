package harness

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/anvil/internal/config"
	"github.com/715d/anvil/internal/demo"
	"github.com/715d/anvil/pkg/ldflags"
)

// TestCase represents a single scenario.
type TestCase struct {
	// Dir is the directory containing the scenario.
	Dir string `yaml:"-"`

	// Description says what the scenario exercises.
	Description string `yaml:"description"`

	// Values override the linked symbols.
	Values LinkValues `yaml:"values"`

	// ExpectedLine is the report line the demo must print last, without CRLF.
	ExpectedLine string `yaml:"expected_line"`

	// ExpectedStatus is the demo's exit status.
	ExpectedStatus int `yaml:"expected_status"`

	// Config optionally verifies a build configuration in Dir.
	Config *ConfigCase `yaml:"config,omitempty"`
}

// TestResult represents the result of running a test case.
type TestResult struct {
	// TestCase is the test case that was run.
	TestCase *TestCase

	// Output is everything the demo printed.
	Output string

	// Success indicates if the test passed.
	Success bool

	// Message provides a summary of the result.
	Message string

	// Details provides detailed information about failures.
	Details []string
}

// TestHarness manages test execution.
type TestHarness struct {
	// root is the root directory for test data
	root string
}

// NewHarness creates a new test harness.
func NewHarness(root string) *TestHarness {
	return &TestHarness{root: root}
}

// Run executes a test case.
func (h *TestHarness) Run(t *testing.T, tc *TestCase) *TestResult {
	t.Helper()
	require.NotEmpty(t, tc.ExpectedLine, "test case has no expected_line")

	result := &TestResult{TestCase: tc}

	var out strings.Builder
	status := demo.RunWith(&out, h.values(tc.Values))
	result.Output = out.String()

	var details []string
	lines := strings.Split(strings.TrimSuffix(result.Output, "\r\n"), "\r\n")
	if last := lines[len(lines)-1]; last != tc.ExpectedLine {
		details = append(details, fmt.Sprintf("report line: expected %q, got %q", tc.ExpectedLine, last))
	}
	if status != tc.ExpectedStatus {
		details = append(details, fmt.Sprintf("exit status: expected %d, got %d", tc.ExpectedStatus, status))
	}
	if reports := countReports(lines); reports != 1 {
		details = append(details, fmt.Sprintf("expected exactly one report line, got %d", reports))
	}

	if tc.Config != nil {
		details = append(details, h.checkConfig(tc)...)
	}

	result.Details = details
	result.Success = len(details) == 0
	if result.Success {
		result.Message = "scenario passed"
	} else {
		result.Message = fmt.Sprintf("%d check(s) failed:\n  %s", len(details), strings.Join(details, "\n  "))
	}
	return result
}

func (h *TestHarness) values(overrides LinkValues) demo.Values {
	v := demo.Linked()
	if overrides.Hello != nil {
		v.Hello = *overrides.Hello
	}
	if overrides.Yolo1 != nil {
		v.Yolo1 = *overrides.Yolo1
	}
	if overrides.Yolo2 != nil {
		v.Yolo2 = *overrides.Yolo2
	}
	return v
}

// checkConfig verifies the scenario's build configuration.
func (h *TestHarness) checkConfig(tc *TestCase) []string {
	path := filepath.Join(h.root, tc.Dir, tc.Config.File)
	raw, err := config.Load(path)
	if err != nil {
		return []string{fmt.Sprintf("loading %s: %v", tc.Config.File, err)}
	}

	var details []string
	cfg, warnings, err := config.Verify(raw)

	var warned []string
	for _, w := range warnings {
		warned = append(warned, w.Field)
	}
	if !slices.Equal(warned, tc.Config.ExpectedWarnings) {
		details = append(details, fmt.Sprintf("warnings: expected %v, got %v", tc.Config.ExpectedWarnings, warned))
	}

	switch {
	case tc.Config.ExpectedError != "" && err == nil:
		return append(details, fmt.Sprintf("expected error containing %q, configuration verified", tc.Config.ExpectedError))
	case tc.Config.ExpectedError != "":
		if !strings.Contains(err.Error(), tc.Config.ExpectedError) {
			details = append(details, fmt.Sprintf("error: expected %q in %q", tc.Config.ExpectedError, err))
		}
		return details
	case err != nil:
		return append(details, fmt.Sprintf("unexpected verification error: %v", err))
	}

	flags, err := ldflags.Parse(cfg.LDFlags)
	if err != nil {
		return append(details, fmt.Sprintf("parsing LDFLAGS: %v", err))
	}
	var assigned []string
	for _, a := range flags.Last() {
		assigned = append(assigned, a.String())
	}
	if !slices.Equal(assigned, tc.Config.ExpectedAssignments) {
		details = append(details, fmt.Sprintf("assignments: expected %v, got %v", tc.Config.ExpectedAssignments, assigned))
	}
	return details
}

func countReports(lines []string) int {
	var n int
	for _, line := range lines {
		if strings.HasPrefix(line, "Expected '") || strings.HasPrefix(line, "Successfully linked") {
			n++
		}
	}
	return n
}
