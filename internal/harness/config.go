// Package harness runs the link-verification scenarios described under testdata/.
package harness

// LinkValues overrides the linked symbol values for a scenario. Unset fields
// keep the value linked into the test binary.
type LinkValues struct {
	Hello *string `yaml:"hello,omitempty"`
	Yolo1 *string `yaml:"yolo1,omitempty"`
	Yolo2 *string `yaml:"yolo2,omitempty"`
}

// ConfigCase describes a build configuration shipped with a scenario.
type ConfigCase struct {
	// File is the configuration file name relative to the scenario directory.
	File string `yaml:"file"`

	// ExpectedError is a substring of the verification error, empty when the
	// configuration must verify.
	ExpectedError string `yaml:"expected_error,omitempty"`

	// ExpectedWarnings lists the fields expected to be ignored as unknown.
	ExpectedWarnings []string `yaml:"expected_warnings,omitempty"`

	// ExpectedAssignments lists the effective -X definitions in LDFLAGS.
	ExpectedAssignments []string `yaml:"expected_assignments,omitempty"`
}
