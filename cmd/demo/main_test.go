package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/anvil/internal/build"
	"github.com/715d/anvil/internal/config"
)

const (
	helloVar = "github.com/715d/anvil/internal/hello.Hello"
	yolo1Var = "github.com/715d/anvil/internal/yolo.Yolo1"
	yolo2Var = "github.com/715d/anvil/internal/test/yolo.Yolo2"

	linked = "Successfully linked extern variables: [ 'HELLO', 'YOLO_1', 'YOLO_2' ]"
)

// buildDemo links the demo with the given -X assignments and returns the
// binary path.
func buildDemo(t *testing.T, assignments ...string) string {
	t.Helper()
	ldflags := make([]string, 0, 2*len(assignments))
	for _, a := range assignments {
		ldflags = append(ldflags, "-X", a)
	}
	cfg := &config.Config{
		Art:     t.TempDir(),
		Exe:     "demo",
		LDFlags: ldflags,
		Dirs:    []string{"./cmd/demo"},
	}
	root, err := filepath.Abs(filepath.Join("..", ".."))
	require.NoError(t, err)

	cmd, err := build.Plan(cfg, build.Options{Dir: root})
	require.NoError(t, err)
	var stderr bytes.Buffer
	_, err = build.Run(t.Context(), cmd, &stderr, &stderr)
	require.NoError(t, err, stderr.String())
	return cmd.Output
}

func TestLinkedBinary(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the demo")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not on PATH")
	}

	tests := []struct {
		name        string
		assignments []string
		want        string
	}{
		{name: "defaults", want: linked},
		{
			name:        "explicit_defaults",
			assignments: []string{helloVar + "=HELLO", yolo1Var + "=YOLO_1", yolo2Var + "=YOLO_2"},
			want:        linked,
		},
		{name: "hello_overridden", assignments: []string{helloVar + "=BYE"}, want: "Expected 'HELLO', Found 'BYE'"},
		{name: "yolo1_overridden", assignments: []string{yolo1Var + "=NOPE"}, want: "Expected 'YOLO_1', Found 'NOPE'"},
		{name: "second_yolo_overridden", assignments: []string{yolo2Var + "=YOLO_1"}, want: "Expected 'YOLO_2', Found 'YOLO_1'"},
		{
			name:        "first_mismatch_wins",
			assignments: []string{yolo2Var + "=C", helloVar + "=A"},
			want:        "Expected 'HELLO', Found 'A'",
		},
		{
			name:        "unknown_target_ignored",
			assignments: []string{"github.com/715d/anvil/internal/hello.HELLO=BYE"},
			want:        linked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin := buildDemo(t, tt.assignments...)

			cmd := exec.Command(bin)
			cmd.Env = os.Environ()
			out, err := cmd.Output()
			require.NoError(t, err, "demo must exit 0")
			require.Equal(t, 0, cmd.ProcessState.ExitCode())

			lines := strings.Split(strings.TrimSuffix(string(out), "\r\n"), "\r\n")
			require.Len(t, lines, 4, string(out))
			require.Contains(t, lines[0], "demo.locate @ ")
			require.True(t, strings.HasSuffix(lines[0], "demo.go"), lines[0])
			require.Equal(t, tt.want, lines[len(lines)-1])
		})
	}
}
