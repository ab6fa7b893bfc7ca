package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/715d/anvil/internal/config"
)

func demoConfig() *config.Config {
	return &config.Config{
		Art:     "bin",
		Exe:     "demo",
		CC:      "clang",
		CCFlags: []string{"-Wall", "-O2"},
		LDFlags: []string{"-s", "-X", "github.com/715d/anvil/internal/hello.Hello=HELLO"},
		LDLibs:  []string{"-lm"},
		Dirs:    []string{"./cmd/demo"},
	}
}

func TestPlan(t *testing.T) {
	cmd, err := Plan(demoConfig(), Options{
		Dir:       "/src",
		BuildTags: []string{"netgo", "osusergo"},
		Env:       []string{"PATH=/bin", "CGO_ENABLED=0"},
	})
	require.NoError(t, err)

	require.Equal(t, "go", cmd.Path)
	require.Equal(t, []string{
		"build", "-o", filepath.Join("bin", "demo"),
		"-tags", "netgo,osusergo",
		"-ldflags", "-s -X github.com/715d/anvil/internal/hello.Hello=HELLO",
		"./cmd/demo",
	}, cmd.Args)
	require.Equal(t, []string{
		"PATH=/bin",
		"CGO_ENABLED=1",
		"CC=clang",
		"CGO_CFLAGS=-Wall -O2",
		"CGO_LDFLAGS=-lm",
	}, cmd.Env)
	require.Equal(t, "/src", cmd.Dir)
	require.Len(t, cmd.LDFlags.Assignments, 1)
}

func TestPlanWithoutCgo(t *testing.T) {
	cfg := &config.Config{Art: "out", Exe: "demo", Dirs: []string{"./cmd/demo"}}
	cmd, err := Plan(cfg, Options{GoBin: "/usr/local/go/bin/go", Env: []string{}})
	require.NoError(t, err)

	require.Equal(t, "/usr/local/go/bin/go build -o out/demo ./cmd/demo", cmd.String())
	require.Empty(t, cmd.Env)
}

func TestPlanDoesNotModifyBaseEnv(t *testing.T) {
	base := []string{"CC=gcc"}
	_, err := Plan(demoConfig(), Options{Env: base})
	require.NoError(t, err)
	require.Equal(t, []string{"CC=gcc"}, base)
}

func TestEnv(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		base []string
		want []string
	}{
		{
			name: "no_cgo_settings",
			cfg:  &config.Config{},
			base: []string{"PATH=/bin", "CGO_ENABLED=0"},
			want: []string{"PATH=/bin", "CGO_ENABLED=0"},
		},
		{
			name: "compiler_enables_cgo",
			cfg:  &config.Config{CC: "gcc"},
			base: []string{"CGO_ENABLED=0"},
			want: []string{"CGO_ENABLED=1", "CC=gcc"},
		},
		{
			name: "flags_without_compiler",
			cfg:  &config.Config{CCFlags: []string{"-I/opt/include"}, LDLibs: []string{"-lz", "-lm"}},
			base: nil,
			want: []string{"CGO_CFLAGS=-I/opt/include", "CGO_LDFLAGS=-lz -lm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ElementsMatch(t, tt.want, Env(tt.cfg, tt.base))
		})
	}
}

func TestPlanErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "no_dirs", mutate: func(c *config.Config) { c.Dirs = nil }, wantErr: ErrNoPackages.Error()},
		{name: "no_exe", mutate: func(c *config.Config) { c.Exe = "" }, wantErr: `"EXE" is empty`},
		{name: "bad_ldflags", mutate: func(c *config.Config) { c.LDFlags = []string{"-X", "nodot=1"} }, wantErr: "parse LDFLAGS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := demoConfig()
			tt.mutate(cfg)
			_, err := Plan(cfg, Options{})
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

// TestHelperProcess stands in for the go command.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("ANVIL_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	fmt.Fprintln(os.Stdout, strings.Join(args, " "))
	if os.Getenv("ANVIL_HELPER_FAIL") == "1" {
		os.Exit(1)
	}
	os.Exit(0)
}

func helperCommand(t *testing.T, fail bool) *Command {
	t.Helper()
	cmd, err := Plan(demoConfig(), Options{Dir: t.TempDir()})
	require.NoError(t, err)

	cmd.Args = append([]string{"-test.run=TestHelperProcess", "--"}, cmd.Args...)
	cmd.Path = os.Args[0]
	cmd.Env = append(cmd.Env, "ANVIL_HELPER_PROCESS=1")
	if fail {
		cmd.Env = append(cmd.Env, "ANVIL_HELPER_FAIL=1")
	}
	return cmd
}

func TestRun(t *testing.T) {
	cmd := helperCommand(t, false)

	var stdout, stderr strings.Builder
	m, err := Run(t.Context(), cmd, &stdout, &stderr)
	require.NoError(t, err)

	require.Contains(t, stdout.String(), "build -o bin/demo")
	_, err = uuid.Parse(m.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"github.com/715d/anvil/internal/hello.Hello=HELLO"}, m.Assignments)
	require.False(t, m.Finished.Before(m.Started))

	data, err := os.ReadFile(filepath.Join(cmd.Dir, "bin", ManifestName))
	require.NoError(t, err)
	var written Manifest
	require.NoError(t, json.Unmarshal(data, &written))
	require.Equal(t, m.ID, written.ID)
	require.Equal(t, m.Command, written.Command)
}

func TestRunFailure(t *testing.T) {
	cmd := helperCommand(t, true)

	var stdout, stderr strings.Builder
	_, err := Run(t.Context(), cmd, &stdout, &stderr)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(cmd.Dir, "bin", ManifestName))
	require.ErrorIs(t, statErr, os.ErrNotExist)
}
