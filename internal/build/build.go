// Package build turns a verified configuration into a go build invocation
// and runs it.
package build

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/715d/anvil/internal/config"
	"github.com/715d/anvil/pkg/ldflags"
	"github.com/715d/anvil/pkg/symbols"
)

// ManifestName is written into the artifact directory after a build.
const ManifestName = "manifest.json"

// ErrNoPackages is returned when the configuration lists no directories.
var ErrNoPackages = errors.New("no package directories configured")

// Options tune the generated command.
type Options struct {
	// GoBin is the go command, "go" when empty.
	GoBin string

	// Dir is the working directory, typically the one holding the configuration.
	Dir string

	// BuildTags are passed with -tags.
	BuildTags []string

	// Env is the base environment, os.Environ() when nil.
	Env []string
}

// Command is a planned go build invocation.
type Command struct {
	Path   string
	Args   []string
	Env    []string
	Dir    string
	Output string // binary path

	// LDFlags is the parsed form of the configured linker flags.
	LDFlags ldflags.Flags
}

// String renders the command line without the environment.
func (c *Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Plan builds the go build command for cfg:
//
//	go build -o ART/EXE [-tags t] [-ldflags LDFLAGS] DIR...
//
// The command runs with the environment returned by Env.
func Plan(cfg *config.Config, opts Options) (*Command, error) {
	if len(cfg.Dirs) == 0 {
		return nil, ErrNoPackages
	}
	if cfg.Exe == "" {
		return nil, fmt.Errorf("configuration field %q is empty", "EXE")
	}

	flags, err := ldflags.Parse(cfg.LDFlags)
	if err != nil {
		return nil, fmt.Errorf("parse LDFLAGS: %w", err)
	}

	goBin := opts.GoBin
	if goBin == "" {
		goBin = "go"
	}

	output := filepath.Join(cfg.Art, cfg.Exe)
	args := []string{"build", "-o", output}
	if len(opts.BuildTags) > 0 {
		args = append(args, "-tags", strings.Join(opts.BuildTags, ","))
	}
	if value := flags.String(); value != "" {
		args = append(args, "-ldflags", value)
	}
	args = append(args, cfg.Dirs...)

	env := opts.Env
	if env == nil {
		env = os.Environ()
	}

	return &Command{
		Path:    goBin,
		Args:    args,
		Env:     Env(cfg, env),
		Dir:     opts.Dir,
		Output:  output,
		LDFlags: flags,
	}, nil
}

// Env returns a copy of base carrying the cgo settings of cfg: CC as CC,
// CCFLAGS as CGO_CFLAGS and LDLIBS as CGO_LDFLAGS. Setting CC enables cgo.
// Package loading uses the same environment so it sees the files go build
// compiles.
func Env(cfg *config.Config, base []string) []string {
	env := append([]string(nil), base...)
	if cfg.CC != "" {
		env = symbols.UpdateEnv(env, "CC", cfg.CC)
		env = symbols.UpdateEnv(env, "CGO_ENABLED", "1")
	}
	if len(cfg.CCFlags) > 0 {
		env = symbols.UpdateEnv(env, "CGO_CFLAGS", strings.Join(cfg.CCFlags, " "))
	}
	if len(cfg.LDLibs) > 0 {
		env = symbols.UpdateEnv(env, "CGO_LDFLAGS", strings.Join(cfg.LDLibs, " "))
	}
	return env
}

// Manifest records a finished build.
type Manifest struct {
	ID          string    `json:"id"`
	Command     []string  `json:"command"`
	Output      string    `json:"output"`
	Assignments []string  `json:"assignments,omitempty"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
	Duration    string    `json:"duration"`
}

// Run executes cmd, streaming its output to stdout and stderr, and writes
// the manifest next to the binary.
func Run(ctx context.Context, cmd *Command, stdout, stderr io.Writer) (*Manifest, error) {
	output := cmd.Output
	if !filepath.IsAbs(output) {
		output = filepath.Join(cmd.Dir, output)
	}
	artDir := filepath.Dir(output)
	if err := os.MkdirAll(artDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}

	m := &Manifest{
		ID:      uuid.NewString(),
		Command: append([]string{cmd.Path}, cmd.Args...),
		Output:  cmd.Output,
		Started: time.Now().UTC(),
	}
	for _, a := range cmd.LDFlags.Last() {
		m.Assignments = append(m.Assignments, a.String())
	}

	slog.Info("running build", "id", m.ID, "cmd", cmd.String())
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	c.Stdout = stdout
	c.Stderr = stderr
	if err := c.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.String(), err)
	}

	m.Finished = time.Now().UTC()
	m.Duration = m.Finished.Sub(m.Started).String()
	slog.Info("build finished", "id", m.ID, "dur", m.Duration)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(artDir, ManifestName), append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}
	return m, nil
}
