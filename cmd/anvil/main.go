// Package main implements the anvil build driver.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/715d/anvil/internal/build"
	"github.com/715d/anvil/internal/config"
	"github.com/715d/anvil/internal/console"
	"github.com/715d/anvil/pkg/ldflags"
	"github.com/715d/anvil/pkg/symbols"
)

// Config holds all command-line configuration options for anvil.
type Config struct {
	Dir        string   // directory holding the build configuration
	ConfigFile string   // explicit configuration file, overrides lookup in Dir
	Verbose    bool     // enables detailed output
	JSON       bool     // enables JSON output format
	BuildTags  []string // build tags for package loading and go build
	DryRun     bool     // print the build command instead of running it
	NoSymbols  bool     // skip -X symbol resolution before building
}

const (
	exitUnresolved = 1
	exitError      = 2
)

var (
	// Set via ldflags during build.
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var (
	cfg Config
	out *console.Console
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if err.Error() != "" {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		var cErr *codedError
		if errors.As(err, &cErr) {
			os.Exit(cErr.code)
		}
		os.Exit(exitError)
	}
}

func newRootCommand() *cobra.Command {
	cfg = Config{}

	rootCmd := &cobra.Command{
		Use:   "anvil",
		Short: "Verify and build a project from its anvil configuration",
		Long: `anvil reads anvil.json (or anvil.yaml / anvil.toml) and drives go build.

The configuration must define ART, EXE, CC, CCFLAGS, LDFLAGS, LDLIBS and DIR.
Run without a subcommand, anvil loads, prints and verifies the configuration.`,
		Example: `  anvil                      # Load and verify ./anvil.json
  anvil symbols              # Check every -X target in LDFLAGS
  anvil build --dry-run      # Print the go build command
  anvil -C example build     # Build the project in ./example`,
		Args:              cobra.NoArgs,
		RunE:              runCheck,
		PersistentPreRunE: setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Version:           version,
	}

	// Set custom version template to include build info.
	rootCmd.SetVersionTemplate(fmt.Sprintf("anvil version %s\n  commit: %s\n  built:  %s\n", version, gitCommit, buildTime))

	// Define flags.
	rootCmd.PersistentFlags().StringVarP(&cfg.Dir, "dir", "C", ".", "Directory containing the build configuration")
	rootCmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Configuration file (default: anvil.json, anvil.yaml or anvil.toml in --dir)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&cfg.JSON, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringSliceVar(&cfg.BuildTags, "build-tags", []string{}, "Build tags to use during package loading and building")

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Verify the configuration and its linker symbols, then run go build",
		Args:  cobra.NoArgs,
		RunE:  runBuild,
	}
	buildCmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "Print the go build command without running it")
	buildCmd.Flags().BoolVar(&cfg.NoSymbols, "no-symbols", false, "Skip resolving -X symbols before building")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "check",
			Short: "Load, print and verify the configuration",
			Args:  cobra.NoArgs,
			RunE:  runCheck,
		},
		&cobra.Command{
			Use:   "symbols",
			Short: "Check that every -X assignment in LDFLAGS targets a string variable",
			Args:  cobra.NoArgs,
			RunE:  runSymbols,
		},
		buildCmd,
	)
	return rootCmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	_, raw, err := loadConfig()
	if err != nil {
		return err
	}
	if err := printRaw(cmd.OutOrStdout(), raw); err != nil {
		return errWithCode(err, exitError)
	}
	_, err = verifyConfig(raw)
	return err
}

func runSymbols(cmd *cobra.Command, _ []string) error {
	bc, err := loadVerified()
	if err != nil {
		return err
	}
	results, err := resolveSymbols(cmd.Context(), bc)
	if err != nil {
		return err
	}
	if cfg.JSON {
		if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
			return errWithCode(err, exitError)
		}
	}
	return symbolsOutcome(results)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	bc, err := loadVerified()
	if err != nil {
		return err
	}

	if !cfg.NoSymbols {
		results, err := resolveSymbols(cmd.Context(), bc)
		if err != nil {
			return err
		}
		if err := symbolsOutcome(results); err != nil {
			return err
		}
	}

	plan, err := build.Plan(bc, build.Options{
		Dir:       cfg.Dir,
		BuildTags: cfg.BuildTags,
	})
	if err != nil {
		out.Error("%v", err)
		return errWithCode(nil, exitError)
	}

	if cfg.DryRun {
		out.Note("%s", plan.String())
		return nil
	}

	manifest, err := build.Run(cmd.Context(), plan, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		out.Error("Build failed: %v", err)
		return errWithCode(nil, exitUnresolved)
	}
	out.Success("Built '%s' (%s)", plan.Output, manifest.ID)
	if cfg.JSON {
		if err := writeJSON(cmd.OutOrStdout(), manifest); err != nil {
			return errWithCode(err, exitError)
		}
	}
	return nil
}

// loadConfig finds and decodes the configuration.
func loadConfig() (string, *config.Raw, error) {
	path := cfg.ConfigFile
	if path == "" {
		var err error
		path, err = config.Find(cfg.Dir)
		if err != nil {
			out.Error("Cannot find configuration file '%s'", filepath.Join(cfg.Dir, config.FileName))
			return "", nil, errWithCode(nil, exitError)
		}
	}

	slog.Info("loading configuration", "path", path)
	raw, err := config.Load(path)
	if errors.Is(err, config.ErrNotFound) {
		out.Error("Cannot find configuration file '%s'", path)
		return "", nil, errWithCode(nil, exitError)
	}
	if err != nil {
		out.Error("%v", err)
		return "", nil, errWithCode(nil, exitError)
	}
	out.Success("Loaded build configuration from '%s'", path)
	return path, raw, nil
}

func verifyConfig(raw *config.Raw) (*config.Config, error) {
	bc, warnings, err := config.Verify(raw)
	for _, w := range warnings {
		out.Warning("%s", w)
	}
	if err != nil {
		out.Error("%v", err)
		return nil, errWithCode(nil, exitError)
	}
	slog.Debug("configuration verified", "dirs", bc.Dirs, "exe", bc.Exe)
	return bc, nil
}

func loadVerified() (*config.Config, error) {
	_, raw, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return verifyConfig(raw)
}

func resolveSymbols(ctx context.Context, bc *config.Config) ([]symbols.Resolution, error) {
	flags, err := ldflags.Parse(bc.LDFlags)
	if err != nil {
		out.Error("%v", err)
		return nil, errWithCode(nil, exitError)
	}
	assignments := flags.Last()
	if len(assignments) == 0 {
		slog.Info("no -X assignments in LDFLAGS")
		return nil, nil
	}

	resolver := symbols.NewResolver(symbols.ResolverOptions{
		Loader:       loaderOptions(bc, os.Environ()),
		MainPatterns: bc.Dirs,
	})
	results, err := resolver.Resolve(ctx, assignments)
	if err != nil {
		return nil, errWithCode(fmt.Errorf("resolve symbols: %w", err), exitError)
	}
	return results, nil
}

// loaderOptions loads packages with the environment go build will use, so
// cgo files are resolved whenever the build compiles them.
func loaderOptions(bc *config.Config, base []string) symbols.LoaderOptions {
	return symbols.LoaderOptions{
		Dir:       cfg.Dir,
		BuildTags: cfg.BuildTags,
		Env:       build.Env(bc, base),
	}
}

// symbolsOutcome reports each resolution and fails when any is unresolved.
func symbolsOutcome(results []symbols.Resolution) error {
	var unresolved int
	for _, r := range results {
		switch {
		case !r.OK():
			unresolved++
			msg := fmt.Sprintf("Symbol '%s': %s", r.Assignment.Symbol(), r.Status)
			if r.Detail != "" {
				msg += " (" + r.Detail + ")"
			}
			out.Error("%s", msg)
		case r.Linkname:
			out.Note("Symbol '%s' is also bound by //go:linkname", r.Assignment.Symbol())
		default:
			out.Success("Symbol '%s' resolved at %s", r.Assignment.Symbol(), r.Position)
		}
	}
	if unresolved > 0 {
		return errWithCode(nil, exitUnresolved)
	}
	return nil
}

func printRaw(w io.Writer, raw *config.Raw) error {
	if cfg.JSON {
		return writeJSON(w, raw)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshaling configuration: %w", err)
	}
	out.Debug("%s", data)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling json output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	// Status lines go to stderr in JSON mode so stdout stays machine readable.
	statusOut := cmd.OutOrStdout()
	if cfg.JSON {
		statusOut = cmd.ErrOrStderr()
	}
	out = console.New(statusOut)

	// Disable logger unless verbose flag is set.
	slog.SetDefault(slog.New(slog.DiscardHandler))
	if cfg.Verbose {
		opts := &slog.HandlerOptions{Level: slog.LevelDebug}
		var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
		if cfg.JSON {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		}
		slog.SetDefault(slog.New(handler))
	}
	return nil
}

func errWithCode(err error, code int) error {
	return &codedError{err: err, code: code}
}

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return ""
}

func (e *codedError) Unwrap() error {
	return e.err
}
