// Package symbols checks that -X linker assignments target real string
// variables, since the Go linker ignores assignments to unknown symbols.
package symbols

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/tools/go/packages"
)

// loadMode loads syntax and type information without dependencies' syntax.
// NeedTypesInfo provides the package initialization order used to detect
// variables initialized by non-constant expressions.
const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedImports |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedModule

// LoaderOptions configures package loading behavior.
type LoaderOptions struct {
	// BuildTags are build tags to apply during loading.
	BuildTags []string

	// Dir is the directory to load packages from.
	// If empty, uses the current working directory.
	Dir string

	// EnableCGo sets CGO_ENABLED=1 when Env is nil. Without it, files
	// importing "C" are excluded from loaded packages.
	EnableCGo bool

	// Env is the environment to use for loading.
	// If nil, uses a copy of os.Environ() with CGO_ENABLED set from EnableCGo.
	Env []string
}

// LoadPackages loads the packages matching patterns. Packages that fail to
// load are returned with their Errors populated; only a failure of the
// underlying build tool is reported as an error.
func LoadPackages(ctx context.Context, opts LoaderOptions, patterns ...string) ([]*packages.Package, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no package patterns given")
	}

	env := opts.Env
	if env == nil {
		cgoEnabled := "0"
		if opts.EnableCGo {
			cgoEnabled = "1"
		}
		env = UpdateEnv(os.Environ(), "CGO_ENABLED", cgoEnabled)
	}

	cfg := &packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     opts.Dir,
		Env:     env,
	}

	if len(opts.BuildTags) > 0 {
		cfg.BuildFlags = append(cfg.BuildFlags, "-tags", strings.Join(opts.BuildTags, ","))
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	return pkgs, nil
}

// PackageErrors joins the errors reported for pkg, or returns nil.
func PackageErrors(pkg *packages.Package) error {
	if pkg == nil || len(pkg.Errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(pkg.Errors))
	for _, err := range pkg.Errors {
		msgs = append(msgs, err.Msg)
	}
	return fmt.Errorf("package %s: %s", pkg.PkgPath, strings.Join(msgs, "; "))
}

// UpdateEnv updates or adds an environment variable.
func UpdateEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
