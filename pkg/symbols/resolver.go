package symbols

import (
	"context"
	"fmt"
	"go/token"
	"go/types"
	"log/slog"
	goruntime "runtime"
	"slices"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"

	"github.com/715d/anvil/pkg/directives"
	"github.com/715d/anvil/pkg/ldflags"
)

// MainPackage is the import path the linker uses for the program's main package.
const MainPackage = "main"

// Status classifies a single -X assignment.
type Status int

const (
	Resolved Status = iota
	MissingPackage
	MissingSymbol
	NotVariable
	NotString
	NonConstantInit
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case MissingPackage:
		return "missing package"
	case MissingSymbol:
		return "missing symbol"
	case NotVariable:
		return "not a variable"
	case NotString:
		return "not a string"
	case NonConstantInit:
		return "initialized by a non-constant expression"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Resolution is the outcome for one assignment.
type Resolution struct {
	Assignment ldflags.Assignment `json:"assignment"`
	Status     Status             `json:"status"`
	Detail     string             `json:"detail,omitempty"`
	Position   token.Position     `json:"position"`

	// Linkname is set when the variable also carries a //go:linkname directive.
	Linkname bool `json:"linkname,omitempty"`
}

// OK reports whether the linker will apply the assignment.
func (r Resolution) OK() bool {
	return r.Status == Resolved
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	Loader LoaderOptions

	// MainPatterns are the package patterns that make up the program. They
	// resolve assignments to the "main" import path.
	MainPatterns []string
}

// Resolver classifies -X assignments against loaded packages. Loaded
// packages are cached, so a Resolver can be reused across calls.
type Resolver struct {
	opts  ResolverOptions
	cache *xsync.Map[string, *packages.Package]
}

// NewResolver creates a resolver.
func NewResolver(opts ResolverOptions) *Resolver {
	return &Resolver{
		opts:  opts,
		cache: xsync.NewMap[string, *packages.Package](),
	}
}

// Resolve classifies each assignment. Results are returned in input order.
func (r *Resolver) Resolve(ctx context.Context, assignments []ldflags.Assignment) ([]Resolution, error) {
	if err := r.load(ctx, assignments); err != nil {
		return nil, err
	}

	results := make([]Resolution, len(assignments))
	for i, a := range assignments {
		results[i] = r.classify(a)
		slog.Debug("resolved symbol", "symbol", a.Symbol(), "status", results[i].Status.String())
	}
	return results, nil
}

// load fetches every package not yet cached. Each import path is loaded by
// its own goroutine.
func (r *Resolver) load(ctx context.Context, assignments []ldflags.Assignment) error {
	var paths []string
	for _, a := range assignments {
		if a.Package == MainPackage {
			continue
		}
		if _, ok := r.cache.Load(a.Package); !ok && !slices.Contains(paths, a.Package) {
			paths = append(paths, a.Package)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(goruntime.NumCPU())

	for _, path := range paths {
		g.Go(func() error {
			pkgs, err := LoadPackages(ctx, r.opts.Loader, path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}
			for _, pkg := range pkgs {
				if pkg.PkgPath == path || pkg.ID == path {
					r.cache.Store(path, pkg)
					return nil
				}
			}
			// Store a placeholder so the path classifies as missing.
			r.cache.Store(path, &packages.Package{ID: path, PkgPath: path})
			return nil
		})
	}

	needMain := slices.ContainsFunc(assignments, func(a ldflags.Assignment) bool {
		return a.Package == MainPackage
	})
	if _, ok := r.cache.Load(MainPackage); needMain && !ok && len(r.opts.MainPatterns) > 0 {
		g.Go(func() error {
			pkgs, err := LoadPackages(ctx, r.opts.Loader, r.opts.MainPatterns...)
			if err != nil {
				return fmt.Errorf("loading main packages: %w", err)
			}
			slices.SortFunc(pkgs, func(a, b *packages.Package) int {
				return strings.Compare(a.PkgPath, b.PkgPath)
			})
			for _, pkg := range pkgs {
				if pkg.Name == MainPackage {
					r.cache.Store(MainPackage, pkg)
					return nil
				}
			}
			return nil
		})
	}

	return g.Wait()
}

func (r *Resolver) classify(a ldflags.Assignment) Resolution {
	res := Resolution{Assignment: a}

	pkg, ok := r.cache.Load(a.Package)
	if !ok || pkg.Types == nil || len(pkg.Syntax) == 0 {
		res.Status = MissingPackage
		if err := PackageErrors(pkg); err != nil {
			res.Detail = err.Error()
		} else if a.Package == MainPackage {
			res.Detail = fmt.Sprintf("no main package in %v", r.opts.MainPatterns)
		}
		return res
	}

	obj := pkg.Types.Scope().Lookup(a.Name)
	if obj == nil {
		res.Status = MissingSymbol
		res.Detail = fmt.Sprintf("%s has no package-level %s", pkg.PkgPath, a.Name)
		return res
	}
	if pkg.Fset != nil {
		res.Position = pkg.Fset.Position(obj.Pos())
	}

	v, ok := obj.(*types.Var)
	if !ok {
		res.Status = NotVariable
		res.Detail = fmt.Sprintf("%s is a %s", a.Name, objectKind(obj))
		return res
	}
	if !types.Identical(v.Type(), types.Typ[types.String]) {
		res.Status = NotString
		res.Detail = fmt.Sprintf("%s has type %s", a.Name, v.Type())
		return res
	}
	if !constantInit(pkg, v) {
		res.Status = NonConstantInit
		return res
	}

	for _, file := range pkg.Syntax {
		if _, ok := directives.Linknames(file)[a.Name]; ok {
			res.Linkname = true
			break
		}
	}
	res.Status = Resolved
	return res
}

// constantInit reports whether v is uninitialized or initialized to a
// constant expression.
func constantInit(pkg *packages.Package, v *types.Var) bool {
	if pkg.TypesInfo == nil {
		return true
	}
	for _, init := range pkg.TypesInfo.InitOrder {
		if !slices.Contains(init.Lhs, v) {
			continue
		}
		tv, ok := pkg.TypesInfo.Types[init.Rhs]
		return ok && tv.Value != nil
	}
	return true
}

func objectKind(obj types.Object) string {
	switch obj.(type) {
	case *types.Const:
		return "constant"
	case *types.Func:
		return "function"
	case *types.TypeName:
		return "type"
	default:
		return fmt.Sprintf("%T", obj)
	}
}
