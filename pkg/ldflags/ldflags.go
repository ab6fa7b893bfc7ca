// Package ldflags splits Go linker flags into -X symbol assignments and the
// remaining pass-through arguments.
package ldflags

import (
	"fmt"
	"strings"
)

// Assignment is a single -X importpath.name=value definition.
type Assignment struct {
	Package string // import path
	Name    string // package-level variable name
	Value   string
}

// Symbol returns the fully qualified importpath.name.
func (a Assignment) Symbol() string {
	return a.Package + "." + a.Name
}

func (a Assignment) String() string {
	return a.Symbol() + "=" + a.Value
}

// Flags is a parsed linker flag list.
type Flags struct {
	// Assignments in the order they appeared. The linker applies the last
	// assignment for a symbol.
	Assignments []Assignment

	// Args are the flags that are not -X assignments.
	Args []string
}

// Parse reads a linker flag list. Each -X definition may be written as two
// arguments ("-X", "p.n=v"), one argument ("-X=p.n=v"), or one argument
// holding a space ("-X p.n=v").
func Parse(args []string) (Flags, error) {
	var flags Flags
	for i := 0; i < len(args); i++ {
		arg := args[i]

		var def string
		switch {
		case arg == "-X" || arg == "--X":
			if i+1 >= len(args) {
				return Flags{}, fmt.Errorf("flag %s needs a definition", arg)
			}
			i++
			def = args[i]
		case strings.HasPrefix(arg, "-X="), strings.HasPrefix(arg, "--X="):
			_, def, _ = strings.Cut(arg, "=")
		case strings.HasPrefix(arg, "-X "), strings.HasPrefix(arg, "--X "):
			_, def, _ = strings.Cut(arg, " ")
			def = strings.TrimSpace(def)
		default:
			flags.Args = append(flags.Args, arg)
			continue
		}

		a, err := ParseAssignment(def)
		if err != nil {
			return Flags{}, err
		}
		flags.Assignments = append(flags.Assignments, a)
	}
	return flags, nil
}

// ParseAssignment parses "importpath.name=value".
func ParseAssignment(def string) (Assignment, error) {
	symbol, value, ok := strings.Cut(def, "=")
	if !ok {
		return Assignment{}, fmt.Errorf("-X definition %q: missing '='", def)
	}
	// The import path may contain dots, the name may not.
	dot := strings.LastIndex(symbol, ".")
	if dot <= 0 || dot == len(symbol)-1 {
		return Assignment{}, fmt.Errorf("-X definition %q: symbol must be importpath.name", def)
	}
	// "example.com/a.b/c" has no name after its last dot.
	if strings.Contains(symbol[dot+1:], "/") {
		return Assignment{}, fmt.Errorf("-X definition %q: symbol must be importpath.name", def)
	}
	return Assignment{
		Package: symbol[:dot],
		Name:    symbol[dot+1:],
		Value:   value,
	}, nil
}

// Last returns the effective assignment per symbol, keeping first-seen order.
func (f Flags) Last() []Assignment {
	index := make(map[string]int)
	var out []Assignment
	for _, a := range f.Assignments {
		if i, ok := index[a.Symbol()]; ok {
			out[i] = a
			continue
		}
		index[a.Symbol()] = len(out)
		out = append(out, a)
	}
	return out
}

// String renders the value for go build -ldflags, pass-through args first.
// cmd/go splits the value on spaces and honours quotes without escapes, so
// elements containing whitespace are wrapped in whichever quote they lack.
func (f Flags) String() string {
	var parts []string
	for _, arg := range f.Args {
		parts = append(parts, quote(arg))
	}
	for _, a := range f.Assignments {
		parts = append(parts, "-X", quote(a.String()))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"") {
		return s
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}
