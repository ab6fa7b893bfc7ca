// Package directives recognises //go:linkname directives, which change how
// a symbol is linked.
package directives

import (
	"go/ast"
	"strings"
)

// Type represents the kinds of directive that affect linking.
type Type int

const (
	None Type = iota
	Linkname
)

// Info describes a directive found in a comment.
type Info struct {
	Type      Type
	Directive string
	Args      []string // whitespace separated arguments after the directive
	Valid     bool
}

// Parse checks whether a comment is a //go:linkname directive.
func Parse(comment string) *Info {
	text, ok := strings.CutPrefix(comment, "//")
	if !ok {
		return &Info{Type: None}
	}

	// Directives never have a space after "//".
	name, rest, _ := strings.Cut(text, " ")
	if name != "go:linkname" {
		return &Info{Type: None}
	}
	return &Info{
		Type:      Linkname,
		Directive: name,
		Args:      strings.Fields(rest),
		Valid:     true,
	}
}

// Link is a //go:linkname directive.
type Link struct {
	Local  string // name in the declaring file
	Target string // importpath.name it is bound to, empty for a push
}

// Linknames collects every //go:linkname directive in file, keyed by local
// name. Linkname directives may appear anywhere in a file, not only in doc
// comments.
func Linknames(file *ast.File) map[string]Link {
	links := make(map[string]Link)
	if file == nil {
		return links
	}
	for _, group := range file.Comments {
		for _, c := range group.List {
			info := Parse(c.Text)
			if info.Type != Linkname || len(info.Args) == 0 {
				continue
			}
			link := Link{Local: info.Args[0]}
			if len(info.Args) > 1 {
				link.Target = info.Args[1]
			}
			links[link.Local] = link
		}
	}
	return links
}
