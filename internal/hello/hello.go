// Package hello holds the HELLO symbol that the demo expects to find linked.
package hello

import (
	"fmt"
	"io"
)

// Hello is replaced at link time with
// -ldflags "-X github.com/715d/anvil/internal/hello.Hello=...".
var Hello = "HELLO"

// Greet writes the package greeting.
func Greet(w io.Writer) {
	fmt.Fprintf(w, "hello from %s\r\n", Hello)
}
