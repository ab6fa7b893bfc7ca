package greet

import (
	"os"
	_ "unsafe"
)

// Hello can be overridden with -X.
var Hello = "HELLO"

// Unset has no initializer.
var Unset string

// Computed is initialized at run time, -X has no effect.
var Computed = os.Getenv("GREETING")

// Folded is a constant expression.
var Folded = "YO" + "LO"

// Count is not a string.
var Count = 3

// Label has a named string type.
type Label string

// Named has a named string type.
var Named Label = "x"

// Greeting is a constant.
const Greeting = "hi"

// Greet is a function.
func Greet() string { return Hello }

// Pushed is also exported under its own symbol name.
//
//go:linkname Pushed
var Pushed = "P"
