// Package demo is the link-verification routine run by cmd/demo.
//
// It reports its own location, calls into the linked packages, then checks
// that HELLO, YOLO_1 and YOLO_2 hold their expected literals. The routine
// always returns status zero, a mismatch is only printed.
package demo

import (
	"io"

	"github.com/715d/anvil/internal/diag"
	"github.com/715d/anvil/internal/hello"
	testyolo "github.com/715d/anvil/internal/test/yolo"
	"github.com/715d/anvil/internal/yolo"
	"github.com/715d/anvil/pkg/linkcheck"
)

// ExitStatus is returned whatever the comparison outcome.
const ExitStatus = 0

// Values are the three linked symbols.
type Values struct {
	Hello string
	Yolo1 string
	Yolo2 string
}

// Linked returns the values currently held by the linked packages.
func Linked() Values {
	return Values{
		Hello: hello.Hello,
		Yolo1: yolo.Yolo1,
		Yolo2: testyolo.Yolo2,
	}
}

// Expectations pairs each value with its literal, in check order.
func (v Values) Expectations() []linkcheck.Expectation {
	return []linkcheck.Expectation{
		{Name: "HELLO", Want: "HELLO", Got: v.Hello},
		{Name: "YOLO_1", Want: "YOLO_1", Got: v.Yolo1},
		{Name: "YOLO_2", Want: "YOLO_2", Got: v.Yolo2},
	}
}

// Run executes the routine against the linked values.
func Run(w io.Writer) int {
	return RunWith(w, Linked())
}

// RunWith executes the routine against the given values.
func RunWith(w io.Writer, values Values) int {
	locate(w)
	hello.Greet(w)
	yolo.Yolo(w)

	result := linkcheck.Check(values.Expectations())
	_, _ = io.WriteString(w, result.String())
	return ExitStatus
}

func locate(w io.Writer) {
	function, file := diag.Caller(0)
	diag.Message(w, function, file)
}
