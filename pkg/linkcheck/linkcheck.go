// Package linkcheck compares linked string symbols against the literals they
// are expected to hold.
package linkcheck

import (
	"fmt"
	"strings"
)

// Expectation pairs the literal a symbol should hold with the value actually linked.
type Expectation struct {
	Name string // symbol name, e.g. HELLO
	Want string
	Got  string
}

// Matches reports whether the linked value equals the expected literal.
func (e Expectation) Matches() bool {
	return e.Got == e.Want
}

// Result is the outcome of a Check.
type Result struct {
	// Mismatch is the first expectation that failed, nil when all matched.
	Mismatch *Expectation

	// Values holds every linked value in check order when all matched.
	Values []string
}

// Check evaluates expectations in order and stops at the first mismatch.
func Check(exps []Expectation) Result {
	values := make([]string, 0, len(exps))
	for i := range exps {
		if !exps[i].Matches() {
			m := exps[i]
			return Result{Mismatch: &m}
		}
		values = append(values, exps[i].Got)
	}
	return Result{Values: values}
}

// OK reports whether every expectation matched.
func (r Result) OK() bool {
	return r.Mismatch == nil
}

// String renders the single report line, CRLF terminated.
func (r Result) String() string {
	if r.Mismatch != nil {
		return fmt.Sprintf("Expected '%s', Found '%s'\r\n", r.Mismatch.Want, r.Mismatch.Got)
	}

	quoted := make([]string, 0, len(r.Values))
	for _, v := range r.Values {
		quoted = append(quoted, "'"+v+"'")
	}
	return fmt.Sprintf("Successfully linked extern variables: [ %s ]\r\n", strings.Join(quoted, ", "))
}
