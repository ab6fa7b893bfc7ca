// Package diag prints caller diagnostics.
package diag

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
)

// Unknown is reported when the caller cannot be determined.
const Unknown = "unknown"

// Message writes a single line naming a function and the file it lives in.
func Message(w io.Writer, function, file string) {
	fmt.Fprintf(w, "%s @ %s\r\n", function, file)
}

// Caller returns the function name and base file name of the caller skip
// frames above Caller itself. Caller(0) describes the function calling Caller.
func Caller(skip int) (function, file string) {
	pcs := make([]uintptr, 1)
	if runtime.Callers(skip+2, pcs) == 0 {
		return Unknown, Unknown
	}
	frame, _ := runtime.CallersFrames(pcs).Next()
	if frame.Function == "" {
		return Unknown, Unknown
	}
	return frame.Function, filepath.Base(frame.File)
}
