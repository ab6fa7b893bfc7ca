// Package yolo holds the YOLO_1 symbol.
package yolo

import (
	"fmt"
	"io"
)

// Yolo1 is initialized with a constant so -X can override it.
var Yolo1 = "YOLO_1"

// Yolo writes the package line.
func Yolo(w io.Writer) {
	fmt.Fprintf(w, "yolo from %s\r\n", Yolo1)
}
