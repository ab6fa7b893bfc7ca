// Package yolo is the second package named yolo. It carries YOLO_2 and has
// no functions of its own.
package yolo

// Yolo2 is initialized with a constant so -X can override it.
var Yolo2 = "YOLO_2"
