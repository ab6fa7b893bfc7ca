package lib

// #include <stdlib.h>
import "C"

var Version = "dev"

func Abs(n int) int {
	return int(C.abs(C.int(n)))
}
