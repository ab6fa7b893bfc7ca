// Package main runs the link-verification demo.
//
// Build with anvil, or by hand:
//
//	go build -ldflags "-X github.com/715d/anvil/internal/hello.Hello=HELLO" ./cmd/demo
package main

import (
	"os"

	"github.com/715d/anvil/internal/demo"
)

func main() {
	os.Exit(demo.Run(os.Stdout))
}
