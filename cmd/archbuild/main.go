// Package main provides the archbuild CLI.
package main

import (
	"fmt"
	"os"
)

var version = "v0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
