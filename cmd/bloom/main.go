// Package main is the single-binary entrypoint for Bloom.
package main

import "github.com/habitbloom/bloom/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
