// Package main provides the entry point for the corpusidx CLI.
package main

import (
	"os"

	"github.com/ZanzyTHEbar/corpusidx/cmd/corpusidx/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
