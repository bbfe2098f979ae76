// Package main provides the calckit command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/calckit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
