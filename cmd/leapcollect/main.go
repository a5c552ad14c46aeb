// Package main provides the leapcollect command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapcollect/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
