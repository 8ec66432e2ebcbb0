// Package main provides the sql2nl CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/sql2nl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
