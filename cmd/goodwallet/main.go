// Package main is the entry point for the goodwallet CLI.
package main

import (
	"os"

	"github.com/goodwallet/goodwallet/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
