// Package main provides the entry point for the countryscope CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/countryscope/cmd/countryscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
