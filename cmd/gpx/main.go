// Package main implements the gpx CLI, which finds partial extract-method
// refactoring opportunities in Java and Go methods.
package main

import (
	"os"

	"github.com/l3aro/go-partial-extract/cmd/gpx/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Flags().BoolP("version", "v", false, "Print version information")
	commands.RootCmd.SetVersionTemplate(`gpx version {{.Version}}
`)
	commands.RootCmd.Version = version

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
