package main

import (
	"fmt"
	"os"

	"github.com/baguette-io/baguette-utils/cmd/baguette/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := commands.NewRootCommand(version, commit, date).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
