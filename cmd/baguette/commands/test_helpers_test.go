package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// newTestRoot builds the command tree against a fresh viper and an empty home.
func newTestRoot(t *testing.T) *cobra.Command {
	t.Helper()

	t.Setenv("HOME", t.TempDir())

	viper.Reset()
	t.Cleanup(viper.Reset)

	return NewRootCommand("1.2.3", "abc123", "2024-01-01")
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newTestRoot(t)

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}
