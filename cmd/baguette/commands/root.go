package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/baguette-io/baguette-utils/internal/constants"
)

// NewRootCommand assembles the baguette command tree.
func NewRootCommand(version, commit, date string) *cobra.Command {
	root := &cobra.Command{
		Use:   "baguette",
		Short: "REST API command-line client",
		Long: `A command-line client for JSON REST APIs.

Every call prints an envelope holding a status (0 on success) and the decoded
result. Failed calls are retried with exponential backoff, and paginated
listings can be fetched in one go with the "all" command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfigFile(cmd)
		},
	}

	AddGlobalFlags(root)

	root.AddCommand(NewVersionCommand(version, commit, date))
	root.AddCommand(NewConfigCommand())
	root.AddCommand(NewRequestCommands()...)
	root.AddCommand(NewAllCommand())

	return root
}

// loadConfigFile reads --config, or ~/.baguette/config.yml when present, and
// enables BAGUETTE_* environment variables.
func loadConfigFile(cmd *cobra.Command) error {
	if cfgFile := viper.GetString(keyConfig); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locating home directory: %w", err)
		}

		configDir := filepath.Join(home, ".baguette")
		if err := os.MkdirAll(configDir, constants.ConfigDirPerm); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error creating config directory: %v\n", err)
		}

		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	BindEnv()

	// A missing file is not an error.
	if err := viper.ReadInConfig(); err == nil && viper.GetBool(keyVerbose) {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", viper.ConfigFileUsed())
	}

	return nil
}
