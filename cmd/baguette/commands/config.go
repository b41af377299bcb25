package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/baguette-io/baguette-utils/internal/constants"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and update the settings stored in the configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the configuration resolved from flags, environment variables and the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := LoadSettings()
			w := cmd.OutOrStdout()

			format, err := resolveFormat(settings.Output, w)
			if err != nil {
				return err
			}

			entries := settings.entries()
			values := make(map[string]string, len(entries))

			for _, entry := range entries {
				values[entry[0]] = entry[1]
			}

			switch format {
			case constants.FormatJSON:
				encoder := json.NewEncoder(w)
				encoder.SetIndent("", "  ")

				return encoder.Encode(values)
			case constants.FormatYAML:
				encoder := yaml.NewEncoder(w)

				return encoder.Encode(values)
			default:
				table := tablewriter.NewWriter(w)
				table.Header("Property", "Value")

				for _, entry := range entries {
					_ = table.Append([]string{entry[0], entry[1]})
				}

				return renderTable(table)
			}
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Store a setting, such as api or retries, in the configuration file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.ToLower(args[0])
			if !isSettingKey(key) {
				return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, args[0])
			}

			path, err := configFilePath()
			if err != nil {
				return err
			}

			err = setConfigValue(path, key, args[1])
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", key, path)

			return nil
		},
	}
}

func isSettingKey(key string) bool {
	for _, entry := range (&Settings{}).entries() {
		if entry[0] == key {
			return true
		}
	}

	return false
}

// configFilePath returns the file in use, or the default location.
func configFilePath() (string, error) {
	if path := viper.ConfigFileUsed(); path != "" {
		return path, nil
	}

	if path := viper.GetString(keyConfig); path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}

	return filepath.Join(home, ".baguette", "config.yml"), nil
}

// setConfigValue rewrites the YAML file at path with key set to value,
// keeping the other keys.
func setConfigValue(path, key, value string) error {
	values := map[string]any{}

	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}

	if len(raw) > 0 {
		err = yaml.Unmarshal(raw, &values)
		if err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	}

	values[key] = value

	out, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding config file: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	err = os.WriteFile(path, out, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	viper.Set(key, value)

	return nil
}
