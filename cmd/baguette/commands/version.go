package commands

import (
	"encoding/json"
	"runtime"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/baguette-io/baguette-utils/internal/constants"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string `json:"version"    yaml:"version"`
	Commit    string `json:"commit"     yaml:"commit"`
	Built     string `json:"built"      yaml:"built"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the baguette CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			versionInfo := VersionInfo{
				Version:   version,
				Commit:    commit,
				Built:     date,
				GoVersion: runtime.Version(),
			}

			w := cmd.OutOrStdout()

			format, err := resolveFormat(viper.GetString(keyOutput), w)
			if err != nil {
				return err
			}

			switch format {
			case constants.FormatJSON:
				encoder := json.NewEncoder(w)
				encoder.SetIndent("", "  ")

				return encoder.Encode(versionInfo)
			case constants.FormatYAML:
				return yaml.NewEncoder(w).Encode(versionInfo)
			default:
				table := tablewriter.NewWriter(w)
				table.Header("Property", "Value")
				_ = table.Append("Version", versionInfo.Version)
				_ = table.Append("Commit", versionInfo.Commit)
				_ = table.Append("Built", versionInfo.Built)
				_ = table.Append("Go", versionInfo.GoVersion)

				return renderTable(table)
			}
		},
	}
}
