// Package cfg provides configuration and command-line interface setup for DownTube.
package cfg

import (
	"fmt"
	"os"
	"strings"

	"downtube/internal/domain/keys"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd *cobra.Command

// Assigned in init rather than at declaration: the PersistentPreRun
// closure refers back to rootCmd via flagChanged, which would be an
// initialization cycle in a package-level initializer.
func init() {
	rootCmd = &cobra.Command{
		Use:   "downtube",
		Short: "DownTube is a media download orchestration daemon.",
		Long:  "DownTube drives yt-dlp workers over an HTTP API, with progress aggregation, cancellation, and a persistent download history.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configFile := viper.GetString(keys.TomlPath); configFile != "" {
				cInfo, err := os.Stat(configFile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed check for config file path: %v\n", err)
					os.Exit(1)
				} else if cInfo.IsDir() {
					fmt.Fprintln(os.Stderr, "config file entered is a directory, should be a file")
					os.Exit(1)
				}

				if err := loadConfigFile(configFile); err != nil {
					fmt.Fprintf(os.Stderr, "failed loading config file: %v\n", err)
					os.Exit(1)
				}
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Lookup("help").Changed {
				return nil
			}
			if err := validateViperFlags(); err != nil {
				return err
			}
			viper.Set("execute", true)
			return nil
		},
	}
}

// InitCommands initializes the root command and its flags.
func InitCommands() error {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("downtube")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_")) // "output-dir" reads DOWNTUBE_OUTPUT_DIR

	if err := initProgramFlags(rootCmd); err != nil {
		return err
	}
	return nil
}

// Execute runs the root command and parses flags.
func Execute() error {
	return rootCmd.Execute()
}
