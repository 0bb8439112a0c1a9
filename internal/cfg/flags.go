package cfg

import (
	"fmt"

	"downtube/internal/domain/consts"
	"downtube/internal/domain/keys"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initProgramFlags sets the daemon-wide flags and binds them to Viper.
func initProgramFlags(rootCmd *cobra.Command) error {

	// Files/dirs
	rootCmd.PersistentFlags().StringP(keys.OutputDir, "o", "", "Directory downloads are saved into")
	if err := viper.BindPFlag(keys.OutputDir, rootCmd.PersistentFlags().Lookup(keys.OutputDir)); err != nil {
		return fmt.Errorf("failed to bind flag %q: %w", keys.OutputDir, err)
	}

	rootCmd.PersistentFlags().String(keys.BinDir, "", "Directory holding the yt-dlp and ffmpeg binaries")
	if err := viper.BindPFlag(keys.BinDir, rootCmd.PersistentFlags().Lookup(keys.BinDir)); err != nil {
		return fmt.Errorf("failed to bind flag %q: %w", keys.BinDir, err)
	}

	rootCmd.PersistentFlags().String(keys.TomlPath, "", "Path to a config file (TOML, YAML, or JSON)")
	if err := viper.BindPFlag(keys.TomlPath, rootCmd.PersistentFlags().Lookup(keys.TomlPath)); err != nil {
		return fmt.Errorf("failed to bind flag %q: %w", keys.TomlPath, err)
	}

	// Downloads
	rootCmd.PersistentFlags().IntP(keys.ConcurrencyLimit, "l", consts.DefaultConcurrency, "Maximum simultaneous downloads")
	if err := viper.BindPFlag(keys.ConcurrencyLimit, rootCmd.PersistentFlags().Lookup(keys.ConcurrencyLimit)); err != nil {
		return fmt.Errorf("failed to bind flag %q: %w", keys.ConcurrencyLimit, err)
	}

	rootCmd.PersistentFlags().Int(keys.DLRetries, consts.DefaultMaxRetries, "Number of retries for format probes")
	if err := viper.BindPFlag(keys.DLRetries, rootCmd.PersistentFlags().Lookup(keys.DLRetries)); err != nil {
		return fmt.Errorf("failed to bind flag %q: %w", keys.DLRetries, err)
	}

	rootCmd.PersistentFlags().Int(keys.InactivityTimeout, int(consts.WorkerInactivityTimeout.Seconds()), "Seconds without worker output before a download is aborted")
	if err := viper.BindPFlag(keys.InactivityTimeout, rootCmd.PersistentFlags().Lookup(keys.InactivityTimeout)); err != nil {
		return fmt.Errorf("failed to bind flag %q: %w", keys.InactivityTimeout, err)
	}

	// Server
	rootCmd.PersistentFlags().StringP(keys.Port, "p", "", "Port for the HTTP API")
	if err := viper.BindPFlag(keys.Port, rootCmd.PersistentFlags().Lookup(keys.Port)); err != nil {
		return fmt.Errorf("failed to bind flag %q: %w", keys.Port, err)
	}

	// Logging
	rootCmd.PersistentFlags().IntP(keys.DebugLevel, "d", 0, "Level of debugging (0 - 5)")
	if err := viper.BindPFlag(keys.DebugLevel, rootCmd.PersistentFlags().Lookup(keys.DebugLevel)); err != nil {
		return fmt.Errorf("failed to bind flag %q: %w", keys.DebugLevel, err)
	}

	return nil
}
