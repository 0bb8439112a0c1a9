package cfg

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// loadConfigFile reads a Viper-supported config file and merges its
// values under the main config. Flags set on the command line win.
func loadConfigFile(path string) error {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return fmt.Errorf("config file %q has no extension", path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(ext)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	for _, key := range v.AllKeys() {
		// Normalize underscores so "output_dir" matches "output-dir"
		normalized := strings.ReplaceAll(key, "_", "-")
		if !viper.IsSet(normalized) || !flagChanged(normalized) {
			viper.Set(normalized, v.Get(key))
		}
	}
	return nil
}

func flagChanged(name string) bool {
	f := rootCmd.PersistentFlags().Lookup(name)
	return f != nil && f.Changed
}
