package cfg

import "github.com/spf13/viper"

// IsSet returns whether a key has any value set.
func IsSet(key string) bool {
	return viper.IsSet(key)
}

// GetString retrieves a string value from Viper.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from Viper.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from Viper.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
