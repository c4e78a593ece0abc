package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// viperKeys defines the mapping between config keys and their Viper
// counterparts.
const (
	keyDefaultRounding     = "defaults.rounding"
	keyDefaultCurrency     = "defaults.currency"
	keyDefaultBreakMinutes = "defaults.break_minutes"
	keySyncEnabled         = "sync.enabled"
	keySyncBucket          = "sync.bucket"
	keySyncCredentialsFile = "sync.credentials_file"
	keyNoColor             = "display.no_color"
	keyTwentyFourHour      = "display.24hr_clock"
)

// WithViperConfig returns an Option that loads configuration from Viper.
// A missing config file is written out with the defaults.
func WithViperConfig(configPath string) Option {
	return func(c *Config) error {
		v := viper.New()

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		setupViper(v)

		err := v.ReadInConfig()
		if err == nil {
			return loadViperConfig(v, c)
		}

		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading config file failed: %w", err)
		}

		if err := v.WriteConfig(); err != nil {
			return fmt.Errorf("writing default config failed: %w", err)
		}

		return loadViperConfig(v, c)
	}
}

// setupViper configures Viper with defaults.
func setupViper(v *viper.Viper) {
	v.SetDefault(keyDefaultRounding, "nearest15")
	v.SetDefault(keyDefaultCurrency, "EUR")
	v.SetDefault(keyDefaultBreakMinutes, 0)
	v.SetDefault(keySyncEnabled, false)
	v.SetDefault(keySyncBucket, "")
	v.SetDefault(keySyncCredentialsFile, "")
	v.SetDefault(keyNoColor, false)
	v.SetDefault(keyTwentyFourHour, true)
}

// loadViperConfig loads configuration from Viper into the Config struct.
func loadViperConfig(v *viper.Viper, c *Config) error {
	return v.Unmarshal(c)
}
