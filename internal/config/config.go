// Package config loads and validates the application configuration from a
// YAML file under the XDG config directory, writing defaults on first run.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pterm/pterm"
)

type (
	// Config holds all configuration settings.
	Config struct {
		Defaults DefaultsConfig `mapstructure:"defaults"`
		Sync     SyncConfig     `mapstructure:"sync"`
		Display  DisplayConfig  `mapstructure:"display"`
	}

	// DefaultsConfig holds the values applied to new sessions and
	// expenses when the corresponding flag is absent.
	DefaultsConfig struct {
		Rounding     string `mapstructure:"rounding"`
		Currency     string `mapstructure:"currency"`
		BreakMinutes int    `mapstructure:"break_minutes"`
	}

	// SyncConfig holds cloud mirror settings.
	SyncConfig struct {
		Enabled         bool   `mapstructure:"enabled"`
		Bucket          string `mapstructure:"bucket"`
		CredentialsFile string `mapstructure:"credentials_file"`
	}

	// DisplayConfig holds output-related settings.
	DisplayConfig struct {
		NoColor        bool `mapstructure:"no_color"`
		TwentyFourHour bool `mapstructure:"24hr_clock"`
	}

	// Option is a function that modifies Config.
	Option func(*Config) error
)

const Version = "v0.3.1"

var (
	configDir      = "lavoro"
	configFileName = "config.yml"
	dbFileName     = "lavoro.db"
	logFileName    = "lavoro.log"
	dbFilePath     string
	configFilePath string
	logFilePath    string
	exportDirPath  string
)

var (
	Stdin  io.Reader = os.Stdin
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

func Dir() string {
	return configDir
}

func DBFilePath() string {
	return dbFilePath
}

func LogFilePath() string {
	return logFilePath
}

func ConfigFilePath() string {
	return configFilePath
}

func ExportDirPath() string {
	return exportDirPath
}

func InitializePaths() {
	lavoroEnv := strings.TrimSpace(os.Getenv("LAVORO_ENV"))
	if lavoroEnv != "" {
		configFileName = fmt.Sprintf("config_%s.yml", lavoroEnv)
		dbFileName = fmt.Sprintf("lavoro_%s.db", lavoroEnv)
		logFileName = fmt.Sprintf("lavoro_%s.log", lavoroEnv)
	}

	var err error

	relPath := filepath.Join(configDir, configFileName)

	configFilePath, err = xdg.ConfigFile(relPath)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	dataDir, err := xdg.DataFile(configDir)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	dbFilePath = filepath.Join(dataDir, dbFileName)

	logFilePath = filepath.Join(dataDir, "log", logFileName)

	exportDirPath = filepath.Join(dataDir, "exports")
}

// New creates a new Config with default values and applies options.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, errConfigOption.Wrap(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errConfigValidation.Wrap(err)
	}

	return cfg, nil
}
