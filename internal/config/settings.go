package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings are application-level options, independent of any one taxpayer profile
type Settings struct {
	DatabasePath string `mapstructure:"database"`
	Format       string `mapstructure:"format"`
	LogLevel     string `mapstructure:"log_level"`
}

// DataDir returns the XDG-compliant data directory
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "nursetax")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "nursetax")
}

// ConfigDir returns the XDG-compliant config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nursetax")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "nursetax")
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		DatabasePath: filepath.Join(DataDir(), "payments.db"),
		Format:       "console",
		LogLevel:     "warn",
	}
}

// LoadSettings resolves settings from flags, NURSETAX_* environment variables and an optional
// settings.yaml in the config directory, in that order of precedence
func LoadSettings(flags *pflag.FlagSet, configDirs ...string) (*Settings, error) {
	v := viper.New()

	defaults := DefaultSettings()
	v.SetDefault("database", defaults.DatabasePath)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetConfigName("settings")
	v.SetConfigType("yaml")
	if len(configDirs) == 0 {
		configDirs = []string{ConfigDir(), "."}
	}
	for _, dir := range configDirs {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("NURSETAX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, flag := range map[string]string{"database": "db", "format": "format", "log_level": "log-level"} {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", flag, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading settings: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return &settings, nil
}
