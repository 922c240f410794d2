package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"disksim/pkg/partition"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. DISKSIM_LISTEN.
const EnvPrefix = "DISKSIM"

// Config keys.
const (
	KeyStateDB            = "state_db"
	KeyCatalog            = "catalog"
	KeyMinSegmentMB       = "min_segment_mb"
	KeyStrictDriveLetters = "strict_drive_letters"
	KeyLogLevel           = "log_level"
	KeyLogFile            = "log_file"
	KeyListen             = "listen"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the resolved runtime configuration.
type Config struct {
	StateDB            string `mapstructure:"state_db"`
	Catalog            string `mapstructure:"catalog"`
	MinSegmentMB       int64  `mapstructure:"min_segment_mb"`
	StrictDriveLetters bool   `mapstructure:"strict_drive_letters"`
	LogLevel           string `mapstructure:"log_level"`
	LogFile            string `mapstructure:"log_file"`
	Listen             string `mapstructure:"listen"`
}

// Dir returns the directory holding the config file and the default state database.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "disksim")
}

// New returns a viper instance with defaults and env overrides installed.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyStateDB, filepath.Join(Dir(), "state.db"))
	v.SetDefault(KeyCatalog, "")
	v.SetDefault(KeyMinSegmentMB, 1)
	v.SetDefault(KeyStrictDriveLetters, true)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyListen, "127.0.0.1:8080")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads cfgFile, or config.yaml from Dir() and the working directory
// when cfgFile is empty. A missing default file is not an error.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c Config) Validate() error {
	if c.MinSegmentMB < 1 {
		return fmt.Errorf("%w: %s must be at least 1, got %d", ErrInvalidConfig, KeyMinSegmentMB, c.MinSegmentMB)
	}
	if c.Listen == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, KeyListen)
	}
	return nil
}

// EngineOptions maps the config onto partition engine options.
func (c Config) EngineOptions() partition.Options {
	return partition.Options{
		MinSegmentMB:           c.MinSegmentMB,
		PermissiveDriveLetters: !c.StrictDriveLetters,
	}
}
