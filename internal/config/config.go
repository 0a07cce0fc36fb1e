package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"molink/internal/editor"
	"molink/internal/service"
	"molink/internal/storage"
)

// EnvPrefix prefixes every environment override, e.g. MOLINK_DB_DRIVER.
const EnvPrefix = "MOLINK"

// Config is the resolved application configuration.
type Config struct {
	DataDir  string
	DB       DBConfig
	Autosave AutosaveConfig
	Log      LogConfig
	Layout   editor.LayoutOptions
}

type DBConfig struct {
	Driver string
	DSN    string
}

type AutosaveConfig struct {
	Schedule string
}

type LogConfig struct {
	Mode string
}

// DefaultDataDir is ~/.local/share/molink.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".local", "share", "molink")
}

// Load reads configuration from defaults, an optional YAML file and MOLINK_*
// environment variables, in increasing precedence. An empty path looks for
// config.yaml in the data dir; a missing file there is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	layout := editor.DefaultLayoutOptions()
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("db.driver", storage.DriverSQLite)
	v.SetDefault("db.dsn", "")
	v.SetDefault("autosave.schedule", service.DefaultAutosaveSchedule)
	v.SetDefault("log.mode", "dev")
	v.SetDefault("layout.width", layout.Width)
	v.SetDefault("layout.line_height", layout.LineHeight)
	v.SetDefault("layout.padding", layout.Padding)
	v.SetDefault("layout.indent", layout.Indent)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.AddConfigPath(v.GetString("data_dir"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		DataDir: v.GetString("data_dir"),
		DB: DBConfig{
			Driver: strings.ToLower(v.GetString("db.driver")),
			DSN:    v.GetString("db.dsn"),
		},
		Autosave: AutosaveConfig{Schedule: v.GetString("autosave.schedule")},
		Log:      LogConfig{Mode: v.GetString("log.mode")},
		Layout: editor.LayoutOptions{
			Width:      v.GetFloat64("layout.width"),
			LineHeight: v.GetFloat64("layout.line_height"),
			Padding:    v.GetFloat64("layout.padding"),
			Indent:     v.GetFloat64("layout.indent"),
		},
	}
	if cfg.DB.DSN == "" && cfg.DB.Driver == storage.DriverSQLite {
		cfg.DB.DSN = filepath.Join(cfg.DataDir, "molink.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	var errs []error
	known := false
	for _, d := range storage.Drivers {
		if c.DB.Driver == d {
			known = true
		}
	}
	if !known {
		errs = append(errs, fmt.Errorf("db.driver: unknown driver %q (want one of %s)", c.DB.Driver, strings.Join(storage.Drivers, ", ")))
	}
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("db.dsn: required"))
	}
	if err := service.ValidSchedule(c.Autosave.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("autosave.schedule: %w", err))
	}
	if c.Layout.Width <= 0 {
		errs = append(errs, errors.New("layout.width: must be positive"))
	}
	if c.Layout.LineHeight <= 0 {
		errs = append(errs, errors.New("layout.line_height: must be positive"))
	}
	if c.Layout.Padding < 0 {
		errs = append(errs, errors.New("layout.padding: must not be negative"))
	}
	if c.Layout.Indent < 0 {
		errs = append(errs, errors.New("layout.indent: must not be negative"))
	}
	return errors.Join(errs...)
}
