// Package config resolves studytrack settings from, in priority order, the
// environment (including a .env file in the working directory), the YAML
// config file, and built-in defaults.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

const appName = "studytrack"

// Environment overrides.
const (
	EnvDB        = "STUDYTRACK_DB"
	EnvLogLevel  = "STUDYTRACK_LOG_LEVEL"
	EnvLogFile   = "STUDYTRACK_LOG_FILE"
	EnvExportDir = "STUDYTRACK_EXPORT_DIR"
	EnvConfigDir = "STUDYTRACK_CONFIG_DIR"
)

// Pomodoro holds the default focus session lengths.
type Pomodoro struct {
	WorkMinutes  int `yaml:"work_minutes"`
	BreakMinutes int `yaml:"break_minutes"`
}

func (p Pomodoro) Work() time.Duration  { return time.Duration(p.WorkMinutes) * time.Minute }
func (p Pomodoro) Break() time.Duration { return time.Duration(p.BreakMinutes) * time.Minute }

// Config holds the application configuration
type Config struct {
	DBPath           string        `yaml:"db_path"`
	ExportDir        string        `yaml:"export_dir"`
	LogLevel         string        `yaml:"log_level"`
	LogFile          string        `yaml:"log_file,omitempty"`
	DefaultRangeDays int           `yaml:"default_range_days"`
	Pomodoro         Pomodoro      `yaml:"pomodoro"`
	TickInterval     time.Duration `yaml:"tick_interval"`

	// LastSelectedActivity is remembered between runs; nil means none.
	LastSelectedActivity *int64 `yaml:"last_selected_activity,omitempty"`

	path string
}

// Dir returns the studytrack config directory: STUDYTRACK_CONFIG_DIR when
// set, otherwise a studytrack folder under the platform's user config
// directory ($XDG_CONFIG_HOME or ~/.config, ~/Library/Application Support,
// %AppData%).
func Dir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return expandTilde(dir)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", eris.Wrap(err, "failed to locate user config directory")
	}
	return filepath.Join(base, appName), nil
}

// DefaultPath returns the full path to the config file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Default returns the built-in settings rooted at dir.
func Default(dir string) *Config {
	return &Config{
		DBPath:           filepath.Join(dir, appName+".db"),
		ExportDir:        filepath.Join(dir, "exports"),
		LogLevel:         "info",
		DefaultRangeDays: 7,
		Pomodoro:         Pomodoro{WorkMinutes: 25, BreakMinutes: 5},
		TickInterval:     time.Second,
		path:             filepath.Join(dir, "config.yaml"),
	}
}

// Load resolves the configuration. An empty path means DefaultPath. A
// missing config file is not an error.
func Load(path string) (*Config, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	cfg := Default(filepath.Dir(path))
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, eris.Wrapf(err, "failed to read config file: %s", path)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, eris.Wrapf(err, "failed to parse config file: %s", path)
		}
	}

	cfg.applyEnv()

	for _, p := range []*string{&cfg.DBPath, &cfg.ExportDir, &cfg.LogFile} {
		if *p, err = expandTilde(*p); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDB); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv(EnvExportDir); v != "" {
		c.ExportDir = v
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return eris.New("db_path is empty")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.DefaultRangeDays < 1 {
		return eris.Errorf("default_range_days must be at least 1, got %d", c.DefaultRangeDays)
	}
	if c.Pomodoro.WorkMinutes < 1 {
		return eris.Errorf("pomodoro.work_minutes must be at least 1, got %d", c.Pomodoro.WorkMinutes)
	}
	if c.Pomodoro.BreakMinutes < 0 {
		return eris.Errorf("pomodoro.break_minutes must not be negative, got %d", c.Pomodoro.BreakMinutes)
	}
	if c.TickInterval <= 0 {
		return eris.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn" or "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, eris.Wrapf(err, "invalid log_level %q", c.LogLevel)
	}
	return level, nil
}

// Path is the file Load read from and Save writes to.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration back to Path, creating its directory.
func (c *Config) Save() error {
	if c.path == "" {
		return eris.New("config has no file path")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return eris.Wrapf(err, "failed to create config directory: %s", filepath.Dir(c.path))
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "failed to marshal config to YAML")
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return eris.Wrapf(err, "failed to write config file: %s", c.path)
	}
	return nil
}

// expandTilde replaces a leading "~" or "~/" with the home directory.
// Forms like "~user" are returned unchanged.
func expandTilde(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && rest[0] != '/' && rest[0] != filepath.Separator) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(home, rest), nil
}
