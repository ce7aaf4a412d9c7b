package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// MaxSizeBytes parses MaxSize ("10MB", "512KiB"). Empty means zero.
func (r RotationConfig) MaxSizeBytes() (int64, error) {
	if strings.TrimSpace(r.MaxSize) == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(r.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("invalid logging.rotation.max_size %q: %w", r.MaxSize, err)
	}
	return int64(n), nil
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// ManifestConfig configures the run history.
type ManifestConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	Workers       int            `mapstructure:"workers"`
	Exclude       []string       `mapstructure:"exclude"`
	Output        string         `mapstructure:"output"`
	MaxCollisions int            `mapstructure:"max_collisions"`
	MtimeFallback bool           `mapstructure:"mtime_fallback"`
	Manifest      ManifestConfig `mapstructure:"manifest"`
	Logging       LoggingConfig  `mapstructure:"logging"`
}

// ErrInvalid marks a configuration value outside its allowed range.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	}
	if c.MaxCollisions < 1 {
		return fmt.Errorf("%w: max_collisions must be at least 1, got %d", ErrInvalid, c.MaxCollisions)
	}
	if c.Manifest.RetentionDays < 0 {
		return fmt.Errorf("%w: manifest.retention_days must not be negative", ErrInvalid)
	}
	if _, err := c.Logging.Rotation.MaxSizeBytes(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// SetDefaults registers defaults, config search paths and environment
// binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", appName))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("exclude", DefaultExclusions)
	v.SetDefault("output", "")
	v.SetDefault("max_collisions", DefaultMaxCollisions)
	v.SetDefault("mtime_fallback", false)

	v.SetDefault("manifest.enabled", true)
	v.SetDefault("manifest.path", ManifestDir())
	v.SetDefault("manifest.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_backups", DefaultLogMaxBackups)
	v.SetDefault("logging.components", map[string]string{})
}

// Read loads the config file into v. A missing file in the search paths is
// not an error; an explicit file that cannot be read is.
func Read(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var err error
	if cfg.Manifest.Path, err = ExpandPath(cfg.Manifest.Path); err != nil {
		return nil, err
	}
	if cfg.Logging.Path, err = ExpandPath(cfg.Logging.Path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads configuration from file (or the default search paths when file
// is empty) and SNAPSORT_ environment variables.
func Load(file string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	if err := Read(v, file); err != nil {
		return nil, err
	}
	return FromViper(v)
}

// ConfigDir returns $XDG_CONFIG_HOME/snapsort.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ManifestDir returns the default manifest directory.
func ManifestDir() string {
	return filepath.Join(ConfigDir(), ".manifest")
}

// StateDir returns $XDG_STATE_HOME/snapsort, where logs live.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// WriteDefault writes a commented default config file to path, or to
// ConfigFile when path is empty. It reports false without touching anything
// when the file already exists.
func WriteDefault(path string) (bool, error) {
	if path == "" {
		path = ConfigFile()
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to check config file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	var excludes strings.Builder
	for _, e := range DefaultExclusions {
		fmt.Fprintf(&excludes, "  - %q\n", e)
	}

	content := fmt.Sprintf(`# snapsort configuration

# Concurrent digest workers (placement is always sequential)
workers: %d

# Patterns skipped while scanning: a directory prefix, or a glob matched
# against the base name or full path
exclude:
%s
# Report format printed after a run: pretty, plain, json, yaml (empty: none)
output: ""

# Upper bound on "(n)" name variants tried per file
max_collisions: %d

# Use the file modification time when a file has no capture metadata
mtime_fallback: false

# Run history
manifest:
  enabled: true
  path: %s
  retention_days: %d

logging:
  # debug, info, warn, error
  level: %s
  # empty means $XDG_STATE_HOME/snapsort/snapsort.log
  path: ""
  rotation:
    max_size: %s
    max_backups: %d
  # per-component overrides, e.g. collision: debug
  components: {}
`, DefaultWorkers, excludes.String(), DefaultMaxCollisions, ManifestDir(), DefaultRetentionDays,
		DefaultLogLevel, DefaultLogMaxSize, DefaultLogMaxBackups)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write default config: %w", err)
	}
	return true, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
