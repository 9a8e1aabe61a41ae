// Package conf loads and validates birdnet-mcp settings.
//
// Settings are resolved once at startup from defaults, an optional YAML
// file, BIRDNET_* environment variables and command line flags, then passed
// explicitly to the components that need them.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/birdnet-mcp/internal/errors"
	"github.com/tphakala/birdnet-mcp/internal/logger"
)

// Settings is the root configuration object.
type Settings struct {
	Main    MainSettings         `yaml:"main" mapstructure:"main" json:"main"`
	Data    DataSettings         `yaml:"data" mapstructure:"data" json:"data"`
	Audio   AudioSettings        `yaml:"audio" mapstructure:"audio" json:"audio"`
	Server  ServerSettings       `yaml:"server" mapstructure:"server" json:"server"`
	Logging logger.LoggingConfig `yaml:"logging" mapstructure:"logging" json:"logging"`
	Metrics MetricsSettings      `yaml:"metrics" mapstructure:"metrics" json:"metrics"`
	Sentry  SentrySettings       `yaml:"sentry" mapstructure:"sentry" json:"sentry"`

	location *time.Location
}

// MainSettings holds process-wide options.
type MainSettings struct {
	Timezone string `yaml:"timezone" mapstructure:"timezone" json:"timezone"` // "Local", "UTC" or IANA name
}

// DataSettings locates the detection log.
type DataSettings struct {
	Path          string `yaml:"path" mapstructure:"path" json:"path"`                            // directory holding the detection file
	DetectionFile string `yaml:"detectionfile" mapstructure:"detectionfile" json:"detectionfile"` // file name inside Path
}

// AudioSettings locates recorded clips.
type AudioSettings struct {
	Path        string `yaml:"path" mapstructure:"path" json:"path"`
	MaxFileSize int64  `yaml:"maxfilesize" mapstructure:"maxfilesize" json:"maxfilesize"` // bytes, 0 = unlimited
}

// ServerSettings configures the function dispatch server.
type ServerSettings struct {
	Listen    string   `yaml:"listen" mapstructure:"listen" json:"listen"`
	Debug     bool     `yaml:"debug" mapstructure:"debug" json:"debug"`
	CORS      []string `yaml:"cors" mapstructure:"cors" json:"cors"`                // allowed origins
	RateLimit float64  `yaml:"ratelimit" mapstructure:"ratelimit" json:"ratelimit"` // requests per second per client, 0 = off
}

// MetricsSettings toggles the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
}

// SentrySettings controls optional error telemetry.
type SentrySettings struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	DSN     string `yaml:"dsn" mapstructure:"dsn" json:"dsn"`
}

// DetectionFilePath returns the full path of the detection log.
func (s *Settings) DetectionFilePath() string {
	return filepath.Join(s.Data.Path, s.Data.DetectionFile)
}

// Location returns the timezone used for calendar dates and hour buckets.
// It is resolved during validation; unvalidated settings fall back to Local.
func (s *Settings) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	if loc, err := loadTimezone(s.Main.Timezone); err == nil {
		return loc
	}
	return time.Local
}

// Load resolves settings using v. configFile, when set, names an explicit
// YAML file that must exist; otherwise config.yaml is searched for in the
// default config paths and its absence is not an error.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if v == nil {
		v = viper.New()
	}

	if err := initViper(v, configFile); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("config_file", configFile).
			Build()
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return settings, nil
}

// Defaults returns validated settings built from the default values only.
func Defaults() *Settings {
	v := viper.New()
	setDefaultConfig(v)
	settings := &Settings{}
	_ = v.Unmarshal(settings)
	settings.location, _ = loadTimezone(settings.Main.Timezone)
	return settings
}

func initViper(v *viper.Viper, configFile string) error {
	setDefaultConfig(v)

	if err := configureEnvironmentVariables(v); err != nil {
		return err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range GetDefaultConfigPaths() {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// GetDefaultConfigPaths lists the directories searched for config.yaml.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "birdnet-mcp"))
	}
	return paths
}

// SaveYAMLConfig writes settings to configPath. It overwrites the existing
// file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Write to a temporary file in the same directory so the rename is atomic
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}
