// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"data.path", "BIRDNET_DATA_PATH", validateEnvNonEmpty},
		{"data.detectionfile", "BIRDNET_DETECTION_FILE", validateEnvNonEmpty},
		{"audio.path", "BIRDNET_AUDIO_PATH", validateEnvNonEmpty},
		{"main.timezone", "BIRDNET_TIMEZONE", validateEnvTimezone},
		{"server.listen", "BIRDNET_LISTEN", validateEnvNonEmpty},
		{"logging.default_level", "BIRDNET_LOG_LEVEL", validateEnvLogLevel},
		{"logging.console.level", "BIRDNET_LOG_LEVEL", validateEnvLogLevel},
		{"sentry.dsn", "BIRDNET_SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue, ok := os.LookupEnv(binding.EnvVar); ok {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvNonEmpty(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("value must not be empty")
	}
	return nil
}

func validateEnvTimezone(value string) error {
	_, err := loadTimezone(value)
	return err
}

func validateEnvLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "trace", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("must be one of trace, debug, info, warn, error")
	}
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables(v *viper.Viper) error {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return bindEnvVars(v)
}
