// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"

	"github.com/tphakala/birdnet-mcp/internal/logger"
)

const (
	DefaultDataPath      = "/var/www/birdnet/data"
	DefaultAudioPath     = "/var/www/birdnet/audio"
	DefaultDetectionFile = "detections.json"
	DefaultListen        = "127.0.0.1:8000"
	DefaultMaxAudioSize  = 50 * 1024 * 1024
)

// Sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("main.timezone", "Local")

	v.SetDefault("data.path", DefaultDataPath)
	v.SetDefault("data.detectionfile", DefaultDetectionFile)

	v.SetDefault("audio.path", DefaultAudioPath)
	v.SetDefault("audio.maxfilesize", DefaultMaxAudioSize)

	v.SetDefault("server.listen", DefaultListen)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.cors", []string{"*"})
	v.SetDefault("server.ratelimit", 0)

	v.SetDefault("logging.default_level", logger.DefaultLogLevel)
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", logger.DefaultConsoleEnabled)
	v.SetDefault("logging.console.level", logger.DefaultLogLevel)
	v.SetDefault("logging.file_output.enabled", logger.DefaultFileEnabled)
	v.SetDefault("logging.file_output.path", logger.DefaultLogPath)
	v.SetDefault("logging.file_output.level", logger.DefaultLogLevel)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
}
