package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/birdnet-mcp/cmd/functions"
	"github.com/tphakala/birdnet-mcp/cmd/query"
	"github.com/tphakala/birdnet-mcp/cmd/serve"
	"github.com/tphakala/birdnet-mcp/cmd/setup"
	"github.com/tphakala/birdnet-mcp/internal/buildinfo"
	"github.com/tphakala/birdnet-mcp/internal/conf"
	"github.com/tphakala/birdnet-mcp/internal/logger"
	"github.com/tphakala/birdnet-mcp/internal/telemetry"
)

// RootCommand creates and returns the root command
func RootCommand(build *buildinfo.Context) *cobra.Command {
	v := viper.New()
	settings := &conf.Settings{}
	var configFile string
	var central *logger.CentralLogger

	rootCmd := &cobra.Command{
		Use:          "birdnet-mcp",
		Short:        "BirdNET detection query server",
		Long:         "Query BirdNET detection logs, audio clips and activity reports over HTTP or from the command line.",
		Version:      build.GetVersion(),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config.yaml (default: ./config.yaml or ~/.config/birdnet-mcp/config.yaml)")
	if err := setupFlags(rootCmd, v); err != nil {
		fmt.Fprintf(os.Stderr, "error setting up flags: %v\n", err)
		os.Exit(1)
	}

	functionsCmd := functions.Command()
	subcommands := []*cobra.Command{
		serve.Command(settings, v, build),
		query.Command(settings),
		setup.Command(settings),
		functionsCmd,
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// The manifest needs no configuration
		if cmd.Name() == functionsCmd.Name() {
			return nil
		}

		loaded, err := conf.Load(v, configFile)
		if err != nil {
			return err
		}
		*settings = *loaded

		central, err = initialize(settings, build)
		return err
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		telemetry.Flush(settings)
		if central != nil {
			return central.Close()
		}
		return nil
	}

	return rootCmd
}

// initialize sets up logging and telemetry once settings are resolved.
func initialize(settings *conf.Settings, build *buildinfo.Context) (*logger.CentralLogger, error) {
	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetGlobal(central)

	if err := telemetry.Init(settings, build); err != nil {
		// Telemetry is optional; keep running without it
		central.Module("main").Warn("Telemetry disabled", logger.Error(err))
	}

	return central, nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, v *viper.Viper) error {
	flags := rootCmd.PersistentFlags()
	flags.String("datapath", conf.DefaultDataPath, "Directory holding the detection log")
	flags.String("detectionfile", conf.DefaultDetectionFile, "Detection log file name inside the data directory")
	flags.String("audiopath", conf.DefaultAudioPath, "Directory holding recorded clips")
	flags.String("timezone", "Local", "Timezone for calendar dates and hours (Local, UTC or IANA name)")
	flags.String("loglevel", logger.DefaultLogLevel, "Log level (debug, info, warn, error)")

	bindings := map[string]string{
		"data.path":             "datapath",
		"data.detectionfile":    "detectionfile",
		"audio.path":            "audiopath",
		"main.timezone":         "timezone",
		"logging.default_level": "loglevel",
		"logging.console.level": "loglevel",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}
