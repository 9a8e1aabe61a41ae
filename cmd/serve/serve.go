// Package serve implements the command that runs the function dispatch server.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/birdnet-mcp/internal/api"
	"github.com/tphakala/birdnet-mcp/internal/birdnet"
	"github.com/tphakala/birdnet-mcp/internal/buildinfo"
	"github.com/tphakala/birdnet-mcp/internal/conf"
	"github.com/tphakala/birdnet-mcp/internal/logger"
	"github.com/tphakala/birdnet-mcp/internal/observability"
	"github.com/tphakala/birdnet-mcp/internal/observability/metrics"
	"github.com/tphakala/birdnet-mcp/internal/telemetry"
)

// Command creates the serve command.
func Command(settings *conf.Settings, v *viper.Viper, build *buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the function dispatch server",
		Long:  "Serve POST /invoke, GET /functions, GET /health and GET /metrics until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return Run(ctx, settings, build)
		},
	}

	if err := setupFlags(cmd, v); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, v *viper.Viper) error {
	cmd.Flags().String("listen", conf.DefaultListen, "Listen address and port")
	cmd.Flags().Bool("debug", false, "Include internal error details in responses")
	cmd.Flags().Float64("ratelimit", 0, "Requests per second per client, 0 disables")
	cmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")

	for key, flag := range map[string]string{
		"server.listen":    "listen",
		"server.debug":     "debug",
		"server.ratelimit": "ratelimit",
		"metrics.enabled":  "metrics",
	} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// Run serves until ctx is canceled.
func Run(ctx context.Context, settings *conf.Settings, build *buildinfo.Context) error {
	log := logger.Global().Module("serve")

	var (
		storeRecorder metrics.StoreRecorder
		serviceOpts   []birdnet.Option
		serverOpts    = []api.ServerOption{api.WithBuildInfo(build)}
	)
	if settings.Metrics.Enabled {
		m, err := observability.NewMetrics()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		storeRecorder = m.Datastore
		serviceOpts = append(serviceOpts, birdnet.WithRecorder(m.BirdNET))
		serverOpts = append(serverOpts, api.WithMetrics(m))
	}

	svc, err := birdnet.NewFromSettings(settings, storeRecorder, serviceOpts...)
	if err != nil {
		return err
	}

	server, err := api.New(settings, svc, serverOpts...)
	if err != nil {
		return err
	}

	log.Info("BirdNET function server starting",
		logger.String("version", build.GetVersion()),
		logger.String("listen", settings.Server.Listen),
		logger.String("detection_file", settings.DetectionFilePath()),
		logger.String("audio_path", settings.Audio.Path),
		logger.String("timezone", svc.Location().String()))

	g, gctx := errgroup.WithContext(ctx)
	stopped := make(chan struct{})
	g.Go(func() error {
		defer close(stopped)
		return server.Start(gctx)
	})
	// Drain queued error reports once the server has stopped for any reason.
	g.Go(func() error {
		<-stopped
		log.Info("BirdNET function server stopped")
		telemetry.Flush(settings)
		return nil
	})
	return g.Wait()
}
