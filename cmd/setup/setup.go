// Package setup implements the interactive configuration command.
package setup

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/birdnet-mcp/internal/conf"
)

const (
	ConfigFileName       = "config.yaml"
	ClientConfigFileName = "client-config-example.json"
)

// Options controls where setup writes its files.
type Options struct {
	OutputDir  string // directory for config.yaml and the client example
	Executable string // command registered in the client config
}

// ClientConfig is the client registration example written next to config.yaml.
type ClientConfig struct {
	MCPServers map[string]ServerEntry `json:"mcpServers"`
}

// ServerEntry tells a client how to launch this server.
type ServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

// Command creates the setup command.
func Command(settings *conf.Settings) *cobra.Command {
	opts := Options{}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create config.yaml and an example client configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Executable == "" {
				exe, err := os.Executable()
				if err != nil {
					exe = "birdnet-mcp"
				}
				opts.Executable = exe
			}
			return Run(cmd.InOrStdin(), cmd.OutOrStdout(), settings, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", ".", "Directory to write config.yaml and "+ClientConfigFileName)

	return cmd
}

// Run prompts for the data and audio directories, offering the values in
// base as defaults, and writes config.yaml and the client example to
// opts.OutputDir. Missing directories produce warnings, not errors.
func Run(in io.Reader, out io.Writer, base *conf.Settings, opts Options) error {
	settings := *base
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "BirdNET MCP Server Setup")
	fmt.Fprintln(out)

	var err error
	if settings.Data.Path, err = prompt(reader, out, "Enter BirdNET data directory path", settings.Data.Path); err != nil {
		return err
	}
	if settings.Audio.Path, err = prompt(reader, out, "Enter BirdNET audio directory path", settings.Audio.Path); err != nil {
		return err
	}
	if err := conf.ValidateSettings(&settings); err != nil {
		return err
	}

	outputDir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return fmt.Errorf("error resolving output directory: %w", err)
	}

	configPath := filepath.Join(outputDir, ConfigFileName)
	if err := conf.SaveYAMLConfig(configPath, &settings); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nConfiguration saved to %s\n", configPath)

	verified := true
	for _, dir := range []struct{ name, path string }{
		{"data", settings.Data.Path},
		{"audio", settings.Audio.Path},
	} {
		if info, err := os.Stat(dir.path); err != nil || !info.IsDir() {
			verified = false
			fmt.Fprintf(out, "Warning: %s directory %s is not accessible\n", dir.name, dir.path)
		}
	}
	if verified {
		fmt.Fprintln(out, "Verified access to BirdNET directories")
	}

	clientPath := filepath.Join(outputDir, ClientConfigFileName)
	if err := writeClientConfig(clientPath, clientConfig(&settings, opts.Executable, configPath)); err != nil {
		return err
	}
	fmt.Fprintln(out, "Created example client configuration file")

	fmt.Fprintln(out, "\nSetup completed successfully!")
	return nil
}

// prompt reads one line; an empty answer or EOF keeps def.
func prompt(reader *bufio.Reader, out io.Writer, question, def string) (string, error) {
	fmt.Fprintf(out, "%s [%s]: ", question, def)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("error reading input: %w", err)
	}
	if answer := strings.TrimSpace(line); answer != "" {
		return answer, nil
	}
	return def, nil
}

func clientConfig(settings *conf.Settings, executable, configPath string) ClientConfig {
	return ClientConfig{
		MCPServers: map[string]ServerEntry{
			"birdnet": {
				Command: executable,
				Args:    []string{"serve", "--config", configPath},
				Env: map[string]string{
					"BIRDNET_DATA_PATH":      settings.Data.Path,
					"BIRDNET_AUDIO_PATH":     settings.Audio.Path,
					"BIRDNET_DETECTION_FILE": settings.Data.DetectionFile,
				},
			},
		},
	}
}

func writeClientConfig(path string, cfg ClientConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding client configuration: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("error writing client configuration: %w", err)
	}
	return nil
}
