// Package query implements the command that runs one exposed function
// in-process and prints its JSON result.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/birdnet-mcp/internal/birdnet"
	"github.com/tphakala/birdnet-mcp/internal/conf"
)

// Command creates the query command.
func Command(settings *conf.Settings) *cobra.Command {
	var rawParams string
	var raw bool

	cmd := &cobra.Command{
		Use:   "query <function> [key=value...]",
		Short: "Run one function and print its result",
		Long: `Run one exposed function against the configured detection log and print the
JSON result. Parameters are given as key=value pairs or as a JSON object with --params.

Example:
  birdnet-mcp query getBirdDetections startDate=2024-01-01 endDate=2024-01-31 species=robin`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := buildParams(rawParams, args[1:])
			if err != nil {
				return err
			}

			svc, err := birdnet.NewFromSettings(settings, nil)
			if err != nil {
				return err
			}
			return Run(cmd.Context(), svc, args[0], params, raw, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&rawParams, "params", "", "Parameters as a JSON object")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print report text or audio bytes instead of JSON")

	return cmd
}

// Invoker runs an exposed function by name.
type Invoker interface {
	Invoke(ctx context.Context, name string, params json.RawMessage) (any, error)
}

// Run invokes function on invoker and writes the result to out.
func Run(ctx context.Context, invoker Invoker, function string, params json.RawMessage, raw bool, out io.Writer) error {
	result, err := invoker.Invoke(ctx, function, params)
	if err != nil {
		return err
	}

	if raw {
		switch r := result.(type) {
		case *birdnet.ReportResult:
			_, err := io.WriteString(out, r.Report)
			return err
		case *birdnet.AudioResult:
			data := r.Data
			if data == nil {
				data = []byte(r.Audio)
			}
			_, err := out.Write(data)
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// buildParams merges a JSON object with key=value pairs; pairs win.
// Values that parse as numbers or booleans are sent as such.
func buildParams(rawJSON string, pairs []string) (json.RawMessage, error) {
	params := map[string]any{}
	if strings.TrimSpace(rawJSON) != "" {
		if err := json.Unmarshal([]byte(rawJSON), &params); err != nil {
			return nil, fmt.Errorf("invalid --params: %w", err)
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		params[key] = parseValue(value)
	}

	if len(params) == 0 {
		return nil, nil
	}
	return json.Marshal(params)
}

func parseValue(value string) any {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}
