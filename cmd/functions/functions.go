// Package functions implements the command that prints the function manifest.
package functions

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/tphakala/birdnet-mcp/internal/birdnet"
)

// Command creates a new cobra.Command to print the manifest served on /functions.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "functions",
		Short: "Print the exposed functions and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"functions": birdnet.Functions()})
		},
	}

	return cmd
}
