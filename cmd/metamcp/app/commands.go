// Package app wires the metamcp cobra command tree.
package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

const gatewayVersion = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "metamcp",
	Short: "metamcp is an MCP gateway that aggregates multiple backend servers",
	Long: `metamcp federates multiple MCP backend servers behind a single
endpoint, aggregating their tools, resources, and prompts under
backend-prefixed names and routing calls back to the owning backend.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// NewRootCmd builds the root command with its subcommands registered.
func NewRootCmd() *cobra.Command {
	rootCmd.AddCommand(newServeCmd(), newVersionCmd())
	rootCmd.SilenceUsage = true
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the metamcp version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), gatewayVersion)
			return err
		},
	}
}
