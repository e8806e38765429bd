package main

import (
	"github.com/spf13/cobra"

	"reliefcheck/internal/adapters/mcp"
	"reliefcheck/internal/logging"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve verify_flyer and get_case as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	log := logging.New("mcp")
	log.Info("starting reliefcheck MCP server over stdio")
	return mcp.NewServer(a.Investigator, a.Cases, log).Run(cmd.Context())
}
