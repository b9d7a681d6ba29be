package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/pkgtree-mcp/internal/mcp"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.logger.SetReportTimestamp(true)

			server, err := mcp.NewServer(a.cfg, a.logger)
			if err != nil {
				return err
			}
			a.logger.Info("starting", "name", mcp.ServerName, "version", Version, "db", a.cfg.DBPath)

			err = server.Serve(cmd.Context())
			a.logger.Info("server stopped")
			return err
		},
	}
}
