package cli

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-grid/internal/server"
)

func serveCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Long: `Runs a Model Context Protocol server over stdio exposing grid_generate,
grid_pool_info and grid_preview. Tool arguments override --config.
Configure it in your MCP client; logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			logger := loggerFromContext(cmd.Context())
			logger.Debug("Starting MCP server", "version", version, "commit", commit, "built", date)

			srv := server.New(server.Options{Base: cfg, Logger: logger, Version: version})
			return srv.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	return cmd
}
