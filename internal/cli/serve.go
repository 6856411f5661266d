package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/ai-tools/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Long: `Serve the ai-tools tools over the Model Context Protocol (JSON-RPC 2.0,
one message per line on stdin and stdout). Logs go to stderr.

Configure it in your MCP client as:
  {"command": "ai-tools", "args": ["serve"]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.logger.Info("starting MCP server",
				zap.String("version", a.build.Version),
				zap.Int("cache_size", a.cfg.Cache.Size))

			pl, err := a.pipeline("")
			if err != nil {
				return err
			}
			srv := server.New(a.cfg,
				server.WithLogger(a.logger),
				server.WithPipeline(pl),
				server.WithVersion(a.build.Version),
			)
			return srv.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
