package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/ai-tools/internal/provider"
)

func newGenerateCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "generate PROMPT",
		Short: "Generate an image from a prompt and print its URL",
		Long: `Generate an image from PROMPT with the configured image providers. The
edge proxy is tried first, then the Runware API.

Examples:
  ai-tools generate "a lighthouse at dusk, watercolor"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain := provider.DefaultImages(a.cfg, a.logger)
			url, used, err := chain.GenerateWith(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"url":      url,
					"provider": used,
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), url)
			return err
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}
