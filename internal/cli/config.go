package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Display the configuration after defaults, the config file and AI_TOOLS_*
environment variables are applied. API keys are masked.

Examples:
  ai-tools config
  ai-tools config --json
  AI_TOOLS_TRANSFORM_FORMAT=webp ai-tools config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			cfg.Credentials = cfg.Credentials.Redacted()

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}

			unset := func(s string) string {
				if s == "" {
					return "-"
				}
				return s
			}
			itoa := strconv.Itoa

			a.printer.Header("Current Configuration")
			table := a.printer.NewTable("KEY", "VALUE")
			table.AddRow("transform.max_width", itoa(cfg.Transform.MaxWidth))
			table.AddRow("transform.max_height", itoa(cfg.Transform.MaxHeight))
			table.AddRow("transform.format", cfg.Transform.Format)
			table.AddRow("transform.quality", itoa(cfg.Transform.Quality))
			table.AddRow("transform.overlay_text", unset(cfg.Transform.OverlayText))
			table.AddRow("transform.overlay_opacity", itoa(cfg.Transform.OverlayOpacity))
			table.AddRow("transform.overlay_font_size", itoa(cfg.Transform.OverlayFontSize))
			table.AddRow("transform.overlay_font", unset(cfg.Transform.OverlayFont))
			table.AddRow("cache.size", itoa(cfg.Cache.Size))
			table.AddRow("watch.output_dir", unset(cfg.Watch.OutputDir))
			table.AddRow("watch.settle", cfg.Watch.Settle.String())
			table.AddRow("watch.overwrite", strconv.FormatBool(cfg.Watch.Overwrite))
			table.AddRow("speech.voice", cfg.Speech.Voice)
			table.AddRow("speech.model", cfg.Speech.Model)
			table.AddRow("speech.edge_url", unset(cfg.Speech.EdgeURL))
			table.AddRow("speech.direct_url", unset(cfg.Speech.DirectURL))
			table.AddRow("images.model", cfg.Images.Model)
			table.AddRow("images.size", fmt.Sprintf("%dx%d", cfg.Images.Width, cfg.Images.Height))
			table.AddRow("images.edge_url", unset(cfg.Images.EdgeURL))
			table.AddRow("images.direct_url", unset(cfg.Images.DirectURL))
			table.AddRow("qr.size", itoa(cfg.QR.Size))
			table.AddRow("qr.colors", cfg.QR.Foreground+" on "+cfg.QR.Background)
			table.AddRow("credentials.edge_token", unset(cfg.Credentials.EdgeToken))
			table.AddRow("credentials.elevenlabs_api_key", unset(cfg.Credentials.ElevenLabsKey))
			table.AddRow("credentials.runware_api_key", unset(cfg.Credentials.RunwareKey))
			table.AddRow("credentials.timeout", cfg.Credentials.Timeout.String())
			table.AddRow("logging.level", cfg.Logging.Level)
			table.AddRow("logging.format", cfg.Logging.Format)
			table.AddRow("output.colors", strconv.FormatBool(cfg.Output.Colors))
			return table.Render()
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}
