package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/ai-tools/internal/imaging"
	"github.com/ironsheep/ai-tools/internal/palette"
)

func newPaletteCmd(a *app) *cobra.Command {
	var (
		count   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "palette FILE",
		Short: "Show the dominant colours of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := imaging.NewImageCache(1).Load(args[0])
			if err != nil {
				return err
			}
			res, err := palette.Extract(img, count)
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			p := a.printer
			table := p.NewTable("COLOUR", "RGB", "HSL", "SHARE")
			for _, c := range res.Colors {
				table.AddRow(
					p.Swatch(c.Hex),
					fmt.Sprintf("%d, %d, %d", c.RGB.R, c.RGB.G, c.RGB.B),
					fmt.Sprintf("%d°, %d%%, %d%%", c.HSL.H, c.HSL.S, c.HSL.L),
					fmt.Sprintf("%.1f%%", c.Percentage),
				)
			}
			return table.Render()
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", palette.DefaultCount, "number of colours")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}
