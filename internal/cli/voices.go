package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/ai-tools/internal/provider"
)

func newVoicesCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the stock speech voices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			voices := provider.Voices()
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(voices)
			}

			p := a.printer
			table := p.NewTable("NAME", "ID", "")
			for _, v := range voices {
				mark := ""
				if strings.EqualFold(v.Name, a.cfg.Speech.Voice) || v.ID == a.cfg.Speech.Voice {
					mark = "default"
				}
				table.AddRow(p.Bold(v.Name), v.ID, p.Dim(mark))
			}
			return table.Render()
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}
