package cli

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/ai-tools/internal/qrcode"
)

func newQRCmd(a *app) *cobra.Command {
	var (
		out       string
		size      int
		fg, bg    string
		noBorder  bool
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "qr TEXT",
		Short: "Encode text or a URL as a QR code PNG",
		Long: `Encode TEXT as a QR code at medium error correction and write it as a
square PNG.

Examples:
  ai-tools qr https://example.com
  ai-tools qr "WIFI:T:WPA;S:home;P:secret;;" -o wifi.png --size 1024
  ai-tools qr hello --fg "#1E3A8A" --bg "#F8FAFC"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := qrcode.Options{
				Size:       size,
				Foreground: fg,
				Background: bg,
				NoBorder:   noBorder,
			}
			if !cmd.Flags().Changed("size") {
				opts.Size = a.cfg.QR.Size
			}
			if opts.Foreground == "" {
				opts.Foreground = a.cfg.QR.Foreground
			}
			if opts.Background == "" {
				opts.Background = a.cfg.QR.Background
			}

			data, err := qrcode.GenerateWithOptions(args[0], opts)
			if err != nil {
				return err
			}

			path, err := writeOutput(cmd, out, data, overwrite)
			if err != nil || path == "" {
				return err
			}
			a.printer.Success("Wrote %s (%dx%d)", path, qrcode.ClampSize(opts.Size), qrcode.ClampSize(opts.Size))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "qrcode.png", `output file, "-" for stdout`)
	cmd.Flags().IntVar(&size, "size", qrcode.DefaultSize, "edge length in pixels (64-4096)")
	cmd.Flags().StringVar(&fg, "fg", "", "module colour (default from config qr.foreground)")
	cmd.Flags().StringVar(&bg, "bg", "", "background colour (default from config qr.background)")
	cmd.Flags().BoolVar(&noBorder, "no-border", false, "omit the quiet zone")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing file")
	return cmd
}
