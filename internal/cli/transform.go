package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/ai-tools/internal/imaging"
	"github.com/ironsheep/ai-tools/internal/pipeline"
)

// transformFlags are the pipeline settings shared by transform and watch.
// Numbers are taken as strings so that out-of-range values can be clamped
// and non-numbers reported as config errors.
type transformFlags struct {
	maxWidth    string
	maxHeight   string
	format      string
	quality     string
	overlay     string
	opacity     string
	overlaySize string
	font        string
}

func (f *transformFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.maxWidth, "max-width", "", "maximum output width in pixels (0 for unbounded)")
	fs.StringVar(&f.maxHeight, "max-height", "", "maximum output height in pixels (0 for unbounded)")
	fs.StringVarP(&f.format, "format", "f", "", "output format: "+formatList())
	fs.StringVar(&f.quality, "quality", "", "jpeg/webp quality 1-100")
	fs.StringVar(&f.overlay, "overlay", "", "watermark text drawn bottom-right")
	fs.StringVar(&f.opacity, "overlay-opacity", "", "watermark opacity 0-100")
	fs.StringVar(&f.overlaySize, "overlay-size", "", "watermark font size in pixels")
	fs.StringVar(&f.font, "overlay-font", "", "TrueType or OpenType font file for the watermark")
}

func formatList() string {
	formats := pipeline.Formats()
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// config merges the flags over the configured transform defaults.
func (f *transformFlags) config(a *app) (pipeline.Config, error) {
	return pipeline.ParseConfig(a.cfg.Transform.Raw().Merge(pipeline.RawConfig{
		MaxWidth:        f.maxWidth,
		MaxHeight:       f.maxHeight,
		Format:          f.format,
		Quality:         f.quality,
		OverlayText:     f.overlay,
		OverlayOpacity:  f.opacity,
		OverlayFontSize: f.overlaySize,
	}))
}

type transformItem struct {
	Source string `json:"source"`
	Output string `json:"output,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Bytes  int    `json:"bytes,omitempty"`
	Error  string `json:"error,omitempty"`
}

func newTransformCmd(a *app) *cobra.Command {
	var (
		tf        transformFlags
		outDir    string
		overwrite bool
		jsonOut   bool
	)
	cmd := &cobra.Command{
		Use:   "transform FILE...",
		Short: "Resize, watermark and re-encode images",
		Long: `Transform each FILE in order: fit it within the maximum dimensions
(never upscaling), draw the optional watermark, and encode it in the chosen
format. Outputs are named {name}.{ext} in the output directory; an existing
file gets a -N suffix unless --overwrite is set.

A file that fails does not stop the others. The command exits non-zero when
any file failed.

Examples:
  ai-tools transform photo.jpg                          # use configured defaults
  ai-tools transform -o web --max-width 1200 -f webp *.png
  ai-tools transform --overlay "© Studio" --quality 80 shot.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := tf.config(a)
			if err != nil {
				return err
			}
			pl, err := a.pipeline(tf.font)
			if err != nil {
				return err
			}

			items := make([]transformItem, len(args))
			var srcs []pipeline.Source
			var index []int
			for i, path := range args {
				items[i].Source = path
				src, err := imaging.ReadSource(path)
				if err != nil {
					items[i].Error = err.Error()
					continue
				}
				srcs = append(srcs, src)
				index = append(index, i)
			}

			results := pl.TransformBatch(cmd.Context(), srcs, cfg)
			for j, r := range results {
				it := &items[index[j]]
				if r.Err != nil {
					it.Error = r.Err.Error()
					continue
				}
				out, err := imaging.WriteResult(outDir, r.Result, overwrite)
				if err != nil {
					it.Error = err.Error()
					continue
				}
				it.Output = out
				it.Width, it.Height, it.Bytes = r.Result.Width, r.Result.Height, len(r.Result.Data)
			}

			failed := 0
			for _, it := range items {
				if it.Error != "" {
					failed++
				}
			}
			a.logger.Info("transform finished",
				zap.Int("files", len(items)),
				zap.Int("failed", failed))

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(items); err != nil {
					return err
				}
			} else if err := printTransformItems(a, items); err != nil {
				return err
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d images failed", failed, len(items))
			}
			return nil
		},
	}

	tf.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing output files")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func printTransformItems(a *app, items []transformItem) error {
	p := a.printer
	table := p.NewTable("", "SOURCE", "OUTPUT", "SIZE")
	for _, it := range items {
		if it.Error != "" {
			table.AddRow(p.StatusBadge(false), filepath.Base(it.Source), p.Dim(it.Error), "")
			continue
		}
		table.AddRow(p.StatusBadge(true), filepath.Base(it.Source), it.Output, fmt.Sprintf("%dx%d", it.Width, it.Height))
	}
	return table.Render()
}
