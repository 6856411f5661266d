package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/ai-tools/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		tf        transformFlags
		outDir    string
		settle    time.Duration
		overwrite bool
		existing  bool
	)
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Transform images as they arrive in a folder",
		Long: `Watch DIR and transform every image written into it with the given
settings. Results are written to the output directory, which must differ
from DIR. Files are processed one at a time after they stop changing.

Press Ctrl-C to stop.

Examples:
  ai-tools watch ./inbox -o ./outbox
  ai-tools watch ./inbox -o ./web --max-width 1600 -f webp --existing`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := tf.config(a)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = a.cfg.Watch.OutputDir
			}
			if outDir == "" {
				return errors.New("an output directory is required: use --out or set watch.output_dir")
			}
			if !cmd.Flags().Changed("settle") {
				settle = a.cfg.Watch.Settle
			}
			if !cmd.Flags().Changed("overwrite") {
				overwrite = a.cfg.Watch.Overwrite
			}

			pl, err := a.pipeline(tf.font)
			if err != nil {
				return err
			}

			p := a.printer
			w, err := watch.New(args[0], outDir, cfg,
				watch.WithLogger(a.logger),
				watch.WithPipeline(pl),
				watch.WithSettle(settle),
				watch.WithOverwrite(overwrite),
				watch.WithExisting(existing),
				watch.WithOnResult(func(ev watch.Event) {
					if ev.Err != nil {
						p.Error("%s: %v", ev.Source, ev.Err)
						return
					}
					p.Success("%s -> %s (%dx%d)", ev.Source, ev.Output, ev.Result.Width, ev.Result.Height)
				}),
			)
			if err != nil {
				return err
			}

			p.Info("Watching %s, writing %s to %s", w.Dir(), cfg.Format, w.OutputDir())
			return w.Run(cmd.Context())
		},
	}

	tf.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default from config watch.output_dir)")
	cmd.Flags().DurationVar(&settle, "settle", watch.DefaultSettle, "quiet period before a new file is processed")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing output files")
	cmd.Flags().BoolVar(&existing, "existing", false, "also process images already in DIR")
	return cmd
}
