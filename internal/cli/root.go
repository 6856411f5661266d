// Package cli contains the ai-tools commands.
package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/ai-tools/internal/config"
	"github.com/ironsheep/ai-tools/internal/imaging"
	"github.com/ironsheep/ai-tools/internal/output"
	"github.com/ironsheep/ai-tools/internal/pipeline"
)

// BuildInfo is stamped at build time via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// app is the state shared by every command of one invocation.
type app struct {
	build BuildInfo

	cfgFile   string
	debug     bool
	colorMode string
	quiet     bool

	cfg     *config.Config
	logger  *zap.Logger
	printer *output.Printer
}

// NewRootCommand builds the ai-tools command tree.
func NewRootCommand(build BuildInfo) *cobra.Command {
	if build.Version == "" {
		build.Version = "dev"
	}
	a := &app{build: build, logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "ai-tools",
		Short: "Image, QR and speech tools with an MCP server",
		Long: `ai-tools resizes, watermarks and re-encodes images, extracts palettes,
generates QR codes, and calls speech and image generation providers.

The same tools are available to MCP clients through "ai-tools serve".

Example usage:
  ai-tools transform -o out --max-width 1920 --format webp *.jpg
  ai-tools watch ./inbox -o ./outbox --overlay "© Studio"
  ai-tools palette photo.png
  ai-tools qr https://example.com -o link.png
  ai-tools speak "Hello there" --voice Roger
  ai-tools serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is .ai-tools.yaml)")
	flags.BoolVar(&a.debug, "debug", false, "debug logging")
	flags.StringVar(&a.colorMode, "color", "auto", "color output: auto, always, or never")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "only print errors")

	rootCmd.AddCommand(
		newServeCmd(a),
		newTransformCmd(a),
		newWatchCmd(a),
		newPaletteCmd(a),
		newQRCmd(a),
		newSpeakCmd(a),
		newGenerateCmd(a),
		newVoicesCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// Execute runs the command tree with ctx, which commands use for
// cancellation.
func Execute(ctx context.Context, build BuildInfo) error {
	return NewRootCommand(build).ExecuteContext(ctx)
}

// init loads configuration and builds the logger and printer.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Logging, a.debug)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	a.logger = logger

	mode, err := output.ParseColorMode(a.colorMode)
	if err != nil {
		return err
	}
	a.printer = output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.PrinterOptions{
		ColorMode:    mode,
		ConfigColors: cfg.Output.Colors,
		Quiet:        a.quiet,
	})

	a.logger.Debug("configuration loaded",
		zap.Int("max_width", cfg.Transform.MaxWidth),
		zap.Int("max_height", cfg.Transform.MaxHeight),
		zap.String("format", cfg.Transform.Format),
		zap.Bool("speech_credentials", cfg.Credentials.HasSpeech()),
		zap.Bool("image_credentials", cfg.Credentials.HasImages()))
	return nil
}

// pipeline builds a pipeline drawing overlays in the font at fontPath, or in
// the configured font when fontPath is empty.
func (a *app) pipeline(fontPath string) (*pipeline.Pipeline, error) {
	opts := []pipeline.Option{pipeline.WithLogger(a.logger)}
	if fontPath == "" {
		fontPath = a.cfg.Transform.OverlayFont
	}
	if fontPath != "" {
		f, err := pipeline.LoadFont(fontPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithFont(f))
	}
	return pipeline.New(opts...), nil
}

// writeOutput writes data to the file at path, or to stdout when path is "-".
// It returns the path written, which is empty for stdout.
func writeOutput(cmd *cobra.Command, path string, data []byte, overwrite bool) (string, error) {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return "", err
	}
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	return imaging.WriteFile(dir, name, data, overwrite)
}
