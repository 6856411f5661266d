package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/ai-tools/internal/provider"
)

func newSpeakCmd(a *app) *cobra.Command {
	var (
		voice     string
		out       string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "speak TEXT",
		Short: "Convert text to MP3 speech",
		Long: `Synthesize TEXT with the configured speech providers. The edge proxy
is tried first, then the ElevenLabs API; a provider without credentials is
skipped.

Examples:
  ai-tools speak "Welcome back"
  ai-tools speak "Good morning" --voice Roger -o morning.mp3
  ai-tools speak "Hi" -o - | mpv -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if voice == "" {
				voice = a.cfg.Speech.Voice
			}
			if _, ok := provider.LookupVoice(voice); !ok {
				a.printer.Warning("%q is not a stock voice, sending it as a voice ID", voice)
			}

			chain := provider.DefaultSpeech(a.cfg, a.logger)
			audio, used, err := chain.SynthesizeWith(cmd.Context(), args[0], provider.ResolveVoiceID(voice))
			if err != nil {
				return err
			}

			if out != "-" && !strings.HasSuffix(strings.ToLower(out), ".mp3") {
				out += ".mp3"
			}
			path, err := writeOutput(cmd, out, audio, overwrite)
			if err != nil || path == "" {
				return err
			}
			a.printer.Success("Wrote %s (%d bytes via %s)", path, len(audio), used)
			return nil
		},
	}
	cmd.Flags().StringVar(&voice, "voice", "", "voice name or ID (default from config speech.voice)")
	cmd.Flags().StringVarP(&out, "out", "o", "speech.mp3", `output file, "-" for stdout`)
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing file")
	return cmd
}
