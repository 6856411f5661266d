package provider

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ironsheep/ai-tools/internal/config"
)

// Speech is an ordered chain of speech synthesizers. It is itself a
// SpeechSynthesizer.
type Speech struct {
	providers []SpeechSynthesizer
	logger    *zap.Logger
}

// NewSpeech builds a chain that tries providers in the given order.
func NewSpeech(logger *zap.Logger, providers ...SpeechSynthesizer) *Speech {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Speech{providers: providers, logger: logger}
}

// Name lists the chain members.
func (s *Speech) Name() string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, ",")
}

// Synthesize returns the audio of the first provider that succeeds.
func (s *Speech) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	audio, _, err := s.SynthesizeWith(ctx, text, voiceID)
	return audio, err
}

// SynthesizeWith is Synthesize that also reports which provider answered.
func (s *Speech) SynthesizeWith(ctx context.Context, text, voiceID string) ([]byte, string, error) {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(voiceID) == "" {
		return nil, "", ErrEmptyInput
	}
	audio, name, err := firstSuccess(ctx, s.logger, s.providers, func(p SpeechSynthesizer) ([]byte, error) {
		return p.Synthesize(ctx, text, voiceID)
	})
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("speech synthesized", zap.String("provider", name), zap.Int("bytes", len(audio)))
	return audio, name, nil
}

// Images is an ordered chain of image generators. It is itself an
// ImageGenerator.
type Images struct {
	providers []ImageGenerator
	logger    *zap.Logger
}

// NewImages builds a chain that tries providers in the given order.
func NewImages(logger *zap.Logger, providers ...ImageGenerator) *Images {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Images{providers: providers, logger: logger}
}

// Name lists the chain members.
func (i *Images) Name() string {
	names := make([]string, len(i.providers))
	for n, p := range i.providers {
		names[n] = p.Name()
	}
	return strings.Join(names, ",")
}

// Generate returns the image URL of the first provider that succeeds.
func (i *Images) Generate(ctx context.Context, prompt string) (string, error) {
	u, _, err := i.GenerateWith(ctx, prompt)
	return u, err
}

// GenerateWith is Generate that also reports which provider answered.
func (i *Images) GenerateWith(ctx context.Context, prompt string) (string, string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", "", ErrEmptyInput
	}
	u, name, err := firstSuccess(ctx, i.logger, i.providers, func(p ImageGenerator) (string, error) {
		return p.Generate(ctx, prompt)
	})
	if err != nil {
		return "", "", err
	}
	i.logger.Info("image generated", zap.String("provider", name), zap.String("url", u))
	return u, name, nil
}

// DefaultSpeech returns the edge proxy followed by the direct ElevenLabs API.
func DefaultSpeech(cfg *config.Config, logger *zap.Logger) *Speech {
	opts := []Option{WithLogger(logger), WithTimeout(cfg.Credentials.Timeout)}
	return NewSpeech(logger,
		NewElevenLabsEdge(cfg.Speech.EdgeURL, cfg.Credentials.EdgeToken, cfg.Speech.Model, opts...),
		NewElevenLabs(cfg.Credentials.ElevenLabsKey, cfg.Speech, opts...),
	)
}

// DefaultImages returns the edge proxy followed by the direct Runware API.
func DefaultImages(cfg *config.Config, logger *zap.Logger) *Images {
	opts := []Option{WithLogger(logger), WithTimeout(cfg.Credentials.Timeout)}
	return NewImages(logger,
		NewRunwareEdge(cfg.Images.EdgeURL, cfg.Credentials.EdgeToken, opts...),
		NewRunware(cfg.Credentials.RunwareKey, cfg.Images, opts...),
	)
}
