package provider

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ironsheep/ai-tools/internal/config"
)

const (
	DefaultSpeechModel        = "eleven_turbo_v2_5"
	DefaultSpeechOutputFormat = "mp3_44100_128"
	elevenLabsBaseURL         = "https://api.elevenlabs.io/v1"
)

// ElevenLabs calls the ElevenLabs streaming text-to-speech API directly with
// the caller's API key.
type ElevenLabs struct {
	client
	apiKey       string
	model        string
	outputFormat string
}

// NewElevenLabs creates a direct ElevenLabs provider. Empty settings fall back
// to the turbo v2.5 model and 128 kbps mp3.
func NewElevenLabs(apiKey string, cfg config.SpeechConfig, opts ...Option) *ElevenLabs {
	base := cfg.DirectURL
	if base == "" {
		base = elevenLabsBaseURL
	}
	e := &ElevenLabs{
		client:       newClient("elevenlabs", base, opts),
		apiKey:       apiKey,
		model:        cfg.Model,
		outputFormat: cfg.OutputFormat,
	}
	if e.model == "" {
		e.model = DefaultSpeechModel
	}
	if e.outputFormat == "" {
		e.outputFormat = DefaultSpeechOutputFormat
	}
	return e
}

// Name implements SpeechSynthesizer
func (e *ElevenLabs) Name() string { return e.name }

type elevenLabsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize implements SpeechSynthesizer
func (e *ElevenLabs) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", e.name, ErrNoCredential)
	}
	q := url.Values{}
	q.Set("optimize_streaming_latency", "0")
	q.Set("output_format", e.outputFormat)
	endpoint := fmt.Sprintf("%s/text-to-speech/%s/stream?%s", e.baseURL, url.PathEscape(voiceID), q.Encode())

	audio, err := e.post(ctx, endpoint,
		map[string]string{"xi-api-key": e.apiKey, "Accept": "audio/mpeg"},
		elevenLabsRequest{Text: text, ModelID: e.model})
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%s: empty audio response", e.name)
	}
	return audio, nil
}

// ElevenLabsEdge calls a hosted proxy function that holds the ElevenLabs key
// server side. The proxy may be open; a bearer token is sent only when set.
type ElevenLabsEdge struct {
	client
	token string
	model string
}

// NewElevenLabsEdge creates a provider for the speech proxy at endpoint.
func NewElevenLabsEdge(endpoint, token, model string, opts ...Option) *ElevenLabsEdge {
	if model == "" {
		model = DefaultSpeechModel
	}
	return &ElevenLabsEdge{
		client: newClient("elevenlabs-edge", endpoint, opts),
		token:  token,
		model:  model,
	}
}

// Name implements SpeechSynthesizer
func (e *ElevenLabsEdge) Name() string { return e.name }

type elevenLabsEdgeRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
	ModelID string `json:"model_id"`
}

// Synthesize implements SpeechSynthesizer
func (e *ElevenLabsEdge) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if e.baseURL == "" {
		return nil, fmt.Errorf("%s: %w", e.name, ErrNoCredential)
	}
	var headers map[string]string
	if e.token != "" {
		headers = bearer(e.token)
	}
	audio, err := e.post(ctx, e.baseURL, headers,
		elevenLabsEdgeRequest{Text: text, VoiceID: voiceID, ModelID: e.model})
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%s: empty audio response", e.name)
	}
	// The proxy reports upstream failures as a 200 with a JSON body.
	if mt := mimetype.Detect(audio); mt.Is("application/json") || mt.Is("text/plain") {
		return nil, fmt.Errorf("%s: response is not audio: %s", e.name, truncate(string(audio), 200))
	}
	return audio, nil
}
