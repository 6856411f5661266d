package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/ai-tools/internal/config"
)

const (
	DefaultImageModel = "runware:100@1"
	DefaultImageSize  = 1024
	runwareBaseURL    = "https://api.runware.ai/v1"
)

// Runware calls the Runware task API directly with the caller's API key.
type Runware struct {
	client
	apiKey string
	model  string
	width  int
	height int
	newID  func() string
}

// NewRunware creates a direct Runware provider. Empty settings fall back to
// the runware:100@1 model at 1024×1024.
func NewRunware(apiKey string, cfg config.ImagesConfig, opts ...Option) *Runware {
	base := cfg.DirectURL
	if base == "" {
		base = runwareBaseURL
	}
	r := &Runware{
		client: newClient("runware", base, opts),
		apiKey: apiKey,
		model:  cfg.Model,
		width:  cfg.Width,
		height: cfg.Height,
		newID:  func() string { return uuid.NewString() },
	}
	if r.model == "" {
		r.model = DefaultImageModel
	}
	if r.width <= 0 {
		r.width = DefaultImageSize
	}
	if r.height <= 0 {
		r.height = DefaultImageSize
	}
	return r
}

// Name implements ImageGenerator
func (r *Runware) Name() string { return r.name }

type runwareAuthTask struct {
	TaskType string `json:"taskType"`
	APIKey   string `json:"apiKey"`
}

type runwareInferenceTask struct {
	TaskType       string `json:"taskType"`
	TaskUUID       string `json:"taskUUID"`
	PositivePrompt string `json:"positivePrompt"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Model          string `json:"model"`
	NumberResults  int    `json:"numberResults"`
}

type runwareResponse struct {
	Data []struct {
		TaskType string `json:"taskType"`
		TaskUUID string `json:"taskUUID"`
		ImageURL string `json:"imageURL"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Generate implements ImageGenerator
func (r *Runware) Generate(ctx context.Context, prompt string) (string, error) {
	if r.apiKey == "" {
		return "", fmt.Errorf("%s: %w", r.name, ErrNoCredential)
	}
	taskID := r.newID()
	tasks := []interface{}{
		runwareAuthTask{TaskType: "authentication", APIKey: r.apiKey},
		runwareInferenceTask{
			TaskType:       "imageInference",
			TaskUUID:       taskID,
			PositivePrompt: prompt,
			Width:          r.width,
			Height:         r.height,
			Model:          r.model,
			NumberResults:  1,
		},
	}

	body, err := r.post(ctx, r.baseURL, nil, tasks)
	if err != nil {
		return "", err
	}

	var resp runwareResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%s: failed to decode response: %w", r.name, err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.Message
		}
		return "", fmt.Errorf("%s: %s", r.name, strings.Join(msgs, "; "))
	}
	for _, d := range resp.Data {
		if d.TaskType == "imageInference" && d.ImageURL != "" {
			if d.TaskUUID != "" && d.TaskUUID != taskID {
				r.logger.Debug("result for another task ignored", zap.String("task", d.TaskUUID))
				continue
			}
			return d.ImageURL, nil
		}
	}
	return "", fmt.Errorf("%s: no image in response", r.name)
}

// RunwareEdge calls a hosted proxy function that holds the Runware key
// server side. The caller authenticates with a bearer token.
type RunwareEdge struct {
	client
	token string
}

// NewRunwareEdge creates a provider for the image proxy at endpoint.
func NewRunwareEdge(endpoint, token string, opts ...Option) *RunwareEdge {
	return &RunwareEdge{
		client: newClient("runware-edge", endpoint, opts),
		token:  token,
	}
}

// Name implements ImageGenerator
func (r *RunwareEdge) Name() string { return r.name }

type runwareEdgeRequest struct {
	PositivePrompt string `json:"positivePrompt"`
}

type runwareEdgeResponse struct {
	ImageURL string `json:"imageURL"`
	Error    string `json:"error"`
}

// Generate implements ImageGenerator
func (r *RunwareEdge) Generate(ctx context.Context, prompt string) (string, error) {
	if r.baseURL == "" || r.token == "" {
		return "", fmt.Errorf("%s: %w", r.name, ErrNoCredential)
	}
	body, err := r.post(ctx, r.baseURL, bearer(r.token), runwareEdgeRequest{PositivePrompt: prompt})
	if err != nil {
		return "", err
	}

	var resp runwareEdgeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%s: failed to decode response: %w", r.name, err)
	}
	if resp.ImageURL == "" {
		if resp.Error != "" {
			return "", fmt.Errorf("%s: %s", r.name, resp.Error)
		}
		return "", fmt.Errorf("%s: no image in response", r.name)
	}
	return resp.ImageURL, nil
}
