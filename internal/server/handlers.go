package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ironsheep/ai-tools/internal/imaging"
	"github.com/ironsheep/ai-tools/internal/palette"
	"github.com/ironsheep/ai-tools/internal/pipeline"
	"github.com/ironsheep/ai-tools/internal/provider"
	"github.com/ironsheep/ai-tools/internal/qrcode"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_info", "image_transform").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", zap.String("tool", params.Name), zap.Error(err))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image information
	case "image_info":
		return s.handleImageInfo(args)
	case "image_fit_dimensions":
		return s.handleFitDimensions(args)

	// Transform
	case "image_transform":
		return s.handleTransform(ctx, args)
	case "image_transform_batch":
		return s.handleTransformBatch(ctx, args)

	// Colour and QR
	case "image_palette":
		return s.handlePalette(args)
	case "qr_generate":
		return s.handleQRGenerate(args)

	// Remote providers
	case "voices_list":
		return s.handleVoicesList()
	case "speech_synthesize":
		return s.handleSpeechSynthesize(ctx, args)
	case "image_generate":
		return s.handleImageGenerate(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{
		Code:    code,
		Message: message,
	}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// numberArg accepts a JSON number or a string. Strings are kept as typed so
// that non-numeric input is reported as a config error by the pipeline.
type numberArg string

func (n *numberArg) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = numberArg(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("expected a number, got %s", b)
	}
	*n = numberArg(num)
	return nil
}

// === Image information ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	return imaging.LoadImageInfo(s.cache, s.logCached(a.Path))
}

// logCached notes whether path will be served from the decoded-image cache.
func (s *Server) logCached(path string) string {
	s.logger.Debug("image lookup",
		zap.String("path", path),
		zap.Bool("cached", s.cache.Contains(path)),
		zap.Int("cache_entries", s.cache.Len()))
	return path
}

type fitArgs struct {
	Path      string `json:"path"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	MaxWidth  int    `json:"max_width"`
	MaxHeight int    `json:"max_height"`
}

func (s *Server) handleFitDimensions(args json.RawMessage) (interface{}, error) {
	var a fitArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path != "" {
		dims, err := imaging.GetDimensions(s.cache, s.logCached(a.Path))
		if err != nil {
			return nil, err
		}
		a.Width, a.Height = dims.Width, dims.Height
	}
	if a.Width <= 0 || a.Height <= 0 {
		return nil, fmt.Errorf("width and height must be positive, got %dx%d", a.Width, a.Height)
	}
	w, h := pipeline.FitDimensions(a.Width, a.Height, a.MaxWidth, a.MaxHeight)
	return &imaging.DimensionsResult{Width: w, Height: h}, nil
}

// === Transform ===

type transformOptions struct {
	MaxWidth        numberArg `json:"max_width"`
	MaxHeight       numberArg `json:"max_height"`
	Format          string    `json:"format"`
	Quality         numberArg `json:"quality"`
	OverlayText     string    `json:"overlay_text"`
	OverlayOpacity  numberArg `json:"overlay_opacity"`
	OverlayFontSize numberArg `json:"overlay_font_size"`
	OutputDir       string    `json:"output_dir"`
	Overwrite       bool      `json:"overwrite"`
}

// pipelineConfig merges the arguments over the configured defaults.
func (s *Server) pipelineConfig(o transformOptions) (pipeline.Config, error) {
	return pipeline.ParseConfig(s.cfg.Transform.Raw().Merge(pipeline.RawConfig{
		MaxWidth:        string(o.MaxWidth),
		MaxHeight:       string(o.MaxHeight),
		Format:          o.Format,
		Quality:         string(o.Quality),
		OverlayText:     o.OverlayText,
		OverlayOpacity:  string(o.OverlayOpacity),
		OverlayFontSize: string(o.OverlayFontSize),
	}))
}

// TransformResult describes one transformed image. Either Path or
// ImageBase64 is set, depending on whether an output directory was given.
type TransformResult struct {
	Source      string `json:"source"`
	Filename    string `json:"filename"`
	Path        string `json:"path,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Bytes       int    `json:"bytes"`
}

func (s *Server) transformResult(src string, res *pipeline.Result, o transformOptions) (*TransformResult, error) {
	out := &TransformResult{
		Source:   src,
		Filename: res.Filename(),
		MimeType: res.Format.MimeType(),
		Width:    res.Width,
		Height:   res.Height,
		Bytes:    len(res.Data),
	}
	if o.OutputDir == "" {
		out.ImageBase64 = base64.StdEncoding.EncodeToString(res.Data)
		return out, nil
	}
	path, err := imaging.WriteResult(o.OutputDir, res, o.Overwrite)
	if err != nil {
		return nil, err
	}
	out.Path = path
	return out, nil
}

type transformArgs struct {
	Path string `json:"path"`
	transformOptions
}

func (s *Server) handleTransform(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a transformArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	cfg, err := s.pipelineConfig(a.transformOptions)
	if err != nil {
		return nil, err
	}

	src, err := imaging.ReadSource(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := s.pipeline.TransformOne(ctx, src, cfg)
	if err != nil {
		return nil, err
	}
	return s.transformResult(a.Path, res, a.transformOptions)
}

type transformBatchArgs struct {
	Paths []string `json:"paths"`
	transformOptions
}

// BatchItem is the outcome of one batch entry.
type BatchItem struct {
	Source string           `json:"source"`
	OK     bool             `json:"ok"`
	Result *TransformResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
	Kind   string           `json:"kind,omitempty"`
}

// BatchResult lists every item in input order.
type BatchResult struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

func (br *BatchResult) add(item BatchItem) {
	if item.OK {
		br.Succeeded++
	} else {
		br.Failed++
	}
	br.Items = append(br.Items, item)
}

func failedItem(src string, err error) BatchItem {
	item := BatchItem{Source: src, Error: err.Error()}
	if k := pipeline.KindOf(err); k != 0 {
		item.Kind = k.String()
	}
	return item
}

func (s *Server) handleTransformBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a transformBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.New("paths must not be empty")
	}
	if a.OutputDir == "" {
		return nil, errors.New("output_dir is required")
	}
	cfg, err := s.pipelineConfig(a.transformOptions)
	if err != nil {
		return nil, err
	}

	// Unreadable files are reported at their position without stopping the rest.
	readErrs := make(map[int]error)
	var srcs []pipeline.Source
	var index []int
	for i, p := range a.Paths {
		src, err := imaging.ReadSource(p)
		if err != nil {
			readErrs[i] = err
			continue
		}
		srcs = append(srcs, src)
		index = append(index, i)
	}

	items := s.pipeline.TransformBatch(ctx, srcs, cfg)
	byPos := make(map[int]pipeline.Item, len(items))
	for j, it := range items {
		byPos[index[j]] = it
	}

	out := &BatchResult{Items: make([]BatchItem, 0, len(a.Paths))}
	for i, p := range a.Paths {
		if err, ok := readErrs[i]; ok {
			out.add(failedItem(p, err))
			continue
		}
		it := byPos[i]
		if it.Err != nil {
			out.add(failedItem(p, it.Err))
			continue
		}
		tr, err := s.transformResult(p, it.Result, a.transformOptions)
		if err != nil {
			out.add(failedItem(p, err))
			continue
		}
		out.add(BatchItem{Source: p, OK: true, Result: tr})
	}

	s.logger.Info("batch transformed",
		zap.Int("succeeded", out.Succeeded),
		zap.Int("failed", out.Failed))
	return out, nil
}

// === Colour and QR ===

type paletteArgs struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

func (s *Server) handlePalette(args json.RawMessage) (interface{}, error) {
	var a paletteArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(s.logCached(a.Path))
	if err != nil {
		return nil, err
	}
	return palette.Extract(img, a.Count)
}

type qrArgs struct {
	Text       string `json:"text"`
	Size       int    `json:"size"`
	Foreground string `json:"foreground"`
	Background string `json:"background"`
	OutputDir  string `json:"output_dir"`
}

// QRResult is a generated QR code.
type QRResult struct {
	Size        int    `json:"size"`
	Path        string `json:"path,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type"`
}

func (s *Server) handleQRGenerate(args json.RawMessage) (interface{}, error) {
	var a qrArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts := qrcode.Options{
		Size:       a.Size,
		Foreground: a.Foreground,
		Background: a.Background,
	}
	if opts.Size == 0 {
		opts.Size = s.cfg.QR.Size
	}
	if opts.Foreground == "" {
		opts.Foreground = s.cfg.QR.Foreground
	}
	if opts.Background == "" {
		opts.Background = s.cfg.QR.Background
	}

	data, err := qrcode.GenerateWithOptions(a.Text, opts)
	if err != nil {
		return nil, err
	}
	out := &QRResult{Size: qrcode.ClampSize(opts.Size), MimeType: "image/png"}
	if a.OutputDir == "" {
		out.ImageBase64 = base64.StdEncoding.EncodeToString(data)
		return out, nil
	}
	path, err := imaging.WriteFile(a.OutputDir, "qrcode.png", data, false)
	if err != nil {
		return nil, err
	}
	out.Path = path
	return out, nil
}

// === Remote providers ===

func (s *Server) handleVoicesList() (interface{}, error) {
	return map[string]interface{}{
		"default": s.cfg.Speech.Voice,
		"voices":  provider.Voices(),
	}, nil
}

type speechArgs struct {
	Text      string `json:"text"`
	Voice     string `json:"voice"`
	OutputDir string `json:"output_dir"`
	Name      string `json:"name"`
}

// SpeechResult is synthesized audio.
type SpeechResult struct {
	Provider    string `json:"provider,omitempty"`
	Voice       string `json:"voice"`
	Path        string `json:"path,omitempty"`
	AudioBase64 string `json:"audio_base64,omitempty"`
	MimeType    string `json:"mime_type"`
	Bytes       int    `json:"bytes"`
}

func (s *Server) handleSpeechSynthesize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a speechArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	voice := a.Voice
	if voice == "" {
		voice = s.cfg.Speech.Voice
	}
	voiceID := provider.ResolveVoiceID(voice)

	var (
		audio []byte
		used  string
		err   error
	)
	if chain, ok := s.speech.(*provider.Speech); ok {
		audio, used, err = chain.SynthesizeWith(ctx, a.Text, voiceID)
	} else {
		audio, err = s.speech.Synthesize(ctx, a.Text, voiceID)
		used = s.speech.Name()
	}
	if err != nil {
		return nil, err
	}

	out := &SpeechResult{Provider: used, Voice: voiceID, MimeType: "audio/mpeg", Bytes: len(audio)}
	if a.OutputDir == "" {
		out.AudioBase64 = base64.StdEncoding.EncodeToString(audio)
		return out, nil
	}
	name := strings.TrimSpace(a.Name)
	if name == "" {
		name = "speech"
	}
	path, err := imaging.WriteFile(a.OutputDir, pipeline.BaseName(name)+".mp3", audio, false)
	if err != nil {
		return nil, err
	}
	out.Path = path
	return out, nil
}

type generateArgs struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleImageGenerate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a generateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var (
		url  string
		used string
		err  error
	)
	if chain, ok := s.images.(*provider.Images); ok {
		url, used, err = chain.GenerateWith(ctx, a.Prompt)
	} else {
		url, err = s.images.Generate(ctx, a.Prompt)
		used = s.images.Name()
	}
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"url":      url,
		"provider": used,
	}, nil
}
