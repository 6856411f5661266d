package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/ironsheep/ai-tools/internal/config"
	"github.com/ironsheep/ai-tools/internal/pipeline"
	"github.com/ironsheep/ai-tools/internal/provider"
)

type stubSpeech struct {
	name  string
	audio []byte
	err   error
	text  string
	voice string
}

func (s *stubSpeech) Name() string { return s.name }

func (s *stubSpeech) Synthesize(_ context.Context, text, voiceID string) ([]byte, error) {
	s.text, s.voice = text, voiceID
	return s.audio, s.err
}

type stubImages struct {
	name string
	url  string
	err  error
}

func (s *stubImages) Name() string { return s.name }

func (s *stubImages) Generate(context.Context, string) (string, error) {
	return s.url, s.err
}

// createTestImageFile writes a solid PNG named name into a temp directory and
// returns its path.
func createTestImageFile(t *testing.T, name string, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Transform = config.TransformConfig{Format: "png"}
	opts = append([]Option{
		WithSpeech(&stubSpeech{name: "stub-speech", audio: []byte("ID3audio")}),
		WithImages(&stubImages{name: "stub-images", url: "https://img.example/1.png"}),
	}, opts...)
	return New(cfg, opts...)
}

// callTool runs a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{"name": name, "arguments": args}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatal(err)
	}
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// toolResult decodes the JSON text content of a successful tool call into v.
func toolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), v); err != nil {
		t.Fatalf("tool result is not JSON: %v", err)
	}
}

func toolError(t *testing.T, resp *MCPResponse) string {
	t.Helper()
	if resp.Error == nil {
		t.Fatal("expected an error response")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Code: got %d, want -32000", resp.Error.Code)
	}
	data, _ := resp.Error.Data.(string)
	return data
}

func TestHandleToolsCall_ImageInfo(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, "info.png", 100, 80, color.RGBA{255, 0, 0, 255})

	var info struct {
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		Format   string `json:"format"`
		MimeType string `json:"mime_type"`
	}
	toolResult(t, callTool(t, s, "image_info", map[string]interface{}{"path": path}), &info)

	if info.Width != 100 || info.Height != 80 {
		t.Errorf("got %dx%d, want 100x80", info.Width, info.Height)
	}
	if info.Format != "png" || info.MimeType != "image/png" {
		t.Errorf("got format %s (%s)", info.Format, info.MimeType)
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "image_info", map[string]interface{}{"path": "/nonexistent/file.png"})
	if msg := toolError(t, resp); msg == "" {
		t.Error("error data should describe the failure")
	}
}

func TestHandleToolsCall_FitDimensions(t *testing.T) {
	s := newTestServer(t)
	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	toolResult(t, callTool(t, s, "image_fit_dimensions", map[string]interface{}{
		"width": 4000, "height": 2000, "max_width": 1920, "max_height": 1080,
	}), &dims)

	if dims.Width != 1920 || dims.Height != 960 {
		t.Errorf("got %dx%d, want 1920x960", dims.Width, dims.Height)
	}

	toolError(t, callTool(t, s, "image_fit_dimensions", map[string]interface{}{"width": 0, "height": 10}))
	toolError(t, callTool(t, s, "image_fit_dimensions", map[string]interface{}{}))
}

func TestHandleToolsCall_FitDimensionsFromPath(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, "wide.png", 800, 400, color.White)

	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	toolResult(t, callTool(t, s, "image_fit_dimensions", map[string]interface{}{
		"path": path, "max_width": 200,
	}), &dims)
	if dims.Width != 200 || dims.Height != 100 {
		t.Errorf("got %dx%d, want 200x100", dims.Width, dims.Height)
	}
	if !s.cache.Contains(path) {
		t.Error("dimensions lookup should populate the image cache")
	}

	toolError(t, callTool(t, s, "image_fit_dimensions", map[string]interface{}{
		"path": filepath.Join(t.TempDir(), "missing.png"),
	}))
}

func TestHandleToolsCall_TransformBase64(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, "holiday.png", 400, 200, color.RGBA{0, 128, 255, 255})

	var res TransformResult
	toolResult(t, callTool(t, s, "image_transform", map[string]interface{}{
		"path":      path,
		"max_width": 100,
		"format":    "png",
	}), &res)

	if res.Filename != "holiday.png" {
		t.Errorf("Filename: got %s, want holiday.png", res.Filename)
	}
	if res.Width != 100 || res.Height != 50 {
		t.Errorf("got %dx%d, want 100x50", res.Width, res.Height)
	}
	if res.Path != "" {
		t.Errorf("no file should be written without output_dir, got %s", res.Path)
	}

	data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Errorf("encoded image is %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestHandleToolsCall_TransformToDir(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, "scan.png", 64, 64, color.White)
	outDir := t.TempDir()

	args := map[string]interface{}{
		"path":         path,
		"format":       "jpg",
		"quality":      "70",
		"overlay_text": "draft",
		"output_dir":   outDir,
	}
	var first, second TransformResult
	toolResult(t, callTool(t, s, "image_transform", args), &first)
	toolResult(t, callTool(t, s, "image_transform", args), &second)

	if first.Path != filepath.Join(outDir, "scan.jpg") {
		t.Errorf("first Path: got %s", first.Path)
	}
	if second.Path != filepath.Join(outDir, "scan-1.jpg") {
		t.Errorf("second Path: got %s", second.Path)
	}
	if first.MimeType != "image/jpeg" {
		t.Errorf("MimeType: got %s", first.MimeType)
	}
	if _, err := os.Stat(first.Path); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestHandleToolsCall_TransformInvalidNumber(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, "a.png", 10, 10, color.White)

	msg := toolError(t, callTool(t, s, "image_transform", map[string]interface{}{
		"path":    path,
		"quality": "high",
	}))
	if !bytes.Contains([]byte(msg), []byte("config error")) {
		t.Errorf("error should be a config error, got %q", msg)
	}
}

func TestHandleToolsCall_TransformCorrupt(t *testing.T) {
	s := newTestServer(t)
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	msg := toolError(t, callTool(t, s, "image_transform", map[string]interface{}{"path": path}))
	if !bytes.Contains([]byte(msg), []byte("decode error")) {
		t.Errorf("error should be a decode error, got %q", msg)
	}
}

func TestHandleToolsCall_TransformBatch(t *testing.T) {
	s := newTestServer(t)
	good := createTestImageFile(t, "one.png", 300, 150, color.White)
	corrupt := filepath.Join(t.TempDir(), "two.png")
	if err := os.WriteFile(corrupt, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(t.TempDir(), "three.png")
	last := createTestImageFile(t, "four.png", 20, 40, color.Black)
	outDir := t.TempDir()

	var res BatchResult
	toolResult(t, callTool(t, s, "image_transform_batch", map[string]interface{}{
		"paths":      []string{good, corrupt, missing, last},
		"max_height": 100,
		"format":     "webp",
		"output_dir": outDir,
	}), &res)

	if res.Succeeded != 2 || res.Failed != 2 {
		t.Errorf("got %d succeeded / %d failed, want 2/2", res.Succeeded, res.Failed)
	}
	if len(res.Items) != 4 {
		t.Fatalf("got %d items, want 4", len(res.Items))
	}

	want := []struct {
		source string
		ok     bool
		kind   string
	}{
		{good, true, ""},
		{corrupt, false, "decode error"},
		{missing, false, ""},
		{last, true, ""},
	}
	for i, w := range want {
		it := res.Items[i]
		if it.Source != w.source || it.OK != w.ok || it.Kind != w.kind {
			t.Errorf("item %d: got %+v, want source=%s ok=%v kind=%q", i, it, w.source, w.ok, w.kind)
		}
	}

	if r := res.Items[0].Result; r == nil || r.Width != 200 || r.Height != 100 || filepath.Base(r.Path) != "one.webp" {
		t.Errorf("first result: %+v", r)
	}
	if r := res.Items[3].Result; r == nil || r.Width != 20 || r.Height != 40 {
		t.Errorf("last result should not be upscaled: %+v", r)
	}
}

func TestHandleToolsCall_TransformBatchRequiresOutputDir(t *testing.T) {
	s := newTestServer(t)
	toolError(t, callTool(t, s, "image_transform_batch", map[string]interface{}{"paths": []string{"/a.png"}}))
	toolError(t, callTool(t, s, "image_transform_batch", map[string]interface{}{"output_dir": t.TempDir()}))
}

func TestHandleToolsCall_Palette(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, "red.png", 32, 32, color.RGBA{255, 0, 0, 255})

	var res struct {
		Colors []struct {
			Hex        string  `json:"hex"`
			Percentage float64 `json:"percentage"`
		} `json:"colors"`
	}
	toolResult(t, callTool(t, s, "image_palette", map[string]interface{}{"path": path, "count": 3}), &res)

	if len(res.Colors) != 1 {
		t.Fatalf("got %d colours, want 1", len(res.Colors))
	}
	if res.Colors[0].Hex != "#FF0000" || res.Colors[0].Percentage != 100 {
		t.Errorf("got %+v", res.Colors[0])
	}
}

func TestHandleToolsCall_QRGenerate(t *testing.T) {
	s := newTestServer(t)

	var res QRResult
	toolResult(t, callTool(t, s, "qr_generate", map[string]interface{}{"text": "https://example.com", "size": 256}), &res)

	data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 256 {
		t.Errorf("QR width: got %d, want 256", img.Bounds().Dx())
	}

	outDir := t.TempDir()
	toolResult(t, callTool(t, s, "qr_generate", map[string]interface{}{"text": "hi", "output_dir": outDir}), &res)
	if res.Path != filepath.Join(outDir, "qrcode.png") {
		t.Errorf("Path: got %s", res.Path)
	}

	toolError(t, callTool(t, s, "qr_generate", map[string]interface{}{"text": "  "}))
}

func TestHandleToolsCall_VoicesList(t *testing.T) {
	s := newTestServer(t)
	var res struct {
		Default string           `json:"default"`
		Voices  []provider.Voice `json:"voices"`
	}
	toolResult(t, callTool(t, s, "voices_list", map[string]interface{}{}), &res)

	if len(res.Voices) != len(provider.Voices()) {
		t.Errorf("got %d voices", len(res.Voices))
	}
	if res.Default != "Aria" {
		t.Errorf("Default: got %s, want Aria", res.Default)
	}
}

func TestHandleToolsCall_SpeechSynthesize(t *testing.T) {
	sp := &stubSpeech{name: "stub-speech", audio: []byte("ID3audio")}
	s := newTestServer(t, WithSpeech(sp))

	var res SpeechResult
	toolResult(t, callTool(t, s, "speech_synthesize", map[string]interface{}{"text": "hello", "voice": "Roger"}), &res)

	if res.Provider != "stub-speech" {
		t.Errorf("Provider: got %s", res.Provider)
	}
	if sp.voice != provider.ResolveVoiceID("Roger") || sp.text != "hello" {
		t.Errorf("provider got text=%q voice=%q", sp.text, sp.voice)
	}
	audio, _ := base64.StdEncoding.DecodeString(res.AudioBase64)
	if string(audio) != "ID3audio" {
		t.Errorf("audio: got %q", audio)
	}

	outDir := t.TempDir()
	toolResult(t, callTool(t, s, "speech_synthesize", map[string]interface{}{
		"text": "hello", "output_dir": outDir, "name": "greeting.txt",
	}), &res)
	if res.Path != filepath.Join(outDir, "greeting.mp3") {
		t.Errorf("Path: got %s", res.Path)
	}
}

func TestHandleToolsCall_SpeechChainReportsProvider(t *testing.T) {
	chain := provider.NewSpeech(zap.NewNop(),
		&stubSpeech{name: "edge", err: errors.New("edge down")},
		&stubSpeech{name: "direct", audio: []byte("ID3")},
	)
	s := newTestServer(t, WithSpeech(chain))

	var res SpeechResult
	toolResult(t, callTool(t, s, "speech_synthesize", map[string]interface{}{"text": "hi"}), &res)
	if res.Provider != "direct" {
		t.Errorf("Provider: got %s, want direct", res.Provider)
	}
}

func TestHandleToolsCall_SpeechFailure(t *testing.T) {
	s := newTestServer(t, WithSpeech(&stubSpeech{name: "x", err: provider.ErrNoCredential}))
	toolError(t, callTool(t, s, "speech_synthesize", map[string]interface{}{"text": "hi"}))
}

func TestHandleToolsCall_ImageGenerate(t *testing.T) {
	s := newTestServer(t)
	var res map[string]string
	toolResult(t, callTool(t, s, "image_generate", map[string]interface{}{"prompt": "a lighthouse"}), &res)

	if res["url"] != "https://img.example/1.png" || res["provider"] != "stub-images" {
		t.Errorf("got %v", res)
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := newTestServer(t)
	msg := toolError(t, callTool(t, s, "image_crop", map[string]interface{}{}))
	if msg != "unknown tool: image_crop" {
		t.Errorf("got %q", msg)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}

func TestNumberArg(t *testing.T) {
	tests := map[string]string{
		`12`:     "12",
		`"12"`:   "12",
		`1.5`:    "1.5",
		`"wide"`: "wide",
		`null`:   "",
	}
	for in, want := range tests {
		var n numberArg
		if err := json.Unmarshal([]byte(in), &n); err != nil {
			t.Errorf("%s: %v", in, err)
			continue
		}
		if string(n) != want {
			t.Errorf("%s: got %q, want %q", in, n, want)
		}
	}

	var n numberArg
	if err := json.Unmarshal([]byte(`true`), &n); err == nil {
		t.Error("bool should be rejected")
	}
}

func TestPipelineConfigUsesDefaults(t *testing.T) {
	cfg := config.Default()
	s := New(cfg)

	pc, err := s.pipelineConfig(transformOptions{MaxWidth: "640"})
	if err != nil {
		t.Fatal(err)
	}
	if pc.MaxWidth != 640 || pc.MaxHeight != cfg.Transform.MaxHeight {
		t.Errorf("got %dx%d", pc.MaxWidth, pc.MaxHeight)
	}
	if pc.Format != pipeline.FormatJPEG {
		t.Errorf("Format: got %s, want jpeg from defaults", pc.Format)
	}
}
