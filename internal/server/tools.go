package server

import "github.com/ironsheep/ai-tools/internal/pipeline"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// formatNames lists the accepted output format names, including the jpg alias.
func formatNames() []string {
	var names []string
	for _, f := range pipeline.Formats() {
		names = append(names, string(f))
		if ext := f.Extension(); ext != string(f) {
			names = append(names, ext)
		}
	}
	return names
}

// transformProperties are the settings shared by the transform tools. Numbers
// may be sent as JSON numbers or numeric strings; out-of-range values are
// clamped.
func transformProperties() map[string]interface{} {
	return map[string]interface{}{
		"max_width": map[string]interface{}{
			"type":        []string{"integer", "string"},
			"description": "Maximum output width in pixels. 0 or omitted leaves width unbounded. Images are never upscaled.",
		},
		"max_height": map[string]interface{}{
			"type":        []string{"integer", "string"},
			"description": "Maximum output height in pixels. 0 or omitted leaves height unbounded.",
		},
		"format": map[string]interface{}{
			"type":        "string",
			"enum":        formatNames(),
			"description": "Output format. Default from configuration (png when unset).",
		},
		"quality": map[string]interface{}{
			"type":        []string{"integer", "string"},
			"description": "Encoder quality 1-100 for jpeg and webp; ignored for png.",
		},
		"overlay_text": map[string]interface{}{
			"type":        "string",
			"description": "Optional watermark drawn in the bottom-right corner.",
		},
		"overlay_opacity": map[string]interface{}{
			"type":        []string{"integer", "string"},
			"description": "Watermark opacity 0-100. Default 30.",
		},
		"overlay_font_size": map[string]interface{}{
			"type":        []string{"integer", "string"},
			"description": "Watermark font size in pixels. Default 32.",
		},
		"output_dir": map[string]interface{}{
			"type":        "string",
			"description": "Directory to write {name}.{ext} into. When omitted the image is returned as base64.",
		},
		"overwrite": map[string]interface{}{
			"type":        "boolean",
			"description": "Replace existing output files instead of adding a -N suffix.",
			"default":     false,
		},
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image information
		{
			Name:        "image_info",
			Description: "Load an image file and return its dimensions, sniffed format, alpha and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_fit_dimensions",
			Description: "Compute the size an image would be scaled to so that it fits within the bounds, preserving aspect ratio and never upscaling. Give either width and height, or the path of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Image file whose dimensions are used instead of width and height",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Source width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Source height in pixels",
					},
					"max_width": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum width, 0 for unbounded",
					},
					"max_height": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum height, 0 for unbounded",
					},
				},
			},
		},

		// Transform
		{
			Name:        "image_transform",
			Description: "Resize an image to fit within max_width x max_height, optionally add a text watermark, and re-encode it as png, jpeg or webp.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(transformProperties(), map[string]interface{}{
					"path": pathProperty,
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_transform_batch",
			Description: "Transform several images with the same settings, one after another. A failing image does not stop the rest; each item reports its own outcome.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(transformProperties(), map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to the image files, processed in order",
					},
				}),
				"required": []string{"paths", "output_dir"},
			},
		},

		// Colour
		{
			Name:        "image_palette",
			Description: "Extract the dominant colours of an image, most common first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colours to return (1-32). Default 6.",
						"default":     6,
					},
				},
				"required": []string{"path"},
			},
		},

		// QR
		{
			Name:        "qr_generate",
			Description: "Encode text or a URL as a QR code PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Text or URL to encode",
					},
					"size": map[string]interface{}{
						"type":        "integer",
						"description": "Edge length in pixels (64-4096). Default 512.",
					},
					"foreground": map[string]interface{}{
						"type":        "string",
						"description": "Module colour as #RRGGBB. Default #000000.",
					},
					"background": map[string]interface{}{
						"type":        "string",
						"description": "Background colour as #RRGGBB. Default #FFFFFF.",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory to write qrcode.png into. When omitted the PNG is returned as base64.",
					},
				},
				"required": []string{"text"},
			},
		},

		// Speech
		{
			Name:        "voices_list",
			Description: "List the stock voices available for speech synthesis.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "speech_synthesize",
			Description: "Convert text to MP3 speech. The edge proxy is tried first, then the direct API.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Text to speak",
					},
					"voice": map[string]interface{}{
						"type":        "string",
						"description": "Voice name or ID from voices_list. Default from configuration.",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory to write the MP3 into. When omitted the audio is returned as base64.",
					},
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Output file base name. Default \"speech\".",
					},
				},
				"required": []string{"text"},
			},
		},

		// Image generation
		{
			Name:        "image_generate",
			Description: "Generate an image from a text prompt and return its URL.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"prompt": map[string]interface{}{
						"type":        "string",
						"description": "Description of the image to generate",
					},
				},
				"required": []string{"prompt"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
