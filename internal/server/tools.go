package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the schema of the scan path argument shared by most tools.
func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the scanned image file",
	}
}

// hatchesProperty is the schema of a list of stroke corner dots.
func hatchesProperty(description string) map[string]interface{} {
	dot := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "number"},
			"y": map[string]interface{}{"type": "number"},
		},
		"required": []string{"x", "y"},
	}
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"left":   dot,
				"right":  dot,
				"top":    dot,
				"bottom": dot,
			},
			"required": []string{"left", "right", "top", "bottom"},
		},
	}
}

func strategyProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"width_ratio", "height_normalized"},
		"description": "Grouping heuristic for multi-digit numbers (default: from configuration, width_ratio)",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load a scan and return its dimensions, format and file size. The scan stays cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of a scan.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Stroke Detection
		{
			Name:        "grid_detect_hatches",
			Description: "Find the pen strokes of a handwritten digit grid. Returns each stroke's left, right, top and bottom corner pixels in reading order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"ink_threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Gray level (1-255) under which a pixel is ink (default: 128)",
					},
					"min_area": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum stroke size in pixels; smaller specks are ignored (default: 20)",
					},
				},
				"required": []string{"path"},
			},
		},

		// Segmentation
		{
			Name:        "grid_segment",
			Description: "Cluster strokes into rows, tessellate them into digit cells and group adjacent cells into multi-digit numbers.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"hatches":  hatchesProperty("Strokes in reading order"),
					"strategy": strategyProperty(),
				},
				"required": []string{"hatches"},
			},
		},
		{
			Name:        "grid_segment_image",
			Description: "Segment a scanned digit grid. Strokes are detected from the scan unless given. Optionally returns a base64 PNG crop of every number.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"hatches":  hatchesProperty("Strokes in reading order (default: detected from the scan)"),
					"strategy": strategyProperty(),
					"include_crops": map[string]interface{}{
						"type":        "boolean",
						"description": "Return a PNG crop of every number (default: false)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for crops (default: 1.0)",
					},
				},
				"required": []string{"path"},
			},
		},

		// Classification
		{
			Name:        "grid_classify",
			Description: "Segment a scanned digit grid and read every digit with OCR. Returns each number's composed value; unreadable digits are shown as '?'.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"hatches":  hatchesProperty("Strokes in reading order (default: detected from the scan)"),
					"strategy": strategyProperty(),
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code (default: eng)",
					},
				},
				"required": []string{"path"},
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
