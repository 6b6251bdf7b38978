package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Measurement
		{
			Name:        "measure_object",
			Description: "Measure the object in a top-view and side-view frame pair. Returns the overall shape, the shapes within it, the object height and a text summary.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"top_path":  pathProperty("Absolute path to the top-camera frame"),
					"side_path": pathProperty("Absolute path to the side-camera frame"),
				},
				"required": []string{"top_path", "side_path"},
			},
		},
		{
			Name:        "analyze_top_view",
			Description: "Locate the reference enclosure in a top-view frame, calibrate pixels to centimeters and classify the shapes inside it. Returns the enclosure crop with the primary shape outlined as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the top-camera frame"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "estimate_height",
			Description: "Estimate object height in a side-view frame against the dark reference strip. The offset is added to the measured height.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the side-camera frame"),
					"offset_cm": map[string]interface{}{
						"type":        "number",
						"description": "Position offset in centimeters added to the raw height. Default 0",
						"default":     0.0,
					},
				},
				"required": []string{"path"},
			},
		},

		// Diagnostics
		{
			Name:        "segment_frame",
			Description: "Segment a frame into foreground masks and return them as base64 PNG. Mode 'top' returns the dark mask; mode 'side' returns the reference strip and object masks.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the frame"),
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"top", "side"},
						"description": "Which camera the frame came from",
					},
				},
				"required": []string{"path", "mode"},
			},
		},
		{
			Name:        "sample_color",
			Description: "Get the color at a pixel as hex, RGB, HSV and grayscale. Useful when tuning the object color range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the frame"),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
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
