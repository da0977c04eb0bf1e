package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// packingProperties are the overrides shared by grid_generate and
// grid_preview.
func packingProperties() map[string]interface{} {
	return map[string]interface{}{
		"input_dir": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the directory of candidate images",
		},
		"seed": map[string]interface{}{
			"type":        "integer",
			"description": "Random seed. 0 picks a time-based seed",
		},
		"mode": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"scanline", "grid"},
			"description": "Packing policy. Default from the server configuration",
		},
		"width": map[string]interface{}{
			"type":        "integer",
			"description": "Canvas width in pixels",
		},
		"height": map[string]interface{}{
			"type":        "integer",
			"description": "Canvas height in pixels",
		},
		"tolerance": map[string]interface{}{
			"type":        "number",
			"description": "Native-size deviation threshold (0-1). Default 0.5",
		},
		"background": map[string]interface{}{
			"type":        "string",
			"description": "Canvas background as a hex color, e.g. #FFFFFF",
		},
		"columns": map[string]interface{}{
			"type":        "integer",
			"description": "Grid mode: number of columns",
		},
		"rows": map[string]interface{}{
			"type":        "integer",
			"description": "Grid mode: number of rows",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	generate := packingProperties()
	generate["output_dir"] = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the directory collages are written to",
	}
	generate["generations"] = map[string]interface{}{
		"type":        "integer",
		"description": "Number of collages to generate. Default 1",
		"default":     1,
	}
	generate["workers"] = map[string]interface{}{
		"type":        "integer",
		"description": "Maximum concurrent generations",
	}
	generate["format"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"jpeg", "png"},
		"description": "Output image format",
	}

	preview := packingProperties()
	preview["max_size"] = map[string]interface{}{
		"type":        "integer",
		"description": "Longest edge of the returned preview in pixels. Default 1024",
		"default":     1024,
	}

	return []Tool{
		{
			Name:        "grid_generate",
			Description: "Pack images from a directory into collage canvases and write them to disk. Returns a run report with the number of images placed per collage.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": generate,
				"required":   []string{"input_dir", "output_dir"},
			},
		},
		{
			Name:        "grid_pool_info",
			Description: "Count the candidate images in a directory and summarize their dimensions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input_dir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the directory of candidate images",
					},
				},
				"required": []string{"input_dir"},
			},
		},
		{
			Name:        "grid_preview",
			Description: "Generate one collage without writing it and return it as a base64-encoded PNG, scaled down to max_size.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": preview,
				"required":   []string{"input_dir"},
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
