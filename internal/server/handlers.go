package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-grid/internal/config"
	imgsrc "github.com/ironsheep/image-grid/internal/imaging"
	"github.com/ironsheep/image-grid/internal/runner"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "grid_generate").
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

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "err", err)
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
	case "grid_generate":
		return s.handleGridGenerate(ctx, args)
	case "grid_pool_info":
		return s.handleGridPoolInfo(args)
	case "grid_preview":
		return s.handleGridPreview(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// packingArgs are the per-call overrides of the server configuration. Zero
// values keep the configured setting.
type packingArgs struct {
	InputDir   string  `json:"input_dir"`
	Seed       uint64  `json:"seed"`
	Mode       string  `json:"mode"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Tolerance  float64 `json:"tolerance"`
	Background string  `json:"background"`
	Columns    int     `json:"columns"`
	Rows       int     `json:"rows"`
}

// config returns a copy of base with the overrides applied.
func (a packingArgs) config(base *config.Config) *config.Config {
	cfg := *base
	if a.InputDir != "" {
		cfg.InputDir = a.InputDir
	}
	if a.Seed != 0 {
		cfg.Seed = a.Seed
	}
	if a.Mode != "" {
		cfg.Mode = a.Mode
	}
	if a.Width != 0 {
		cfg.Canvas.Width = a.Width
	}
	if a.Height != 0 {
		cfg.Canvas.Height = a.Height
	}
	if a.Tolerance != 0 {
		cfg.Packer.Tolerance = a.Tolerance
	}
	if a.Background != "" {
		cfg.Canvas.Background = a.Background
	}
	if a.Columns != 0 {
		cfg.Grid.Columns = a.Columns
		cfg.Grid.Shapes = nil
	}
	if a.Rows != 0 {
		cfg.Grid.Rows = a.Rows
		cfg.Grid.Shapes = nil
	}
	return &cfg
}

// listing validates cfg and lists its input directory.
func (s *Server) listing(cfg *config.Config) (*imgsrc.DirectorySource, []string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	src := imgsrc.NewDirectorySource(cfg.InputDir, s.cache)
	ids, err := src.List()
	if err != nil {
		return nil, nil, err
	}
	return src, ids, nil
}

// === Generation Handlers ===

type gridGenerateArgs struct {
	packingArgs
	OutputDir   string `json:"output_dir"`
	Generations int    `json:"generations"`
	Workers     int    `json:"workers"`
	Format      string `json:"format"`
}

// GenerateResult is the grid_generate report.
type GenerateResult struct {
	RunID     string             `json:"run_id"`
	Seed      uint64             `json:"seed"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Placed    int                `json:"placed"`
	Duration  string             `json:"duration"`
	Jobs      []runner.JobResult `json:"jobs"`
}

func (s *Server) handleGridGenerate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a gridGenerateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputDir == "" {
		return nil, fmt.Errorf("output_dir is required")
	}

	cfg := a.config(s.base)
	cfg.OutputDir = a.OutputDir
	cfg.Generations = 1
	if a.Generations != 0 {
		cfg.Generations = a.Generations
	}
	if a.Workers != 0 {
		cfg.Workers = a.Workers
	}
	if a.Format != "" {
		cfg.Output.Format = a.Format
	}

	src, ids, err := s.listing(cfg)
	if err != nil {
		return nil, err
	}
	plan := cfg.Plan(src, ids, s.logger)
	r := runner.New(runner.Options{
		Generations: cfg.Generations,
		Workers:     cfg.Workers,
		Saver:       cfg.Sink(),
		Logger:      s.logger,
	}, plan.Factory())

	report, err := r.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &GenerateResult{
		RunID:     report.RunID,
		Seed:      plan.Seed,
		Succeeded: report.Succeeded(),
		Failed:    report.Failed(),
		Placed:    report.Placed(),
		Duration:  report.Duration.Round(time.Millisecond).String(),
		Jobs:      report.Jobs,
	}, nil
}

// === Pool Handlers ===

type gridPoolInfoArgs struct {
	InputDir string `json:"input_dir"`
}

func (s *Server) handleGridPoolInfo(args json.RawMessage) (interface{}, error) {
	var a gridPoolInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.InputDir == "" {
		return nil, fmt.Errorf("input_dir is required")
	}
	return imgsrc.Summarize(imgsrc.NewDirectorySource(a.InputDir, s.cache))
}

// === Preview Handlers ===

type gridPreviewArgs struct {
	packingArgs
	MaxSize int `json:"max_size"`
}

// PreviewResult is one generated collage, scaled down and PNG-encoded.
type PreviewResult struct {
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	CanvasWidth  int     `json:"canvas_width"`
	CanvasHeight int     `json:"canvas_height"`
	Seed         uint64  `json:"seed"`
	Placed       int     `json:"placed"`
	Exhausted    bool    `json:"exhausted"`
	Coverage     float64 `json:"coverage"`
	ImageBase64  string  `json:"image_base64"`
	MimeType     string  `json:"mime_type"`
}

func (s *Server) handleGridPreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a gridPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxSize <= 0 {
		a.MaxSize = 1024
	}

	cfg := a.config(s.base)
	src, ids, err := s.listing(cfg)
	if err != nil {
		return nil, err
	}
	plan := cfg.Plan(src, ids, s.logger)
	gen, err := plan.Factory()(0)
	if err != nil {
		return nil, err
	}
	res, err := gen.Generate(ctx)
	if err != nil {
		return nil, err
	}

	out := res.Canvas
	b := out.Bounds()
	if b.Dx() > a.MaxSize || b.Dy() > a.MaxSize {
		out = imaging.Fit(out, a.MaxSize, a.MaxSize, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:        out.Bounds().Dx(),
		Height:       out.Bounds().Dy(),
		CanvasWidth:  b.Dx(),
		CanvasHeight: b.Dy(),
		Seed:         plan.Seed,
		Placed:       res.Count(),
		Exhausted:    res.Exhausted,
		Coverage:     res.Coverage,
		ImageBase64:  base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:     "image/png",
	}, nil
}
