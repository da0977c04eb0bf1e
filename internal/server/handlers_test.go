package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	imgsrc "github.com/ironsheep/image-grid/internal/imaging"
)

// createTestImageDir writes one solid PNG per size into a temp directory
// and returns its path.
func createTestImageDir(t *testing.T, sizes ...image.Point) string {
	t.Helper()
	dir := t.TempDir()

	for i, sz := range sizes {
		img := image.NewRGBA(image.Rect(0, 0, sz.X, sz.Y))
		c := color.RGBA{uint8(30 * i), 120, 200, 255}
		for y := 0; y < sz.Y; y++ {
			for x := 0; x < sz.X; x++ {
				img.Set(x, y, c)
			}
		}

		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("img-%02d.png", i)))
		if err != nil {
			t.Fatalf("failed to create image file: %v", err)
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			t.Fatalf("failed to encode image: %v", err)
		}
		f.Close()
	}
	return dir
}

func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	return s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
}

// resultText extracts the JSON text content of a successful tool call.
func resultText(t *testing.T, resp *MCPResponse) string {
	t.Helper()
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v (%v)", resp.Error.Message, resp.Error.Data)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatal("Result should contain one content entry")
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	return content[0]["text"].(string)
}

func TestHandleToolsCall_PoolInfo(t *testing.T) {
	s := New(Options{})
	dir := createTestImageDir(t, image.Pt(40, 30), image.Pt(10, 60), image.Pt(25, 25))
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	var info imgsrc.PoolSummary
	if err := json.Unmarshal([]byte(resultText(t, callTool(t, s, "grid_pool_info", map[string]interface{}{"input_dir": dir}))), &info); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if info.Count != 4 {
		t.Errorf("Count: got %d, want 4", info.Count)
	}
	if info.Readable != 3 || info.Unreadable != 1 {
		t.Errorf("Readable/Unreadable: got %d/%d, want 3/1", info.Readable, info.Unreadable)
	}
	if info.MinWidth != 10 || info.MaxWidth != 40 {
		t.Errorf("width range: got %d-%d, want 10-40", info.MinWidth, info.MaxWidth)
	}
	if info.MinHeight != 25 || info.MaxHeight != 60 {
		t.Errorf("height range: got %d-%d, want 25-60", info.MinHeight, info.MaxHeight)
	}
	if info.TotalArea != 40*30+10*60+25*25 {
		t.Errorf("TotalArea: got %d", info.TotalArea)
	}
}

func TestHandleToolsCall_Generate(t *testing.T) {
	s := New(Options{})
	in := createTestImageDir(t, image.Pt(40, 40), image.Pt(30, 20), image.Pt(20, 50), image.Pt(60, 30))
	out := filepath.Join(t.TempDir(), "out")

	text := resultText(t, callTool(t, s, "grid_generate", map[string]interface{}{
		"input_dir":   in,
		"output_dir":  out,
		"generations": 3,
		"workers":     2,
		"seed":        7,
		"width":       80,
		"height":      60,
		"format":      "png",
	}))

	var res GenerateResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if res.Succeeded != 3 || res.Failed != 0 {
		t.Errorf("Succeeded/Failed: got %d/%d, want 3/0", res.Succeeded, res.Failed)
	}
	if res.Seed != 7 {
		t.Errorf("Seed: got %d, want 7", res.Seed)
	}
	if res.RunID == "" {
		t.Error("RunID should be set")
	}
	for i := 0; i < 3; i++ {
		if _, err := os.Stat(filepath.Join(out, fmt.Sprintf("%d.png", i))); err != nil {
			t.Errorf("collage %d not written: %v", i, err)
		}
		if res.Jobs[i].Placed == 0 {
			t.Errorf("job %d placed nothing", i)
		}
	}
}

func TestHandleToolsCall_GenerateEmptyDirReportsFailedJobs(t *testing.T) {
	s := New(Options{})
	text := resultText(t, callTool(t, s, "grid_generate", map[string]interface{}{
		"input_dir":   t.TempDir(),
		"output_dir":  t.TempDir(),
		"generations": 2,
	}))

	var res GenerateResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if res.Failed != 2 {
		t.Errorf("Failed: got %d, want 2", res.Failed)
	}
	if !strings.Contains(res.Jobs[0].Error, "no images") {
		t.Errorf("job error: got %q", res.Jobs[0].Error)
	}
}

func TestHandleToolsCall_Preview(t *testing.T) {
	s := New(Options{})
	in := createTestImageDir(t, image.Pt(400, 400), image.Pt(300, 200), image.Pt(200, 500))

	text := resultText(t, callTool(t, s, "grid_preview", map[string]interface{}{
		"input_dir": in,
		"seed":      3,
		"width":     800,
		"height":    400,
		"max_size":  200,
	}))

	var res PreviewResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if res.CanvasWidth != 800 || res.CanvasHeight != 400 {
		t.Errorf("canvas: got %dx%d, want 800x400", res.CanvasWidth, res.CanvasHeight)
	}
	if res.Width != 200 || res.Height != 100 {
		t.Errorf("preview: got %dx%d, want 200x100", res.Width, res.Height)
	}
	if res.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", res.MimeType)
	}
	if res.Placed == 0 {
		t.Error("preview placed nothing")
	}

	raw, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	if img.Bounds().Dx() != 200 {
		t.Errorf("decoded width: got %d, want 200", img.Bounds().Dx())
	}
}

func TestHandleToolsCall_PreviewGridMode(t *testing.T) {
	s := New(Options{})
	in := createTestImageDir(t, image.Pt(40, 40), image.Pt(40, 40), image.Pt(40, 40), image.Pt(40, 40))

	text := resultText(t, callTool(t, s, "grid_preview", map[string]interface{}{
		"input_dir": in,
		"mode":      "grid",
		"columns":   2,
		"rows":      2,
		"width":     100,
		"height":    100,
	}))

	var res PreviewResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if res.Placed != 4 {
		t.Errorf("Placed: got %d, want 4", res.Placed)
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := New(Options{})

	tests := []struct {
		name string
		tool string
		args map[string]interface{}
	}{
		{"unknown tool", "nonexistent_tool", map[string]interface{}{}},
		{"pool info without dir", "grid_pool_info", map[string]interface{}{}},
		{"pool info missing dir", "grid_pool_info", map[string]interface{}{"input_dir": "/nonexistent/dir"}},
		{"generate without output", "grid_generate", map[string]interface{}{"input_dir": t.TempDir()}},
		{"preview without input", "grid_preview", map[string]interface{}{}},
		{"preview bad mode", "grid_preview", map[string]interface{}{"input_dir": t.TempDir(), "mode": "spiral"}},
		{"preview bad color", "grid_preview", map[string]interface{}{"input_dir": t.TempDir(), "background": "purple-ish"}},
		{"preview empty dir", "grid_preview", map[string]interface{}{"input_dir": t.TempDir()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, tt.tool, tt.args)
			if resp.Error == nil {
				t.Fatal("expected error response")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New(Options{})
	resp := s.handleToolsCall(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{invalid`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("got %+v, want -32602 error", resp.Error)
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := New(Options{})

	for _, name := range []string{"grid_generate", "grid_pool_info", "grid_preview"} {
		if _, err := s.executeTool(context.Background(), name, json.RawMessage(`{invalid`)); err == nil {
			t.Errorf("executeTool(%s) should fail for invalid JSON", name)
		}
	}
}

func TestPackingArgs_KeepsBaseUnchanged(t *testing.T) {
	s := New(Options{})
	a := packingArgs{InputDir: "/in", Width: 10, Columns: 3, Mode: "grid"}

	cfg := a.config(s.base)
	if cfg.Canvas.Width != 10 || cfg.Grid.Columns != 3 || cfg.Mode != "grid" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if s.base.Canvas.Width != 7680 || s.base.InputDir != "" {
		t.Error("base configuration was modified")
	}
	if cfg.Canvas.Height != s.base.Canvas.Height {
		t.Errorf("Height: got %d, want %d", cfg.Canvas.Height, s.base.Canvas.Height)
	}
}
