// Package config loads and validates the collage generator's settings.
//
// Settings come from Default, overlaid by an optional TOML file (Load),
// overlaid by command-line flags. Validate checks the merged result and
// reports every offending key at once.
package config

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/multierr"

	"github.com/ironsheep/image-grid/internal/margin"
	"github.com/ironsheep/image-grid/internal/packer"
	"github.com/ironsheep/image-grid/internal/pool"
	"github.com/ironsheep/image-grid/internal/runner"
	"github.com/ironsheep/image-grid/internal/sink"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full generator configuration.
type Config struct {
	InputDir    string `toml:"input_dir"`
	OutputDir   string `toml:"output_dir"`
	Generations int    `toml:"generations"`
	Workers     int    `toml:"workers"`
	// Seed 0 means a time-based seed.
	Seed        uint64 `toml:"seed"`
	Mode        string `toml:"mode"`
	CacheImages bool   `toml:"cache_images"`

	Canvas Canvas `toml:"canvas"`
	Cell   Cell   `toml:"cell"`
	Packer Packer `toml:"packer"`
	Grid   Grid   `toml:"grid"`
	Output Output `toml:"output"`
}

// Margin is a margin quadruple and its hex fill color.
type Margin struct {
	Top    int    `toml:"top"`
	Right  int    `toml:"right"`
	Bottom int    `toml:"bottom"`
	Left   int    `toml:"left"`
	Color  string `toml:"color"`
}

type Canvas struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
	Margin     Margin `toml:"margin"`
}

type Cell struct {
	Margin Margin `toml:"margin"`
}

type Packer struct {
	Tolerance float64 `toml:"tolerance"`
	MinCell   int     `toml:"min_cell"`
}

type Grid struct {
	Columns int `toml:"columns"`
	Rows    int `toml:"rows"`
	// Shapes lists [columns, rows] pairs to draw from per generation.
	Shapes        [][]int    `toml:"shapes"`
	MarginChoices []int      `toml:"margin_choices"`
	Modifiers     []Modifier `toml:"modifiers"`
}

type Modifier struct {
	Rows    []int `toml:"rows"`
	Columns []int `toml:"columns"`
	Top     int   `toml:"top"`
	Right   int   `toml:"right"`
	Bottom  int   `toml:"bottom"`
	Left    int   `toml:"left"`
}

type Output struct {
	Format  string `toml:"format"`
	Quality int    `toml:"quality"`
}

// Default returns the built-in configuration: fifty 7680×8640 scan-line
// collages on white, twenty at a time.
func Default() *Config {
	return &Config{
		Generations: 50,
		Workers:     runner.DefaultWorkers,
		Mode:        runner.ModeScanLine,
		Canvas: Canvas{
			Width:      7680,
			Height:     8640,
			Background: "#FFFFFF",
			Margin:     Margin{Color: "#FFFFFF"},
		},
		Cell:   Cell{Margin: Margin{Color: "#FFFFFF"}},
		Packer: Packer{Tolerance: packer.DefaultTolerance, MinCell: 1},
		Grid:   Grid{Columns: 4, Rows: 4},
		Output: Output{Format: sink.FormatJPEG, Quality: sink.DefaultQuality},
	}
}

// Load overlays the TOML file at path onto Default. Unknown keys are an
// error. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Validate checks every setting and returns all problems combined.
func (c *Config) Validate() error {
	var err error
	fail := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.InputDir == "" {
		fail("input_dir is required")
	}
	if c.Generations < 1 {
		fail("generations must be at least 1, got %d", c.Generations)
	}
	if c.Workers < 1 {
		fail("workers must be at least 1, got %d", c.Workers)
	}
	switch c.Mode {
	case runner.ModeScanLine, runner.ModeGrid:
	default:
		fail("mode must be %q or %q, got %q", runner.ModeScanLine, runner.ModeGrid, c.Mode)
	}

	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		fail("canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if _, e := ParseColor(c.Canvas.Background); e != nil {
		fail("canvas.background: %v", e)
	}
	c.validateMargin("canvas.margin", c.Canvas.Margin, fail)
	c.validateMargin("cell.margin", c.Cell.Margin, fail)

	if c.Packer.Tolerance <= 0 {
		fail("packer.tolerance must be positive, got %g", c.Packer.Tolerance)
	}
	if c.Packer.MinCell < 1 {
		fail("packer.min_cell must be at least 1, got %d", c.Packer.MinCell)
	}

	if c.Mode == runner.ModeGrid {
		if len(c.Grid.Shapes) == 0 && (c.Grid.Columns < 1 || c.Grid.Rows < 1) {
			fail("grid.columns and grid.rows must be at least 1, got %dx%d", c.Grid.Columns, c.Grid.Rows)
		}
		for i, s := range c.Grid.Shapes {
			if len(s) != 2 || s[0] < 1 || s[1] < 1 {
				fail("grid.shapes[%d] must be [columns, rows] with both at least 1, got %v", i, s)
			}
		}
		for i, m := range c.Grid.MarginChoices {
			if m < 0 {
				fail("grid.margin_choices[%d] must not be negative, got %d", i, m)
			}
		}
		for i, m := range c.Grid.Modifiers {
			if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
				fail("grid.modifiers[%d] margins must not be negative", i)
			}
		}
	}

	switch strings.ToLower(c.Output.Format) {
	case sink.FormatJPEG, "jpg", sink.FormatPNG:
	default:
		fail("output.format must be %q or %q, got %q", sink.FormatJPEG, sink.FormatPNG, c.Output.Format)
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		fail("output.quality must be between 1 and 100, got %d", c.Output.Quality)
	}
	return err
}

func (c *Config) validateMargin(key string, m Margin, fail func(string, ...any)) {
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		fail("%s must not be negative, got %d/%d/%d/%d", key, m.Top, m.Right, m.Bottom, m.Left)
	}
	if _, err := ParseColor(m.Color); err != nil {
		fail("%s.color: %v", key, err)
	}
}

// ParseColor parses "#rrggbb" or "#rgb", with or without the leading '#',
// into an opaque color.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.NRGBA{}, errors.New("empty color")
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

func (m Margin) spec() margin.Spec {
	// Colors are checked by Validate.
	c, _ := ParseColor(m.Color)
	return margin.Spec{Top: m.Top, Right: m.Right, Bottom: m.Bottom, Left: m.Left, Color: c}
}

// ScanLineOptions converts the configuration to scan-line packer options.
func (c *Config) ScanLineOptions() packer.Options {
	bg, _ := ParseColor(c.Canvas.Background)
	return packer.Options{
		Width:        c.Canvas.Width,
		Height:       c.Canvas.Height,
		Background:   bg,
		CanvasMargin: c.Canvas.Margin.spec(),
		CellMargin:   c.Cell.Margin.spec(),
		Tolerance:    c.Packer.Tolerance,
		MinCell:      c.Packer.MinCell,
	}
}

// GridOptions converts the configuration to fixed-grid packer options.
func (c *Config) GridOptions() packer.GridOptions {
	s := c.ScanLineOptions()
	opts := packer.GridOptions{
		Width:         s.Width,
		Height:        s.Height,
		Background:    s.Background,
		CanvasMargin:  s.CanvasMargin,
		CellMargin:    s.CellMargin,
		Columns:       c.Grid.Columns,
		Rows:          c.Grid.Rows,
		MarginChoices: c.Grid.MarginChoices,
	}
	for _, sh := range c.Grid.Shapes {
		if len(sh) == 2 {
			opts.Shapes = append(opts.Shapes, image.Pt(sh[0], sh[1]))
		}
	}
	for _, m := range c.Grid.Modifiers {
		opts.Modifiers = append(opts.Modifiers, packer.GridElementModifier{
			Rows: m.Rows, Columns: m.Columns,
			Top: m.Top, Right: m.Right, Bottom: m.Bottom, Left: m.Left,
		})
	}
	return opts
}

// Sink returns the output writer for OutputDir.
func (c *Config) Sink() *sink.File {
	return &sink.File{Dir: c.OutputDir, Format: c.Output.Format, Quality: c.Output.Quality}
}

// Plan builds the per-job generator plan over a listed source. A zero Seed
// is replaced with a time-based one, which is logged so the run can be
// reproduced.
func (c *Config) Plan(src pool.Source, ids []string, logger *log.Logger) runner.Plan {
	seed := c.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
		if logger != nil {
			logger.Debug("using time-based seed", "seed", seed)
		}
	}
	return runner.Plan{
		Mode:     c.Mode,
		Source:   src,
		IDs:      ids,
		Seed:     seed,
		ScanLine: c.ScanLineOptions(),
		Grid:     c.GridOptions(),
		Logger:   logger,
	}
}
