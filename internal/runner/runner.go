// Package runner executes independent collage generations over a bounded
// worker pool.
//
// Every job builds its own generator (its own pool, random source and
// occupancy state) from a Factory, so jobs share nothing mutable. A job that
// fails, or panics, is recorded in the Report and does not affect the others.
package runner

import (
	"context"
	"fmt"
	"image"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/image-grid/internal/packer"
)

// DefaultWorkers is the worker count used when none is configured.
const DefaultWorkers = 20

// Generator produces one collage.
type Generator interface {
	Generate(ctx context.Context) (*packer.Result, error)
}

// Factory builds the generator for job index.
type Factory func(index int) (Generator, error)

// Saver persists a finished collage and returns where it went.
type Saver interface {
	Save(ctx context.Context, index int, img image.Image) (string, error)
}

// Options configures a run.
type Options struct {
	Generations int
	Workers     int

	// Saver, when nil, discards the canvases. Results still carry them.
	Saver Saver
	// Progress is called after each job finishes, in completion order.
	// Calls are serialized.
	Progress func(job JobResult, done, total int)
	Logger   *log.Logger
	// KeepCanvas retains each job's canvas in its JobResult.
	KeepCanvas bool
}

// JobResult is the outcome of one generation.
type JobResult struct {
	Index     int           `json:"index"`
	Placed    int           `json:"placed"`
	Exhausted bool          `json:"exhausted"`
	Coverage  float64       `json:"coverage"`
	Path      string        `json:"path,omitempty"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
	Error     string        `json:"error,omitempty"`

	Canvas *image.NRGBA `json:"-"`
}

// Report summarizes a run. Jobs is indexed by job index.
type Report struct {
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Jobs     []JobResult   `json:"jobs"`
}

// Succeeded returns the number of jobs without an error.
func (r *Report) Succeeded() int {
	n := 0
	for _, j := range r.Jobs {
		if j.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of jobs with an error.
func (r *Report) Failed() int { return len(r.Jobs) - r.Succeeded() }

// Placed returns the total number of images placed across all jobs.
func (r *Report) Placed() int {
	n := 0
	for _, j := range r.Jobs {
		n += j.Placed
	}
	return n
}

// Err combines every job error, or returns nil.
func (r *Report) Err() error {
	var err error
	for _, j := range r.Jobs {
		if j.Err != nil {
			err = multierr.Append(err, fmt.Errorf("job %d: %w", j.Index, j.Err))
		}
	}
	return err
}

// Runner runs generations.
type Runner struct {
	opts    Options
	factory Factory
}

// New creates a runner.
func New(opts Options, factory Factory) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Runner{opts: opts, factory: factory}
}

// Run executes every generation and waits for them to finish.
//
// Job failures never fail the run; they are recorded in the report (see
// Report.Err). Once ctx is done, jobs that have not started are recorded
// with ctx.Err() and Run returns ctx.Err() alongside the report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	total := r.opts.Generations
	if total < 0 {
		return nil, fmt.Errorf("invalid generation count %d", total)
	}

	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Jobs:    make([]JobResult, total),
	}
	logger := r.opts.Logger.With("run", report.RunID[:8])
	logger.Debug("run started", "generations", total, "workers", r.opts.Workers)

	var (
		mu   sync.Mutex
		done int
	)
	finish := func(res JobResult) {
		if res.Err != nil {
			res.Error = res.Err.Error()
		}
		mu.Lock()
		defer mu.Unlock()
		report.Jobs[res.Index] = res
		done++
		if r.opts.Progress != nil {
			r.opts.Progress(res, done, total)
		}
	}

	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			finish(JobResult{Index: i, Err: err})
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				finish(JobResult{Index: i, Err: err})
				return nil
			}
			res := r.job(ctx, i)
			if res.Err != nil {
				logger.Warn("generation failed", "job", i, "err", res.Err)
			} else {
				logger.Debug("generation done", "job", i, "placed", res.Placed, "duration", res.Duration)
			}
			finish(res)
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(report.Started)
	logger.Debug("run finished", "succeeded", report.Succeeded(), "failed", report.Failed(), "duration", report.Duration)
	return report, ctx.Err()
}

// job runs one generation, turning a panic into an error.
func (r *Runner) job(ctx context.Context, index int) (res JobResult) {
	res.Index = index
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r.opts.Logger.Error("generation panicked", "job", index, "panic", p, "stack", string(debug.Stack()))
			res.Err = fmt.Errorf("panic: %v", p)
		}
		res.Duration = time.Since(start)
	}()

	gen, err := r.factory(index)
	if err != nil {
		res.Err = err
		return res
	}
	out, err := gen.Generate(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	res.Placed = out.Count()
	res.Exhausted = out.Exhausted
	res.Coverage = out.Coverage
	if r.opts.KeepCanvas {
		res.Canvas = out.Canvas
	}

	if r.opts.Saver != nil {
		path, err := r.opts.Saver.Save(ctx, index, out.Canvas)
		if err != nil {
			res.Err = err
			return res
		}
		res.Path = path
	}
	return res
}
