package mandelbrot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/AdrikGG/Mandelbrot/internal/parallel"
)

// ParallelRenderer splits each frame into one row band per worker and
// evaluates the bands on a persistent worker pool.
//
// Only one frame may be in flight; a concurrent Render returns
// ErrFrameInFlight instead of interleaving tiles of two viewports.
type ParallelRenderer struct {
	pool  *parallel.WorkerPool
	bands *parallel.BandPool

	inFlight atomic.Bool
	closeMu  sync.RWMutex
	closed   bool
}

// renderBand fills one tile's band. Tests replace it to inject failures.
var renderBand = renderRows

// tileJob is everything one task needs. Tasks receive their own copy.
type tileJob struct {
	index   int
	unit    WorkUnit
	params  Params
	palette *Palette
}

// NewParallelRenderer starts the worker pool. Call Close to stop it.
func NewParallelRenderer(opts ...RendererOption) *ParallelRenderer {
	o := defaultRendererOptions()
	for _, opt := range opts {
		opt(&o)
	}
	r := &ParallelRenderer{
		pool:  parallel.NewWorkerPool(o.workers),
		bands: parallel.NewBandPool(),
	}
	Logger().Debug("parallel renderer started", "workers", r.pool.Workers())
	return r
}

func (r *ParallelRenderer) Name() string { return "parallel" }

// Workers returns the number of tiles per frame.
func (r *ParallelRenderer) Workers() int { return r.pool.Workers() }

// Render implements Renderer.
func (r *ParallelRenderer) Render(ctx context.Context, p Params) (*FrameBuffer, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return nil, ErrFrameInFlight
	}
	defer r.inFlight.Store(false)

	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	if r.closed {
		return nil, ErrRendererClosed
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	p = p.Normalized()

	units, err := Partition(p.Height, p.PixelStep, r.pool.Workers())
	if err != nil {
		return nil, err
	}
	if err := ValidateCover(units, p.Height); err != nil {
		return nil, err
	}

	pal := PaletteFor(p.ColorMode, p.IterationBound)
	bands := make([][]byte, len(units))
	taskTile := make([]int, 0, len(units))
	tasks := make([]func() error, 0, len(units))

	for i, u := range units {
		if u.Empty() {
			continue
		}
		job := tileJob{index: i, unit: u, params: p, palette: pal}
		taskTile = append(taskTile, i)
		tasks = append(tasks, func() error {
			band := r.bands.Get(job.unit.Rows() * job.params.Width * 4)
			if err := renderBand(ctx, band, &job.params, job.unit, job.palette); err != nil {
				r.bands.Put(band)
				return err
			}
			bands[job.index] = band
			return nil
		})
	}

	err = r.pool.ExecuteAll(tasks)
	if err != nil || ctx.Err() != nil {
		for _, b := range bands {
			if b != nil {
				r.bands.Put(b)
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var te *parallel.TaskError
		if errors.As(err, &te) {
			tile := taskTile[te.Index]
			err = &TaskError{Tile: tile, Unit: units[tile], Err: te.Err}
		}
		Logger().Warn("parallel frame discarded", "err", err)
		return nil, err
	}

	frame := &FrameBuffer{width: p.Width, height: p.Height, data: make([]uint8, 0, p.Width*p.Height*4)}
	for _, b := range bands {
		if b == nil {
			continue
		}
		frame.data = append(frame.data, b...)
		r.bands.Put(b)
	}
	return frame, nil
}

// Close stops the worker pool. It waits for an in-flight frame.
func (r *ParallelRenderer) Close() {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.pool.Close()
}
