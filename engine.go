package mandelbrot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Strategy selects the backend an Engine prefers.
type Strategy uint8

const (
	// StrategyAuto tries the GPU, then the parallel CPU backend, then the
	// sequential one.
	StrategyAuto Strategy = iota
	StrategySequential
	StrategyParallel
	StrategyHardware
)

func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategySequential:
		return "sequential"
	case StrategyParallel:
		return "parallel"
	case StrategyHardware:
		return "gpu"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// ParseStrategy parses the String form of a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range []Strategy{StrategyAuto, StrategySequential, StrategyParallel, StrategyHardware} {
		if st.String() == s {
			return st, nil
		}
	}
	if s == "hardware" {
		return StrategyHardware, nil
	}
	return 0, fmt.Errorf("mandelbrot: unknown strategy %q", s)
}

// Engine renders frames on the best available backend and keeps the last
// good frame for hosts to show when a render fails.
//
// Render calls are serialized: a call made while another is running waits
// for it to finish.
type Engine struct {
	mu         sync.Mutex
	candidates []Renderer
	next       int // index of the first candidate still considered available
	parallel   *ParallelRenderer
	last       *FrameBuffer
}

// NewEngine builds an engine for the configured strategy.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	o := defaultEngineOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{}
	e.candidates = append(e.candidates, o.renderers...)

	newParallel := func() Renderer {
		if e.parallel == nil {
			e.parallel = NewParallelRenderer(o.rendOpts...)
		}
		return e.parallel
	}

	switch o.strategy {
	case StrategyHardware:
		if Accelerator() == nil && o.noFallback {
			return nil, fmt.Errorf("%w: no accelerator registered", ErrBackendUnavailable)
		}
		e.candidates = append(e.candidates, acceleratorRenderer{})
		if !o.noFallback {
			e.candidates = append(e.candidates, newParallel(), NewSequentialRenderer())
		}
	case StrategyAuto:
		if Accelerator() != nil {
			e.candidates = append(e.candidates, acceleratorRenderer{})
		}
		e.candidates = append(e.candidates, newParallel(), NewSequentialRenderer())
	case StrategyParallel:
		e.candidates = append(e.candidates, newParallel())
		if !o.noFallback {
			e.candidates = append(e.candidates, NewSequentialRenderer())
		}
	case StrategySequential:
		e.candidates = append(e.candidates, NewSequentialRenderer())
	default:
		return nil, fmt.Errorf("mandelbrot: unknown strategy %v", o.strategy)
	}

	if o.noFallback && len(e.candidates) > 1 {
		e.candidates = e.candidates[:1]
	}
	return e, nil
}

// Backend returns the name of the renderer the next frame will use.
func (e *Engine) Backend() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.next >= len(e.candidates) {
		return ""
	}
	return e.candidates[e.next].Name()
}

// Render produces a frame for p.
//
// A backend that reports ErrBackendUnavailable is dropped for the life of
// the engine and the next one is tried. Any other failure ends the attempt:
// Render returns the last good frame, which is nil before the first
// success, together with the error.
func (e *Engine) Render(ctx context.Context, p Params) (*FrameBuffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for e.next < len(e.candidates) {
		r := e.candidates[e.next]
		start := time.Now()
		frame, err := r.Render(ctx, p)
		if err == nil {
			e.last = frame
			Logger().Debug("frame rendered",
				"backend", r.Name(),
				"size", fmt.Sprintf("%dx%d", p.Width, p.Height),
				"bound", p.IterationBound,
				"elapsed", time.Since(start))
			return frame, nil
		}
		if !errors.Is(err, ErrBackendUnavailable) || e.next == len(e.candidates)-1 {
			return e.last, err
		}
		Logger().Warn("backend unavailable, falling back",
			"backend", r.Name(), "next", e.candidates[e.next+1].Name(), "err", err)
		e.next++
	}
	return e.last, ErrBackendUnavailable
}

// LastFrame returns the most recent successful frame, or nil.
func (e *Engine) LastFrame() *FrameBuffer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Close stops the engine's worker pool. The registered accelerator is left
// alone; it is shared process-wide.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.parallel != nil {
		e.parallel.Close()
	}
}
