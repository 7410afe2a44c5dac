package mandelbrot

// RendererOption configures a ParallelRenderer.
//
// Example:
//
//	r := mandelbrot.NewParallelRenderer(mandelbrot.WithWorkers(4))
//	defer r.Close()
type RendererOption func(*rendererOptions)

type rendererOptions struct {
	workers int
}

func defaultRendererOptions() rendererOptions {
	return rendererOptions{
		workers: 0, // GOMAXPROCS
	}
}

// WithWorkers sets the number of pool workers and tiles per frame.
// n <= 0 selects GOMAXPROCS.
func WithWorkers(n int) RendererOption {
	return func(o *rendererOptions) {
		o.workers = n
	}
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	strategy   Strategy
	renderers  []Renderer
	rendOpts   []RendererOption
	noFallback bool
}

func defaultEngineOptions() engineOptions {
	return engineOptions{strategy: StrategyAuto}
}

// WithStrategy selects the preferred backend.
func WithStrategy(s Strategy) EngineOption {
	return func(o *engineOptions) {
		o.strategy = s
	}
}

// WithRenderer prepends a custom renderer to the engine's candidate list.
// It is tried before every built-in backend.
func WithRenderer(r Renderer) EngineOption {
	return func(o *engineOptions) {
		if r != nil {
			o.renderers = append(o.renderers, r)
		}
	}
}

// WithParallelOptions passes options to the engine's ParallelRenderer.
func WithParallelOptions(opts ...RendererOption) EngineOption {
	return func(o *engineOptions) {
		o.rendOpts = append(o.rendOpts, opts...)
	}
}

// WithoutFallback makes the engine fail instead of trying the next backend
// when the preferred one is unavailable.
func WithoutFallback() EngineOption {
	return func(o *engineOptions) {
		o.noFallback = true
	}
}

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	scale          float64
	iterationBound int
	pixelStep      int
	colorMode      ColorMode
	precision      Precision
	escapeRadius2  float64
	zoomFactor     float64
	adaptiveStep   int
}

func defaultSessionOptions() sessionOptions {
	return sessionOptions{
		scale:          DefaultScale,
		iterationBound: DefaultIterationBound,
		pixelStep:      1,
		colorMode:      CyclicHue,
		precision:      PrecisionNative,
		escapeRadius2:  DefaultEscapeRadius2,
		zoomFactor:     DefaultZoomFactor,
	}
}

// WithScale sets the initial pixels-per-unit scale.
func WithScale(scale float64) SessionOption {
	return func(o *sessionOptions) { o.scale = scale }
}

// WithIterationBound sets the initial iteration bound.
func WithIterationBound(n int) SessionOption {
	return func(o *sessionOptions) { o.iterationBound = n }
}

// WithPixelStep sets the initial coarsening block size.
func WithPixelStep(n int) SessionOption {
	return func(o *sessionOptions) { o.pixelStep = n }
}

// WithColorMode sets the initial palette.
func WithColorMode(m ColorMode) SessionOption {
	return func(o *sessionOptions) { o.colorMode = m }
}

// WithPrecision sets the CPU arithmetic.
func WithPrecision(p Precision) SessionOption {
	return func(o *sessionOptions) { o.precision = p }
}

// WithEscapeRadius2 sets the squared escape radius.
func WithEscapeRadius2(r2 float64) SessionOption {
	return func(o *sessionOptions) { o.escapeRadius2 = r2 }
}

// WithZoomFactor sets the per-tick zoom factor.
func WithZoomFactor(f float64) SessionOption {
	return func(o *sessionOptions) { o.zoomFactor = f }
}

// WithAdaptiveIterations raises the iteration bound by step on every zoom-in
// tick and lowers it by step on every zoom-out tick.
func WithAdaptiveIterations(step int) SessionOption {
	return func(o *sessionOptions) { o.adaptiveStep = step }
}
