// Package mandelbrot computes Mandelbrot escape-time frames over a panned
// and zoomed viewport.
//
// # Overview
//
// A Session holds the exploration state and turns it into Params. An Engine
// renders Params into a FrameBuffer on one of three backends:
//
//   - SequentialRenderer evaluates every pixel on the calling goroutine and
//     is the reference for the others.
//   - ParallelRenderer splits the frame into row bands (see Partition) and
//     evaluates them on a persistent worker pool.
//   - The GPU accelerator registered by the gpu package runs one compute
//     dispatch per frame in double-single arithmetic.
//
// # Quick Start
//
//	s, _ := mandelbrot.NewSession(800, 600)
//	e, _ := mandelbrot.NewEngine(mandelbrot.WithStrategy(mandelbrot.StrategyParallel))
//	defer e.Close()
//
//	s.ZoomAt(400, 300, true)
//	frame, err := e.Render(ctx, s.Params())
//
// # Precision
//
// PrecisionNative iterates in float64. PrecisionExtended iterates in
// double-double (arith.Extended), which keeps neighbouring pixels distinct
// well past the zoom depth where float64 collapses them.
//
// # Coordinates
//
// Row 0 maps to Viewport.YMin on every backend, and zoom fractions are
// measured from the top-left pixel. There is no vertical flip anywhere.
package mandelbrot
