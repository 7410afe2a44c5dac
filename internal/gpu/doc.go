//go:build !nogpu

// Package gpu implements the compute-shader accelerator.
//
// The kernel (shaders/mandelbrot.wgsl) evaluates one pixel per invocation
// in 8x8 workgroups with double-single arithmetic. Its uniform layout,
// palette layout and lane-value encoding are defined by internal/lane,
// which also serves as the CPU reference in tests.
//
// Bindings:
//
//	0  uniform       Params (64 bytes)
//	1  storage, r    palette words, [3][bound+1]
//	2  storage, rw   output pixels, one RGBA word each
package gpu
