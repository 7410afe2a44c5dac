//go:build !nogpu

// Package gpu registers the GPU accelerator.
//
// Import it for its side effect:
//
//	import _ "github.com/AdrikGG/Mandelbrot/gpu" // enable GPU rendering
//
// The accelerator evaluates every pixel in one wgpu/hal compute dispatch
// using double-single arithmetic. If no Vulkan device is available or the
// compute program fails to build, registration is skipped with a warning
// and engines render on the CPU.
//
// Build with -tags nogpu to leave the GPU stack out of the binary.
package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/AdrikGG/Mandelbrot"
	gpuimpl "github.com/AdrikGG/Mandelbrot/internal/gpu"
)

func init() {
	if err := mandelbrot.RegisterAccelerator(gpuimpl.NewAccelerator()); err != nil {
		mandelbrot.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// SetDeviceProvider makes the accelerator run on a device owned by the
// host application. The provider must also expose HalDevice() and
// HalQueue() returning wgpu/hal types.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	return mandelbrot.SetAcceleratorDeviceProvider(provider)
}

// Available reports whether a GPU accelerator is registered.
func Available() bool {
	return mandelbrot.Accelerator() != nil
}
