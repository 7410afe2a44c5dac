package mandelbrot

import (
	"context"
	"errors"
	"sync"
)

// GPUAccelerator is a hardware backend. The gpu package registers one from
// its init function:
//
//	import _ "github.com/AdrikGG/Mandelbrot/gpu" // enables GPU rendering
//
// If the device cannot be opened or the compute program does not build,
// registration is skipped and engines use the CPU backends.
type GPUAccelerator interface {
	Renderer

	// Init acquires the device and builds the compute program. Called once
	// during registration.
	Init() error

	// Close releases GPU resources.
	Close()
}

// DeviceProviderAware is implemented by accelerators that can run on a
// device owned by the host instead of opening their own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   GPUAccelerator
)

// RegisterAccelerator initializes a and makes it the active accelerator,
// closing the previous one. If Init fails nothing changes.
func RegisterAccelerator(a GPUAccelerator) error {
	if a == nil {
		return errors.New("mandelbrot: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
	handLogger(a, Logger())
	Logger().Info("accelerator registered", "name", a.Name())
	return nil
}

// UnregisterAccelerator closes and removes the active accelerator.
func UnregisterAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// Accelerator returns the registered accelerator, or nil.
func Accelerator() GPUAccelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// SetAcceleratorDeviceProvider passes a host device provider to the
// registered accelerator. It is a no-op when there is none or it cannot
// share devices.
func SetAcceleratorDeviceProvider(provider any) error {
	a := Accelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}

// acceleratorRenderer adapts the registry to the Renderer interface so the
// engine picks up accelerators registered after it was created.
type acceleratorRenderer struct{}

func (acceleratorRenderer) Name() string {
	if a := Accelerator(); a != nil {
		return a.Name()
	}
	return "gpu"
}

func (acceleratorRenderer) Render(ctx context.Context, p Params) (*FrameBuffer, error) {
	a := Accelerator()
	if a == nil {
		return nil, ErrBackendUnavailable
	}
	return a.Render(ctx, p)
}
