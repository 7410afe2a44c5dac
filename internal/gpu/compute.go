//go:build !nogpu

package gpu

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/AdrikGG/Mandelbrot"
	"github.com/AdrikGG/Mandelbrot/internal/lane"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

//go:embed shaders/mandelbrot.wgsl
var shaderSource string

// workgroupSize matches @workgroup_size in the shader.
const workgroupSize = 8

// fenceTimeout bounds a single dispatch when ctx has no earlier deadline.
const fenceTimeout = 5 * time.Second

// ProgramBuildError reports that the compute program could not be built.
// No frame is produced with a partially built program.
type ProgramBuildError struct {
	Stage  string // "wgsl", "shader module", "bind group layout", ...
	Reason string
	Err    error
}

func (e *ProgramBuildError) Error() string {
	return fmt.Sprintf("gpu: build %s: %s", e.Stage, e.Reason)
}

func (e *ProgramBuildError) Unwrap() error { return e.Err }

func buildError(stage string, err error) error {
	return &ProgramBuildError{Stage: stage, Reason: err.Error(), Err: err}
}

// ValidateShader compiles the embedded WGSL to SPIR-V with naga. It runs
// before any device work so a broken program is reported with naga's
// diagnostic instead of a driver error.
func ValidateShader() error {
	if _, err := naga.Compile(shaderSource); err != nil {
		return buildError("wgsl", err)
	}
	return nil
}

// Accelerator renders frames with one compute dispatch each. It implements
// mandelbrot.GPUAccelerator.
//
// The pipeline is built once in Init. Per frame only the uniform buffer is
// rewritten; the palette buffer is re-uploaded when the iteration bound
// changes and the pixel buffers are reallocated when the frame size does.
type Accelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	uniformBuf hal.Buffer

	paletteBuf   hal.Buffer
	paletteBound int
	paletteSize  uint64

	pixelBuf   hal.Buffer
	stagingBuf hal.Buffer
	pixelSize  uint64

	bindGroup hal.BindGroup

	ready          bool
	externalDevice bool // shared device: never destroyed here
}

var _ mandelbrot.GPUAccelerator = (*Accelerator)(nil)

// NewAccelerator returns an uninitialized accelerator.
func NewAccelerator() *Accelerator { return &Accelerator{} }

func (a *Accelerator) Name() string { return "gpu" }

// SetLogger implements the logger propagation hook of mandelbrot.SetLogger.
func (a *Accelerator) SetLogger(l *slog.Logger) { setLogger(l) }

// Init validates the program, opens a Vulkan device and builds the
// pipeline. Device errors wrap mandelbrot.ErrBackendUnavailable; program
// errors are *ProgramBuildError.
func (a *Accelerator) Init() error {
	if err := ValidateShader(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ready {
		return nil
	}
	if err := a.openDevice(); err != nil {
		a.destroyDevice()
		return fmt.Errorf("%w: %w", mandelbrot.ErrBackendUnavailable, err)
	}
	if err := a.createPipeline(); err != nil {
		a.destroyPipeline()
		a.destroyDevice()
		return err
	}
	a.ready = true
	slogger().Info("gpu: accelerator initialized", "adapter", a.adapter)
	return nil
}

func (a *Accelerator) openDevice() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return errors.New("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return errors.New("no GPU adapters found")
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	a.adapter = selected.Info.Name
	return nil
}

func (a *Accelerator) createPipeline() error {
	shader, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "mandelbrot",
		Source: hal.ShaderSource{WGSL: shaderSource},
	})
	if err != nil {
		return buildError("shader module", err)
	}
	a.shader = shader

	bindLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "mandelbrot_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return buildError("bind group layout", err)
	}
	a.bindLayout = bindLayout

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "mandelbrot_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{a.bindLayout},
	})
	if err != nil {
		return buildError("pipeline layout", err)
	}
	a.pipeLayout = pipeLayout

	pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "mandelbrot_pipeline", Layout: a.pipeLayout,
		Compute: hal.ComputeState{Module: a.shader, EntryPoint: "main"},
	})
	if err != nil {
		return buildError("compute pipeline", err)
	}
	a.pipeline = pipeline

	uniformBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "mandelbrot_params", Size: lane.UniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create uniform buffer: %w", err)
	}
	a.uniformBuf = uniformBuf
	return nil
}

// Render implements mandelbrot.Renderer.
func (a *Accelerator) Render(ctx context.Context, p mandelbrot.Params) (*mandelbrot.FrameBuffer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p = p.Normalized()

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.ready {
		return nil, fmt.Errorf("%w: gpu accelerator not initialized", mandelbrot.ErrBackendUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u := lane.FromParams(p)
	if err := a.ensurePalette(p.IterationBound); err != nil {
		return nil, err
	}
	if err := a.ensurePixels(uint64(u.Width) * uint64(u.Height) * 4); err != nil {
		return nil, err
	}
	if err := a.ensureBindGroup(); err != nil {
		return nil, err
	}
	a.queue.WriteBuffer(a.uniformBuf, 0, u.Bytes())

	slogger().Debug("gpu: dispatch",
		"size", fmt.Sprintf("%dx%d", u.Width, u.Height),
		"bound", u.Bound,
		"step", u.PixelStep,
		"mode", p.ColorMode)

	frame := mandelbrot.NewFrameBuffer(p.Width, p.Height)
	if err := a.dispatch(ctx, u, frame.Data()); err != nil {
		return nil, err
	}
	return frame, nil
}

// ensurePalette uploads all three palettes for bound when it changes.
func (a *Accelerator) ensurePalette(bound int) error {
	if a.paletteBuf != nil && a.paletteBound == bound {
		return nil
	}
	words := lane.PaletteWords(bound)
	size := uint64(len(words)) * 4

	if a.paletteBuf == nil || a.paletteSize != size {
		a.dropBindGroup()
		if a.paletteBuf != nil {
			a.device.DestroyBuffer(a.paletteBuf)
			a.paletteBuf = nil
		}
		buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "mandelbrot_palette", Size: size,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("gpu: create palette buffer: %w", err)
		}
		a.paletteBuf = buf
		a.paletteSize = size
	}

	bytes := make([]byte, size)
	for i, w := range words {
		bytes[i*4+0] = byte(w)
		bytes[i*4+1] = byte(w >> 8)
		bytes[i*4+2] = byte(w >> 16)
		bytes[i*4+3] = byte(w >> 24)
	}
	a.queue.WriteBuffer(a.paletteBuf, 0, bytes)
	a.paletteBound = bound
	return nil
}

// ensurePixels sizes the output and staging buffers.
func (a *Accelerator) ensurePixels(size uint64) error {
	if a.pixelBuf != nil && a.pixelSize == size {
		return nil
	}
	a.dropBindGroup()
	a.destroyPixelBuffers()

	pixelBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "mandelbrot_pixels", Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: create pixel buffer: %w", err)
	}
	a.pixelBuf = pixelBuf

	stagingBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "mandelbrot_staging", Size: size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		a.destroyPixelBuffers()
		return fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	a.stagingBuf = stagingBuf
	a.pixelSize = size
	return nil
}

func (a *Accelerator) ensureBindGroup() error {
	if a.bindGroup != nil {
		return nil
	}
	bg, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "mandelbrot_bind", Layout: a.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: a.uniformBuf.NativeHandle(), Offset: 0, Size: lane.UniformSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: a.paletteBuf.NativeHandle(), Offset: 0, Size: a.paletteSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: a.pixelBuf.NativeHandle(), Offset: 0, Size: a.pixelSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group: %w", err)
	}
	a.bindGroup = bg
	return nil
}

func (a *Accelerator) dispatch(ctx context.Context, u lane.Uniforms, dst []byte) error {
	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "mandelbrot_encoder"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("mandelbrot"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "mandelbrot_pass"})
	pass.SetPipeline(a.pipeline)
	pass.SetBindGroup(0, a.bindGroup, nil)
	pass.Dispatch((u.Width+workgroupSize-1)/workgroupSize, (u.Height+workgroupSize-1)/workgroupSize, 1)
	pass.End()

	encoder.CopyBufferToBuffer(a.pixelBuf, a.stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: a.pixelSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)

	start := time.Now()
	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}

	timeout := fenceTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, max(time.Until(deadline), 0))
	}
	fenceOK, err := a.device.Wait(fence, 1, timeout)
	if err != nil {
		return fmt.Errorf("gpu: wait for dispatch: %w", err)
	}
	if !fenceOK {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("gpu: dispatch did not finish within %v", timeout)
	}

	if err := a.queue.ReadBuffer(a.stagingBuf, 0, dst); err != nil {
		return fmt.Errorf("gpu: readback: %w", err)
	}
	slogger().Debug("gpu: frame complete", "elapsed", time.Since(start))
	return nil
}

// SetDeviceProvider switches the accelerator to a device owned by the host.
// The provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func (a *Accelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return errors.New("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return errors.New("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return errors.New("gpu: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.destroyPipeline()
	a.destroyDevice()

	a.device = device
	a.queue = queue
	a.externalDevice = true
	a.adapter = "shared"

	if err := a.createPipeline(); err != nil {
		a.ready = false
		return fmt.Errorf("gpu: rebuild on shared device: %w", err)
	}
	a.ready = true
	slogger().Info("gpu: switched to shared device")
	return nil
}

// Close releases every GPU resource. A shared device is left to its owner.
func (a *Accelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyPipeline()
	a.destroyDevice()
	a.ready = false
}

func (a *Accelerator) dropBindGroup() {
	if a.bindGroup != nil {
		a.device.DestroyBindGroup(a.bindGroup)
		a.bindGroup = nil
	}
}

func (a *Accelerator) destroyPixelBuffers() {
	if a.pixelBuf != nil {
		a.device.DestroyBuffer(a.pixelBuf)
		a.pixelBuf = nil
	}
	if a.stagingBuf != nil {
		a.device.DestroyBuffer(a.stagingBuf)
		a.stagingBuf = nil
	}
	a.pixelSize = 0
}

// destroyPipeline frees every device object this accelerator created.
func (a *Accelerator) destroyPipeline() {
	if a.device == nil {
		return
	}
	a.dropBindGroup()
	a.destroyPixelBuffers()
	if a.paletteBuf != nil {
		a.device.DestroyBuffer(a.paletteBuf)
		a.paletteBuf = nil
		a.paletteSize = 0
		a.paletteBound = 0
	}
	if a.uniformBuf != nil {
		a.device.DestroyBuffer(a.uniformBuf)
		a.uniformBuf = nil
	}
	if a.pipeline != nil {
		a.device.DestroyComputePipeline(a.pipeline)
		a.pipeline = nil
	}
	if a.pipeLayout != nil {
		a.device.DestroyPipelineLayout(a.pipeLayout)
		a.pipeLayout = nil
	}
	if a.bindLayout != nil {
		a.device.DestroyBindGroupLayout(a.bindLayout)
		a.bindLayout = nil
	}
	if a.shader != nil {
		a.device.DestroyShaderModule(a.shader)
		a.shader = nil
	}
}

func (a *Accelerator) destroyDevice() {
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device = nil
	a.queue = nil
	a.instance = nil
	a.externalDevice = false
}
