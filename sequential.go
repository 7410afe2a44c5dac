package mandelbrot

import "context"

// SequentialRenderer evaluates every pixel on the calling goroutine. It is
// the reference the other backends are tested against.
type SequentialRenderer struct{}

// NewSequentialRenderer returns a SequentialRenderer.
func NewSequentialRenderer() *SequentialRenderer { return &SequentialRenderer{} }

func (*SequentialRenderer) Name() string { return "sequential" }

// Render implements Renderer.
func (*SequentialRenderer) Render(ctx context.Context, p Params) (*FrameBuffer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p = p.Normalized()

	pal := PaletteFor(p.ColorMode, p.IterationBound)
	frame := NewFrameBuffer(p.Width, p.Height)
	if err := renderRows(ctx, frame.data, &p, FullFrame(p.Height, p.PixelStep), pal); err != nil {
		return nil, err
	}
	return frame, nil
}
