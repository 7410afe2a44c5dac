package mandelbrot

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdrikGG/Mandelbrot/arith"
)

// Renderer errors.
var (
	// ErrFrameInFlight is returned when a frame is requested from a renderer
	// that is still producing the previous one.
	ErrFrameInFlight = errors.New("mandelbrot: a frame is already in flight")

	// ErrBackendUnavailable marks a backend that cannot run on this host.
	// Hosts fall back to a CPU renderer.
	ErrBackendUnavailable = errors.New("mandelbrot: backend unavailable")

	// ErrRendererClosed is returned by Render after Close.
	ErrRendererClosed = errors.New("mandelbrot: renderer closed")
)

// TaskError reports that one tile of a parallel frame failed. The whole
// frame is discarded.
type TaskError struct {
	Tile int
	Unit WorkUnit
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("mandelbrot: tile %d (%v) failed: %v", e.Tile, e.Unit, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Renderer produces complete frames. A returned frame is never partially
// written: on error the frame is nil.
type Renderer interface {
	// Name identifies the backend in logs.
	Name() string

	Render(ctx context.Context, p Params) (*FrameBuffer, error)
}

// renderRows evaluates the rows of u into dst, which holds exactly those
// rows. Blocks of u.PixelStep x u.PixelStep pixels share the value of their
// top-left pixel. ctx is checked once per block row.
func renderRows(ctx context.Context, dst []uint8, p *Params, u WorkUnit, pal *Palette) error {
	stride := p.Width * 4
	step := u.PixelStep
	for by := u.RowStart; by < u.RowEnd; by += step {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows := min(step, u.RowEnd-by)
		first := dst[(by-u.RowStart)*stride : (by-u.RowStart+1)*stride]

		for bx := 0; bx < p.Width; bx += step {
			c := pal.At(p.evaluate(bx, by))
			end := min(bx+step, p.Width)
			for x := bx; x < end; x++ {
				i := x * 4
				first[i+0] = c.R
				first[i+1] = c.G
				first[i+2] = c.B
				first[i+3] = 0xff
			}
		}
		for r := 1; r < rows; r++ {
			off := (by - u.RowStart + r) * stride
			copy(dst[off:off+stride], first)
		}
	}
	return nil
}

func extendedRadius(r2 float64) arith.Extended { return arith.Extended{Hi: r2} }
