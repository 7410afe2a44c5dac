package mandelbrot

import (
	"errors"
	"fmt"
)

// ErrInvalidParams wraps every Params validation failure.
var ErrInvalidParams = errors.New("mandelbrot: invalid render parameters")

// Precision selects the arithmetic of the CPU evaluators.
type Precision uint8

const (
	// PrecisionNative evaluates in float64.
	PrecisionNative Precision = iota

	// PrecisionExtended evaluates in double-double and maps pixels without
	// rounding the offset into the viewport bounds.
	PrecisionExtended
)

func (p Precision) String() string {
	switch p {
	case PrecisionNative:
		return "native"
	case PrecisionExtended:
		return "extended"
	default:
		return fmt.Sprintf("Precision(%d)", uint8(p))
	}
}

// Params is the immutable input of one frame.
type Params struct {
	Viewport Viewport

	// Width and Height of the output in pixels.
	Width, Height int

	// PixelStep is the edge of a coarsened block. Each block is evaluated
	// once at its top-left pixel. Zero means 1.
	PixelStep int

	IterationBound int

	// EscapeRadius2 is the squared escape radius. Zero means
	// DefaultEscapeRadius2.
	EscapeRadius2 float64

	ColorMode ColorMode
	Precision Precision
}

// Normalized returns p with zero-valued optional fields defaulted.
func (p Params) Normalized() Params {
	if p.PixelStep == 0 {
		p.PixelStep = 1
	}
	if p.EscapeRadius2 == 0 {
		p.EscapeRadius2 = DefaultEscapeRadius2
	}
	return p
}

// Validate checks p after normalization.
func (p Params) Validate() error {
	p = p.Normalized()
	switch {
	case p.Width < 1 || p.Height < 1:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidParams, p.Width, p.Height)
	case p.PixelStep < 1:
		return fmt.Errorf("%w: %w", ErrInvalidParams, ErrInvalidPixelStep)
	case p.IterationBound < 1:
		return fmt.Errorf("%w: iteration bound %d", ErrInvalidParams, p.IterationBound)
	case !(p.EscapeRadius2 > 0) || !finite(p.EscapeRadius2):
		return fmt.Errorf("%w: escape radius^2 %g", ErrInvalidParams, p.EscapeRadius2)
	case p.ColorMode >= numColorModes:
		return fmt.Errorf("%w: color mode %v", ErrInvalidParams, p.ColorMode)
	}
	if err := p.Viewport.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return nil
}

// evaluate computes the escape of pixel (px, py).
func (p *Params) evaluate(px, py int) Escape {
	if p.Precision == PrecisionExtended {
		re, im := p.Viewport.PixelToExtended(float64(px), float64(py))
		return EscapeTimeOf(re, im, p.IterationBound, extendedRadius(p.EscapeRadius2))
	}
	re, im := p.Viewport.PixelToComplex(float64(px), float64(py))
	return EscapeTime(re, im, p.IterationBound, p.EscapeRadius2)
}
