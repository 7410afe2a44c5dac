package mandelbrot

import (
	"errors"
	"fmt"
	"math"

	"github.com/AdrikGG/Mandelbrot/arith"
)

// DefaultZoomFactor is the scale multiplier applied per zoom tick.
const DefaultZoomFactor = 1.05

// PanStep is the pan distance in screen pixels. Dividing by the current
// scale keeps the on-screen speed constant at every zoom level.
const PanStep = 10

// ErrDegenerateViewport is returned by Viewport.Validate.
var ErrDegenerateViewport = errors.New("mandelbrot: degenerate viewport")

// Direction is a pan direction in screen space.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Viewport is the rectangle of the complex plane mapped onto the pixel grid.
// Row 0 maps to YMin and column 0 to XMin. Scale is pixels per unit.
//
// Viewport is a value; every operation returns a new one.
type Viewport struct {
	XMin, YMin float64
	XMax, YMax float64
	Scale      float64
}

// DefaultViewport centers the origin in a plotWidth x plotHeight grid.
func DefaultViewport(plotWidth, plotHeight int, scale float64) Viewport {
	hw := float64(plotWidth) / (scale * 2)
	hh := float64(plotHeight) / (scale * 2)
	return Viewport{XMin: -hw, YMin: -hh, XMax: hw, YMax: hh, Scale: scale}
}

// Validate reports whether v can be evaluated.
func (v Viewport) Validate() error {
	for _, f := range [...]float64{v.XMin, v.YMin, v.XMax, v.YMax, v.Scale} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite bound in %v", ErrDegenerateViewport, v)
		}
	}
	if v.XMax <= v.XMin || v.YMax <= v.YMin {
		return fmt.Errorf("%w: empty range in %v", ErrDegenerateViewport, v)
	}
	if v.Scale <= 0 {
		return fmt.Errorf("%w: scale %g", ErrDegenerateViewport, v.Scale)
	}
	return nil
}

// Width returns XMax - XMin.
func (v Viewport) Width() float64 { return v.XMax - v.XMin }

// Height returns YMax - YMin.
func (v Viewport) Height() float64 { return v.YMax - v.YMin }

// PixelToComplex maps a pixel position to the complex plane.
func (v Viewport) PixelToComplex(px, py float64) (re, im float64) {
	return v.XMin + px/v.Scale, v.YMin + py/v.Scale
}

// PixelToExtended is PixelToComplex without rounding the sum, so adjacent
// pixels stay distinct after their spacing drops below one float64 ulp of
// the bounds.
func (v Viewport) PixelToExtended(px, py float64) (re, im arith.Extended) {
	re = arith.Extended{Hi: v.XMin}.Add(arith.Extended{Hi: px / v.Scale})
	im = arith.Extended{Hi: v.YMin}.Add(arith.Extended{Hi: py / v.Scale})
	return re, im
}

// ComplexToPixel is the inverse of PixelToComplex.
func (v Viewport) ComplexToPixel(re, im float64) (px, py float64) {
	return (re - v.XMin) * v.Scale, (im - v.YMin) * v.Scale
}

// Zoom scales the viewport by factor around the point at fractional plot
// position (percentX, percentY), which stays fixed on screen. percentY is
// measured along the row direction, so 0 is row 0.
func (v Viewport) Zoom(percentX, percentY float64, zoomIn bool, factor float64) Viewport {
	if factor <= 0 {
		factor = DefaultZoomFactor
	}
	compW, compH := v.Width(), v.Height()

	var newW, newH, newScale float64
	if zoomIn {
		newW, newH, newScale = compW/factor, compH/factor, v.Scale*factor
	} else {
		newW, newH, newScale = compW*factor, compH*factor, v.Scale/factor
	}

	xMin := v.XMin + (compW-newW)*percentX
	yMin := v.YMin + (compH-newH)*percentY
	return Viewport{
		XMin:  xMin,
		YMin:  yMin,
		XMax:  xMin + newW,
		YMax:  yMin + newH,
		Scale: newScale,
	}
}

// Pan translates the viewport by PanStep screen pixels.
func (v Viewport) Pan(d Direction) Viewport {
	step := PanStep / v.Scale
	var dx, dy float64
	switch d {
	case Up:
		dy = -step
	case Down:
		dy = step
	case Left:
		dx = -step
	case Right:
		dx = step
	}
	return Viewport{
		XMin:  v.XMin + dx,
		YMin:  v.YMin + dy,
		XMax:  v.XMax + dx,
		YMax:  v.YMax + dy,
		Scale: v.Scale,
	}
}

func (v Viewport) String() string {
	return fmt.Sprintf("[%g, %g] x [%g, %g] @%g", v.XMin, v.XMax, v.YMin, v.YMax, v.Scale)
}
