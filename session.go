package mandelbrot

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Defaults for a new session.
const (
	DefaultPlotWidth      = 1500
	DefaultPlotHeight     = 900
	DefaultScale          = 400
	DefaultIterationBound = 200
)

// ErrInvalidSetting is returned by Session setters for out-of-range values.
var ErrInvalidSetting = errors.New("mandelbrot: invalid setting")

// Session holds the interactive exploration state: the current viewport and
// the quality knobs. Every operation replaces the viewport with a new value.
//
// Session is safe for concurrent use.
type Session struct {
	mu sync.RWMutex

	width, height int
	initial       Viewport

	viewport  Viewport
	bound     int
	step      int
	mode      ColorMode
	precision Precision
	radius2   float64
	factor    float64
	adaptive  int
	zoomCount int
}

// NewSession starts a session for a width x height plot centered on the
// origin.
func NewSession(width, height int, opts ...SessionOption) (*Session, error) {
	o := defaultSessionOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: plot size %dx%d", ErrInvalidSetting, width, height)
	}
	if o.iterationBound < 1 {
		return nil, fmt.Errorf("%w: iteration bound %d", ErrInvalidSetting, o.iterationBound)
	}
	if o.pixelStep < 1 {
		return nil, fmt.Errorf("%w: pixel step %d", ErrInvalidSetting, o.pixelStep)
	}
	if !(o.zoomFactor > 1) {
		return nil, fmt.Errorf("%w: zoom factor %g", ErrInvalidSetting, o.zoomFactor)
	}

	vp := DefaultViewport(width, height, o.scale)
	if err := vp.Validate(); err != nil {
		return nil, err
	}

	return &Session{
		width:     width,
		height:    height,
		initial:   vp,
		viewport:  vp,
		bound:     o.iterationBound,
		step:      o.pixelStep,
		mode:      o.colorMode,
		precision: o.precision,
		radius2:   o.escapeRadius2,
		factor:    o.zoomFactor,
		adaptive:  o.adaptiveStep,
	}, nil
}

// Zoom zooms around the plot fraction (percentX, percentY), where (0, 0)
// is the top-left pixel. It returns the new viewport.
func (s *Session) Zoom(percentX, percentY float64, zoomIn bool) Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !finite(percentX) || !finite(percentY) {
		return s.viewport
	}

	next := s.viewport.Zoom(percentX, percentY, zoomIn, s.factor)
	if next.Validate() != nil {
		Logger().Warn("zoom rejected", "viewport", next)
		return s.viewport
	}
	s.viewport = next

	if zoomIn {
		s.zoomCount++
		s.bound += s.adaptive
	} else {
		s.zoomCount--
		s.bound = max(s.bound-s.adaptive, 1)
	}
	return s.viewport
}

// ZoomAt zooms around pixel (px, py).
func (s *Session) ZoomAt(px, py int, zoomIn bool) Viewport {
	return s.Zoom(float64(px)/float64(s.width), float64(py)/float64(s.height), zoomIn)
}

// Pan moves the viewport by PanStep screen pixels.
func (s *Session) Pan(d Direction) Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = s.viewport.Pan(d)
	return s.viewport
}

// ToggleColorMode flips the palette and returns the new mode.
func (s *Session) ToggleColorMode() ColorMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = s.mode.Toggle()
	return s.mode
}

// SetColorMode selects a palette directly.
func (s *Session) SetColorMode(m ColorMode) error {
	if m >= numColorModes {
		return fmt.Errorf("%w: color mode %v", ErrInvalidSetting, m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	return nil
}

// SetIterationBound sets the iteration bound. n must be at least 1.
func (s *Session) SetIterationBound(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: iteration bound %d", ErrInvalidSetting, n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bound = n
	return nil
}

// SetPixelStep sets the coarsening block size. n must be at least 1.
func (s *Session) SetPixelStep(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: pixel step %d", ErrInvalidSetting, n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = n
	return nil
}

// SetPrecision selects the CPU arithmetic.
func (s *Session) SetPrecision(p Precision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.precision = p
}

// Reset restores the initial viewport and zoom count.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = s.initial
	s.zoomCount = 0
}

// Viewport returns the current viewport.
func (s *Session) Viewport() Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

// Params returns the render parameters for the current state.
func (s *Session) Params() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Params{
		Viewport:       s.viewport,
		Width:          s.width,
		Height:         s.height,
		PixelStep:      s.step,
		IterationBound: s.bound,
		EscapeRadius2:  s.radius2,
		ColorMode:      s.mode,
		Precision:      s.precision,
	}
}

// Snapshot is a read-only copy of the session state for diagnostics.
type Snapshot struct {
	Viewport       Viewport
	Width, Height  int
	IterationBound int
	PixelStep      int
	Scale          float64
	ZoomCount      int
	ColorMode      ColorMode
	Precision      Precision
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Viewport:       s.viewport,
		Width:          s.width,
		Height:         s.height,
		IterationBound: s.bound,
		PixelStep:      s.step,
		Scale:          s.viewport.Scale,
		ZoomCount:      s.zoomCount,
		ColorMode:      s.mode,
		Precision:      s.precision,
	}
}

func (s Snapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "size: %dx%d (step %d)\n", s.Width, s.Height, s.PixelStep)
	fmt.Fprintf(&b, "range: x [%.17g, %.17g] y [%.17g, %.17g]\n",
		s.Viewport.XMin, s.Viewport.XMax, s.Viewport.YMin, s.Viewport.YMax)
	fmt.Fprintf(&b, "max iterations: %d\n", s.IterationBound)
	fmt.Fprintf(&b, "scale: %g\n", s.Scale)
	fmt.Fprintf(&b, "zooms: %d\n", s.ZoomCount)
	fmt.Fprintf(&b, "color: %v, precision: %v", s.ColorMode, s.Precision)
	return b.String()
}
