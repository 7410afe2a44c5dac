package mandelbrot

import "github.com/AdrikGG/Mandelbrot/internal/cache"

// Palette is a precomputed ColorFor table for one mode and iteration bound.
// Entry i holds ColorFor(i, bound, mode) for i in [0, bound].
type Palette struct {
	mode   ColorMode
	bound  int
	colors []RGB
}

type paletteKey struct {
	mode  ColorMode
	bound int
}

// paletteCache holds recently used palettes. Interactive sessions move the
// bound a few steps at a time, so a handful of entries covers zoom in and
// back out.
var paletteCache = cache.New[paletteKey, *Palette](16)

// NewPalette builds a palette without consulting the cache.
func NewPalette(mode ColorMode, bound int) *Palette {
	if bound < 0 {
		bound = 0
	}
	p := &Palette{mode: mode, bound: bound, colors: make([]RGB, bound+1)}
	for i := range p.colors {
		p.colors[i] = ColorFor(i, bound, mode)
	}
	return p
}

// PaletteFor returns the shared palette for mode and bound.
// The result is read-only.
func PaletteFor(mode ColorMode, bound int) *Palette {
	return paletteCache.GetOrCreate(paletteKey{mode, bound}, func() *Palette {
		Logger().Debug("palette built", "mode", mode, "bound", bound)
		return NewPalette(mode, bound)
	})
}

func (p *Palette) Mode() ColorMode { return p.mode }
func (p *Palette) Bound() int      { return p.bound }
func (p *Palette) Len() int        { return len(p.colors) }

// Color returns the color for an escape count, clamping out-of-range counts.
func (p *Palette) Color(iter int) RGB {
	if iter < 0 {
		iter = 0
	}
	if iter >= len(p.colors) {
		return Sentinel
	}
	return p.colors[iter]
}

// At returns the color for an evaluated point.
func (p *Palette) At(e Escape) RGB {
	if !e.Escaped {
		return Sentinel
	}
	return p.Color(e.Count)
}

// Packed returns the palette as little-endian RGBA words (R in the low
// byte, alpha 0xff), the layout the GPU kernel reads.
func (p *Palette) Packed() []uint32 {
	out := make([]uint32, len(p.colors))
	for i, c := range p.colors {
		out[i] = PackRGBA(c)
	}
	return out
}

// PackRGBA packs c into R | G<<8 | B<<16 | 0xff<<24.
func PackRGBA(c RGB) uint32 {
	return uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | 0xff<<24
}
