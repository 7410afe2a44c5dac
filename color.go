package mandelbrot

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an opaque 8-bit color.
type RGB struct {
	R, G, B uint8
}

// RGBA implements color.Color.
func (c RGB) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

// Sentinel is the color of interior points in every mode.
var Sentinel = RGB{}

// ColorMode selects the palette function.
type ColorMode uint8

const (
	// CyclicHue sweeps the hue wheel once every 255 iterations.
	CyclicHue ColorMode = iota

	// CosinePalette offsets three cosine waves of different frequency.
	// It does not repeat within practical iteration bounds.
	CosinePalette

	// Grayscale brightens monotonically toward white.
	Grayscale

	numColorModes = 3
)

// Cosine palette constants, per channel.
var (
	cosineFreq  = [3]float64{0.025, 0.08, 0.12}
	cosinePhase = [3]float64{0, 0.1, 0.2}
)

// grayscaleK controls how fast Grayscale saturates.
const grayscaleK = 0.05

// huePeriod is the CyclicHue period in iterations.
const huePeriod = 255

// Toggle flips between the two palettes. Grayscale toggles to CyclicHue.
func (m ColorMode) Toggle() ColorMode {
	if m == CyclicHue {
		return CosinePalette
	}
	return CyclicHue
}

func (m ColorMode) String() string {
	switch m {
	case CyclicHue:
		return "hue"
	case CosinePalette:
		return "cosine"
	case Grayscale:
		return "grayscale"
	default:
		return fmt.Sprintf("ColorMode(%d)", uint8(m))
	}
}

// ParseColorMode parses the String form of a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hue", "cyclic-hue":
		return CyclicHue, nil
	case "cosine", "cosine-palette":
		return CosinePalette, nil
	case "grayscale", "gray", "grey":
		return Grayscale, nil
	}
	return 0, fmt.Errorf("mandelbrot: unknown color mode %q", s)
}

// Interior reports whether an iteration count is colored with Sentinel.
// Counts within two of the bound are treated as interior to hide the ring
// the bound itself draws around the set.
func Interior(iter, bound int) bool {
	return bound-iter < 2
}

// ColorFor maps an escape count to a color. It is pure.
func ColorFor(iter, bound int, mode ColorMode) RGB {
	if Interior(iter, bound) {
		return Sentinel
	}
	if iter < 0 {
		iter = 0
	}
	switch mode {
	case CosinePalette:
		return cosineColor(iter)
	case Grayscale:
		return grayColor(iter)
	default:
		return hueColor(iter)
	}
}

func hueColor(iter int) RGB {
	h := float64(iter%huePeriod) / huePeriod
	r, g, b := colorful.Hsl(h*360, 1, 0.5).RGB255()
	return RGB{R: r, G: g, B: b}
}

func cosineColor(iter int) RGB {
	t := float64(iter)
	var ch [3]uint8
	for k := range ch {
		v := 0.5 - 0.5*math.Cos(cosineFreq[k]*t+2*math.Pi*cosinePhase[k])
		ch[k] = unitToByteFloor(v)
	}
	return RGB{R: ch[0], G: ch[1], B: ch[2]}
}

func grayColor(iter int) RGB {
	v := 1 - 1/(grayscaleK*float64(iter)+1)
	g := uint8(math.Round(clampUnit(v) * 255))
	return RGB{R: g, G: g, B: g}
}

func unitToByteFloor(v float64) uint8 {
	//nolint:gosec // G115: clamped to [0,255]
	return uint8(math.Floor(clampUnit(v) * 255))
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
