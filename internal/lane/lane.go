// Package lane models the GPU compute kernel on the CPU.
//
// Every function here performs the same double-single operations in the
// same order as shaders/mandelbrot.wgsl, so GPU output can be checked
// pixel by pixel and the uniform block layout has a single definition.
//
// Lane values: the kernel keeps iterating a lane until it escapes, then
// freezes it. A lane that reaches the iteration bound reports 0
// (interior); a lane that escaped on iteration k reports k+1.
package lane

import (
	"encoding/binary"
	"math"

	"github.com/AdrikGG/Mandelbrot"
	"github.com/AdrikGG/Mandelbrot/arith"
)

// UniformSize is the byte size of the kernel's uniform block.
const UniformSize = 64

// Uniforms mirrors the WGSL Params struct.
type Uniforms struct {
	Width, Height uint32
	Bound         uint32
	PixelStep     uint32
	ColorMode     uint32
	Radius2       float32
	LUTStride     uint32

	XMin, YMin arith.Single
	Step       arith.Single // 1 / scale
}

// FromParams derives the uniforms of a frame. p must be normalized.
func FromParams(p mandelbrot.Params) Uniforms {
	return Uniforms{
		Width:     uint32(p.Width),          //nolint:gosec // validated positive
		Height:    uint32(p.Height),         //nolint:gosec // validated positive
		Bound:     uint32(p.IterationBound), //nolint:gosec // validated positive
		PixelStep: uint32(p.PixelStep),      //nolint:gosec // validated positive
		ColorMode: uint32(p.ColorMode),
		Radius2:   float32(p.EscapeRadius2),
		LUTStride: uint32(p.IterationBound + 1), //nolint:gosec // validated positive
		XMin:      arith.Split64(p.Viewport.XMin),
		YMin:      arith.Split64(p.Viewport.YMin),
		Step:      arith.Split64(1 / p.Viewport.Scale),
	}
}

// Bytes encodes u in the std140-compatible layout the shader declares.
func (u Uniforms) Bytes() []byte {
	b := make([]byte, UniformSize)
	le := binary.LittleEndian
	le.PutUint32(b[0:], u.Width)
	le.PutUint32(b[4:], u.Height)
	le.PutUint32(b[8:], u.Bound)
	le.PutUint32(b[12:], u.PixelStep)
	le.PutUint32(b[16:], u.ColorMode)
	le.PutUint32(b[20:], math.Float32bits(u.Radius2))
	le.PutUint32(b[24:], u.LUTStride)
	// 28: padding
	putSingle(b[32:], u.XMin)
	putSingle(b[40:], u.YMin)
	putSingle(b[48:], u.Step)
	// 56: padding
	return b
}

func putSingle(b []byte, s arith.Single) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(s.Hi))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(s.Lo))
}

// Coord returns the complex coordinate evaluated for pixel (x, y): the
// top-left pixel of its coarsening block.
func (u Uniforms) Coord(x, y uint32) (cx, cy arith.Single) {
	step := max(u.PixelStep, 1)
	bx := x - x%step
	by := y - y%step
	cx = u.XMin.Add(arith.Single{Hi: float32(bx)}.Mul(u.Step))
	cy = u.YMin.Add(arith.Single{Hi: float32(by)}.Mul(u.Step))
	return cx, cy
}

// Eval runs the branch-minimized kernel loop and returns the lane value.
func Eval(cx, cy arith.Single, bound uint32, radius2 float32) uint32 {
	r2 := arith.Single{Hi: radius2}
	var zx, zy arith.Single
	var count uint32
	for i := range bound {
		live := count == 0

		xt := zx.Mul(zy)
		nzx := zx.Mul(zx).Sub(zy.Mul(zy)).Add(cx)
		nzy := xt.Add(xt).Add(cy)
		zx = selectSingle(zx, nzx, live)
		zy = selectSingle(zy, nzy, live)

		m := zx.Mul(zx).Add(zy.Mul(zy))
		// Cmp is 0 for NaN, so NaN lanes count as escaped.
		if live && m.Cmp(r2) >= 0 {
			count = i + 1
		}
	}
	return count
}

func selectSingle(f, t arith.Single, cond bool) arith.Single {
	if cond {
		return t
	}
	return f
}

// Decode converts a lane value to an Escape.
func Decode(v uint32, bound int) mandelbrot.Escape {
	if v == 0 {
		return mandelbrot.Escape{Count: bound, Escaped: false}
	}
	return mandelbrot.Escape{Count: int(v - 1), Escaped: true}
}

// Encode is the inverse of Decode.
func Encode(e mandelbrot.Escape) uint32 {
	if !e.Escaped {
		return 0
	}
	return uint32(e.Count + 1) //nolint:gosec // counts are non-negative
}

// PaletteWords builds the kernel's palette buffer: one table of LUTStride
// words per color mode, in ColorMode order.
func PaletteWords(bound int) []uint32 {
	modes := []mandelbrot.ColorMode{mandelbrot.CyclicHue, mandelbrot.CosinePalette, mandelbrot.Grayscale}
	out := make([]uint32, 0, len(modes)*(bound+1))
	for _, m := range modes {
		out = append(out, mandelbrot.PaletteFor(m, bound).Packed()...)
	}
	return out
}

// Shade returns the packed color of a lane value.
func (u Uniforms) Shade(palette []uint32, v uint32) uint32 {
	entry := u.Bound
	if v != 0 {
		entry = v - 1
	}
	return palette[u.ColorMode*u.LUTStride+entry]
}

// Render evaluates a whole frame the way one dispatch does and returns the
// packed pixel words.
func Render(u Uniforms, palette []uint32) []uint32 {
	out := make([]uint32, int(u.Width)*int(u.Height))
	for y := range u.Height {
		for x := range u.Width {
			cx, cy := u.Coord(x, y)
			out[y*u.Width+x] = u.Shade(palette, Eval(cx, cy, u.Bound, u.Radius2))
		}
	}
	return out
}
