package lane

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/AdrikGG/Mandelbrot"
	"github.com/AdrikGG/Mandelbrot/arith"
)

func frameParams(w, h, bound int) mandelbrot.Params {
	return mandelbrot.Params{
		Viewport:       mandelbrot.DefaultViewport(w, h, float64(w)/3),
		Width:          w,
		Height:         h,
		IterationBound: bound,
		ColorMode:      mandelbrot.CosinePalette,
	}.Normalized()
}

func TestUniformBytesLayout(t *testing.T) {
	p := frameParams(640, 480, 250)
	p.PixelStep = 2
	u := FromParams(p)
	b := u.Bytes()
	if len(b) != UniformSize {
		t.Fatalf("len(Bytes()) = %d, want %d", len(b), UniformSize)
	}

	le := binary.LittleEndian
	u32 := []struct {
		off  int
		want uint32
	}{
		{0, 640}, {4, 480}, {8, 250}, {12, 2}, {16, uint32(mandelbrot.CosinePalette)}, {24, 251},
	}
	for _, f := range u32 {
		if got := le.Uint32(b[f.off:]); got != f.want {
			t.Errorf("u32 at %d = %d, want %d", f.off, got, f.want)
		}
	}
	if got := math.Float32frombits(le.Uint32(b[20:])); got != 4 {
		t.Errorf("radius2 = %v, want 4", got)
	}

	pair := func(off int) arith.Single {
		return arith.Single{
			Hi: math.Float32frombits(le.Uint32(b[off:])),
			Lo: math.Float32frombits(le.Uint32(b[off+4:])),
		}
	}
	if pair(32) != u.XMin || pair(40) != u.YMin || pair(48) != u.Step {
		t.Error("pair fields not at 32, 40, 48")
	}
	if got := pair(32).Float64(); got != p.Viewport.XMin {
		t.Errorf("xmin round trip = %v, want %v", got, p.Viewport.XMin)
	}
}

func TestDecodeEncode(t *testing.T) {
	tests := []struct {
		v    uint32
		want mandelbrot.Escape
	}{
		{0, mandelbrot.Escape{Count: 100}},
		{1, mandelbrot.Escape{Count: 0, Escaped: true}},
		{57, mandelbrot.Escape{Count: 56, Escaped: true}},
	}
	for _, tt := range tests {
		got := Decode(tt.v, 100)
		if got != tt.want {
			t.Errorf("Decode(%d) = %+v, want %+v", tt.v, got, tt.want)
		}
		if back := Encode(got); back != tt.v {
			t.Errorf("Encode(%+v) = %d, want %d", got, back, tt.v)
		}
	}
}

func TestEvalKnownPoints(t *testing.T) {
	tests := []struct {
		name   string
		cx, cy float64
		want   uint32
	}{
		{"origin", 0, 0, 0},
		{"period two", -1, 0, 0},
		{"outside", 2, 2, 1},
		{"real 1", 1, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Eval(arith.Split64(tt.cx), arith.Split64(tt.cy), 500, 4)
			if got != tt.want {
				t.Errorf("Eval = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEvalMatchesEscapeTimeOf(t *testing.T) {
	const bound = 80
	r2 := arith.Single{Hi: 4}
	for y := range 24 {
		for x := range 36 {
			cx := arith.Split64(-2.2 + float64(x)*0.09)
			cy := arith.Split64(-1.2 + float64(y)*0.1)
			want := Encode(mandelbrot.EscapeTimeOf(cx, cy, bound, r2))
			if got := Eval(cx, cy, bound, 4); got != want {
				t.Fatalf("c=(%v, %v): Eval %d, EscapeTimeOf %d", cx.Float64(), cy.Float64(), got, want)
			}
		}
	}
}

func TestCoordSnapsToBlock(t *testing.T) {
	p := frameParams(64, 64, 10)
	p.PixelStep = 4
	u := FromParams(p)
	ax, ay := u.Coord(5, 6)
	bx, by := u.Coord(4, 4)
	if ax != bx || ay != by {
		t.Errorf("Coord(5, 6) = (%v, %v), want block origin (%v, %v)", ax, ay, bx, by)
	}
	cx, _ := u.Coord(8, 4)
	if cx == bx {
		t.Error("next block shares the coordinate")
	}
}

func TestPaletteWordsAndShade(t *testing.T) {
	const bound = 40
	words := PaletteWords(bound)
	if len(words) != 3*(bound+1) {
		t.Fatalf("len(PaletteWords) = %d", len(words))
	}

	for _, mode := range []mandelbrot.ColorMode{mandelbrot.CyclicHue, mandelbrot.CosinePalette, mandelbrot.Grayscale} {
		p := frameParams(8, 8, bound)
		p.ColorMode = mode
		u := FromParams(p)
		if got := u.Shade(words, 0); got != mandelbrot.PackRGBA(mandelbrot.Sentinel) {
			t.Errorf("%v: interior shade = %#x", mode, got)
		}
		if got, want := u.Shade(words, 4), mandelbrot.PackRGBA(mandelbrot.ColorFor(3, bound, mode)); got != want {
			t.Errorf("%v: shade(4) = %#x, want %#x", mode, got, want)
		}
	}
}

// Double-single carries fewer bits than float64, so a few boundary pixels
// may land on the other side of the escape test.
func TestRenderCloseToSequential(t *testing.T) {
	p := frameParams(64, 48, 100)
	ref, err := mandelbrot.NewSequentialRenderer().Render(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	got := Render(FromParams(p), PaletteWords(p.IterationBound))

	mismatched := 0
	for y := range p.Height {
		for x := range p.Width {
			if got[y*p.Width+x] != mandelbrot.PackRGBA(ref.RGBAt(x, y)) {
				mismatched++
			}
		}
	}
	if limit := len(got) / 50; mismatched > limit {
		t.Errorf("%d of %d pixels differ, limit %d", mismatched, len(got), limit)
	}
}
