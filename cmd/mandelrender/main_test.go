package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/AdrikGG/Mandelbrot"
)

func TestParseScript(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []op
	}{
		{"empty", "", nil},
		{"keys", "e q c", []op{{key: 'e', repeat: 1}, {key: 'q', repeat: 1}, {key: 'c', repeat: 1}}},
		{"repeat", "w*3", []op{{key: 'w', repeat: 3}}},
		{"cursor", "e@10,20", []op{{key: 'e', x: 10, y: 20, cursor: true, repeat: 1}}},
		{"cursor repeat", "q@5,6*2", []op{{key: 'q', x: 5, y: 6, cursor: true, repeat: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScript(tt.in)
			if err != nil {
				t.Fatalf("parseScript(%q) error: %v", tt.in, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseScript(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("op %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseScriptErrors(t *testing.T) {
	for _, in := range []string{"x", "e*0", "e*n", "e@1", "e@a,b", "wx"} {
		if _, err := parseScript(in); err == nil {
			t.Errorf("parseScript(%q) succeeded, want error", in)
		}
	}
}

func TestOpApply(t *testing.T) {
	sess, err := mandelbrot.NewSession(200, 100)
	if err != nil {
		t.Fatal(err)
	}
	start := sess.Viewport()

	ops, err := parseScript("e*2 d c")
	if err != nil {
		t.Fatal(err)
	}
	var diag bytes.Buffer
	for _, o := range ops {
		for range o.repeat {
			o.apply(sess, &diag)
		}
	}

	snap := sess.Snapshot()
	if snap.ZoomCount != 2 {
		t.Errorf("ZoomCount = %d, want 2", snap.ZoomCount)
	}
	if snap.Viewport.Scale <= start.Scale {
		t.Errorf("scale %v did not grow from %v", snap.Viewport.Scale, start.Scale)
	}
	if snap.ColorMode != mandelbrot.CosinePalette {
		t.Errorf("ColorMode = %v, want %v", snap.ColorMode, mandelbrot.CosinePalette)
	}

	p := op{key: 'p', repeat: 1}
	if p.apply(sess, &diag) {
		t.Error("p reported a view change")
	}
	if !strings.Contains(diag.String(), "zoom") {
		t.Errorf("diagnostics missing zoom count: %q", diag.String())
	}
}

func TestConfigLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.toml")
	toml := "[render]\nwidth = 320\nheight = 200\niterations = 500\npalette = \"grayscale\"\n"
	if err := os.WriteFile(path, []byte(toml), 0o600); err != nil {
		t.Fatal(err)
	}

	conf := defaultConfig()
	if err := loadConfigFile(path, &conf); err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}
	if conf.Width != 320 || conf.Height != 200 || conf.Iterations != 500 {
		t.Errorf("file values not applied: %+v", conf)
	}
	if conf.Scale != mandelbrot.DefaultScale {
		t.Errorf("Scale = %v, want default %v", conf.Scale, mandelbrot.DefaultScale)
	}

	iter := 42
	applyArgs(&args{Iterations: &iter}, &conf)
	if conf.Iterations != 42 {
		t.Errorf("flag did not override file: Iterations = %d", conf.Iterations)
	}
	if conf.Width != 320 {
		t.Errorf("unset flag overrode file: Width = %d", conf.Width)
	}

	opts, err := conf.sessionOptions()
	if err != nil {
		t.Fatal(err)
	}
	sess, err := mandelbrot.NewSession(conf.Width, conf.Height, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if got := sess.Params().ColorMode; got != mandelbrot.Grayscale {
		t.Errorf("ColorMode = %v, want grayscale", got)
	}
}

func TestConfigErrors(t *testing.T) {
	conf := defaultConfig()
	if err := loadConfigFile(filepath.Join(t.TempDir(), "missing.toml"), &conf); err == nil {
		t.Error("missing file loaded")
	}

	conf.Palette = "plaid"
	if _, err := conf.sessionOptions(); err == nil {
		t.Error("unknown palette accepted")
	}
	conf = defaultConfig()
	conf.Precision = "quad"
	if _, err := conf.sessionOptions(); err == nil {
		t.Error("unknown precision accepted")
	}
}

func TestDrawHUD(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 300, 120))
	sess, err := mandelbrot.NewSession(300, 120)
	if err != nil {
		t.Fatal(err)
	}
	lines := hudLines(sess.Snapshot(), "parallel")
	if len(lines) == 0 || !strings.Contains(lines[len(lines)-1], "parallel") {
		t.Fatalf("hudLines = %q", lines)
	}

	if err := drawHUD(img, lines); err != nil {
		t.Fatal(err)
	}

	lit := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] == 0xff {
			lit++
		}
	}
	if lit == 0 {
		t.Error("no glyph pixels drawn")
	}
	if c := img.RGBAAt(299, 119); c.A != 0 {
		t.Errorf("pixel outside the HUD box touched: %v", c)
	}
}

func TestHUDFaceMeasuresShapedText(t *testing.T) {
	h, err := newHUDFace()
	if err != nil {
		t.Fatal(err)
	}
	defer h.draw.Close()

	if got := h.advance(""); got != 0 {
		t.Errorf("advance(\"\") = %v, want 0", got)
	}
	narrow, wide := h.advance("iiii"), h.advance("WWWW")
	if narrow <= 0 || wide <= narrow {
		t.Errorf("advance(iiii) = %v, advance(WWWW) = %v", narrow, wide)
	}

	lines := []string{"zoom 3", "iterations 1,200  step 2"}
	box := h.box(lines)
	for _, l := range lines {
		if w := h.advance(l).Ceil() + 2*hudMargin; box.Dx() < w {
			t.Errorf("box width %d does not fit %q (%d)", box.Dx(), l, w)
		}
	}
	if box.Dy() <= 2*hudMargin {
		t.Errorf("box height %d has no room for lines", box.Dy())
	}
}

func TestRealMainExitCodes(t *testing.T) {
	orig := mandelbrot.Logger()
	t.Cleanup(func() { mandelbrot.SetLogger(orig) })

	t.Run("unknown profile", func(t *testing.T) {
		if code := realMain(&args{Prof: "heap"}); code != 2 {
			t.Errorf("realMain() = %d, want 2", code)
		}
	})

	t.Run("failed run keeps profile", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		a := &args{Prof: "cpu", Config: filepath.Join(dir, "missing.toml")}
		if code := realMain(a); code != 1 {
			t.Fatalf("realMain() = %d, want 1", code)
		}
		if _, err := os.Stat(filepath.Join(dir, "cpu.pprof")); err != nil {
			t.Errorf("cpu profile not written: %v", err)
		}
	})
}

func TestThumbnail(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	th := thumbnail(img, 100)
	if b := th.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("thumbnail bounds = %v, want 100x50", b)
	}
}

func TestRawDumpRoundTrip(t *testing.T) {
	p := mandelbrot.Params{
		Viewport:       mandelbrot.DefaultViewport(33, 17, 10),
		Width:          33,
		Height:         17,
		IterationBound: 40,
	}
	want, err := mandelbrot.NewSequentialRenderer().Render(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "frame.raw.zst")
	if err := saveRaw(path, want); err != nil {
		t.Fatal(err)
	}
	in, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	got, err := readRaw(in)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(want) {
		t.Error("dump does not reproduce the frame")
	}
}

func TestReadRawRejectsOtherData(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = enc.Write([]byte("PNG?not a dump"))
	_ = enc.Close()

	if _, err := readRaw(&buf); !errors.Is(err, errRawFormat) {
		t.Errorf("readRaw() = %v, want errRawFormat", err)
	}
}

func TestReadRawRejectsOversizeHeader(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	// 0xffffffff x 0xffffffff would ask for 64 EiB of pixels.
	_, _ = enc.Write(append(rawMagic[:], 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff))
	_ = enc.Close()

	if _, err := readRaw(&buf); !errors.Is(err, errRawFormat) {
		t.Errorf("readRaw() = %v, want errRawFormat", err)
	}
}

func TestCompareRaw(t *testing.T) {
	ref := mandelbrot.NewFrameBuffer(8, 4)
	path := filepath.Join(t.TempDir(), "ref.raw.zst")
	if err := saveRaw(path, ref); err != nil {
		t.Fatal(err)
	}

	same := ref.Clone()
	if n, err := compareRaw(path, same); err != nil || n != 0 {
		t.Errorf("compareRaw(identical) = %d, %v", n, err)
	}

	changed := ref.Clone()
	changed.Set(3, 1, mandelbrot.RGB{R: 9})
	changed.Set(7, 3, mandelbrot.RGB{G: 9})
	if n, err := compareRaw(path, changed); err != nil || n != 2 {
		t.Errorf("compareRaw(two changed) = %d, %v, want 2", n, err)
	}

	if _, err := compareRaw(path, mandelbrot.NewFrameBuffer(4, 8)); err == nil {
		t.Error("compareRaw accepted a frame of another size")
	}
	if _, err := compareRaw(filepath.Join(t.TempDir(), "none"), ref); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("compareRaw(missing) = %v, want ErrNotExist", err)
	}
}
