package main

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"

	"github.com/go-text/typesetting/di"
	tsfont "github.com/go-text/typesetting/font"
	tslang "github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/AdrikGG/Mandelbrot"
)

const (
	hudMargin   = 6
	hudFontSize = 12
)

var hudShade = color.RGBA{A: 0xb0}

// hudFace draws and measures HUD text in Go Regular. Lines are shaped
// with HarfBuzz so the box fits kerned advances; glyphs are rasterized
// through x/image.
type hudFace struct {
	shaper shaping.HarfbuzzShaper
	shape  *tsfont.Face
	draw   font.Face
	size   fixed.Int26_6
}

func newHUDFace() (*hudFace, error) {
	shape, err := tsfont.ParseTTF(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, err
	}
	sf, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(sf, &opentype.FaceOptions{
		Size:    hudFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	return &hudFace{
		shape: shape,
		draw:  face,
		size:  fixed.I(hudFontSize),
	}, nil
}

// advance returns the shaped width of s in pixels.
func (h *hudFace) advance(s string) fixed.Int26_6 {
	if s == "" {
		return 0
	}
	runes := []rune(s)
	out := h.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      h.shape,
		Size:      h.size,
		Script:    tslang.Latin,
		Language:  tslang.NewLanguage("en"),
	})
	var w fixed.Int26_6
	for _, g := range out.Glyphs {
		w += g.Advance
	}
	return w
}

// box returns the HUD rectangle for lines, before clipping to the frame.
func (h *hudFace) box(lines []string) image.Rectangle {
	width := 0
	for _, l := range lines {
		width = max(width, h.advance(l).Ceil())
	}
	lineHeight := h.draw.Metrics().Height.Ceil()
	return image.Rect(0, 0, width+2*hudMargin, len(lines)*lineHeight+2*hudMargin)
}

// hudLines formats the session state shown in the corner of a frame.
func hudLines(s mandelbrot.Snapshot, backend string) []string {
	p := message.NewPrinter(language.English)
	vp := s.Viewport
	return []string{
		p.Sprintf("x  %.15g .. %.15g", vp.XMin, vp.XMax),
		p.Sprintf("y  %.15g .. %.15g", vp.YMin, vp.YMax),
		p.Sprintf("scale %.6g  zoom %d", vp.Scale, s.ZoomCount),
		p.Sprintf("iterations %d  step %d", s.IterationBound, s.PixelStep),
		p.Sprintf("%s  %s  %s", s.ColorMode, s.Precision, backend),
	}
}

// drawHUD writes lines over a translucent box in the top-left corner of dst.
func drawHUD(dst draw.Image, lines []string) error {
	h, err := newHUDFace()
	if err != nil {
		return err
	}
	defer h.draw.Close()

	box := h.box(lines).Intersect(dst.Bounds())
	draw.Draw(dst, box, image.NewUniform(hudShade), image.Point{}, draw.Over)

	m := h.draw.Metrics()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: h.draw,
	}
	for i, l := range lines {
		d.Dot = fixed.Point26_6{
			X: fixed.I(hudMargin),
			Y: fixed.I(hudMargin) + m.Height.Mul(fixed.I(i)) + m.Ascent,
		}
		d.DrawString(l)
	}
	return nil
}

// thumbnail scales img to the given width, keeping its aspect ratio.
func thumbnail(img image.Image, width int) image.Image {
	return resize.Resize(uint(width), 0, img, resize.Lanczos3)
}
