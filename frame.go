package mandelbrot

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
)

// FrameBuffer is a complete frame: width*height RGBA pixels, row-major,
// alpha always 0xff. Renderers hand out a FrameBuffer only after every
// pixel has been written.
type FrameBuffer struct {
	width  int
	height int
	data   []uint8
}

// NewFrameBuffer allocates an opaque black frame.
func NewFrameBuffer(width, height int) *FrameBuffer {
	f := &FrameBuffer{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
	for i := 3; i < len(f.data); i += 4 {
		f.data[i] = 0xff
	}
	return f
}

func (f *FrameBuffer) Width() int  { return f.width }
func (f *FrameBuffer) Height() int { return f.height }

// Stride returns the number of bytes per row.
func (f *FrameBuffer) Stride() int { return f.width * 4 }

// Data returns the raw RGBA bytes. Callers must not modify a published
// frame.
func (f *FrameBuffer) Data() []uint8 { return f.data }

// Row returns the bytes of row y.
func (f *FrameBuffer) Row(y int) []uint8 {
	s := f.Stride()
	return f.data[y*s : (y+1)*s]
}

// Set writes an opaque pixel. Out-of-bounds writes are ignored.
func (f *FrameBuffer) Set(x, y int, c RGB) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return
	}
	i := (y*f.width + x) * 4
	f.data[i+0] = c.R
	f.data[i+1] = c.G
	f.data[i+2] = c.B
	f.data[i+3] = 0xff
}

// RGBAt returns the pixel at (x, y), or Sentinel outside the frame.
func (f *FrameBuffer) RGBAt(x, y int) RGB {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return Sentinel
	}
	i := (y*f.width + x) * 4
	return RGB{R: f.data[i], G: f.data[i+1], B: f.data[i+2]}
}

// Equal reports whether two frames have identical size and bytes.
func (f *FrameBuffer) Equal(o *FrameBuffer) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.width == o.width && f.height == o.height && bytes.Equal(f.data, o.data)
}

// Clone returns a deep copy.
func (f *FrameBuffer) Clone() *FrameBuffer {
	c := &FrameBuffer{width: f.width, height: f.height, data: make([]uint8, len(f.data))}
	copy(c.data, f.data)
	return c
}

// ToImage copies the frame into an image.RGBA.
func (f *FrameBuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	copy(img.Pix, f.data)
	return img
}

// SavePNG writes the frame to a PNG file.
func (f *FrameBuffer) SavePNG(path string) error {
	out, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()
	return png.Encode(out, f.ToImage())
}

// At implements image.Image.
func (f *FrameBuffer) At(x, y int) color.Color { return f.RGBAt(x, y) }

// Bounds implements image.Image.
func (f *FrameBuffer) Bounds() image.Rectangle { return image.Rect(0, 0, f.width, f.height) }

// ColorModel implements image.Image.
func (f *FrameBuffer) ColorModel() color.Model { return color.RGBAModel }
