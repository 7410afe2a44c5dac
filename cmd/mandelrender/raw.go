package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/AdrikGG/Mandelbrot"
)

// Raw dumps are a zstd stream of a 12-byte header (magic, width, height as
// little-endian u32) followed by the frame's RGBA bytes, for byte-exact
// comparison across backends and runs.
var rawMagic = [4]byte{'M', 'B', 'R', 'W'}

var errRawFormat = errors.New("not a raw frame dump")

// maxRawSide bounds each dimension read from a dump header.
const maxRawSide = 1 << 15

func writeRaw(w io.Writer, f *mandelbrot.FrameBuffer) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	var hdr [12]byte
	copy(hdr[:4], rawMagic[:])
	binary.LittleEndian.PutUint32(hdr[4:], uint32(f.Width()))  //nolint:gosec // frame sizes are positive
	binary.LittleEndian.PutUint32(hdr[8:], uint32(f.Height())) //nolint:gosec // frame sizes are positive
	if _, err := enc.Write(hdr[:]); err != nil {
		_ = enc.Close()
		return err
	}
	if _, err := enc.Write(f.Data()); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func readRaw(r io.Reader) (*mandelbrot.FrameBuffer, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var hdr [12]byte
	if _, err := io.ReadFull(dec, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", errRawFormat, err)
	}
	if [4]byte(hdr[:4]) != rawMagic {
		return nil, errRawFormat
	}
	w := binary.LittleEndian.Uint32(hdr[4:])
	h := binary.LittleEndian.Uint32(hdr[8:])
	if w == 0 || h == 0 || w > maxRawSide || h > maxRawSide {
		return nil, fmt.Errorf("%w: frame size %dx%d", errRawFormat, w, h)
	}

	f := mandelbrot.NewFrameBuffer(int(w), int(h))
	if _, err := io.ReadFull(dec, f.Data()); err != nil {
		return nil, fmt.Errorf("%w: short pixel data: %w", errRawFormat, err)
	}
	return f, nil
}

func saveRaw(path string, f *mandelbrot.FrameBuffer) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeRaw(out, f); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func loadRaw(path string) (*mandelbrot.FrameBuffer, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return readRaw(in)
}

// diffPixels counts the pixels that differ between two frames of equal size.
func diffPixels(a, b *mandelbrot.FrameBuffer) (int, error) {
	if a.Width() != b.Width() || a.Height() != b.Height() {
		return 0, fmt.Errorf("frame size %dx%d, reference %dx%d",
			a.Width(), a.Height(), b.Width(), b.Height())
	}
	pa, pb := a.Data(), b.Data()
	n := 0
	for i := 0; i < len(pa); i += 4 {
		if [4]byte(pa[i:i+4]) != [4]byte(pb[i:i+4]) {
			n++
		}
	}
	return n, nil
}

// compareRaw checks f against the dump at path.
func compareRaw(path string, f *mandelbrot.FrameBuffer) (int, error) {
	ref, err := loadRaw(path)
	if err != nil {
		return 0, err
	}
	return diffPixels(f, ref)
}
