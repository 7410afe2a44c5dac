package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AdrikGG/Mandelbrot"
)

// op is one scripted input event. Keys follow the interactive bindings:
//
//	e  zoom in      q  zoom out
//	w  pan up       s  pan down
//	a  pan left     d  pan right
//	c  toggle palette
//	p  print diagnostics
//
// A zoom may carry a cursor position, "e@600,300"; it defaults to the plot
// center. Any op may repeat, "e*40".
type op struct {
	key    byte
	x, y   int
	cursor bool
	repeat int
}

func parseScript(s string) ([]op, error) {
	var ops []op
	for _, tok := range strings.Fields(s) {
		o := op{key: tok[0], repeat: 1}
		rest := tok[1:]

		if i := strings.IndexByte(rest, '*'); i >= 0 {
			n, err := strconv.Atoi(rest[i+1:])
			if err != nil || n < 1 {
				return nil, fmt.Errorf("bad repeat in %q", tok)
			}
			o.repeat = n
			rest = rest[:i]
		}
		if strings.HasPrefix(rest, "@") {
			xs, ys, ok := strings.Cut(rest[1:], ",")
			x, errX := strconv.Atoi(xs)
			y, errY := strconv.Atoi(ys)
			if !ok || errX != nil || errY != nil {
				return nil, fmt.Errorf("bad cursor in %q", tok)
			}
			o.x, o.y, o.cursor = x, y, true
			rest = ""
		}
		if rest != "" {
			return nil, fmt.Errorf("unexpected %q in %q", rest, tok)
		}
		if !strings.ContainsRune("eqwasdcp", rune(o.key)) {
			return nil, fmt.Errorf("unknown key %q", o.key)
		}
		ops = append(ops, o)
	}
	return ops, nil
}

// apply runs o once against s. It reports whether the view changed.
func (o op) apply(s *mandelbrot.Session, diag io.Writer) bool {
	snap := s.Snapshot()
	x, y := snap.Width/2, snap.Height/2
	if o.cursor {
		x, y = o.x, o.y
	}

	switch o.key {
	case 'e':
		s.ZoomAt(x, y, true)
	case 'q':
		s.ZoomAt(x, y, false)
	case 'w':
		s.Pan(mandelbrot.Up)
	case 's':
		s.Pan(mandelbrot.Down)
	case 'a':
		s.Pan(mandelbrot.Left)
	case 'd':
		s.Pan(mandelbrot.Right)
	case 'c':
		s.ToggleColorMode()
	case 'p':
		fmt.Fprintln(diag, s.Snapshot())
		return false
	}
	return true
}
