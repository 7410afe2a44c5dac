// Package loop drives an engine from a stream of viewport changes.
//
// Interactive hosts produce zoom and pan events faster than frames render.
// FrameLoop keeps at most one frame in flight and coalesces requests that
// arrive meanwhile: only the newest is rendered once the current frame has
// joined, and the ones it replaced are dropped without rendering.
package loop

import (
	"context"
	"sync"

	"gopkg.in/tomb.v2"

	"github.com/AdrikGG/Mandelbrot"
)

// Renderer is satisfied by *mandelbrot.Engine and every mandelbrot.Renderer.
type Renderer interface {
	Render(ctx context.Context, p mandelbrot.Params) (*mandelbrot.FrameBuffer, error)
}

// Frame is one published result.
type Frame struct {
	// Seq is the sequence number Request returned for these params.
	Seq    uint64
	Params mandelbrot.Params

	// Buffer is the rendered frame. When Err is set it is whatever the
	// renderer returned alongside the error; an Engine returns its last
	// good frame there.
	Buffer *mandelbrot.FrameBuffer
	Err    error
}

// FrameLoop renders requested params on a background goroutine.
type FrameLoop struct {
	t       *tomb.Tomb
	ctx     context.Context
	r       Renderer
	publish func(Frame)

	mu        sync.Mutex
	pending   *request
	seq       uint64
	dropped   uint64
	published uint64

	wake chan struct{}
}

type request struct {
	seq    uint64
	params mandelbrot.Params
}

// Start launches the loop. publish is called from the loop goroutine, once
// per rendered frame, in sequence order.
func Start(parent context.Context, r Renderer, publish func(Frame)) *FrameLoop {
	t, ctx := tomb.WithContext(parent)
	l := &FrameLoop{
		t:       t,
		ctx:     ctx,
		r:       r,
		publish: publish,
		wake:    make(chan struct{}, 1),
	}
	t.Go(l.run)
	return l
}

// Request schedules p, replacing any request that has not started yet.
// It returns the sequence number the resulting Frame will carry.
func (l *FrameLoop) Request(p mandelbrot.Params) uint64 {
	l.mu.Lock()
	l.seq++
	if l.pending != nil {
		l.dropped++
	}
	l.pending = &request{seq: l.seq, params: p}
	seq := l.seq
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return seq
}

// Stats returns how many requests were rendered and how many were
// superseded before rendering.
func (l *FrameLoop) Stats() (published, dropped uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.published, l.dropped
}

// Stop cancels an in-flight frame, stops the loop and waits for it.
func (l *FrameLoop) Stop() error {
	l.t.Kill(nil)
	return l.t.Wait()
}

// Dead is closed once the loop goroutine has exited.
func (l *FrameLoop) Dead() <-chan struct{} { return l.t.Dead() }

func (l *FrameLoop) run() error {
	for {
		select {
		case <-l.t.Dying():
			return nil
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			req := l.pending
			l.pending = nil
			l.mu.Unlock()
			if req == nil {
				break
			}

			buf, err := l.r.Render(l.ctx, req.params)
			if l.ctx.Err() != nil {
				return nil
			}
			if err != nil {
				mandelbrot.Logger().Warn("frame failed", "seq", req.seq, "err", err)
			}

			l.mu.Lock()
			l.published++
			l.mu.Unlock()
			l.publish(Frame{Seq: req.seq, Params: req.params, Buffer: buf, Err: err})
		}
	}
}
