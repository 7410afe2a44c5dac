package mandelbrot

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fakeRenderer returns scripted results, one per call; the last one repeats.
type fakeRenderer struct {
	name    string
	results []fakeResult

	mu    sync.Mutex
	calls int
}

type fakeResult struct {
	frame *FrameBuffer
	err   error
}

func (f *fakeRenderer) Name() string { return f.name }

func (f *fakeRenderer) Render(context.Context, Params) (*FrameBuffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.results[min(f.calls, len(f.results)-1)]
	f.calls++
	return r.frame, r.err
}

func (f *fakeRenderer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []Strategy{StrategyAuto, StrategySequential, StrategyParallel, StrategyHardware} {
		got, err := ParseStrategy(s.String())
		if err != nil || got != s {
			t.Errorf("ParseStrategy(%q) = %v, %v", s.String(), got, err)
		}
	}
	if got, _ := ParseStrategy("hardware"); got != StrategyHardware {
		t.Errorf("ParseStrategy(hardware) = %v", got)
	}
	if _, err := ParseStrategy("quantum"); err == nil {
		t.Error("ParseStrategy(quantum) succeeded")
	}
}

func TestEngineStrategies(t *testing.T) {
	resetAccelerator()
	tests := []struct {
		strategy Strategy
		want     string
	}{
		{StrategySequential, "sequential"},
		{StrategyParallel, "parallel"},
		{StrategyAuto, "parallel"},
	}
	p := testParams(40, 30)
	want, _ := NewSequentialRenderer().Render(context.Background(), p)

	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			e, err := NewEngine(WithStrategy(tt.strategy), WithParallelOptions(WithWorkers(3)))
			if err != nil {
				t.Fatal(err)
			}
			defer e.Close()
			if e.Backend() != tt.want {
				t.Errorf("Backend() = %q, want %q", e.Backend(), tt.want)
			}
			got, err := e.Render(context.Background(), p)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(want) {
				t.Error("frame differs from sequential reference")
			}
			if e.LastFrame() != got {
				t.Error("LastFrame() is not the frame just rendered")
			}
		})
	}
}

func TestEngineFallsBackOnUnavailable(t *testing.T) {
	broken := &fakeRenderer{name: "broken", results: []fakeResult{{err: ErrBackendUnavailable}}}
	e, err := NewEngine(WithRenderer(broken), WithStrategy(StrategySequential))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if e.Backend() != "broken" {
		t.Errorf("Backend() = %q before first frame", e.Backend())
	}
	for range 2 {
		if _, err := e.Render(context.Background(), testParams(20, 20)); err != nil {
			t.Fatalf("Render() = %v", err)
		}
	}
	if e.Backend() != "sequential" {
		t.Errorf("Backend() = %q, want sequential", e.Backend())
	}
	if n := broken.callCount(); n != 1 {
		t.Errorf("unavailable backend called %d times, want 1", n)
	}
}

func TestEngineKeepsLastGoodFrame(t *testing.T) {
	good := NewFrameBuffer(2, 2)
	boom := errors.New("device lost")
	flaky := &fakeRenderer{name: "flaky", results: []fakeResult{{frame: good}, {err: boom}}}

	e, err := NewEngine(WithRenderer(flaky), WithoutFallback())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	f, err := e.Render(context.Background(), Params{})
	if err != nil || f != good {
		t.Fatalf("first Render() = %v, %v", f, err)
	}
	f, err = e.Render(context.Background(), Params{})
	if !errors.Is(err, boom) {
		t.Errorf("second Render() error = %v, want %v", err, boom)
	}
	if f != good {
		t.Error("failed Render() did not return the last good frame")
	}
	// Only ErrBackendUnavailable moves the engine to another backend.
	if e.Backend() != "flaky" {
		t.Errorf("Backend() = %q after a frame failure", e.Backend())
	}
}

func TestEngineWithoutFallback(t *testing.T) {
	resetAccelerator()

	broken := &fakeRenderer{name: "broken", results: []fakeResult{{err: ErrBackendUnavailable}}}
	e, err := NewEngine(WithRenderer(broken), WithStrategy(StrategySequential), WithoutFallback())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	f, err := e.Render(context.Background(), testParams(10, 10))
	if f != nil || !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Render() = %v, %v, want nil, ErrBackendUnavailable", f, err)
	}

	if _, err := NewEngine(WithStrategy(StrategyHardware), WithoutFallback()); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("hardware engine without accelerator: %v", err)
	}
}

func TestEngineHardwareFallsBackToCPU(t *testing.T) {
	resetAccelerator()

	e, err := NewEngine(WithStrategy(StrategyHardware), WithParallelOptions(WithWorkers(2)))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if _, err := e.Render(context.Background(), testParams(16, 16)); err != nil {
		t.Fatal(err)
	}
	if e.Backend() != "parallel" {
		t.Errorf("Backend() = %q, want parallel", e.Backend())
	}
}

func TestEngineUsesRegisteredAccelerator(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	frame := NewFrameBuffer(16, 16)
	m := &mockAccelerator{
		name:   "mock-gpu",
		render: func(context.Context, Params) (*FrameBuffer, error) { return frame, nil },
	}
	if err := RegisterAccelerator(m); err != nil {
		t.Fatal(err)
	}

	e, err := NewEngine()
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	got, err := e.Render(context.Background(), testParams(16, 16))
	if err != nil || got != frame {
		t.Fatalf("Render() = %v, %v", got, err)
	}
	if e.Backend() != "mock-gpu" || m.renderCount() != 1 {
		t.Errorf("Backend() = %q, renders %d", e.Backend(), m.renderCount())
	}
}
