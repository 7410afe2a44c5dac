package parallel

import (
	"sync"
	"testing"
)

func TestBandPool_GetLength(t *testing.T) {
	p := NewBandPool()

	tests := []int{1, 4, 400, 1500 * 4 * 113}
	for _, n := range tests {
		buf := p.Get(n)
		if len(buf) != n {
			t.Errorf("Get(%d) len = %d", n, len(buf))
		}
		p.Put(buf)
	}

	if buf := p.Get(0); buf != nil {
		t.Errorf("Get(0) = %v, want nil", buf)
	}
	p.Put(nil)
}

func TestBandPool_Reuse(t *testing.T) {
	p := NewBandPool()

	buf := p.Get(64)
	buf[0] = 42
	p.Put(buf)

	// sync.Pool may drop entries at any time; only the size is guaranteed.
	again := p.Get(64)
	if len(again) != 64 {
		t.Fatalf("Get(64) len = %d", len(again))
	}
}

func TestBandPool_Concurrent(t *testing.T) {
	p := NewBandPool()
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				n := 16 * (1 + (g+i)%4)
				buf := p.Get(n)
				for j := range buf {
					buf[j] = byte(g)
				}
				for j := range buf {
					if buf[j] != byte(g) {
						t.Errorf("buffer shared between goroutines")
						return
					}
				}
				p.Put(buf)
			}
		}()
	}
	wg.Wait()
}
