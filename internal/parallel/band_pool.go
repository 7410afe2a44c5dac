package parallel

import "sync"

// BandPool recycles the byte buffers that hold one tile's rows between
// frames. Buffers are bucketed by exact length; a frame of fixed size and
// worker count reuses the same few buckets every time.
//
// Thread safety: BandPool is safe for concurrent use.
type BandPool struct {
	pools sync.Map // int -> *sync.Pool
}

// NewBandPool creates an empty pool.
func NewBandPool() *BandPool {
	return &BandPool{}
}

// Get returns a buffer of exactly n bytes. Its contents are unspecified;
// callers overwrite every byte.
func (p *BandPool) Get(n int) []byte {
	if n <= 0 {
		return nil
	}
	buf := p.bucket(n).Get().(*[]byte)
	return (*buf)[:n]
}

// Put returns a buffer obtained from Get.
func (p *BandPool) Put(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	buf = buf[:cap(buf)]
	if pool, ok := p.pools.Load(len(buf)); ok {
		pool.(*sync.Pool).Put(&buf)
	}
}

func (p *BandPool) bucket(n int) *sync.Pool {
	if pool, ok := p.pools.Load(n); ok {
		return pool.(*sync.Pool)
	}
	newPool := &sync.Pool{
		New: func() any {
			b := make([]byte, n)
			return &b
		},
	}
	actual, _ := p.pools.LoadOrStore(n, newPool)
	return actual.(*sync.Pool)
}
