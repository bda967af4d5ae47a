package frame

import "sync"

// largeBodyThreshold is the body size above which ReadFrame reuses a
// pooled buffer instead of keeping the upstream library's own
// allocation, per spec's "memory-pool attachment point for large
// bodies". Bodies at or below this size aren't worth the extra copy.
const largeBodyThreshold = 4096

// BufferPool vends and reclaims byte slices for large message bodies.
// Grounded on the teacher's size-bucketed sync.Pool BufferPool
// (db/postgresql/providers/pgx/buffer_pool.go's Get(size)/Put(buf)
// shape), generalized from database row buffers to STOMP frame bodies.
type BufferPool interface {
	Get(size int) []byte
	Put(buf []byte)
}

type bucketedPool struct {
	mu    sync.RWMutex
	pools map[int]*sync.Pool
}

// NewBufferPool builds a BufferPool that buckets reusable buffers by
// exact size, the same way the teacher's pgx BufferPoolImpl does.
func NewBufferPool() BufferPool {
	return &bucketedPool{pools: make(map[int]*sync.Pool)}
}

func (p *bucketedPool) Get(size int) []byte {
	p.mu.RLock()
	pool, ok := p.pools[size]
	p.mu.RUnlock()

	if !ok {
		p.mu.Lock()
		if pool, ok = p.pools[size]; !ok {
			pool = &sync.Pool{New: func() any { return make([]byte, size) }}
			p.pools[size] = pool
		}
		p.mu.Unlock()
	}

	buf := pool.Get().([]byte)
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

func (p *bucketedPool) Put(buf []byte) {
	if len(buf) == 0 {
		return
	}
	p.mu.RLock()
	pool, ok := p.pools[len(buf)]
	p.mu.RUnlock()
	if ok {
		pool.Put(buf)
	}
}
