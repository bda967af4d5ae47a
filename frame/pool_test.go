package frame

import "testing"

func TestBufferPoolGetReturnsZeroedBufferOfRequestedSize(t *testing.T) {
	p := NewBufferPool()
	buf := p.Get(16)
	if len(buf) != 16 {
		t.Fatalf("len(buf) = %d; want 16", len(buf))
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("buf[%d] = %d; want 0", i, b)
		}
	}
}

func TestBufferPoolPutReusesSameSizeBuffer(t *testing.T) {
	p := NewBufferPool()
	buf := p.Get(32)
	buf[0] = 'x'
	p.Put(buf)

	got := p.Get(32)
	if got[0] != 0 {
		t.Fatalf("reused buffer must be zeroed, got[0] = %d", got[0])
	}
}

func TestBufferPoolDifferentSizesDoNotCollide(t *testing.T) {
	p := NewBufferPool()
	small := p.Get(8)
	large := p.Get(64)
	if len(small) == len(large) {
		t.Fatal("expected distinct buffer sizes")
	}
}

func TestBufferPoolPutEmptyBufferIsNoop(t *testing.T) {
	p := NewBufferPool()
	p.Put(nil)
	p.Put([]byte{})
}
