package frame

import (
	"bufio"
	"io"
	"sync/atomic"

	upstream "github.com/go-stomp/stomp/v3/frame"
)

// countingReader wraps an io.Reader, exposing a counter HeartBeatMonitor
// samples to detect read-side liveness.
type countingReader struct {
	r     io.Reader
	count uint64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		atomic.AddUint64(&c.count, uint64(n))
	}
	return n, err
}

func (c *countingReader) Count() uint64 {
	return atomic.LoadUint64(&c.count)
}

// countingWriter wraps an io.Writer, exposing a counter HeartBeatMonitor
// samples to detect write-side liveness and decide whether a keep-alive
// newline is due.
type countingWriter struct {
	w     io.Writer
	count uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if n > 0 {
		atomic.AddUint64(&c.count, uint64(n))
	}
	return n, err
}

func (c *countingWriter) Count() uint64 {
	return atomic.LoadUint64(&c.count)
}

// Codec reads and writes Frames over a transport, tracking the byte
// counters the heart-beat monitor needs. It is not safe for concurrent
// use from more than one goroutine on each side (matches the
// single-threaded dispatch-queue model the connection handler runs
// under).
type Codec struct {
	reader *countingReader
	writer *countingWriter
	pool   BufferPool

	ur *upstream.Reader
	uw *upstream.Writer
}

// NewCodec builds a Codec reading and writing r/w.
func NewCodec(r io.Reader, w io.Writer) *Codec {
	cr := &countingReader{r: bufio.NewReader(r)}
	cw := &countingWriter{w: w}
	return &Codec{
		reader: cr,
		writer: cw,
		ur:     upstream.NewReader(cr),
		uw:     upstream.NewWriter(cw),
	}
}

// AttachPool wires a BufferPool into the codec, per spec's "attach
// memory pool to codec if the host has one" step on AUTHENTICATING ->
// OPEN. ReadFrame copies bodies larger than largeBodyThreshold into a
// buffer drawn from pool instead of holding onto the upstream library's
// own allocation. The upstream reader has already allocated the body
// by then, and the codec never returns buffers to the pool: a buffer
// is reused only if whoever consumes the frame calls pool.Put. A nil pool (the
// default before AttachPool is called, and the permanent state for
// hosts without one) disables this: ReadFrame keeps the upstream body
// as-is.
func (c *Codec) AttachPool(pool BufferPool) {
	c.pool = pool
}

// Pool reports the buffer pool currently attached, or nil if none was.
func (c *Codec) Pool() BufferPool {
	return c.pool
}

// ReadCount returns the cumulative bytes read, for HeartBeatMonitor.
func (c *Codec) ReadCount() uint64 { return c.reader.Count() }

// WriteCount returns the cumulative bytes written, for HeartBeatMonitor.
func (c *Codec) WriteCount() uint64 { return c.writer.Count() }

// ReadFrame blocks until a full frame (or heart-beat) is available.
// A nil Frame with a nil error indicates a bare heart-beat newline was
// consumed; callers should loop to read the next real frame.
func (c *Codec) ReadFrame() (*Frame, error) {
	uf, err := c.ur.Read()
	if err != nil {
		return nil, err
	}
	if uf == nil {
		return nil, nil
	}
	f := fromUpstream(uf)
	if c.pool != nil && len(f.Body) > largeBodyThreshold {
		pooled := c.pool.Get(len(f.Body))
		copy(pooled, f.Body)
		f.Body = pooled
	}
	return f, nil
}

// WriteFrame serializes f to the transport.
func (c *Codec) WriteFrame(f *Frame) error {
	return c.uw.Write(toUpstream(f))
}

// WriteHeartBeat writes a bare newline keep-alive, bypassing the
// upstream frame writer (which frames full commands, not bare
// newlines).
func (c *Codec) WriteHeartBeat() error {
	_, err := c.writer.Write([]byte{'\n'})
	return err
}

func fromUpstream(uf *upstream.Frame) *Frame {
	f := New(uf.Command)
	for i := 0; i < uf.Header.Len(); i++ {
		k, v := uf.Header.GetAt(i)
		f.Add(k, v)
	}
	f.Body = uf.Body
	return f
}

func toUpstream(f *Frame) *upstream.Frame {
	uf := upstream.New(f.Command)
	for _, h := range f.headers {
		uf.Header.Add(h.Key, h.Value)
	}
	uf.Body = f.Body
	return uf
}
