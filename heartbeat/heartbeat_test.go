package heartbeat

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeCounters struct {
	read, written uint64
}

func (f *fakeCounters) ReadCount() uint64  { return atomic.LoadUint64(&f.read) }
func (f *fakeCounters) WriteCount() uint64 { return atomic.LoadUint64(&f.written) }
func (f *fakeCounters) bumpRead()          { atomic.AddUint64(&f.read, 1) }
func (f *fakeCounters) bumpWrite()         { atomic.AddUint64(&f.written, 1) }

func TestIntervalFormulasPerSpecScenario2(t *testing.T) {
	counters := &fakeCounters{}
	m := New(counters, 10000*time.Millisecond, 2000*time.Millisecond, 100*time.Millisecond, 2000*time.Millisecond, nil, nil)

	assert.Equal(t, 15000*time.Millisecond, m.ReadInterval(), "max(10000,2000)+min(that,5000)")
	assert.Equal(t, 2000*time.Millisecond, m.WriteInterval(), "max(100,2000)")
}

func TestZeroIntervalDisablesSide(t *testing.T) {
	counters := &fakeCounters{}
	m := New(counters, 0, 0, 0, 0, nil, nil)
	assert.Equal(t, time.Duration(0), m.ReadInterval())
	assert.Equal(t, time.Duration(0), m.WriteInterval())
}

func TestDeclaresDeadWhenReadCounterStalls(t *testing.T) {
	counters := &fakeCounters{}
	var dead int32
	m := New(counters, 20*time.Millisecond, 0, 0, 0, func() { atomic.AddInt32(&dead, 1) }, nil)
	m.Start()
	defer m.Stop()

	time.Sleep(80 * time.Millisecond)
	assert.True(t, atomic.LoadInt32(&dead) > 0, "expected on_dead to fire while read counter is idle")
}

func TestReadActivitySuppressesDead(t *testing.T) {
	counters := &fakeCounters{}
	var dead int32
	m := New(counters, 20*time.Millisecond, 0, 0, 0, func() { atomic.AddInt32(&dead, 1) }, nil)
	m.Start()
	defer m.Stop()

	stop := make(chan struct{})
	go func() {
		t := time.NewTicker(5 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				counters.bumpRead()
			case <-stop:
				return
			}
		}
	}()
	time.Sleep(80 * time.Millisecond)
	close(stop)

	assert.Equal(t, int32(0), atomic.LoadInt32(&dead), "continuous read activity must suppress on_dead")
}

func TestKeepAliveFiresWhenWriteSideIdle(t *testing.T) {
	counters := &fakeCounters{}
	var keepAlive int32
	m := New(counters, 0, 0, 20*time.Millisecond, 0, nil, func() { atomic.AddInt32(&keepAlive, 1) })
	m.Start()
	defer m.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.True(t, atomic.LoadInt32(&keepAlive) > 0)
}

func TestStopVoidsInFlightCallbacks(t *testing.T) {
	counters := &fakeCounters{}
	var dead int32
	m := New(counters, 10*time.Millisecond, 0, 0, 0, func() { atomic.AddInt32(&dead, 1) }, nil)
	m.Start()
	m.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&dead), "stale timers must no-op after Stop")
}
