// Package heartbeat implements HeartBeatMonitor (C1): periodic liveness
// checks driven by a transport's read/write byte counters, in the
// timer-per-side style of the teacher's predecessor connection loop
// (mschneider82-stomp/server/client/conn.go uses a single time.Timer
// armed from the negotiated heart-beat header and reset on every
// outbound frame; this monitor generalizes that into two independent
// timers so read and write liveness can be checked on their own
// cadences per spec).
package heartbeat

import (
	"sync"
	"sync/atomic"
	"time"
)

// forgivenessCap bounds the read-side grace period added on top of the
// negotiated interval, per spec §4.1's "min(that, 5000)" term.
const forgivenessCap = 5000 * time.Millisecond

// Counters is the pair of monotonically increasing byte counters a
// transport codec exposes; frame.Codec satisfies this directly.
type Counters interface {
	ReadCount() uint64
	WriteCount() uint64
}

// Monitor runs the read and write liveness checks described in spec
// §4.1. It is safe to call Start/Stop from any goroutine; callbacks
// fire on their own timer goroutines and must not block.
type Monitor struct {
	counters Counters
	onDead      func()
	onKeepAlive func()

	readInterval  time.Duration
	writeInterval time.Duration

	session uint64 // incremented by Start/Stop to void stale timers

	mu          sync.Mutex
	running     bool
	readTimer   *time.Timer
	writeTimer  *time.Timer
	lastRead    uint64
	lastWritten uint64
}

// New builds a Monitor over counters. configuredInbound/
// clientCanSend and configuredOutbound/clientPleaseSend are the two
// heart-beat header halves already negotiated by ConnectionHandler;
// New computes the actual read/write check intervals per spec's
// formulas. A zero actual interval disables that side.
func New(counters Counters, configuredInbound, clientCanSend, configuredOutbound, clientPleaseSend time.Duration, onDead, onKeepAlive func()) *Monitor {
	read := maxDuration(configuredInbound, clientCanSend)
	if read > 0 {
		read += minDuration(read, forgivenessCap)
	}
	write := maxDuration(configuredOutbound, clientPleaseSend)

	return &Monitor{
		counters:      counters,
		onDead:        onDead,
		onKeepAlive:   onKeepAlive,
		readInterval:  read,
		writeInterval: write,
	}
}

// ReadInterval returns the computed read-check interval (0 if disabled).
func (m *Monitor) ReadInterval() time.Duration { return m.readInterval }

// WriteInterval returns the computed write-check interval (0 if
// disabled). Write checks themselves run at half this interval.
func (m *Monitor) WriteInterval() time.Duration { return m.writeInterval }

// Start arms both check loops for the sides whose interval is
// non-zero. Safe to call again after Stop.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	session := atomic.AddUint64(&m.session, 1)
	m.running = true
	m.lastRead = m.counters.ReadCount()
	m.lastWritten = m.counters.WriteCount()

	if m.readInterval > 0 {
		m.readTimer = time.AfterFunc(m.readInterval, func() { m.checkRead(session) })
	}
	if m.writeInterval > 0 {
		m.writeTimer = time.AfterFunc(m.writeInterval/2, func() { m.checkWrite(session) })
	}
}

// Stop disarms both check loops; any in-flight timer callback becomes
// a no-op when it fires, since it carries a now-stale session.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	atomic.AddUint64(&m.session, 1)
	m.running = false
	if m.readTimer != nil {
		m.readTimer.Stop()
		m.readTimer = nil
	}
	if m.writeTimer != nil {
		m.writeTimer.Stop()
		m.writeTimer = nil
	}
}

func (m *Monitor) currentSession() uint64 {
	return atomic.LoadUint64(&m.session)
}

func (m *Monitor) checkRead(session uint64) {
	m.mu.Lock()
	if !m.running || session != m.currentSession() {
		m.mu.Unlock()
		return
	}
	current := m.counters.ReadCount()
	dead := current == m.lastRead
	m.lastRead = current
	m.readTimer = time.AfterFunc(m.readInterval, func() { m.checkRead(session) })
	m.mu.Unlock()

	if dead && m.onDead != nil {
		m.onDead()
	}
}

func (m *Monitor) checkWrite(session uint64) {
	m.mu.Lock()
	if !m.running || session != m.currentSession() {
		m.mu.Unlock()
		return
	}
	current := m.counters.WriteCount()
	idle := current == m.lastWritten
	m.lastWritten = current
	m.writeTimer = time.AfterFunc(m.writeInterval/2, func() { m.checkWrite(session) })
	m.mu.Unlock()

	if idle && m.onKeepAlive != nil {
		m.onKeepAlive()
	}
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
