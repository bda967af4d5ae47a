// Package frame implements FrameCodec: it identifies the STOMP wire
// format, splits a byte stream into frames, and counts bytes read and
// written so HeartBeatMonitor can sample liveness. Framing itself is
// delegated to github.com/go-stomp/stomp/v3/frame (already part of the
// teacher's stack, exercised by its ActiveMQ provider in
// fsvxavier-nexs-lib/message-queue/providers/activemq); this package
// defines its own Frame/Header types and converts to/from the upstream
// representation only inside Codec, so the rest of the module never
// imports go-stomp directly.
package frame

import "strings"

// Command names recognized by the connection handler, per spec wire
// tables.
const (
	CmdConnect     = "CONNECT"
	CmdStomp       = "STOMP"
	CmdConnected   = "CONNECTED"
	CmdSend        = "SEND"
	CmdSubscribe   = "SUBSCRIBE"
	CmdUnsubscribe = "UNSUBSCRIBE"
	CmdAck         = "ACK"
	CmdNack        = "NACK"
	CmdBegin       = "BEGIN"
	CmdCommit      = "COMMIT"
	CmdAbort       = "ABORT"
	CmdDisconnect  = "DISCONNECT"
	CmdMessage     = "MESSAGE"
	CmdReceipt     = "RECEIPT"
	CmdError       = "ERROR"
)

// Frame is this module's own wire-frame representation: an ordered
// header list (duplicate keys preserved, first occurrence wins on
// lookup per STOMP semantics) plus a body.
type Frame struct {
	Command string
	headers []Header
	Body    []byte
}

// Header is a single key/value pair. Kept as an ordered slice rather
// than a map so repeated SEND headers round-trip in the order a client
// sent them.
type Header struct {
	Key   string
	Value string
}

// New builds a Frame with no headers and no body.
func New(command string) *Frame {
	return &Frame{Command: command}
}

// Add appends a header, preserving any existing header of the same
// key (STOMP readers should use Get, which returns the first match).
func (f *Frame) Add(key, value string) *Frame {
	f.headers = append(f.headers, Header{Key: key, Value: value})
	return f
}

// Get returns the first value for key and whether it was present.
func (f *Frame) Get(key string) (string, bool) {
	for _, h := range f.headers {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

// GetDefault returns the first value for key, or def if absent.
func (f *Frame) GetDefault(key, def string) string {
	if v, ok := f.Get(key); ok {
		return v
	}
	return def
}

// Headers returns the ordered header list.
func (f *Frame) Headers() []Header {
	return f.headers
}

// ContentLength mirrors the jjeffery/stomp predecessor's ContentLength
// helper: returns the body length (byte-accurate, UTF-8 or binary
// alike) rather than trusting a client-supplied content-length header.
func (f *Frame) ContentLength() int {
	return len(f.Body)
}

// IsStompPrefix identifies the STOMP wire format per spec §4.2: the
// first bytes of a connection must read "CONNECT" or "STOMP" (a bare
// heart-beat newline precedes a real frame and is not itself a
// prefix match).
func IsStompPrefix(b []byte) bool {
	s := strings.TrimLeft(string(b), "\n")
	return strings.HasPrefix(s, CmdConnect) || strings.HasPrefix(s, CmdStomp)
}

// IsHeartBeat reports whether b is a single bare newline, the STOMP
// keep-alive signal.
func IsHeartBeat(b []byte) bool {
	return len(b) == 1 && b[0] == '\n'
}
