// Package consumer implements ConsumerSession (C5): the per-subscription
// sink that turns broker deliveries into outbound MESSAGE frames,
// applies selector filtering, and ties delivery lifetime to the ack
// path. Grounded on the worker-over-channel pattern in the teacher's
// ActiveMQ consumer (fsvxavier-nexs-lib/message-queue/providers/
// activemq/consumer.go ranges over subscription.C and acks/nacks each
// stomp.Message) generalized from a pull loop into the offer/bool
// contract spec §4.5 requires so ConnectionHandler can apply
// backpressure without blocking its dispatch queue.
package consumer

import (
	"strconv"

	"github.com/fsvxavier/nexs-stomp/ack"
	"github.com/fsvxavier/nexs-stomp/broker"
	"github.com/fsvxavier/nexs-stomp/frame"
	"github.com/fsvxavier/nexs-stomp/selector"
)

// Sink is the outbound frame destination a Session offers MESSAGE
// frames to; the connection's per-subscription sub-sink of the
// multiplexed transport sink described in spec §5.
type Sink interface {
	// Offer returns false if the sink is momentarily full.
	Offer(f *frame.Frame) bool
}

// Protocol is the wire protocol every Session in this module speaks.
// Compared against Delivery.OriginProtocol in Matches, so a broker
// fanning a single destination out to consumers of more than one
// protocol never hands a foreign-protocol delivery to a STOMP session.
const Protocol = "stomp"

// Session is one SUBSCRIBE's live state.
type Session struct {
	SubscriptionID string // empty only pre-v1.1, where destination doubles as id
	Destination    string
	Ack            ack.Tracker
	Selector       *selector.Compiled // nil if the SUBSCRIBE carried none
	Binding        *broker.Binding    // nil for direct (non-durable) topic subscriptions

	sink Sink
}

// NewSession builds a Session bound to sink.
func NewSession(subscriptionID, destination string, tracker ack.Tracker, compiled *selector.Compiled, binding *broker.Binding, sink Sink) *Session {
	return &Session{
		SubscriptionID: subscriptionID,
		Destination:    destination,
		Ack:            tracker,
		Selector:       compiled,
		Binding:        binding,
		sink:           sink,
	}
}

// Matches reports whether delivery should be offered to this session.
// Two independent conditions both apply: the delivery's origin
// protocol must match this session's (an empty OriginProtocol is
// treated as a match, since not every Router tags deliveries with
// their producing protocol), and, when a selector was supplied, it
// must evaluate true against the delivery's headers.
func (s *Session) Matches(d broker.Delivery) bool {
	if d.OriginProtocol != "" && d.OriginProtocol != Protocol {
		return false
	}
	if s.Selector == nil {
		return true
	}
	return s.Selector.Matches(d.Headers)
}

// Offer converts d into a MESSAGE frame and hands it to the sink. If
// the sink is full, it returns false without registering the delivery
// with the ack tracker, so the caller (ConsumerSession's owner) must
// retry rather than assume the delivery was consumed. An accepted
// offer on a not-full sink always succeeds, simplifying callers per
// spec §4.5.
func (s *Session) Offer(d broker.Delivery) bool {
	f := s.toMessageFrame(d)
	if !s.sink.Offer(f) {
		return false
	}
	s.Ack.Track(d)
	return true
}

// Deliver implements broker.Consumer so a Session can be handed
// directly to Router.Bind / Queue.Bind.
func (s *Session) Deliver(d broker.Delivery) bool {
	if !s.Matches(d) {
		return true // filtered out, not backpressure
	}
	return s.Offer(d)
}

func (s *Session) toMessageFrame(d broker.Delivery) *frame.Frame {
	f := frame.New(frame.CmdMessage)
	f.Add("destination", d.Destination)
	f.Add("message-id", d.MessageID)
	if s.SubscriptionID != "" {
		f.Add("subscription", s.SubscriptionID)
	}
	for k, v := range d.Headers {
		if k == "destination" || k == "message-id" || k == "subscription" {
			continue
		}
		f.Add(k, v)
	}
	f.Add("content-length", strconv.Itoa(len(d.Body)))
	f.Body = d.Body
	return f
}

// Dispose releases the session's resources. The connection is
// responsible for unbinding from the router or queue before calling
// this; Dispose itself only severs the sink reference so a disposed
// session can't accidentally keep delivering.
func (s *Session) Dispose() {
	s.sink = nil
}
