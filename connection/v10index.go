package connection

import (
	"github.com/fsvxavier/nexs-stomp/ack"
	"github.com/fsvxavier/nexs-stomp/broker"
)

// v10IndexingTracker decorates a subscription's ack.Tracker so every
// tracked delivery is also indexed on the connection's
// connAckHandlers map, keyed by message id. This is the v1.0 fallback
// described in spec §3/§9: v1.0 ACK frames may omit the subscription
// header, so the connection must be able to resolve the right tracker
// from the message id alone. The index is populated on Track and
// pruned by the connection on successful ack/nack and on unsubscribe,
// keeping it "in lockstep with the per-subscription trackers" per the
// spec's design note.
type v10IndexingTracker struct {
	ack.Tracker
	index map[string]ack.Tracker
}

func newV10IndexingTracker(inner ack.Tracker, index map[string]ack.Tracker) ack.Tracker {
	return &v10IndexingTracker{Tracker: inner, index: index}
}

func (t *v10IndexingTracker) Track(d broker.Delivery) {
	t.Tracker.Track(d)
	t.index[d.MessageID] = t
}
