// Package ack implements AckTracker (C3): per-subscription bookkeeping
// of unacknowledged deliveries under the three modes this core
// supports. Modeled as a tagged variant (one struct per mode behind a
// shared interface) per spec §9's explicit design note, rather than a
// class hierarchy — the teacher's own domainerrors package uses the
// same "one concrete type, shared interface, no inheritance" shape for
// its error kinds.
package ack

import (
	"container/list"

	"github.com/fsvxavier/nexs-stomp/broker"
	"github.com/fsvxavier/nexs-stomp/stomperr"
)

// Mode names the three acknowledgement policies this core supports.
type Mode string

const (
	ModeAuto             Mode = "auto"
	ModeClient           Mode = "client"
	ModeClientIndividual Mode = "client-individual"
)

// Tracker is the shared contract every ack-mode implementation
// satisfies.
type Tracker interface {
	Mode() Mode

	// Track records a pending delivery. For AUTO, the delivery's ack
	// callback fires immediately, inline.
	Track(d broker.Delivery)

	// PerformAck acknowledges up to (CLIENT) or exactly (CLIENT
	// INDIVIDUAL) messageID, invoking callbacks with uow. AUTO always
	// errors.
	PerformAck(messageID string, uow broker.UOW) error

	// PerformNack is the supplemented symmetric counterpart to
	// PerformAck: it drops the same pending entries PerformAck would
	// (the cumulative prefix for CLIENT, the named message for CLIENT
	// INDIVIDUAL) without invoking their ack callbacks. requeue is
	// accepted but not acted on; nothing is redelivered. AUTO always
	// errors, since AUTO deliveries are never pending.
	PerformNack(messageID string, requeue bool) error
}

// entry is one pending delivery, kept in tracking order.
type entry struct {
	messageID string
	ack       func(uow broker.UOW)
}

func errNotExpected(mode Mode) error {
	return stomperr.New("ack.mode_mismatch", "subscription ack mode does not expect ACK frames").
		WithType(stomperr.TypeProtocol).
		WithDetail("mode", string(mode))
}

func errInvalidMessageID(messageID string) error {
	return stomperr.New("ack.invalid_message_id", "ACK failed, invalid message id").
		WithType(stomperr.TypeProtocol).
		WithDetail("message_id", messageID)
}

// -- AUTO ---------------------------------------------------------------

// Auto acknowledges every delivery immediately on Track and rejects
// inbound ACK/NACK frames outright.
type Auto struct{}

func NewAuto() *Auto { return &Auto{} }

func (a *Auto) Mode() Mode { return ModeAuto }

func (a *Auto) Track(d broker.Delivery) {
	if d.Ack != nil {
		d.Ack(d.UOW)
	}
}

func (a *Auto) PerformAck(string, broker.UOW) error {
	return errNotExpected(ModeAuto)
}

func (a *Auto) PerformNack(string, bool) error {
	return errNotExpected(ModeAuto)
}

// -- CLIENT (cumulative) -------------------------------------------------

// Client implements session/cumulative acknowledgement: ACK of M
// acknowledges every entry tracked up to and including M, in tracking
// order.
type Client struct {
	pending *list.List // of *entry, oldest first
}

func NewClient() *Client {
	return &Client{pending: list.New()}
}

func (c *Client) Mode() Mode { return ModeClient }

func (c *Client) Track(d broker.Delivery) {
	c.pending.PushBack(&entry{messageID: d.MessageID, ack: d.Ack})
}

func (c *Client) PerformAck(messageID string, uow broker.UOW) error {
	target := c.find(messageID)
	if target == nil {
		return errInvalidMessageID(messageID)
	}
	for e := c.pending.Front(); e != nil; {
		next := e.Next()
		ent := e.Value.(*entry)
		if ent.ack != nil {
			ent.ack(uow)
		}
		c.pending.Remove(e)
		if e == target {
			break
		}
		e = next
	}
	return nil
}

func (c *Client) PerformNack(messageID string, requeue bool) error {
	target := c.find(messageID)
	if target == nil {
		return errInvalidMessageID(messageID)
	}
	for e := c.pending.Front(); e != nil; {
		next := e.Next()
		c.pending.Remove(e)
		if e == target {
			break
		}
		e = next
	}
	return nil
}

func (c *Client) find(messageID string) *list.Element {
	for e := c.pending.Front(); e != nil; e = e.Next() {
		if e.Value.(*entry).messageID == messageID {
			return e
		}
	}
	return nil
}

// Pending reports the message ids still outstanding, in tracking
// order, for tests.
func (c *Client) Pending() []string {
	out := make([]string, 0, c.pending.Len())
	for e := c.pending.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*entry).messageID)
	}
	return out
}

// -- CLIENT-INDIVIDUAL ----------------------------------------------------

// ClientIndividual acknowledges (or nacks) exactly the named message,
// leaving every other pending entry untouched.
type ClientIndividual struct {
	pending map[string]*entry
	order   []string // insertion order, for Pending()
}

func NewClientIndividual() *ClientIndividual {
	return &ClientIndividual{pending: make(map[string]*entry)}
}

func (c *ClientIndividual) Mode() Mode { return ModeClientIndividual }

func (c *ClientIndividual) Track(d broker.Delivery) {
	c.pending[d.MessageID] = &entry{messageID: d.MessageID, ack: d.Ack}
	c.order = append(c.order, d.MessageID)
}

func (c *ClientIndividual) PerformAck(messageID string, uow broker.UOW) error {
	ent, ok := c.pending[messageID]
	if !ok {
		return errInvalidMessageID(messageID)
	}
	delete(c.pending, messageID)
	if ent.ack != nil {
		ent.ack(uow)
	}
	return nil
}

func (c *ClientIndividual) PerformNack(messageID string, requeue bool) error {
	if _, ok := c.pending[messageID]; !ok {
		return errInvalidMessageID(messageID)
	}
	delete(c.pending, messageID)
	return nil
}

// Pending reports outstanding message ids in insertion order.
func (c *ClientIndividual) Pending() []string {
	out := make([]string, 0, len(c.pending))
	for _, id := range c.order {
		if _, ok := c.pending[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// New constructs the tracker for mode, defaulting unknown modes to
// nil so callers can distinguish "unknown ack mode" (die per spec
// §4.7) from a valid tracker.
func New(mode Mode) Tracker {
	switch mode {
	case ModeAuto:
		return NewAuto()
	case ModeClient, Mode("session"): // SESSION shares CLIENT's cumulative tracker
		return NewClient()
	case ModeClientIndividual:
		return NewClientIndividual()
	default:
		return nil
	}
}
