// Package broker declares the collaborator interfaces a ConnectionHandler
// depends on but never implements: the router, its queues, the virtual
// host registry, the durable store and its units of work, and the
// authenticator. Shapes follow the teacher's MessageQueueProvider /
// ProviderMetrics style of plain interfaces plus config structs
// (fsvxavier-nexs-lib/message-queue/interfaces/provider.go), generalized
// from a client-side producer/consumer provider to the server-side
// router/queue/host/store collaborators this core actually needs.
package broker

import (
	"context"

	"github.com/fsvxavier/nexs-stomp/frame"
)

// Producer is the write-side handle a Route fans deliveries out to.
type Producer interface {
	// Offer hands a delivery to the route. Returns false if the route is
	// momentarily full and the caller must suspend further sends until
	// the route has capacity again.
	Offer(d Delivery) bool
}

// Consumer is the read-side handle a Route or Queue delivers to.
type Consumer interface {
	// Deliver hands an inbound delivery to the consumer. Returns false
	// if the consumer's sink is full; the caller must not drop the
	// delivery in that case.
	Deliver(d Delivery) bool
}

// Delivery is a single message in flight between a producer and a
// consumer, carrying enough of the original SEND to rebuild a MESSAGE
// frame plus the durability handle needed to ack it.
type Delivery struct {
	MessageID   string
	Destination string
	Headers     map[string]string
	Body        []byte
	Size        int

	// OriginProtocol names the wire protocol that produced this
	// delivery (e.g. "stomp"), for brokers that fan a single
	// destination out to consumers speaking different protocols. Empty
	// means the origin is unknown or native to the consuming side,
	// which a ConsumerSession treats as a match regardless of its own
	// protocol.
	OriginProtocol string

	// UOW is attached when the delivery was produced under a
	// transaction's commit; nil for non-transactional sends.
	UOW UOW

	// Ack is invoked by the consuming side once the delivery is
	// considered durable or consumed. May be nil for deliveries that
	// don't require acknowledgement bookkeeping (AUTO mode inlines its
	// own ack instead of relying on the route to call this).
	Ack func(uow UOW)
}

// Route is what ProducerRoutes caches per destination: a connected
// handle accepting Offer calls from this connection's SEND frames.
type Route interface {
	Producer
}

// Queue is a router-managed point-to-point or durable-subscription
// destination that consumers bind to directly, bypassing the router's
// topic fan-out.
type Queue interface {
	Bind(consumers []Consumer) error
	Unbind(consumers []Consumer) error
}

// Binding describes how a ConsumerSession attaches to a destination:
// direct topic fan-out needs no binding at all, durable topics and
// point-to-point destinations both resolve to a Queue through the
// router.
type Binding struct {
	Destination    string
	SubscriptionID string
	SelectorRaw    string
	Durable        bool
}

// Router mediates all producer and consumer access to destinations.
// Connect and CreateQueue are asynchronous in spirit but return
// synchronously in this Go rendition. ConnectionHandler suspends reads
// around Connect, since a real router implementation may block on
// network I/O; CreateQueue is called without suspending reads.
type Router interface {
	// Connect establishes or returns a cached Route a producer can
	// offer deliveries to.
	Connect(ctx context.Context, destination string) (Route, error)

	// Disconnect tears down a route, e.g. on LRU eviction.
	Disconnect(route Route) error

	// Bind attaches a consumer directly to a topic's fan-out, used
	// for non-durable, non-persistent topic subscriptions.
	Bind(ctx context.Context, destination string, consumer Consumer) error

	// Unbind detaches a consumer previously attached with Bind.
	Unbind(ctx context.Context, destination string, consumer Consumer) error

	// CreateQueue materializes the queue backing a Binding, or returns
	// (nil, nil) if the binding does not require one.
	CreateQueue(ctx context.Context, binding Binding) (Queue, error)

	// DestroyQueue removes a durable queue. Returns false if nothing
	// was destroyed (e.g. already gone).
	DestroyQueue(ctx context.Context, binding Binding) (bool, error)

	// GetQueue resolves an existing queue for a binding without
	// creating one.
	GetQueue(ctx context.Context, binding Binding) (Queue, bool)
}

// Authenticator validates the login/passcode pair from a CONNECT frame.
type Authenticator interface {
	Authenticate(ctx context.Context, login, passcode string) (bool, error)
}

// UOW is the store's atomic batch handle: actions replayed against the
// same UOW become durable together.
type UOW interface {
	// OnComplete registers a callback fired once the unit of work is
	// durable. Multiple callbacks may be registered; they fire in
	// registration order.
	OnComplete(cb func())

	// Release finalizes the UOW, triggering its completion callbacks.
	Release() error
}

// Store creates units of work for transactional commits. A Host without
// a Store commits transactions with a nil UOW, firing completion
// callbacks synchronously.
type Store interface {
	CreateUOW(ctx context.Context) (UOW, error)
}

// Host is the virtual host a connection binds to after CONNECT: it
// supplies the authenticator, the durable store, and the monotonic
// session counter used to mint session ids.
type Host interface {
	ID() string
	Authenticator() Authenticator       // nil if the host requires no auth
	Store() Store                       // nil if the host has no durable store
	DirectBufferPool() frame.BufferPool // nil if the host has no pool to offer
	NextSessionCounter() uint64
}

// HostRegistry resolves a CONNECT frame's host header (or a configured
// default) to a Host.
type HostRegistry interface {
	Lookup(ctx context.Context, name string) (Host, bool)
}
