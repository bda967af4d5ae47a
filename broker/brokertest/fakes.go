// Package brokertest provides hand-written in-memory fakes for the
// broker collaborator interfaces, in the style of the teacher's table
// driven provider tests (fsvxavier-nexs-lib/message-queue/providers/
// activemq/activemq_test.go build small struct fixtures rather than
// generated mocks). Exported so connection, producerroute and consumer
// package tests can share one set of fakes instead of redefining them.
package brokertest

import (
	"context"
	"errors"
	"sync"

	"github.com/fsvxavier/nexs-stomp/broker"
	"github.com/fsvxavier/nexs-stomp/frame"
)

// Route is a fake broker.Route recording every offered delivery.
// SetFull(true) makes Offer refuse deliveries, reporting backpressure,
// until SetFull(false) is called.
type Route struct {
	mu          sync.Mutex
	Destination string
	Offered     []broker.Delivery
	Disconnected bool
	full        bool
}

func NewRoute(destination string) *Route { return &Route{Destination: destination} }

func (r *Route) Offer(d broker.Delivery) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return false
	}
	r.Offered = append(r.Offered, d)
	return true
}

func (r *Route) SetFull(full bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.full = full
}

func (r *Route) Deliveries() []broker.Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]broker.Delivery, len(r.Offered))
	copy(out, r.Offered)
	return out
}

// Queue is a fake broker.Queue tracking bound consumers and whether it
// was destroyed.
type Queue struct {
	mu        sync.Mutex
	Binding   broker.Binding
	Bound     []broker.Consumer
	Destroyed bool
}

func (q *Queue) Bind(consumers []broker.Consumer) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Bound = append(q.Bound, consumers...)
	return nil
}

func (q *Queue) Unbind(consumers []broker.Consumer) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, c := range consumers {
		for i, b := range q.Bound {
			if b == c {
				q.Bound = append(q.Bound[:i], q.Bound[i+1:]...)
				break
			}
		}
	}
	return nil
}

// Router is a fake broker.Router. Routes are keyed by destination,
// queues by destination and subscription id; ConnectErr/CreateQueueErr
// force failures for negative-path tests.
type Router struct {
	mu sync.Mutex

	routes       map[string]*Route
	disconnected []*Route
	queues       map[string]*Queue
	boundTopics  map[string][]broker.Consumer

	ConnectErr     error
	CreateQueueErr error
}

func NewRouter() *Router {
	return &Router{
		routes:      make(map[string]*Route),
		queues:      make(map[string]*Queue),
		boundTopics: make(map[string][]broker.Consumer),
	}
}

func (r *Router) Connect(_ context.Context, destination string) (broker.Route, error) {
	if r.ConnectErr != nil {
		return nil, r.ConnectErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if rt, ok := r.routes[destination]; ok {
		return rt, nil
	}
	rt := NewRoute(destination)
	r.routes[destination] = rt
	return rt, nil
}

func (r *Router) Disconnect(route broker.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := route.(*Route)
	if !ok {
		return errors.New("brokertest: not a fake route")
	}
	rt.Disconnected = true
	r.disconnected = append(r.disconnected, rt)
	delete(r.routes, rt.Destination)
	return nil
}

func (r *Router) Bind(_ context.Context, destination string, consumer broker.Consumer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boundTopics[destination] = append(r.boundTopics[destination], consumer)
	return nil
}

func (r *Router) Unbind(_ context.Context, destination string, consumer broker.Consumer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.boundTopics[destination]
	for i, c := range list {
		if c == consumer {
			r.boundTopics[destination] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return nil
}

func (r *Router) CreateQueue(_ context.Context, binding broker.Binding) (broker.Queue, error) {
	if r.CreateQueueErr != nil {
		return nil, r.CreateQueueErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := queueKey(binding)
	if q, ok := r.queues[key]; ok {
		return q, nil
	}
	q := &Queue{Binding: binding}
	r.queues[key] = q
	return q, nil
}

func (r *Router) DestroyQueue(_ context.Context, binding broker.Binding) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := queueKey(binding)
	q, ok := r.queues[key]
	if !ok {
		return false, nil
	}
	q.Destroyed = true
	delete(r.queues, key)
	return true, nil
}

func (r *Router) GetQueue(_ context.Context, binding broker.Binding) (broker.Queue, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[queueKey(binding)]
	return q, ok
}

// DisconnectedRoutes returns the routes evicted/disconnected so far, in
// disconnect order.
func (r *Router) DisconnectedRoutes() []*Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Route, len(r.disconnected))
	copy(out, r.disconnected)
	return out
}

func (r *Router) BoundTopicConsumers(destination string) []broker.Consumer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]broker.Consumer(nil), r.boundTopics[destination]...)
}

func queueKey(b broker.Binding) string {
	return b.Destination + "|" + b.SubscriptionID
}

// UOW is a fake broker.UOW that runs callbacks synchronously on Release.
type UOW struct {
	mu        sync.Mutex
	callbacks []func()
	released  bool
}

func (u *UOW) OnComplete(cb func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.callbacks = append(u.callbacks, cb)
}

func (u *UOW) Release() error {
	u.mu.Lock()
	cbs := u.callbacks
	u.released = true
	u.mu.Unlock()
	for _, cb := range cbs {
		cb()
	}
	return nil
}

func (u *UOW) Released() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.released
}

// Store is a fake broker.Store vending fake UOWs.
type Store struct {
	mu   sync.Mutex
	uows []*UOW
}

func (s *Store) CreateUOW(_ context.Context) (broker.UOW, error) {
	u := &UOW{}
	s.mu.Lock()
	s.uows = append(s.uows, u)
	s.mu.Unlock()
	return u, nil
}

func (s *Store) UOWs() []*UOW {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*UOW(nil), s.uows...)
}

// Authenticator is a fake broker.Authenticator. Allow controls the
// outcome; Err forces a failure instead of a false result.
type Authenticator struct {
	Allow bool
	Err   error

	mu    sync.Mutex
	calls int
}

func (a *Authenticator) Authenticate(_ context.Context, _, _ string) (bool, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.Err != nil {
		return false, a.Err
	}
	return a.Allow, nil
}

func (a *Authenticator) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Host is a fake broker.Host.
type Host struct {
	Name      string
	Auth      broker.Authenticator
	DataStore broker.Store
	Pool      frame.BufferPool

	mu      sync.Mutex
	counter uint64
}

func (h *Host) ID() string                         { return h.Name }
func (h *Host) Authenticator() broker.Authenticator { return h.Auth }
func (h *Host) Store() broker.Store                 { return h.DataStore }
func (h *Host) DirectBufferPool() frame.BufferPool  { return h.Pool }
func (h *Host) NextSessionCounter() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counter++
	return h.counter
}

// Registry is a fake broker.HostRegistry backed by a plain map.
type Registry struct {
	hosts map[string]broker.Host
}

func NewRegistry() *Registry { return &Registry{hosts: make(map[string]broker.Host)} }

func (r *Registry) Add(name string, h broker.Host) { r.hosts[name] = h }

func (r *Registry) Lookup(_ context.Context, name string) (broker.Host, bool) {
	h, ok := r.hosts[name]
	return h, ok
}
