// Package producerroute implements ProducerRoutes (C6): a bounded LRU
// cache of destination to router.Route, per spec §4.6 and the design
// note in §9 ("an ordered map with eviction hook; eviction must call
// router.disconnect before forgetting the value"). No LRU library
// appears in any example repo's go.mod (checked across the full
// retrieved corpus), so this is a deliberate stdlib-only exception
// built on container/list, the same structure the standard library's
// own (unexported) groupcache-style LRUs use — see DESIGN.md.
package producerroute

import (
	"container/list"
	"context"

	"github.com/fsvxavier/nexs-stomp/broker"
)

// DefaultCapacity matches spec §4.6 and config.Config's
// producer_route_cache_size default.
const DefaultCapacity = 10

type entry struct {
	destination string
	route       broker.Route
}

// Cache is a bounded LRU of destination to broker.Route. Not safe for
// concurrent use; callers serialize access through the owning
// connection's dispatch queue.
type Cache struct {
	capacity int
	router   broker.Router
	onEvict  func(destination string)

	order *list.List // front = most recently used
	index map[string]*list.Element
}

// NewCache builds a Cache bounded to capacity entries (DefaultCapacity
// if capacity <= 0), evicting through router on overflow.
func NewCache(router broker.Router, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		router:   router,
		order:    list.New(),
		index:    make(map[string]*list.Element),
	}
}

// OnEvict registers a callback invoked with the destination every time
// the cache evicts an entry (capacity overflow or an explicit
// Remove/RemoveAll). Used by the owning connection to keep an eviction
// metric in step with the cache's actual behavior.
func (c *Cache) OnEvict(fn func(destination string)) {
	c.onEvict = fn
}

// Get returns the cached route for destination, marking it most
// recently used.
func (c *Cache) Get(destination string) (broker.Route, bool) {
	el, ok := c.index[destination]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).route, true
}

// Connect resolves the cached route for destination, creating it via
// router.Connect if absent. Route creation is the asynchronous step
// spec §4.6 calls out; callers should suspend transport reads around
// this call since a real Router implementation may block on network
// I/O before returning.
func (c *Cache) Connect(ctx context.Context, destination string) (broker.Route, error) {
	if route, ok := c.Get(destination); ok {
		return route, nil
	}

	route, err := c.router.Connect(ctx, destination)
	if err != nil {
		return nil, err
	}

	if el, ok := c.index[destination]; ok {
		// A concurrent Connect for the same destination already
		// cached a route while this one was in flight; keep the
		// existing entry and disconnect the redundant one.
		c.order.MoveToFront(el)
		if route != el.Value.(*entry).route {
			_ = c.router.Disconnect(route)
		}
		return el.Value.(*entry).route, nil
	}

	c.put(destination, route)
	return route, nil
}

func (c *Cache) put(destination string, route broker.Route) {
	el := c.order.PushFront(&entry{destination: destination, route: route})
	c.index[destination] = el

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.evict(oldest)
	}
}

func (c *Cache) evict(el *list.Element) {
	e := el.Value.(*entry)
	_ = c.router.Disconnect(e.route)
	c.order.Remove(el)
	delete(c.index, e.destination)
	if c.onEvict != nil {
		c.onEvict(e.destination)
	}
}

// Len reports the number of cached routes.
func (c *Cache) Len() int { return c.order.Len() }

// Remove evicts destination's route immediately, disconnecting it
// through the router.
func (c *Cache) Remove(destination string) {
	if el, ok := c.index[destination]; ok {
		c.evict(el)
	}
}

// RemoveAll disconnects and forgets every cached route, in
// least-recently-used-first order. Used on connection teardown.
func (c *Cache) RemoveAll() {
	for c.order.Len() > 0 {
		c.evict(c.order.Back())
	}
}
