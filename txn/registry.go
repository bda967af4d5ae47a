// Package txn implements TransactionRegistry (C4): a per-connection map
// of transaction id to a deferred action queue, committed atomically
// against a store unit of work. Grounded on the teacher's txStore
// pattern in mschneider82-stomp/server/client/conn.go (BEGIN creates an
// entry, SEND/ACK under a named transaction append to it, COMMIT drains
// it, ABORT discards it) generalized from that fixed SEND-only queue to
// the arbitrary-action closures spec §4.4 calls for.
package txn

import (
	"context"
	"sync"

	"github.com/fsvxavier/nexs-stomp/broker"
	"github.com/fsvxavier/nexs-stomp/stomperr"
)

// Action is a deferred side effect replayed against a store UOW (nil
// when the host carries no store) at COMMIT time.
type Action func(uow broker.UOW)

// Registry holds every in-flight transaction for one connection. Not
// safe for concurrent use across goroutines; callers must serialize
// access through the owning connection's dispatch queue, same as every
// other piece of connection state.
type Registry struct {
	mu    sync.Mutex
	store broker.Store
	queues map[string][]Action
}

func NewRegistry(store broker.Store) *Registry {
	return &Registry{store: store, queues: make(map[string][]Action)}
}

func errNotActive(txID string) error {
	return stomperr.New("txn.not_active", "transaction not active").
		WithType(stomperr.TypeProtocol).
		WithDetail("transaction", txID)
}

// Begin opens a new transaction. Fails if txID is already open.
func (r *Registry) Begin(txID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.queues[txID]; exists {
		return stomperr.New("txn.already_active", "transaction already active").
			WithType(stomperr.TypeProtocol).
			WithDetail("transaction", txID)
	}
	r.queues[txID] = nil
	return nil
}

// Enqueue appends action to txID's queue for later replay. Fails if
// txID is unknown.
func (r *Registry) Enqueue(txID string, action Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.queues[txID]; !exists {
		return errNotActive(txID)
	}
	r.queues[txID] = append(r.queues[txID], action)
	return nil
}

// Commit replays txID's queued actions against a single store UOW (or
// a nil UOW if the connection's host has no store) and invokes
// onComplete once the UOW is durable.
func (r *Registry) Commit(ctx context.Context, txID string, onComplete func()) error {
	r.mu.Lock()
	actions, exists := r.queues[txID]
	if exists {
		delete(r.queues, txID)
	}
	r.mu.Unlock()
	if !exists {
		return errNotActive(txID)
	}

	if r.store == nil {
		for _, a := range actions {
			a(nil)
		}
		if onComplete != nil {
			onComplete()
		}
		return nil
	}

	uow, err := r.store.CreateUOW(ctx)
	if err != nil {
		return stomperr.New("txn.uow_create_failed", "failed to create store unit of work").
			WithType(stomperr.TypeInternal).
			Wrap("commit", err)
	}
	for _, a := range actions {
		a(uow)
	}
	if onComplete != nil {
		uow.OnComplete(onComplete)
	}
	return uow.Release()
}

// Abort discards txID's queue without invoking any queued action.
func (r *Registry) Abort(txID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.queues[txID]; !exists {
		return errNotActive(txID)
	}
	delete(r.queues, txID)
	return nil
}

// Active reports whether txID currently has an open queue, for tests
// and diagnostics.
func (r *Registry) Active(txID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.queues[txID]
	return ok
}
