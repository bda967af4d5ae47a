package connection

import "context"

// Close tears the connection down per spec §4.5/§4.7's CLOSED state:
// idempotent, unbinds every subscription from the router (or its
// resolved queue), disconnects every cached producer route, stops the
// heart-beat monitor and closes the transport. Safe to call more than
// once and safe to call from the die() path or a transport-detected
// disconnect.
func (h *Handler) Close() {
	if h.closed {
		return
	}
	h.closed = true
	wasOpen := h.state == StateOpen
	h.state = StateClosed

	ctx := context.Background()
	for id, session := range h.consumers {
		h.unbindSession(ctx, id, session)
	}

	h.routes.RemoveAll()

	if h.hb != nil {
		h.hb.Stop()
	}

	_ = h.transport.Close()

	if wasOpen {
		h.metrics.ActiveConnections.Dec()
	}
}
