package connection

import (
	"context"
	"strings"

	"github.com/fsvxavier/nexs-stomp/ack"
	"github.com/fsvxavier/nexs-stomp/broker"
	"github.com/fsvxavier/nexs-stomp/consumer"
	"github.com/fsvxavier/nexs-stomp/frame"
)

func (h *Handler) handleOpenFrame(ctx context.Context, f *frame.Frame) {
	switch f.Command {
	case frame.CmdSend:
		h.handleSend(ctx, f)
	case frame.CmdSubscribe:
		h.handleSubscribe(ctx, f)
	case frame.CmdUnsubscribe:
		h.handleUnsubscribe(ctx, f)
	case frame.CmdAck:
		h.handleAckOrNack(ctx, f, false)
	case frame.CmdNack:
		h.handleAckOrNack(ctx, f, true)
	case frame.CmdBegin:
		h.handleBegin(f)
	case frame.CmdCommit:
		h.handleCommit(ctx, f)
	case frame.CmdAbort:
		h.handleAbort(f)
	case frame.CmdDisconnect:
		h.handleDisconnect(f)
	default:
		h.die("unknown command", f.Command, nil)
	}
}

func isTopic(destination string) bool {
	return strings.HasPrefix(destination, "/topic/")
}

// -- SEND -------------------------------------------------------------

func (h *Handler) handleSend(ctx context.Context, f *frame.Frame) {
	destination, ok := f.Get("destination")
	if !ok {
		h.die("SEND requires a destination header", "", nil)
		return
	}

	if txID, hasTx := f.Get("transaction"); hasTx {
		if err := h.transactions.Enqueue(txID, func(uow broker.UOW) {
			h.performSend(ctx, f, destination, uow)
		}); err != nil {
			h.die(errorMessage(err), err.Error(), nil)
		}
		return
	}

	h.performSend(ctx, f, destination, nil)
}

func (h *Handler) performSend(ctx context.Context, f *frame.Frame, destination string, uow broker.UOW) {
	h.transport.SuspendRead("connecting route: " + destination)
	h.waitingOn = "connecting route: " + destination
	route, err := h.routes.Connect(ctx, destination)
	h.transport.ResumeRead()
	h.waitingOn = ""
	if err != nil {
		h.die("failed to connect producer route", err.Error(), nil)
		return
	}
	h.metrics.ActiveRoutes.Set(float64(h.routes.Len()))

	messageID := f.GetDefault("message-id", h.nextMessageID())
	headers := make(map[string]string)
	for _, hd := range f.Headers() {
		if hd.Key == "destination" || hd.Key == "transaction" || hd.Key == "receipt" || hd.Key == "message-id" {
			continue
		}
		headers[hd.Key] = hd.Value
	}

	delivery := broker.Delivery{
		MessageID:   messageID,
		Destination: destination,
		Headers:     headers,
		Body:        f.Body,
		UOW:         uow,
	}

	if !route.Offer(delivery) {
		h.transport.SuspendRead("blocked destination: " + destination)
		h.waitingOn = "blocked destination: " + destination
		return
	}

	h.emitReceiptIfRequested(f)
}

// NotifyRouteReady resumes transport reads after a previously blocked
// route's refiller fires, per spec §4.6's "installs a refiller on
// completion that resumes reads". A real Router implementation is
// expected to invoke this (or an equivalent callback wired by the
// embedding server) once the destination has capacity again.
func (h *Handler) NotifyRouteReady(destination string) {
	if h.waitingOn == "blocked destination: "+destination {
		h.transport.ResumeRead()
		h.waitingOn = ""
	}
}

// -- SUBSCRIBE / UNSUBSCRIBE -------------------------------------------

func (h *Handler) handleSubscribe(ctx context.Context, f *frame.Frame) {
	destination, ok := f.Get("destination")
	if !ok {
		h.die("SUBSCRIBE requires a destination header", "", nil)
		return
	}

	id, ok := f.Get("id")
	subscriptionID := id // stays empty when v1.0 falls back to the destination
	if !ok {
		if h.version != "1.0" {
			h.die("SUBSCRIBE requires an id header", "", nil)
			return
		}
		id = destination
	}
	if _, exists := h.consumers[id]; exists {
		h.die("duplicate subscription id", id, nil)
		return
	}

	mode := ack.Mode(f.GetDefault("ack", string(ack.ModeAuto)))
	tracker := ack.New(mode)
	if tracker == nil {
		h.die("unknown ack mode", string(mode), nil)
		return
	}
	if h.version == "1.0" {
		tracker = newV10IndexingTracker(tracker, h.connAckHandlers)
	}

	compiled, err := selectorFor(f.GetDefault("selector", ""))
	if err != nil {
		h.die("invalid selector", err.Error(), nil)
		return
	}

	persistent := f.GetDefault("persistent", "false") == "true"
	topic := isTopic(destination)

	var binding *broker.Binding
	var boundQueue broker.Queue

	switch {
	case topic && !persistent:
		// direct fan-out, no binding
	case topic && persistent:
		binding = &broker.Binding{Destination: destination, SubscriptionID: id, Durable: true}
		if compiled != nil {
			binding.SelectorRaw = compiled.Raw()
		}
	default:
		binding = &broker.Binding{Destination: destination, SubscriptionID: id}
		if compiled != nil {
			binding.SelectorRaw = compiled.Raw()
		}
	}

	session := consumer.NewSession(subscriptionID, destination, tracker, compiled, binding, h.sink)

	if binding != nil {
		q, err := h.router.CreateQueue(ctx, *binding)
		if err != nil {
			h.die("failed to create queue", err.Error(), nil)
			return
		}
		boundQueue = q
		if boundQueue != nil {
			if err := boundQueue.Bind([]broker.Consumer{session}); err != nil {
				h.die("failed to bind queue", err.Error(), nil)
				return
			}
		}
	} else {
		if err := h.router.Bind(ctx, destination, session); err != nil {
			h.die("failed to bind subscription", err.Error(), nil)
			return
		}
	}

	h.consumers[id] = session
	h.metrics.ActiveSubscriptions.Inc()

	h.emitReceiptIfRequested(f)
}

func (h *Handler) handleUnsubscribe(ctx context.Context, f *frame.Frame) {
	id, ok := f.Get("id")
	if !ok && h.version == "1.0" {
		id, ok = f.Get("destination")
	}
	if !ok {
		h.die("UNSUBSCRIBE requires an id header", "", nil)
		return
	}

	session, ok := h.consumers[id]
	if !ok {
		h.die("unknown subscription", id, nil)
		return
	}

	h.unbindSession(ctx, id, session)

	if f.GetDefault("persistent", "false") == "true" && session.Binding != nil {
		if _, err := h.router.DestroyQueue(ctx, *session.Binding); err != nil {
			h.die("failed to destroy queue", err.Error(), nil)
			return
		}
	}

	h.emitReceiptIfRequested(f)
}

func (h *Handler) unbindSession(ctx context.Context, id string, session *consumer.Session) {
	if session.Binding == nil {
		_ = h.router.Unbind(ctx, session.Destination, session)
	} else if q, ok := h.router.GetQueue(ctx, *session.Binding); ok {
		_ = q.Unbind([]broker.Consumer{session})
	}
	session.Dispose()
	delete(h.consumers, id)
	for messageID, tr := range h.connAckHandlers {
		if tr == session.Ack {
			delete(h.connAckHandlers, messageID)
		}
	}
	h.metrics.ActiveSubscriptions.Dec()
}

// -- ACK / NACK ---------------------------------------------------------

func (h *Handler) handleAckOrNack(ctx context.Context, f *frame.Frame, nack bool) {
	messageID, ok := f.Get("message-id")
	if !ok {
		h.die("ACK/NACK requires a message-id header", "", nil)
		return
	}

	tracker, ok := h.resolveTracker(f)
	if !ok {
		h.die("unknown subscription for ack", messageID, nil)
		return
	}

	perform := func(uow broker.UOW) error { return tracker.PerformAck(messageID, uow) }
	if nack {
		requeue := f.GetDefault("requeue", "true") == "true"
		perform = func(broker.UOW) error { return tracker.PerformNack(messageID, requeue) }
	}

	if txID, hasTx := f.Get("transaction"); hasTx {
		if err := h.transactions.Enqueue(txID, func(uow broker.UOW) { _ = perform(uow) }); err != nil {
			h.die(errorMessage(err), err.Error(), nil)
			return
		}
		h.emitReceiptIfRequested(f)
		return
	}

	if err := perform(nil); err != nil {
		h.die(errorMessage(err), messageID, nil)
		return
	}
	if h.version == "1.0" {
		delete(h.connAckHandlers, messageID)
	}
	mode := string(tracker.Mode())
	if nack {
		mode = mode + ":nack"
	}
	h.metrics.AcksByMode.WithLabelValues(mode).Inc()
	h.emitReceiptIfRequested(f)
}

func (h *Handler) resolveTracker(f *frame.Frame) (ack.Tracker, bool) {
	if sub, ok := f.Get("subscription"); ok {
		session, ok := h.consumers[sub]
		if !ok {
			return nil, false
		}
		return session.Ack, true
	}
	if h.version != "1.0" {
		return nil, false
	}
	messageID, _ := f.Get("message-id")
	tracker, ok := h.connAckHandlers[messageID]
	return tracker, ok
}

// -- Transactions ---------------------------------------------------------

func (h *Handler) handleBegin(f *frame.Frame) {
	txID, ok := f.Get("transaction")
	if !ok {
		h.die("BEGIN requires a transaction header", "", nil)
		return
	}
	if err := h.transactions.Begin(txID); err != nil {
		h.die(errorMessage(err), txID, nil)
		return
	}
	h.emitReceiptIfRequested(f)
}

func (h *Handler) handleCommit(ctx context.Context, f *frame.Frame) {
	txID, ok := f.Get("transaction")
	if !ok {
		h.die("COMMIT requires a transaction header", "", nil)
		return
	}
	err := h.transactions.Commit(ctx, txID, func() {
		h.emitReceiptIfRequested(f)
	})
	if err != nil {
		h.die(errorMessage(err), txID, nil)
	}
}

func (h *Handler) handleAbort(f *frame.Frame) {
	txID, ok := f.Get("transaction")
	if !ok {
		h.die("ABORT requires a transaction header", "", nil)
		return
	}
	if err := h.transactions.Abort(txID); err != nil {
		h.die(errorMessage(err), txID, nil)
		return
	}
	h.emitReceiptIfRequested(f)
}

// -- DISCONNECT -----------------------------------------------------------

func (h *Handler) handleDisconnect(f *frame.Frame) {
	h.emitReceiptIfRequested(f)
	h.Close()
}
