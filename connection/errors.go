package connection

import (
	"time"

	"github.com/fsvxavier/nexs-stomp/frame"
	"github.com/fsvxavier/nexs-stomp/logging"
	"github.com/fsvxavier/nexs-stomp/stomperr"
)

// errorMessage extracts the clean human-readable message an ERROR
// frame's message header must carry. spec.md documents that header as
// the literal message text ("ACK failed, invalid message id",
// "transaction not active", ...), never the `*stomperr.Error`'s
// code-prefixed Error() rendering, so callers that die() on a
// stomperr.Error must pass this instead of err.Error() for the message
// argument. err.Error() remains the right choice for the detail/body
// argument, where the code prefix is useful diagnostic noise.
func errorMessage(err error) string {
	if se, ok := err.(*stomperr.Error); ok {
		return se.Message
	}
	return err.Error()
}

// die handles every synchronous fatal path per spec §4.7/§7: it emits
// exactly one ERROR frame, enters DRAINING_ERROR, suspends reads and
// schedules the connection to stop after cfg.DieDelay. message is the
// ERROR frame's message header; detail becomes the body when
// non-empty; extraHeaders are added verbatim (used for the version
// negotiation failure's "version" header).
func (h *Handler) die(message, detail string, extraHeaders map[string]string) {
	if h.state == StateDrainingError || h.state == StateClosed {
		return
	}

	errFrame := frame.New(frame.CmdError).Add("message", message)
	for k, v := range extraHeaders {
		errFrame.Add(k, v)
	}
	if detail != "" {
		errFrame.Body = []byte(detail)
	}

	h.state = StateDrainingError
	h.transport.SuspendRead("draining error: " + message)
	h.waitingOn = "draining error: " + message
	h.send(errFrame)
	h.metrics.DieCount.WithLabelValues(message).Inc()
	h.logger.Warn("connection dying", logging.String("message", message), logging.String("conn_id", h.connID), logging.String("session_id", h.sessionID))

	h.scheduleStop()
}

// asyncDie is the counterpart for fatal conditions discovered while a
// collaborator call was in flight (virtual host lookup, authentication,
// heart-beat timeout). In this synchronous rendition it behaves
// identically to die; the distinct name is kept because callers in
// handler.go reach it from what spec §7 models as an asynchronous
// continuation, and a future asynchronous Transport implementation
// would need to re-enter the dispatch queue before calling it.
func (h *Handler) asyncDie(message string) {
	h.die(message, "", nil)
}

// scheduleStop arranges for the connection to close die_delay after an
// ERROR frame was offered, giving the client time to receive it before
// the transport goes away. A DieDelay of zero or less closes the
// connection synchronously, inside die(); the tests rely on that
// instead of sleeping.
func (h *Handler) scheduleStop() {
	if h.cfg.DieDelay <= 0 {
		h.Close()
		return
	}
	time.AfterFunc(h.cfg.DieDelay, h.Close)
}
