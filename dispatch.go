package ringlog

import (
	"pkt.systems/ringlog/mem"
	"pkt.systems/ringlog/render"
)

// run is the single consumer goroutine. Each event is rendered to every
// sink under the head payload's lock, then its per-event payloads are
// queued for deferred release and the allocator ticks once. Const
// decoration payloads are shared across events and stay alive until
// Close.
func (c *core) run() {
	defer c.wg.Done()
	for ev := range c.queue {
		c.process(ev)
	}
}

func (c *core) process(ev render.LogMessage) {
	token := c.mem.Lock(ev.Head)
	for _, s := range c.sinks {
		if err := s.Consume(c.pipe, ev); err != nil && c.diag.OnError != nil {
			c.diag.OnError(err)
		}
	}
	if token.Valid() {
		c.mem.Unlock(ev.Head, token)
	}
	c.releaseEvent(ev, false)
	c.mem.Tick()
}

// releaseEvent frees the message, decoration-header, context, and head
// payloads of one event. Decoration pair handles inside the head are
// skipped; they belong to the loggers, not the event. With immediate set the payloads are freed
// now (drop path); otherwise they ride the deferred release grace period
// so a sink still holding buffer views stays safe.
func (c *core) releaseEvent(ev render.LogMessage, immediate bool) {
	rel := func(h mem.PayloadHandle) {
		if immediate {
			c.mem.Release(h, true)
		} else {
			c.mem.ReleaseDeferred(h)
		}
	}
	h, err := render.DecodeHeader(c.mem, ev.Head)
	if err == nil {
		rel(h.Message)
		rel(h.DecorationHeader)
		for i := 0; i < h.ContextCount(); i++ {
			rel(h.ContextPayload(i))
		}
	}
	rel(ev.Head)
	c.stacks.Release(ev.StackTraceID)
}
