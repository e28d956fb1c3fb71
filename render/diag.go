package render

import "sync/atomic"

// Diagnostics is the self-diagnostic channel of the engine. Recoverable
// failures on the hot path are absorbed and counted here instead of
// surfacing into producer code.
//
// OnError, when set, receives the hard errors that abort a whole-message
// render. Set it before rendering starts; it is read without
// synchronization afterwards.
type Diagnostics struct {
	// DroppedEvents counts log calls lost to allocation failure or a full
	// dispatch queue.
	DroppedEvents atomic.Uint64
	// ParseFailures counts malformed or unresolvable holes skipped during
	// rendering.
	ParseFailures atomic.Uint64
	// StaleHandles counts payload retrievals that failed the generation
	// check.
	StaleHandles atomic.Uint64
	// CorruptHeaders counts disjointed buffers rejected by the header
	// decoder.
	CorruptHeaders atomic.Uint64
	// UnknownTypes counts context arguments no registered decoder claimed.
	UnknownTypes atomic.Uint64
	// DecodeFailures counts hard decoder failures that aborted a render.
	DecodeFailures atomic.Uint64

	OnError func(error)
}

func (d *Diagnostics) reportError(err error) {
	if d == nil {
		return
	}
	if d.OnError != nil {
		d.OnError(err)
	}
}

// AddDropped counts one lost event. Exported because drops happen on the
// producer side, outside this package.
func (d *Diagnostics) AddDropped() {
	if d != nil {
		d.DroppedEvents.Add(1)
	}
}

func (d *Diagnostics) addParseFailure() {
	if d != nil {
		d.ParseFailures.Add(1)
	}
}

func (d *Diagnostics) addStaleHandle() {
	if d != nil {
		d.StaleHandles.Add(1)
	}
}

func (d *Diagnostics) addCorruptHeader() {
	if d != nil {
		d.CorruptHeaders.Add(1)
	}
}

func (d *Diagnostics) addUnknownType() {
	if d != nil {
		d.UnknownTypes.Add(1)
	}
}

func (d *Diagnostics) addDecodeFailure() {
	if d != nil {
		d.DecodeFailures.Add(1)
	}
}
