// Package mem implements the payload memory manager: a concurrent,
// handle-addressed ring allocator for variable-length binary blobs.
//
// Producers allocate payloads independently of the render pass that reads
// them back. Every blob is addressed through a generation-checked
// PayloadHandle, so a handle to a recycled slot goes stale instead of
// aliasing new data. Reclamation is ring-shaped: blobs are carved from a
// region's write cursor and their bytes return to the pool once the tail
// cursor sweeps past their released blocks.
package mem

import (
	"encoding/binary"
	"sync/atomic"
)

const (
	blockHeaderSize = 8

	blockLive uint32 = 0x6c697665 // "live"
	blockFree uint32 = 0x66726565 // "free"
	blockSkip uint32 = 0x736b6970 // "skip", unusable tail before a wrap
)

const (
	// DefaultInitialCapacity is the byte capacity of the first region.
	DefaultInitialCapacity = 64 << 10
	// DefaultMaxCapacity bounds the total capacity across all regions.
	DefaultMaxCapacity = 1 << 20
	// DefaultMinPayloadSize is the minimum blob capacity; smaller requests
	// round up to it to bound fragmentation.
	DefaultMinPayloadSize = 8
	// DefaultReleaseDelayTicks is how many Tick calls a deferred release
	// waits before the handle is actually released.
	DefaultReleaseDelayTicks = 2
)

// Config controls a Manager. The zero value selects all defaults.
type Config struct {
	// InitialCapacity is the byte size of the first ring region.
	InitialCapacity int
	// MaxCapacity caps the summed capacity of all regions. Ignored unless
	// Grow is set.
	MaxCapacity int
	// Grow adds regions (doubling, capped at MaxCapacity) when the current
	// regions cannot satisfy an allocation. When false, exhaustion fails
	// the allocation instead.
	Grow bool
	// MinPayloadSize is the minimum blob capacity in bytes.
	MinPayloadSize int
	// ReleaseDelayTicks is the grace period, in Tick calls, for
	// ReleaseDeferred.
	ReleaseDelayTicks int
}

func (c Config) withDefaults() Config {
	if c.InitialCapacity <= 0 {
		c.InitialCapacity = DefaultInitialCapacity
	}
	if c.MaxCapacity <= 0 {
		c.MaxCapacity = DefaultMaxCapacity
	}
	if c.MaxCapacity < c.InitialCapacity {
		c.MaxCapacity = c.InitialCapacity
	}
	if c.MinPayloadSize <= 0 {
		c.MinPayloadSize = DefaultMinPayloadSize
	}
	if c.ReleaseDelayTicks <= 0 {
		c.ReleaseDelayTicks = DefaultReleaseDelayTicks
	}
	// Region capacities must be block-aligned: every block is a multiple of
	// blockHeaderSize, so an aligned region keeps the wrap skip at 0 or at
	// least one full header.
	c.InitialCapacity = (c.InitialCapacity + blockHeaderSize - 1) &^ (blockHeaderSize - 1)
	c.MaxCapacity = (c.MaxCapacity + blockHeaderSize - 1) &^ (blockHeaderSize - 1)
	return c
}

// LockToken is the proof of a successful Lock call. It must be passed back
// to Unlock.
type LockToken struct {
	handle PayloadHandle
	valid  bool
}

// Valid reports whether the token was issued by a successful Lock.
func (t LockToken) Valid() bool {
	return t.valid
}

type slotState uint8

const (
	slotFree slotState = iota
	slotLive
)

type slot struct {
	generation      uint32
	state           slotState
	region          uint16
	offset          uint32
	length          uint32
	capacity        uint32
	locks           int32
	releaseOnUnlock bool
}

type region struct {
	buf  []byte
	head int
	tail int
	used int
	// wrapped is set when head has cycled past the end of buf while tail
	// has not, i.e. the free span is the middle [head, tail).
	wrapped bool
}

type pendingRelease struct {
	handle PayloadHandle
	due    uint64
}

// Manager owns the ring regions and issues, validates, and frees payload
// handles. All methods are safe for concurrent use; the exclusive section
// covers only cursor and slot metadata, never the payload bytes themselves.
type Manager struct {
	mu      spinLock
	cfg     Config
	regions []*region
	slots   []slot
	free    []uint32
	pending []pendingRelease
	tick    uint64

	allocFailures atomic.Uint64
}

// NewManager creates a manager with the supplied configuration.
func NewManager(cfg Config) *Manager {
	cfg = cfg.withDefaults()
	m := &Manager{cfg: cfg}
	m.regions = append(m.regions, &region{buf: make([]byte, cfg.InitialCapacity)})
	return m
}

// Allocate carves size bytes from the ring and returns a handle plus the
// mutable payload view. The caller owns the bytes until the handle is
// published to a consumer. On exhaustion it returns NilHandle and nil; the
// caller must treat that as a dropped event, never as a fatal condition.
func (m *Manager) Allocate(size int) (PayloadHandle, []byte) {
	if size <= 0 {
		return NilHandle, nil
	}
	capacity := size
	if capacity < m.cfg.MinPayloadSize {
		capacity = m.cfg.MinPayloadSize
	}
	capacity = (capacity + 7) &^ 7
	need := blockHeaderSize + capacity

	m.mu.lock()
	ri, offset, ok := m.place(need)
	if !ok {
		m.mu.unlock()
		m.allocFailures.Add(1)
		return NilHandle, nil
	}
	r := m.regions[ri]
	binary.LittleEndian.PutUint32(r.buf[offset:], blockLive)
	binary.LittleEndian.PutUint32(r.buf[offset+4:], uint32(need))

	idx, gen := m.takeSlot()
	s := &m.slots[idx]
	s.state = slotLive
	s.region = uint16(ri)
	s.offset = uint32(offset + blockHeaderSize)
	s.length = uint32(size)
	s.capacity = uint32(capacity)
	s.locks = 0
	s.releaseOnUnlock = false
	m.mu.unlock()

	view := r.buf[offset+blockHeaderSize : offset+blockHeaderSize+size]
	return makeHandle(idx, gen), view
}

// Retrieve resolves a handle to its payload bytes. A stale or unknown
// handle yields (nil, false); the bytes of a recycled slot are never
// returned through an old handle.
func (m *Manager) Retrieve(h PayloadHandle) ([]byte, bool) {
	m.mu.lock()
	s := m.lookup(h)
	if s == nil {
		m.mu.unlock()
		return nil, false
	}
	r := m.regions[s.region]
	view := r.buf[s.offset : s.offset+s.length]
	m.mu.unlock()
	return view, true
}

// IsValid reports whether h still refers to a live blob.
func (m *Manager) IsValid(h PayloadHandle) bool {
	m.mu.lock()
	ok := m.lookup(h) != nil
	m.mu.unlock()
	return ok
}

// Release frees the blob behind h. With force set the release happens even
// if a deferred release was already queued for the handle; a slot that is
// currently locked is freed when its last lock drops regardless of force,
// since freeing under an active reader would hand out aliased bytes.
// Release reports whether the handle was live.
func (m *Manager) Release(h PayloadHandle, force bool) bool {
	m.mu.lock()
	s := m.lookup(h)
	if s == nil {
		m.mu.unlock()
		return false
	}
	if s.locks > 0 {
		s.releaseOnUnlock = true
		m.mu.unlock()
		return true
	}
	m.freeSlot(h.slot())
	m.mu.unlock()
	return true
}

// ReleaseDeferred queues h for release after the configured number of Tick
// calls. The grace period gives an in-flight render pass time to finish
// reading before the slot's generation advances.
func (m *Manager) ReleaseDeferred(h PayloadHandle) {
	m.mu.lock()
	if m.lookup(h) != nil {
		m.pending = append(m.pending, pendingRelease{handle: h, due: m.tick + uint64(m.cfg.ReleaseDelayTicks)})
	}
	m.mu.unlock()
}

// Tick advances the manager's clock and performs any deferred releases that
// have come due. The sink-driven flush loop calls it once per processed
// message.
func (m *Manager) Tick() {
	m.mu.lock()
	m.tick++
	if len(m.pending) > 0 {
		kept := m.pending[:0]
		for _, p := range m.pending {
			if p.due > m.tick {
				kept = append(kept, p)
				continue
			}
			if s := m.lookup(p.handle); s != nil {
				if s.locks > 0 {
					s.releaseOnUnlock = true
				} else {
					m.freeSlot(p.handle.slot())
				}
			}
		}
		m.pending = kept
	}
	m.mu.unlock()
}

// Lock pins the blob behind h so the slot cannot be recycled mid-read. It
// returns an invalid token if the handle is already stale. Every successful
// Lock must be paired with an Unlock using the returned token.
func (m *Manager) Lock(h PayloadHandle) LockToken {
	m.mu.lock()
	s := m.lookup(h)
	if s == nil {
		m.mu.unlock()
		return LockToken{}
	}
	s.locks++
	m.mu.unlock()
	return LockToken{handle: h, valid: true}
}

// Unlock drops the read lock taken by Lock. If a release came due while the
// lock was held, the slot is freed now. Unlocking with a token that does
// not match h is a programmer error and panics.
func (m *Manager) Unlock(h PayloadHandle, token LockToken) {
	if !token.valid || token.handle != h {
		panic("ringlog: Unlock with mismatched or invalid lock token")
	}
	m.mu.lock()
	s := m.lookup(h)
	if s == nil {
		m.mu.unlock()
		panic("ringlog: Unlock of a handle that is no longer locked")
	}
	if s.locks <= 0 {
		m.mu.unlock()
		panic("ringlog: Unlock without a matching Lock")
	}
	s.locks--
	if s.locks == 0 && s.releaseOnUnlock {
		m.freeSlot(h.slot())
	}
	m.mu.unlock()
}

// AllocationFailures returns the number of failed Allocate calls since the
// manager was created.
func (m *Manager) AllocationFailures() uint64 {
	return m.allocFailures.Load()
}

// Capacity returns the summed byte capacity of all regions.
func (m *Manager) Capacity() int {
	m.mu.lock()
	total := 0
	for _, r := range m.regions {
		total += len(r.buf)
	}
	m.mu.unlock()
	return total
}

// UsedBytes returns the bytes currently carved out of the rings, including
// block headers and unreclaimed freed blocks.
func (m *Manager) UsedBytes() int {
	m.mu.lock()
	total := 0
	for _, r := range m.regions {
		total += r.used
	}
	m.mu.unlock()
	return total
}

// lookup resolves h to its live slot, or nil when the handle is stale. The
// caller must hold mu.
func (m *Manager) lookup(h PayloadHandle) *slot {
	idx := h.slot()
	if h.IsNil() || int(idx) >= len(m.slots) {
		return nil
	}
	s := &m.slots[idx]
	if s.state != slotLive || s.generation != h.generation() {
		return nil
	}
	return s
}

func (m *Manager) takeSlot() (uint32, uint32) {
	if n := len(m.free); n > 0 {
		idx := m.free[n-1]
		m.free = m.free[:n-1]
		return idx, m.slots[idx].generation
	}
	m.slots = append(m.slots, slot{generation: 1})
	return uint32(len(m.slots) - 1), 1
}

// freeSlot releases the blob and advances the slot generation so every
// outstanding handle to it goes stale. The caller must hold mu.
func (m *Manager) freeSlot(idx uint32) {
	s := &m.slots[idx]
	r := m.regions[s.region]
	start := int(s.offset) - blockHeaderSize
	binary.LittleEndian.PutUint32(r.buf[start:], blockFree)

	s.state = slotFree
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	s.releaseOnUnlock = false
	m.free = append(m.free, idx)
	m.reclaim(r)
}

// reclaim sweeps the tail cursor over contiguous released and skipped
// blocks, returning their bytes to the ring. The caller must hold mu.
func (m *Manager) reclaim(r *region) {
	for r.used > 0 {
		if r.tail == len(r.buf) {
			r.tail = 0
			r.wrapped = false
		}
		state := binary.LittleEndian.Uint32(r.buf[r.tail:])
		size := int(binary.LittleEndian.Uint32(r.buf[r.tail+4:]))
		if state != blockFree && state != blockSkip {
			return
		}
		r.used -= size
		r.tail += size
	}
	r.head = 0
	r.tail = 0
	r.wrapped = false
}

// place finds room for a block of need bytes, trying every region before
// growing. It returns the region index and block offset. The caller must
// hold mu.
func (m *Manager) place(need int) (int, int, bool) {
	for ri := len(m.regions) - 1; ri >= 0; ri-- {
		if offset, ok := m.placeInRegion(m.regions[ri], need); ok {
			return ri, offset, true
		}
	}
	if !m.cfg.Grow {
		return 0, 0, false
	}
	total := 0
	last := 0
	for _, r := range m.regions {
		total += len(r.buf)
		last = len(r.buf)
	}
	next := last * 2
	if next < need {
		next = (need + 7) &^ 7
	}
	if total+next > m.cfg.MaxCapacity {
		next = m.cfg.MaxCapacity - total
	}
	if next < need {
		return 0, 0, false
	}
	r := &region{buf: make([]byte, next)}
	m.regions = append(m.regions, r)
	offset, ok := m.placeInRegion(r, need)
	return len(m.regions) - 1, offset, ok
}

func (m *Manager) placeInRegion(r *region, need int) (int, bool) {
	if r.used == 0 {
		r.head = 0
		r.tail = 0
		r.wrapped = false
	}
	size := len(r.buf)
	if need > size {
		return 0, false
	}
	if r.wrapped {
		// Free space is the middle span [head, tail).
		if need <= r.tail-r.head {
			offset := r.head
			r.head += need
			r.used += need
			return offset, true
		}
		return 0, false
	}
	// Unwrapped: free space is [head, size) plus [0, tail).
	if need <= size-r.head {
		offset := r.head
		r.head += need
		r.used += need
		return offset, true
	}
	if need <= r.tail {
		// Record the unusable tail so reclaim can sweep past it.
		if skip := size - r.head; skip > 0 {
			binary.LittleEndian.PutUint32(r.buf[r.head:], blockSkip)
			binary.LittleEndian.PutUint32(r.buf[r.head+4:], uint32(skip))
			r.used += skip
		}
		r.head = need
		r.used += need
		r.wrapped = true
		return 0, true
	}
	return 0, false
}
