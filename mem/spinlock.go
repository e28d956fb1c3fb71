package mem

import (
	"runtime"
	"sync/atomic"
	"time"
)

const (
	spinLimit       = 16
	maxBackoffShift = 8
)

// spinLock is a minimal exclusive lock for the manager's cursor and slot
// metadata sections. Those sections are a handful of loads and stores, so a
// bounded spin with Gosched backoff beats parking the goroutine.
type spinLock struct {
	state atomic.Uint32
}

func (l *spinLock) lock() {
	spins := 0
	for !l.state.CompareAndSwap(0, 1) {
		if spins < spinLimit {
			runtime.Gosched()
			spins++
			continue
		}
		shift := spins - spinLimit
		if shift > maxBackoffShift {
			shift = maxBackoffShift
		}
		time.Sleep(time.Microsecond << shift)
		spins++
	}
}

func (l *spinLock) unlock() {
	if !l.state.CompareAndSwap(1, 0) {
		panic("ringlog: unlock of unlocked spinlock")
	}
}
