package batch

import (
	"sync"
	"time"
)

// InterruptPhase is the one-slot cancellation state the processor reads.
type InterruptPhase int

const (
	// InterruptNone means no stop was requested.
	InterruptNone InterruptPhase = iota
	// InterruptRequested means graceful stop: the current batch finishes
	// and progress is saved before the loop exits.
	InterruptRequested
	// InterruptForceful means abort now, without saving.
	InterruptForceful
)

// ackWindow is the grace period in which a repeated signal is treated as
// an acknowledgement of the graceful stop rather than an escalation.
const ackWindow = 500 * time.Millisecond

// Interrupt is the delivery slot between the caller's signal handler and
// the processor. The handler calls Signal on each SIGINT; the processor
// only ever reads the phase.
type Interrupt struct {
	mu        sync.Mutex
	phase     InterruptPhase
	signals   int
	last      time.Time
	requested chan struct{}
	forceful  chan struct{}
}

func NewInterrupt() *Interrupt {
	return &Interrupt{
		requested: make(chan struct{}),
		forceful:  make(chan struct{}),
	}
}

// Signal records one delivery and returns the resulting phase. The first
// signal requests a graceful stop; a second one inside the ack window is
// an acknowledgement and stays graceful; anything beyond that escalates
// to forceful.
func (i *Interrupt) Signal() InterruptPhase {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := time.Now()
	i.signals++
	switch {
	case i.signals == 1:
		i.phase = InterruptRequested
		close(i.requested)
	case i.signals == 2 && now.Sub(i.last) <= ackWindow:
		// Acknowledged; stay graceful.
	default:
		if i.phase != InterruptForceful {
			i.phase = InterruptForceful
			close(i.forceful)
		}
	}
	i.last = now
	return i.phase
}

// Phase returns the current state.
func (i *Interrupt) Phase() InterruptPhase {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.phase
}

// RequestedC is closed once a graceful stop has been requested.
func (i *Interrupt) RequestedC() <-chan struct{} { return i.requested }

// ForcefulC is closed once the stop escalated to forceful.
func (i *Interrupt) ForcefulC() <-chan struct{} { return i.forceful }
