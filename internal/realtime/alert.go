package realtime

import "sync"

// QueueAlert tracks a "last seen" count for a queue view and flags when the
// live count exceeds it. It is a derived attention signal for badges only,
// never an input to correctness.
type QueueAlert struct {
	mu       sync.Mutex
	lastSeen int
	flagged  bool
}

// NewQueueAlert starts from an already-seen count.
func NewQueueAlert(lastSeen int) *QueueAlert {
	return &QueueAlert{lastSeen: lastSeen}
}

// Observe records the live count and returns whether the alert is flagged.
func (a *QueueAlert) Observe(live int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if live > a.lastSeen {
		a.flagged = true
	}
	return a.flagged
}

// Acknowledge marks the queue as seen at the given count and clears the flag.
func (a *QueueAlert) Acknowledge(live int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastSeen = live
	a.flagged = false
}

// Flagged reports the current indicator state.
func (a *QueueAlert) Flagged() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flagged
}

// LastSeen returns the acknowledged count.
func (a *QueueAlert) LastSeen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSeen
}
