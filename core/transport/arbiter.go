package transport

import (
	"log"
	"sync"
)

// Arbiter decides which source is allowed to feed a job. The websocket
// stream always wins while it is connected; the poller may only deliver
// while the stream is down. Both sources consult the arbiter at delivery
// time, so a stream that comes back mid-poll silences the poller on its
// next tick.
type Arbiter struct {
	mu       sync.Mutex
	jobID    string
	streamUp bool
}

// NewArbiter creates an arbiter in the stream-down state, so the poller
// covers the window before the first successful stream connect.
func NewArbiter(jobID string) *Arbiter {
	return &Arbiter{jobID: jobID}
}

// StreamUp marks the stream connected and silences the poller.
func (a *Arbiter) StreamUp() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.streamUp {
		a.streamUp = true
		log.Printf("[job %s] stream connected, poll fallback off", a.jobID)
	}
}

// StreamDown marks the stream disconnected and re-enables the poller.
func (a *Arbiter) StreamDown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.streamUp {
		a.streamUp = false
		log.Printf("[job %s] stream lost, poll fallback on", a.jobID)
	}
}

// PollActive reports whether the poller may deliver right now.
func (a *Arbiter) PollActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.streamUp
}
