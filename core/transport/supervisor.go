package transport

import (
	"context"
	"log"
	"sync"
	"time"

	"ml-dashboard/core/jobcontrol"
)

// Supervisor owns the transports of every watched job: one stream and
// one poller per job, sharing an arbiter. Watch starts them, Release
// tears them down; the tracker's terminal transitions drive Release so
// finished jobs stop generating backend traffic.
type Supervisor struct {
	mu           sync.Mutex
	watched      map[string]context.CancelFunc
	client       jobcontrol.Client
	sink         EventSink
	wsURL        func(jobID string) string
	pollInterval time.Duration
	wg           sync.WaitGroup
}

// NewSupervisor creates a supervisor. wsURL maps a job ID to its
// websocket endpoint on the backend.
func NewSupervisor(client jobcontrol.Client, sink EventSink, wsURL func(jobID string) string, pollInterval time.Duration) *Supervisor {
	return &Supervisor{
		watched:      map[string]context.CancelFunc{},
		client:       client,
		sink:         sink,
		wsURL:        wsURL,
		pollInterval: pollInterval,
	}
}

// Watch starts the stream and poll fallback for a job. Watching an
// already watched job is a no-op.
func (s *Supervisor) Watch(ctx context.Context, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.watched[jobID]; ok {
		return
	}

	jobCtx, cancel := context.WithCancel(ctx)
	s.watched[jobID] = cancel

	arbiter := NewArbiter(jobID)
	stream := NewStream(jobID, s.wsURL(jobID), s.sink, arbiter)
	poller := NewPoller(jobID, s.client, s.sink, arbiter, s.pollInterval)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		stream.Run(jobCtx)
	}()
	go func() {
		defer s.wg.Done()
		poller.Run(jobCtx)
	}()
	log.Printf("[job %s] transports started", jobID)
}

// Release stops both transports of a job.
func (s *Supervisor) Release(jobID string) {
	s.mu.Lock()
	cancel, ok := s.watched[jobID]
	if ok {
		delete(s.watched, jobID)
	}
	s.mu.Unlock()
	if ok {
		cancel()
		log.Printf("[job %s] transports released", jobID)
	}
}

// Shutdown releases every watched job and waits for the transport
// goroutines to exit.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	for jobID, cancel := range s.watched {
		cancel()
		delete(s.watched, jobID)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
