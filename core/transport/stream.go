// Package transport feeds backend job updates into the tracker. A job has
// two possible sources, the websocket stream and the status poller, and
// the arbiter makes sure only one of them is live at a time.
package transport

import (
	"context"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"ml-dashboard/core/models"
)

// EventSink receives decoded backend events for a job.
type EventSink interface {
	ApplyEvent(jobID string, ev models.Event) (models.JobSnapshot, bool)
}

const (
	streamReadLimit   = 1 << 20
	streamDialTimeout = 10 * time.Second
	streamMinBackoff  = time.Second
	streamMaxBackoff  = 30 * time.Second
	streamPongWait    = 60 * time.Second
)

// Stream maintains a websocket connection to the backend's per-job
// update feed and pushes decoded events into the sink. It reconnects
// with capped exponential backoff and reports connectivity changes to
// the arbiter so the poller can take over while the stream is down.
type Stream struct {
	jobID   string
	url     string
	sink    EventSink
	arbiter *Arbiter
}

// NewStream creates a stream for one job. url is the full websocket
// endpoint, e.g. ws://backend/ws/jobs/{id}.
func NewStream(jobID, url string, sink EventSink, arbiter *Arbiter) *Stream {
	return &Stream{jobID: jobID, url: url, sink: sink, arbiter: arbiter}
}

// Run connects and reads until ctx is cancelled. It always leaves the
// arbiter in the stream-down state on return.
func (s *Stream) Run(ctx context.Context) {
	defer s.arbiter.StreamDown()

	backoff := streamMinBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := s.dial(ctx)
		if err != nil {
			log.Printf("[job %s] stream dial failed: %v (retrying in %s)", s.jobID, err, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > streamMaxBackoff {
				backoff = streamMaxBackoff
			}
			continue
		}

		backoff = streamMinBackoff
		s.arbiter.StreamUp()
		s.readLoop(ctx, conn)
		s.arbiter.StreamDown()
	}
}

func (s *Stream) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, streamDialTimeout)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, s.url, nil)
	return conn, err
}

func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadLimit(streamReadLimit)
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	// Close the connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[job %s] stream closed: %v", s.jobID, err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(streamPongWait))

		ev, err := models.ParseEvent(data)
		if err != nil {
			log.Printf("[job %s] dropping malformed stream frame: %v", s.jobID, err)
			continue
		}
		if ev == nil {
			continue // keepalive frame
		}
		s.sink.ApplyEvent(s.jobID, ev)
	}
}
