// Package realtime pushes job snapshots to dashboard browsers over
// socket.io. Clients subscribe to the jobs they display; every tracker
// update is broadcast to the matching room.
package realtime

import (
	socketio "github.com/googollee/go-socket.io"

	"ml-dashboard/core/models"
)

// Hub wraps the socket.io server and the room naming convention.
type Hub struct {
	server *socketio.Server
}

// NewHub creates the socket.io server and registers its handlers.
func NewHub() (*Hub, error) {
	server, err := socketio.NewServer(nil)
	if err != nil {
		return nil, err
	}

	server.OnConnect("/", func(s socketio.Conn) error {
		return nil
	})
	server.OnEvent("/", "subscribe", func(s socketio.Conn, jobID string) {
		s.Join(jobRoom(jobID))
	})
	server.OnEvent("/", "unsubscribe", func(s socketio.Conn, jobID string) {
		s.Leave(jobRoom(jobID))
	})

	return &Hub{server: server}, nil
}

// Server exposes the underlying socket.io server for HTTP mounting and
// lifecycle management.
func (h *Hub) Server() *socketio.Server {
	return h.server
}

// BroadcastUpdate pushes a job snapshot to its subscribers. Wired as a
// tracker update listener.
func (h *Hub) BroadcastUpdate(snap models.JobSnapshot) {
	h.server.BroadcastToRoom("/", jobRoom(snap.JobID), "job_update", snap)
}

func jobRoom(jobID string) string {
	return "job:" + jobID
}
