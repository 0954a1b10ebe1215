package executor

import (
	"context"
	"fmt"
	"sync"

	"ml-dashboard/core/jobcontrol"
	"ml-dashboard/core/models"

	"github.com/google/uuid"
)

// SimulatedClient stands in for the backend's control API in
// development mode. Start launches an in-process simulated run; Stop
// cancels it. Pause and resume are not simulated.
type SimulatedClient struct {
	mu        sync.Mutex
	simulator *Simulator
	running   map[string]context.CancelFunc
}

// NewSimulatedClient creates a simulated control client.
func NewSimulatedClient(simulator *Simulator) *SimulatedClient {
	return &SimulatedClient{
		simulator: simulator,
		running:   map[string]context.CancelFunc{},
	}
}

// Start assigns a job ID and launches the simulated run.
func (c *SimulatedClient) Start(ctx context.Context, req models.TrainingRequest) (string, error) {
	jobID := uuid.New().String()

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.running[jobID] = cancel
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.running, jobID)
			c.mu.Unlock()
		}()
		c.simulator.Run(runCtx, jobID, req)
	}()

	return jobID, nil
}

// Pause is not supported by the simulator.
func (c *SimulatedClient) Pause(ctx context.Context, jobID string) error {
	return fmt.Errorf("pause is not supported in simulation mode")
}

// Resume is not supported by the simulator.
func (c *SimulatedClient) Resume(ctx context.Context, jobID string) error {
	return fmt.Errorf("resume is not supported in simulation mode")
}

// Stop cancels a simulated run.
func (c *SimulatedClient) Stop(ctx context.Context, jobID string) error {
	c.mu.Lock()
	cancel, ok := c.running[jobID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("no simulated run for job %s", jobID)
	}
	cancel()
	return nil
}

// Status reports only liveness; the simulator feeds full state through
// the event stream.
func (c *SimulatedClient) Status(ctx context.Context, jobID string) (*jobcontrol.JobStatus, error) {
	c.mu.Lock()
	_, ok := c.running[jobID]
	c.mu.Unlock()
	status := "completed"
	if ok {
		status = "running"
	}
	return &jobcontrol.JobStatus{JobID: jobID, Status: status}, nil
}
