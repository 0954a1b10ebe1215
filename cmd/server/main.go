package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ml-dashboard/api/realtime"
	"ml-dashboard/api/rest/routes"
	"ml-dashboard/config"
	"ml-dashboard/core/executor"
	"ml-dashboard/core/jobcontrol"
	"ml-dashboard/core/models"
	"ml-dashboard/core/monitoring"
	"ml-dashboard/core/reconcile"
	"ml-dashboard/core/repository"
	"ml-dashboard/core/tracker"
	"ml-dashboard/core/transport"

	"github.com/gorilla/mux"
)

// maxRestoredJobs bounds how many stored jobs are rehydrated at startup.
const maxRestoredJobs = 200

func main() {
	cfg := config.Load()

	// Initialize database
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	log.Println("Database connected successfully")

	// Initialize tracker
	trk := tracker.New()

	// Initialize control client (real backend or in-process simulator)
	var control jobcontrol.Client
	if cfg.SimulateTraining {
		log.Println("SIMULATE_TRAINING enabled, using in-process simulator")
		simulator := executor.NewSimulator(trk, time.Second)
		control = executor.NewSimulatedClient(simulator)
	} else {
		control = jobcontrol.NewHTTPClient(cfg.BackendURL)
	}

	// Initialize transport supervisor
	wsURL := func(jobID string) string {
		return cfg.BackendWSURL + "/ws/jobs/" + jobID
	}
	supervisor := transport.NewSupervisor(control, trk, wsURL, cfg.PollInterval)
	defer supervisor.Shutdown()

	// Initialize monitoring
	usage := monitoring.NewUsageTracker(monitoring.SampleCapacity)
	metrics := monitoring.NewMetricsExporter(trk, usage)

	// Initialize persistence
	jobRepo := repository.NewJobRepository(db)
	transitionRepo := repository.NewTransitionRepository(db)
	checkpointRepo := repository.NewCheckpointRepository(db)
	persister := repository.NewPersister(jobRepo, transitionRepo, checkpointRepo)

	// Wire tracker listeners
	hub, err := realtime.NewHub()
	if err != nil {
		log.Fatalf("Failed to create socket.io server: %v", err)
	}
	trk.OnUpdate(persister.OnUpdate)
	trk.OnUpdate(usage.Observe)
	trk.OnUpdate(hub.BroadcastUpdate)
	trk.OnTransition(persister.OnTransition)
	trk.OnTransition(func(jobID string, from, to models.JobStatus, reason string) {
		if to.IsTerminal() {
			supervisor.Release(jobID)
		}
	})

	// Rehydrate tracked state from the previous run. Non-terminal jobs
	// resume watching their event sources so reconciliation continues.
	stored, err := jobRepo.ListSnapshots(maxRestoredJobs)
	if err != nil {
		log.Printf("Failed to load stored jobs: %v", err)
	}
	for _, snap := range stored {
		if cps, err := checkpointRepo.ListCheckpoints(snap.JobID); err == nil {
			if len(cps) > reconcile.MaxCheckpoints {
				cps = cps[len(cps)-reconcile.MaxCheckpoints:]
			}
			snap.Checkpoints = cps
		}
		trk.Restore(snap)
		if !snap.Status.IsTerminal() {
			supervisor.Watch(context.Background(), snap.JobID)
		}
	}
	if len(stored) > 0 {
		log.Printf("Restored %d jobs from storage", len(stored))
	}

	// Setup routes
	r := mux.NewRouter()
	routes.SetupRoutes(r, trk, control, supervisor, db, usage, metrics)
	r.PathPrefix("/socket.io/").Handler(hub.Server())

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	go hub.Server().Serve()
	defer hub.Server().Close()

	// Start server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
