package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	server "minion-keep/server"
	servernet "minion-keep/server/internal/net"
	"minion-keep/server/internal/store"
	"minion-keep/server/logging"
	loggingSinks "minion-keep/server/logging/sinks"
)

// Config carries the command-line surface of the server binary.
type Config struct {
	Addr       string
	ConfigPath string
	ClientDir  string
	Logger     *log.Logger
}

// Run wires the world, store, logging pipeline, and HTTP surface together
// and blocks until the process is signalled to stop.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	worldCfg := server.DefaultWorldConfig()
	if cfg.ConfigPath != "" {
		loaded, err := server.LoadWorldConfig(cfg.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load world config: %w", err)
		}
		worldCfg = loaded
	}

	router, closers, err := buildLoggingRouter(worldCfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
		for _, c := range closers {
			c()
		}
	}()

	world := server.NewWorld(worldCfg, router)

	var projectStore *store.Store
	if worldCfg.StorePath != "" {
		projectStore, err = store.Open(worldCfg.StorePath)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer func() {
			if cerr := projectStore.Close(); cerr != nil {
				logger.Printf("failed to close store: %v", cerr)
			}
		}()
		restoreAssignments(world, projectStore, logger)

		// Persist off the tick goroutine. One writer keeps assign and
		// unassign for the same minion in order.
		changes := make(chan assignmentChange, 64)
		done := make(chan struct{})
		go persistAssignments(projectStore, logger, changes, done)
		defer func() {
			close(changes)
			<-done
		}()
		world.SetAssignmentObserver(func(minionID, buildingID string, assigned bool) {
			change := assignmentChange{minionID: minionID, buildingID: buildingID, assigned: assigned}
			select {
			case changes <- change:
			default:
				logger.Printf("assignment write queue full, dropping change for %s", minionID)
			}
		})
	}

	hub := server.NewHub(world, server.NewTelemetry())
	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		ClientDir: cfg.ClientDir,
		Logger:    logger,
		Store:     projectStore,
		Metrics:   hub.MetricsHandler(),
		LoggingStats: func() map[string]uint64 {
			stats := router.Stats()
			return map[string]uint64{
				"events_total":  stats.EventsTotal,
				"dropped_total": stats.DroppedTotal,
			}
		},
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// buildLoggingRouter assembles sinks per config. A JSON file path ending in
// .gz selects the compressed sink.
func buildLoggingRouter(cfg logging.Config) (*logging.Router, []func(), error) {
	var named []logging.NamedSink
	var closers []func()

	if cfg.HasSink("console") {
		named = append(named, logging.NamedSink{
			Name: "console",
			Sink: loggingSinks.NewConsole(os.Stdout, cfg.Console),
		})
	}
	if cfg.HasSink("json") && cfg.JSON.FilePath != "" {
		file, err := os.OpenFile(cfg.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		closers = append(closers, func() { file.Close() })
		if strings.HasSuffix(cfg.JSON.FilePath, ".gz") {
			named = append(named, logging.NamedSink{
				Name: "json",
				Sink: loggingSinks.NewGzipJSON(file, cfg.JSON.FlushInterval),
			})
		} else {
			named = append(named, logging.NamedSink{
				Name: "json",
				Sink: loggingSinks.NewJSON(file, cfg.JSON.FlushInterval),
			})
		}
	}

	router, err := logging.NewRouter(logging.ClockFunc(time.Now), cfg, named)
	if err != nil {
		return nil, nil, err
	}
	return router, closers, nil
}

type assignmentChange struct {
	minionID   string
	buildingID string
	assigned   bool
}

// persistAssignments drains assignment changes into the store until the
// channel closes.
func persistAssignments(projectStore *store.Store, logger *log.Logger, changes <-chan assignmentChange, done chan<- struct{}) {
	defer close(done)
	for change := range changes {
		var err error
		if change.assigned {
			err = projectStore.SaveAssignment(change.minionID, change.buildingID)
		} else {
			err = projectStore.DeleteAssignment(change.minionID)
		}
		if err != nil {
			logger.Printf("failed to persist assignment for %s: %v", change.minionID, err)
		}
	}
}

// restoreAssignments replays persisted minion assignments into a fresh
// world. Minions that no longer exist are dropped from the store.
func restoreAssignments(world *server.World, projectStore *store.Store, logger *log.Logger) {
	assignments, err := projectStore.Assignments()
	if err != nil {
		logger.Printf("failed to restore assignments: %v", err)
		return
	}
	for minionID, buildingID := range assignments {
		if !world.HasEntity(minionID) {
			if err := projectStore.DeleteAssignment(minionID); err != nil {
				logger.Printf("failed to prune stale assignment for %s: %v", minionID, err)
			}
			continue
		}
		world.EnqueueEvent(server.Event{
			Type:     server.EventAssignMinion,
			EntityID: minionID,
			IssuedAt: time.Now(),
			Assign:   &server.AssignEvent{BuildingID: buildingID},
		})
	}
}
