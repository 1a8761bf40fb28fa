package main

import (
	"net/http"
	"slices"

	"github.com/daniacca/popsim/internal/logging"
	"github.com/daniacca/popsim/internal/popsim"
	"github.com/daniacca/popsim/internal/popsim/notifiers"
)

// streamNotifierID is the notifier behind /ws. Every world reports to it.
const streamNotifierID = "websocket"

// Server represents the HTTP server for popsim
type Server struct {
	manager            *popsim.WorldManager
	globalNotifierMgr  *popsim.NotificationManager
	stream             *notifiers.WebSocketNotifier
	snapshotDir        string
	snapshotEverySteps int64
	logger             *logging.Logger
}

// NewServer creates a new server instance
func NewServer(logger *logging.Logger) *Server {
	globalMgr := popsim.NewNotificationManagerWithLogger(logger)
	stream := notifiers.NewWebSocketNotifier(streamNotifierID)
	if err := globalMgr.RegisterNotifier(stream); err != nil {
		logger.Errorf("Failed to register stream notifier: error=%v", err)
	}
	return &Server{
		manager:           popsim.NewWorldManager(),
		globalNotifierMgr: globalMgr,
		stream:            stream,
		logger:            logger,
	}
}

// SetSnapshotDir sets the snapshot directory for all worlds
func (s *Server) SetSnapshotDir(dir string) {
	s.snapshotDir = dir
}

// SetSnapshotEverySteps sets the snapshot frequency for all worlds
func (s *Server) SetSnapshotEverySteps(steps int64) {
	s.snapshotEverySteps = steps
}

// configureWorld wires a freshly built world into the server: logging,
// notifications and snapshots.
func (s *Server) configureWorld(w *popsim.World) {
	w.SetLogger(s.logger)

	cfg := w.NotificationSettings()
	ids := []string{streamNotifierID}
	if cfg.Enabled {
		for _, id := range cfg.Notifiers {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	w.SetNotificationManager(s.globalNotifierMgr, popsim.NotificationConfig{
		Enabled:   true,
		Notifiers: ids,
		Every:     cfg.Every,
	})

	if s.snapshotDir != "" {
		w.SetSnapshotDir(s.snapshotDir)
	}
	if s.snapshotEverySteps >= 0 {
		w.SetSnapshotEveryNSteps(s.snapshotEverySteps)
	}
}

// putWorld configures w and stores it under id, replacing any previous
// world with that id.
func (s *Server) putWorld(id popsim.WorldID, w *popsim.World) (replaced bool) {
	s.configureWorld(w)
	return s.manager.Replace(id, w) != nil
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/worlds", s.handleListWorlds)
	mux.HandleFunc("/world/", s.handleWorldRoutes)
	mux.HandleFunc("/notifiers", s.handleNotifiersRoutes)
	mux.HandleFunc("/notifiers/", s.handleNotifiersRoutes)
	mux.Handle("/ws", s.stream)
	return mux
}

// Close stops every world and closes all notifiers.
func (s *Server) Close() error {
	s.manager.StopAll()
	return s.globalNotifierMgr.Close()
}
