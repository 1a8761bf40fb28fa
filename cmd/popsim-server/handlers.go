package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/daniacca/popsim/internal/popsim"
	"github.com/daniacca/popsim/internal/popsim/notifiers"
)

// maxStepsPerRequest bounds /step so a single request cannot hold a world
// for an unbounded time.
const maxStepsPerRequest = 100000

// extractWorldID extracts the world ID from a path like "/world/{worldID}/..."
// Returns the world ID and the remaining path, or empty string if not found
func extractWorldID(path string) (popsim.WorldID, string) {
	rest, ok := strings.CutPrefix(path, "/world/")
	if !ok {
		return "", ""
	}
	id, remaining, found := strings.Cut(rest, "/")
	if !found {
		return popsim.WorldID(id), ""
	}
	return popsim.WorldID(id), "/" + remaining
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
	}
}

// lookupWorld resolves the world of the request path, replying 404 when it
// does not exist.
func (s *Server) lookupWorld(w http.ResponseWriter, r *http.Request) (popsim.WorldID, *popsim.World, bool) {
	id, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(id)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return id, nil, false
	}
	return id, world, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// GET /worlds
// List all world IDs
func (s *Server) handleListWorlds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	worldIDs := s.manager.ListWorlds()
	ids := make([]string, len(worldIDs))
	for i, id := range worldIDs {
		ids[i] = string(id)
	}
	writeJSON(w, map[string][]string{"worlds": ids})
}

// POST /world/{worldID}/config
// Body: WorldConfig JSON
// Builds a new world from the config, replacing any world with the same ID
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	id, _ := extractWorldID(r.URL.Path)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	cfg, err := popsim.ParseWorldConfig(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := popsim.ValidateWorldConfig(cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	world, err := popsim.BuildWorldFromConfig(cfg)
	if err != nil {
		http.Error(w, "cannot build world: "+err.Error(), http.StatusBadRequest)
		return
	}

	if s.putWorld(id, world) {
		s.logger.Infof("World replaced: world_id=%s name=%s seed=%d", id, cfg.Name, world.Seed())
	} else {
		s.logger.Infof("World created: world_id=%s name=%s seed=%d", id, cfg.Name, world.Seed())
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world loaded"))
}

// POST /world/{worldID}/occupant
// Body: { "species": "...", "x": 0, "y": 0 }
type createOccupantRequest struct {
	Species string `json:"species"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
}

func (s *Server) handleCreateOccupant(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	id, world, ok := s.lookupWorld(w, r)
	if !ok {
		return
	}

	var req createOccupantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	site := popsim.Site{X: req.X, Y: req.Y}
	if err := world.CreateOccupant(popsim.SpeciesName(req.Species), site); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, popsim.ErrCapacityExceeded) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	s.logger.Debugf("Occupant created: world_id=%s species=%s site=%s", id, req.Species, site)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// POST /world/{worldID}/step
// Query param: n (default: 1)
// Advances the world n steps and returns its status
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	_, world, ok := s.lookupWorld(w, r)
	if !ok {
		return
	}

	n := 1
	if nStr := r.URL.Query().Get("n"); nStr != "" {
		v, err := strconv.Atoi(nStr)
		if err != nil || v < 1 || v > maxStepsPerRequest {
			http.Error(w, "invalid n: must be an integer between 1 and "+strconv.Itoa(maxStepsPerRequest), http.StatusBadRequest)
			return
		}
		n = v
	}

	if err := world.Run(r.Context(), n, nil); err != nil {
		http.Error(w, "step interrupted: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, world.Status())
}

// POST /world/{worldID}/start
// Start the world auto-running with the specified interval (in milliseconds)
// Query param: interval (default: 1000ms)
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	id, world, ok := s.lookupWorld(w, r)
	if !ok {
		return
	}

	interval := 1000 * time.Millisecond
	if intervalStr := r.URL.Query().Get("interval"); intervalStr != "" {
		if ms, err := strconv.Atoi(intervalStr); err == nil && ms > 0 {
			interval = time.Duration(ms) * time.Millisecond
		} else {
			http.Error(w, "invalid interval: must be a positive integer (milliseconds)", http.StatusBadRequest)
			return
		}
	}

	world.Start(interval)
	s.logger.Infof("World started: world_id=%s interval=%v", id, interval)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world started"))
}

// POST /world/{worldID}/stop
// Stop the world auto-running
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	id, world, ok := s.lookupWorld(w, r)
	if !ok {
		return
	}

	world.Stop()
	s.logger.Infof("World stopped: world_id=%s step=%d", id, world.StepCount())

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world stopped"))
}

// GET /world/{worldID}/arrays
// Per-species occupancy grids
type arraysResponse struct {
	WorldID popsim.WorldID                     `json:"world_id"`
	Step    int64                              `json:"step"`
	Species []popsim.SpeciesName               `json:"species"`
	Arrays  map[popsim.SpeciesName]popsim.Grid `json:"arrays"`
}

func (s *Server) handleArrays(w http.ResponseWriter, r *http.Request) {
	id, world, ok := s.lookupWorld(w, r)
	if !ok {
		return
	}
	writeJSON(w, arraysResponse{
		WorldID: id,
		Step:    world.StepCount(),
		Species: world.Species(),
		Arrays:  world.AsArrays(),
	})
}

// GET /world/{worldID}/abundances
func (s *Server) handleAbundances(w http.ResponseWriter, r *http.Request) {
	_, world, ok := s.lookupWorld(w, r)
	if !ok {
		return
	}
	writeJSON(w, world.Status())
}

// DELETE /world/{worldID}
// Delete a world
func (s *Server) handleDeleteWorld(w http.ResponseWriter, r *http.Request) {
	id, _ := extractWorldID(r.URL.Path)
	if err := s.manager.DeleteWorld(id); err != nil {
		s.logger.Warnf("Failed to delete world: world_id=%s error=%v", id, err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	s.logger.Infof("World deleted: world_id=%s", id)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world deleted"))
}

// handleWorldRoutes routes requests to world-specific handlers
// Handles paths like /world/{worldID}/config, /world/{worldID}/step, etc.
func (s *Server) handleWorldRoutes(w http.ResponseWriter, r *http.Request) {
	worldID, remainingPath := extractWorldID(r.URL.Path)
	if worldID == "" {
		http.Error(w, "world ID is required in path: /world/{worldID}/...", http.StatusBadRequest)
		return
	}

	switch {
	case remainingPath == "/config" && r.Method == http.MethodPost:
		s.handleConfig(w, r)
	case remainingPath == "/occupant" && r.Method == http.MethodPost:
		s.handleCreateOccupant(w, r)
	case remainingPath == "/step" && r.Method == http.MethodPost:
		s.handleStep(w, r)
	case remainingPath == "/start" && r.Method == http.MethodPost:
		s.handleStart(w, r)
	case remainingPath == "/stop" && r.Method == http.MethodPost:
		s.handleStop(w, r)
	case remainingPath == "/arrays" && r.Method == http.MethodGet:
		s.handleArrays(w, r)
	case remainingPath == "/abundances" && r.Method == http.MethodGet:
		s.handleAbundances(w, r)
	case remainingPath == "/snapshot" && r.Method == http.MethodPost:
		s.handleSaveSnapshot(w, r)
	case remainingPath == "/snapshot" && r.Method == http.MethodGet:
		s.handleGetSnapshot(w, r)
	case remainingPath == "/restore" && r.Method == http.MethodPost:
		s.handleRestore(w, r)
	case remainingPath == "" && r.Method == http.MethodDelete:
		s.handleDeleteWorld(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// handleNotifiersRoutes handles notifier management endpoints
func (s *Server) handleNotifiersRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/notifiers" && r.Method == http.MethodGet:
		s.handleListNotifiers(w, r)
	case r.URL.Path == "/notifiers" && r.Method == http.MethodPost:
		s.handleRegisterNotifier(w, r)
	case strings.HasPrefix(r.URL.Path, "/notifiers/") && r.Method == http.MethodDelete:
		s.handleUnregisterNotifier(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /notifiers
// List all registered notifiers
func (s *Server) handleListNotifiers(w http.ResponseWriter, _ *http.Request) {
	notifierIDs := s.globalNotifierMgr.ListNotifiers()

	list := make([]map[string]any, 0, len(notifierIDs))
	for _, id := range notifierIDs {
		notifier, exists := s.globalNotifierMgr.GetNotifier(id)
		if !exists {
			continue
		}
		entry := map[string]any{
			"id":   id,
			"type": notifier.Type(),
		}
		if wh, ok := notifier.(*notifiers.WebhookNotifier); ok {
			entry["url"] = wh.URL()
			if worlds := wh.Worlds(); len(worlds) > 0 {
				entry["worlds"] = worlds
			}
		}
		list = append(list, entry)
	}
	writeJSON(w, map[string]any{"notifiers": list})
}

// POST /notifiers
// Register a new notifier
// Body: { "type": "webhook", "id": "my-webhook",
//         "config": { "url": "http://...", "headers": {...}, "worlds": ["lv"] } }
// An empty or missing "worlds" delivers events of every world.
type registerNotifierRequest struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Config map[string]any `json:"config"`
}

func (s *Server) handleRegisterNotifier(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerNotifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.ID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	var notifier popsim.Notifier
	switch req.Type {
	case "webhook":
		url, ok := req.Config["url"].(string)
		if !ok || url == "" {
			http.Error(w, "webhook URL is required", http.StatusBadRequest)
			return
		}
		wh := notifiers.NewWebhookNotifier(req.ID, url)
		if headers, ok := req.Config["headers"].(map[string]any); ok {
			for k, v := range headers {
				if vStr, ok := v.(string); ok {
					wh.SetHeader(k, vStr)
				}
			}
		}
		if worlds, ok := req.Config["worlds"].([]any); ok {
			ids := make([]popsim.WorldID, 0, len(worlds))
			for _, v := range worlds {
				id, ok := v.(string)
				if !ok || id == "" {
					http.Error(w, "webhook worlds must be non-empty strings", http.StatusBadRequest)
					return
				}
				ids = append(ids, popsim.WorldID(id))
			}
			wh.WatchWorlds(ids...)
		}
		notifier = wh
	default:
		http.Error(w, "unknown notifier type: "+req.Type, http.StatusBadRequest)
		return
	}

	if err := s.globalNotifierMgr.RegisterNotifier(notifier); err != nil {
		http.Error(w, "cannot register notifier: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Infof("Notifier registered: id=%s type=%s", req.ID, req.Type)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier registered"))
}

// DELETE /notifiers/{id}
// Unregister a notifier
func (s *Server) handleUnregisterNotifier(w http.ResponseWriter, r *http.Request) {
	notifierID := strings.TrimPrefix(r.URL.Path, "/notifiers/")
	if notifierID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}
	if notifierID == streamNotifierID {
		http.Error(w, "the stream notifier cannot be removed", http.StatusBadRequest)
		return
	}

	if err := s.globalNotifierMgr.UnregisterNotifier(notifierID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.logger.Infof("Notifier unregistered: id=%s", notifierID)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier unregistered"))
}

// POST /world/{worldID}/snapshot
// Triggers a synchronous snapshot save
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	id, world, ok := s.lookupWorld(w, r)
	if !ok {
		return
	}

	if s.snapshotDir == "" {
		http.Error(w, "snapshot directory not configured", http.StatusInternalServerError)
		return
	}
	world.SetSnapshotDir(s.snapshotDir)

	if err := world.SaveSnapshot(); err != nil {
		s.logger.Errorf("Failed to save snapshot: world_id=%s error=%v", id, err)
		http.Error(w, "failed to save snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}

	path := world.SnapshotPath()
	s.logger.Debugf("Snapshot saved: world_id=%s path=%s", id, path)
	writeJSON(w, map[string]string{
		"status": "ok",
		"path":   path,
	})
}

// GET /world/{worldID}/snapshot
// Returns the raw snapshot JSON if it exists
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	_, world, ok := s.lookupWorld(w, r)
	if !ok {
		return
	}

	if s.snapshotDir == "" {
		http.Error(w, "snapshot directory not configured", http.StatusInternalServerError)
		return
	}
	world.SetSnapshotDir(s.snapshotDir)

	data, err := os.ReadFile(world.SnapshotPath())
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "snapshot not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to read snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// POST /world/{worldID}/restore
// Body: optional snapshot JSON. Without a body the saved snapshot is loaded.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	id, world, ok := s.lookupWorld(w, r)
	if !ok {
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if len(data) > 0 {
		snapshot, err := popsim.DecodeSnapshotJSON(data)
		if err == nil {
			err = world.Restore(snapshot)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		if s.snapshotDir == "" {
			http.Error(w, "snapshot directory not configured", http.StatusInternalServerError)
			return
		}
		world.SetSnapshotDir(s.snapshotDir)
		if err := world.LoadSnapshot(); err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, os.ErrNotExist):
				status = http.StatusNotFound
			case errors.Is(err, popsim.ErrInvalidSnapshot):
				status = http.StatusBadRequest
			}
			http.Error(w, "failed to load snapshot: "+err.Error(), status)
			return
		}
	}

	s.logger.Infof("World restored: world_id=%s step=%d", id, world.StepCount())

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world restored"))
}
