package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/daniacca/popsim/internal/logging"
	"github.com/daniacca/popsim/internal/popsim"
	"github.com/gorilla/websocket"
)

const testWorldConfig = `{
  "name": "lv",
  "size": {"width": 8, "height": 6},
  "species": [{"name": "A"}, {"name": "B"}],
  "initial_densities": {"A": 0.2, "B": 0.3},
  "hops": {"A": 0.5, "B": 0.5},
  "reactions": {
    "A": [{"kind": "death", "rate": 0.1},
          {"kind": "predation_birth", "prey": "B", "rate": 0.5}],
    "B": [{"kind": "birth", "rate": 0.3}]
  },
  "carrying_capacity": 1,
  "seed": 42
}`

func newTestServer(t *testing.T, snapshotDir string) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(logging.NewWithWriter(io.Discard, "debug"))
	srv.SetSnapshotDir(snapshotDir)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func do(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("NewRequest returned error: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func loadTestWorld(t *testing.T, ts *httptest.Server, id string) {
	t.Helper()
	if code, body := do(t, http.MethodPost, ts.URL+"/world/"+id+"/config", testWorldConfig); code != http.StatusOK {
		t.Fatalf("Expected status 200 loading world, got %d: %s", code, body)
	}
}

func TestExtractWorldID(t *testing.T) {
	tests := []struct {
		path string
		id   popsim.WorldID
		rest string
	}{
		{"/world/lv/step", "lv", "/step"},
		{"/world/lv", "lv", ""},
		{"/world/", "", ""},
		{"/worlds", "", ""},
	}
	for _, tt := range tests {
		id, rest := extractWorldID(tt.path)
		if id != tt.id || rest != tt.rest {
			t.Errorf("extractWorldID(%q) = %q, %q; want %q, %q", tt.path, id, rest, tt.id, tt.rest)
		}
	}
}

func TestServer_Health(t *testing.T) {
	_, ts := newTestServer(t, "")
	if code, body := do(t, http.MethodGet, ts.URL+"/healthz", ""); code != http.StatusOK || body != "ok" {
		t.Errorf("Unexpected health response %d: %s", code, body)
	}
}

func TestServer_ConfigAndList(t *testing.T) {
	srv, ts := newTestServer(t, "")
	loadTestWorld(t, ts, "b")
	loadTestWorld(t, ts, "a")

	code, body := do(t, http.MethodGet, ts.URL+"/worlds", "")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	var resp map[string][]string
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if got := resp["worlds"]; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Expected worlds [a b], got %v", got)
	}

	w, _ := srv.manager.GetWorld("a")
	if w.ID() != "a" || w.Seed() != 42 {
		t.Errorf("Unexpected world: id=%s seed=%d", w.ID(), w.Seed())
	}
	settings := w.NotificationSettings()
	if !settings.Enabled || settings.Notifiers[0] != streamNotifierID {
		t.Errorf("Expected world to report to the stream, got %+v", settings)
	}
}

func TestServer_ConfigReplacesAndStops(t *testing.T) {
	srv, ts := newTestServer(t, "")
	loadTestWorld(t, ts, "lv")
	first, _ := srv.manager.GetWorld("lv")
	first.Start(time.Millisecond)

	loadTestWorld(t, ts, "lv")
	second, _ := srv.manager.GetWorld("lv")
	if first == second {
		t.Fatal("Expected a new world")
	}
	if first.IsRunning() {
		t.Error("Expected the replaced world to be stopped")
	}
}

func TestServer_ConfigInvalid(t *testing.T) {
	srv, ts := newTestServer(t, "")
	code, body := do(t, http.MethodPost, ts.URL+"/world/bad/config",
		`{"name":"bad","size":{"width":0,"height":2},"reactions":{"A":[{"kind":"mutation","rate":1}]}}`)
	if code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d: %s", code, body)
	}
	if !strings.Contains(body, "mutation") {
		t.Errorf("Expected the unknown kind in the error, got %s", body)
	}
	if code, _ := do(t, http.MethodPost, ts.URL+"/world/bad/config", "{"); code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for malformed JSON, got %d", code)
	}
	if len(srv.manager.ListWorlds()) != 0 {
		t.Error("Invalid world was registered")
	}
}

func TestServer_CreateOccupant(t *testing.T) {
	srv, ts := newTestServer(t, "")
	code, _ := do(t, http.MethodPost, ts.URL+"/world/empty/config",
		`{"name":"empty","size":{"width":3,"height":3},"species":[{"name":"A"}],"carrying_capacity":1}`)
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	url := ts.URL + "/world/empty/occupant"

	if code, body := do(t, http.MethodPost, url, `{"species":"A","x":1,"y":2}`); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", code, body)
	}
	w, _ := srv.manager.GetWorld("empty")
	if n, _ := w.SiteCount("A", popsim.Site{X: 1, Y: 2}); n != 1 {
		t.Errorf("Expected one occupant at 1x2, got %d", n)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"full site", `{"species":"A","x":1,"y":2}`, http.StatusConflict},
		{"unknown species", `{"species":"Z","x":0,"y":0}`, http.StatusBadRequest},
		{"out of range", `{"species":"A","x":3,"y":0}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if code, body := do(t, http.MethodPost, url, tt.body); code != tt.want {
			t.Errorf("%s: expected status %d, got %d: %s", tt.name, tt.want, code, body)
		}
	}

	if code, _ := do(t, http.MethodPost, ts.URL+"/world/missing/occupant", `{"species":"A"}`); code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown world, got %d", code)
	}
}

func TestServer_StepAndAbundances(t *testing.T) {
	_, ts := newTestServer(t, "")
	loadTestWorld(t, ts, "lv")

	code, body := do(t, http.MethodPost, ts.URL+"/world/lv/step?n=3", "")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", code, body)
	}
	var ev popsim.StepEvent
	if err := json.Unmarshal([]byte(body), &ev); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if ev.Step != 3 || ev.WorldID != "lv" {
		t.Errorf("Unexpected step response: %+v", ev)
	}

	_, body = do(t, http.MethodGet, ts.URL+"/world/lv/abundances", "")
	var st popsim.StepEvent
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if st.Step != 3 || st.Abundances["A"]+st.Abundances["B"] != st.Occupants {
		t.Errorf("Unexpected abundances: %+v", st)
	}

	for _, n := range []string{"0", "-1", "x", "100001"} {
		if code, _ := do(t, http.MethodPost, ts.URL+"/world/lv/step?n="+n, ""); code != http.StatusBadRequest {
			t.Errorf("n=%s: expected status 400, got %d", n, code)
		}
	}
	if code, _ := do(t, http.MethodGet, ts.URL+"/world/lv/step", ""); code != http.StatusNotFound {
		t.Errorf("Expected GET /step to be unrouted, got %d", code)
	}
}

func TestServer_Arrays(t *testing.T) {
	srv, ts := newTestServer(t, "")
	loadTestWorld(t, ts, "lv")

	_, body := do(t, http.MethodGet, ts.URL+"/world/lv/arrays", "")
	var resp arraysResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(resp.Species) != 2 || resp.Species[0] != "A" {
		t.Errorf("Unexpected species: %v", resp.Species)
	}
	w, _ := srv.manager.GetWorld("lv")
	want := w.AsArrays()
	for _, name := range resp.Species {
		got := resp.Arrays[name]
		if got.Width != 8 || got.Height != 6 {
			t.Fatalf("Unexpected grid size for %s: %dx%d", name, got.Width, got.Height)
		}
		if got.Sum() != want[name].Sum() {
			t.Errorf("Expected %d %s occupants, got %d", want[name].Sum(), name, got.Sum())
		}
	}
}

func TestServer_StartStop(t *testing.T) {
	srv, ts := newTestServer(t, "")
	loadTestWorld(t, ts, "lv")
	w, _ := srv.manager.GetWorld("lv")

	if code, _ := do(t, http.MethodPost, ts.URL+"/world/lv/start?interval=abc", ""); code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad interval, got %d", code)
	}
	if code, _ := do(t, http.MethodPost, ts.URL+"/world/lv/start?interval=1", ""); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	deadline := time.Now().Add(2 * time.Second)
	for w.StepCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("World did not advance")
		}
		time.Sleep(2 * time.Millisecond)
	}
	if code, _ := do(t, http.MethodPost, ts.URL+"/world/lv/stop", ""); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if w.IsRunning() {
		t.Error("Expected world to be stopped")
	}
}

func TestServer_Delete(t *testing.T) {
	srv, ts := newTestServer(t, "")
	loadTestWorld(t, ts, "lv")
	if code, _ := do(t, http.MethodDelete, ts.URL+"/world/lv", ""); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if _, ok := srv.manager.GetWorld("lv"); ok {
		t.Error("Expected world to be deleted")
	}
	if code, _ := do(t, http.MethodDelete, ts.URL+"/world/lv", ""); code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", code)
	}
}

func TestServer_SnapshotSaveGetRestore(t *testing.T) {
	tmpDir := t.TempDir()
	srv, ts := newTestServer(t, tmpDir)
	loadTestWorld(t, ts, "lv")
	do(t, http.MethodPost, ts.URL+"/world/lv/step?n=4", "")
	w, _ := srv.manager.GetWorld("lv")
	before := w.AsArrays()

	if code, _ := do(t, http.MethodGet, ts.URL+"/world/lv/snapshot", ""); code != http.StatusNotFound {
		t.Errorf("Expected status 404 before saving, got %d", code)
	}

	code, body := do(t, http.MethodPost, ts.URL+"/world/lv/snapshot", "")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", code, body)
	}
	var response map[string]string
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	expectedPath := filepath.Join(tmpDir, "lv.snapshot.json")
	if response["status"] != "ok" || response["path"] != expectedPath {
		t.Errorf("Unexpected response: %v", response)
	}
	if _, err := os.Stat(expectedPath); err != nil {
		t.Fatalf("Expected snapshot file to exist: %v", err)
	}

	code, body = do(t, http.MethodGet, ts.URL+"/world/lv/snapshot", "")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	snap, err := popsim.DecodeSnapshotJSON([]byte(body))
	if err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if snap.WorldID != "lv" || snap.Step != 4 {
		t.Errorf("Unexpected snapshot: world_id=%s step=%d", snap.WorldID, snap.Step)
	}

	// move on, then roll back to the saved state
	do(t, http.MethodPost, ts.URL+"/world/lv/step?n=5", "")
	if code, body := do(t, http.MethodPost, ts.URL+"/world/lv/restore", ""); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", code, body)
	}
	if w.StepCount() != 4 {
		t.Errorf("Expected step 4 after restore, got %d", w.StepCount())
	}
	after := w.AsArrays()
	for name, g := range before {
		if g.Sum() != after[name].Sum() {
			t.Errorf("Species %s: expected %d occupants after restore, got %d", name, g.Sum(), after[name].Sum())
		}
	}
}

func TestServer_RestoreFromBody(t *testing.T) {
	srv, ts := newTestServer(t, "")
	loadTestWorld(t, ts, "lv")
	w, _ := srv.manager.GetWorld("lv")
	snap := w.Snapshot()
	w.Step()

	data, _ := popsim.EncodeSnapshotJSON(snap)
	if code, body := do(t, http.MethodPost, ts.URL+"/world/lv/restore", string(data)); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", code, body)
	}
	if w.StepCount() != 0 {
		t.Errorf("Expected step 0, got %d", w.StepCount())
	}

	snap.Width = 99
	data, _ = popsim.EncodeSnapshotJSON(snap)
	if code, _ := do(t, http.MethodPost, ts.URL+"/world/lv/restore", string(data)); code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a mismatched snapshot, got %d", code)
	}
}

func TestServer_SnapshotNoDir(t *testing.T) {
	_, ts := newTestServer(t, "")
	loadTestWorld(t, ts, "lv")
	for _, method := range []string{http.MethodPost, http.MethodGet} {
		if code, _ := do(t, method, ts.URL+"/world/lv/snapshot", ""); code != http.StatusInternalServerError {
			t.Errorf("%s: expected status 500, got %d", method, code)
		}
	}
	if code, _ := do(t, http.MethodPost, ts.URL+"/world/lv/restore", ""); code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 restoring without a snapshot dir, got %d", code)
	}
}

func TestServer_Notifiers(t *testing.T) {
	received := make(chan popsim.StepEvent, 16)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev popsim.StepEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err == nil {
			received <- ev
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer hook.Close()

	_, ts := newTestServer(t, "")
	body := `{"type":"webhook","id":"hook","config":{"url":"` + hook.URL + `","headers":{"X-Test":"1"},"worlds":["lv"]}}`
	if code, resp := do(t, http.MethodPost, ts.URL+"/notifiers", body); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", code, resp)
	}
	if code, _ := do(t, http.MethodPost, ts.URL+"/notifiers", body); code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for duplicate notifier, got %d", code)
	}
	if code, _ := do(t, http.MethodPost, ts.URL+"/notifiers", `{"type":"carrier-pigeon","id":"p"}`); code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown type, got %d", code)
	}

	_, list := do(t, http.MethodGet, ts.URL+"/notifiers", "")
	if !strings.Contains(list, `"id":"hook"`) || !strings.Contains(list, `"type":"websocket"`) ||
		!strings.Contains(list, `"worlds":["lv"]`) {
		t.Errorf("Unexpected notifier list: %s", list)
	}
	bad := `{"type":"webhook","id":"bad","config":{"url":"` + hook.URL + `","worlds":[1]}}`
	if code, _ := do(t, http.MethodPost, ts.URL+"/notifiers", bad); code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for non-string worlds, got %d", code)
	}

	cfg := strings.Replace(testWorldConfig, `"seed": 42`,
		`"seed": 42, "notifications": {"enabled": true, "notifiers": ["hook"]}`, 1)
	for _, id := range []string{"other", "lv"} {
		if code, resp := do(t, http.MethodPost, ts.URL+"/world/"+id+"/config", cfg); code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", code, resp)
		}
	}
	// the hook only watches lv, so the step of other is never delivered
	do(t, http.MethodPost, ts.URL+"/world/other/step", "")
	do(t, http.MethodPost, ts.URL+"/world/lv/step", "")

	select {
	case ev := <-received:
		if ev.WorldID != "lv" || ev.Step != 1 {
			t.Errorf("Unexpected webhook event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Webhook did not receive the step event")
	}
	select {
	case ev := <-received:
		t.Errorf("Expected no further deliveries, got %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}

	if code, _ := do(t, http.MethodDelete, ts.URL+"/notifiers/"+streamNotifierID, ""); code != http.StatusBadRequest {
		t.Errorf("Expected status 400 removing the stream, got %d", code)
	}
	if code, _ := do(t, http.MethodDelete, ts.URL+"/notifiers/hook", ""); code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", code)
	}
	if code, _ := do(t, http.MethodDelete, ts.URL+"/notifiers/hook", ""); code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", code)
	}
}

func TestServer_WebSocketStream(t *testing.T) {
	srv, ts := newTestServer(t, "")
	loadTestWorld(t, ts, "lv")
	loadTestWorld(t, ts, "other")

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?world=lv"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.stream.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("Client was not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	do(t, http.MethodPost, ts.URL+"/world/other/step", "")
	do(t, http.MethodPost, ts.URL+"/world/lv/step?n=2", "")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev popsim.StepEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON returned error: %v", err)
	}
	if ev.WorldID != "lv" || ev.Step != 1 {
		t.Errorf("Expected the first lv step, got %+v", ev)
	}
}

func TestLoadInitialWorld(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lv.json")
	if err := os.WriteFile(path, []byte(testWorldConfig), 0o644); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	srv := NewServer(logging.NewWithWriter(io.Discard, "info"))
	defer srv.Close()
	srv.SetSnapshotDir(dir)
	if err := srv.loadInitialWorld(path, ""); err != nil {
		t.Fatalf("loadInitialWorld returned error: %v", err)
	}
	w, ok := srv.manager.GetWorld("lv")
	if !ok {
		t.Fatal("Expected world named after the config")
	}

	// a saved snapshot is picked up on the next start
	w.Run(t.Context(), 3, nil)
	if err := w.SaveSnapshot(); err != nil {
		t.Fatalf("SaveSnapshot returned error: %v", err)
	}
	srv2 := NewServer(logging.NewWithWriter(io.Discard, "info"))
	defer srv2.Close()
	srv2.SetSnapshotDir(dir)
	if err := srv2.loadInitialWorld(path, ""); err != nil {
		t.Fatalf("loadInitialWorld returned error: %v", err)
	}
	w2, _ := srv2.manager.GetWorld("lv")
	if w2.StepCount() != 3 {
		t.Errorf("Expected restored step 3, got %d", w2.StepCount())
	}

	if err := srv.loadInitialWorld(filepath.Join(dir, "missing.json"), "x"); err == nil {
		t.Error("Expected error for a missing file")
	}
}

func TestLoadServerConfig_Defaults(t *testing.T) {
	for _, r := range resolvers {
		t.Setenv(r.envVarName, "")
	}
	cfg, err := loadServerConfig(nil)
	if err != nil {
		t.Fatalf("loadServerConfig returned error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Expected Addr to be ':8080', got '%s'", cfg.Addr)
	}
	if cfg.WorldFile != "" || cfg.WorldID != "" {
		t.Errorf("Expected no startup world, got %q %q", cfg.WorldFile, cfg.WorldID)
	}
	if cfg.SnapshotDir != "./data" || cfg.SnapshotEverySteps != 1000 {
		t.Errorf("Unexpected snapshot defaults: %q %d", cfg.SnapshotDir, cfg.SnapshotEverySteps)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel to be 'info', got '%s'", cfg.LogLevel)
	}
}

func TestLoadServerConfig_EnvVars(t *testing.T) {
	t.Setenv("POPSIM_ADDR", ":9090")
	t.Setenv("POPSIM_WORLD_FILE", "/path/to/world.json")
	t.Setenv("POPSIM_SNAPSHOT_EVERY_STEPS", "50")
	t.Setenv("POPSIM_LOG_LEVEL", "debug")

	cfg, err := loadServerConfig(nil)
	if err != nil {
		t.Fatalf("loadServerConfig returned error: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.WorldFile != "/path/to/world.json" {
		t.Errorf("Env vars were not applied: %+v", cfg)
	}
	if cfg.SnapshotEverySteps != 50 || cfg.LogLevel != "debug" {
		t.Errorf("Env vars were not applied: %+v", cfg)
	}
}

func TestLoadServerConfig_FlagsOverrideEnvVars(t *testing.T) {
	t.Setenv("POPSIM_ADDR", ":9090")
	t.Setenv("POPSIM_SNAPSHOT_DIR", "/env/snapshots")

	cfg, err := loadServerConfig([]string{
		"--addr", ":7070",
		"--snapshot-dir", "/flag/snapshots",
		"--snapshot-every-steps", "300",
		"--log-level", "error",
	})
	if err != nil {
		t.Fatalf("loadServerConfig returned error: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("Expected Addr to be ':7070' (from flag), got '%s'", cfg.Addr)
	}
	if cfg.SnapshotDir != "/flag/snapshots" {
		t.Errorf("Expected SnapshotDir to be '/flag/snapshots' (from flag), got '%s'", cfg.SnapshotDir)
	}
	if cfg.SnapshotEverySteps != 300 {
		t.Errorf("Expected SnapshotEverySteps to be 300 (from flag), got %d", cfg.SnapshotEverySteps)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("Expected LogLevel to be 'error' (from flag), got '%s'", cfg.LogLevel)
	}
}

func TestLoadServerConfig_InvalidSnapshotSteps(t *testing.T) {
	t.Setenv("POPSIM_SNAPSHOT_EVERY_STEPS", "invalid")
	if _, err := loadServerConfig(nil); err == nil {
		t.Error("Expected error for invalid snapshot-every-steps")
	}
}
