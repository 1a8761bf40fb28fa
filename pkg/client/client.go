package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/daniacca/popsim/internal/popsim"
)

// WorldBuilder provides a fluent API for building world configurations.
// Use it to define the species, their reactions and hop rates, and the
// lattice a popsim server should simulate.
type WorldBuilder struct {
	name      string
	width     int
	height    int
	capacity  int
	seed      *uint64
	species   []popsim.SpeciesConfig
	densities map[string]float64
	hops      map[string]float64
	reactions []*ReactionBuilder
	notify    *NotificationBuilder
}

// NewWorld creates a new world builder with the given name.
// The name becomes the world ID when the config is loaded without one.
func NewWorld(name string) *WorldBuilder {
	return &WorldBuilder{
		name:      name,
		species:   make([]popsim.SpeciesConfig, 0),
		densities: make(map[string]float64),
		hops:      make(map[string]float64),
		reactions: make([]*ReactionBuilder, 0),
	}
}

// Size sets the lattice dimensions. The lattice is periodic in both
// directions.
func (wb *WorldBuilder) Size(width, height int) *WorldBuilder {
	wb.width = width
	wb.height = height
	return wb
}

// Species adds a species definition to the world.
// Species are indexed in the order they are added. When no species are
// added, the server derives them from the names used by densities, hops
// and reactions. The meta parameter can be nil.
func (wb *WorldBuilder) Species(name, description string, meta map[string]any) *WorldBuilder {
	wb.species = append(wb.species, popsim.SpeciesConfig{
		Name:        name,
		Description: description,
		Meta:        meta,
	})
	return wb
}

// Density sets the mean initial number of occupants per site for a species.
func (wb *WorldBuilder) Density(species string, density float64) *WorldBuilder {
	wb.densities[species] = density
	return wb
}

// Hop sets the rate at which occupants of a species move to a neighbouring
// site.
func (wb *WorldBuilder) Hop(species string, rate float64) *WorldBuilder {
	wb.hops[species] = rate
	return wb
}

// Reaction adds a reaction rule. Rules of the same acting species are
// evaluated in the order they are added.
func (wb *WorldBuilder) Reaction(rb *ReactionBuilder) *WorldBuilder {
	wb.reactions = append(wb.reactions, rb)
	return wb
}

// CarryingCapacity bounds the number of occupants per site.
// 0 means unbounded; 1 switches reactions to neighbour interactions.
func (wb *WorldBuilder) CarryingCapacity(k int) *WorldBuilder {
	wb.capacity = k
	return wb
}

// Seed fixes the random seed so that the world is reproducible.
// If not set, the server picks a random seed.
func (wb *WorldBuilder) Seed(seed uint64) *WorldBuilder {
	wb.seed = &seed
	return wb
}

// Notify configures which notifiers receive the world's step events.
func (wb *WorldBuilder) Notify(nb *NotificationBuilder) *WorldBuilder {
	wb.notify = nb
	return wb
}

// Build converts the builder to a WorldConfig that can be used
// with ApplyWorld or BuildWorldFromConfig.
func (wb *WorldBuilder) Build() popsim.WorldConfig {
	cfg := popsim.WorldConfig{
		Name:             wb.name,
		Size:             popsim.SizeConfig{Width: wb.width, Height: wb.height},
		Species:          wb.species,
		CarryingCapacity: wb.capacity,
		Seed:             wb.seed,
	}
	if len(wb.densities) > 0 {
		cfg.InitialDensities = wb.densities
	}
	if len(wb.hops) > 0 {
		cfg.Hops = wb.hops
	}
	if len(wb.reactions) > 0 {
		cfg.Reactions = make(map[string][]popsim.ReactionConfig)
		for _, rb := range wb.reactions {
			cfg.Reactions[rb.species] = append(cfg.Reactions[rb.species], rb.Build())
		}
	}
	if wb.notify != nil {
		cfg.Notifications = wb.notify.Build()
	}
	return cfg
}

// ReactionBuilder provides a fluent API for building one reaction rule.
// Create one with Birth, Death, Predation or PredationBirth.
type ReactionBuilder struct {
	species string
	kind    string
	prey    string
	rate    float64
}

func newReaction(species, kind, prey string) *ReactionBuilder {
	return &ReactionBuilder{species: species, kind: kind, prey: prey, rate: 1.0}
}

// Birth creates a rule where an occupant of species produces one offspring.
func Birth(species string) *ReactionBuilder {
	return newReaction(species, "birth", "")
}

// Death creates a rule where an occupant of species is removed.
func Death(species string) *ReactionBuilder {
	return newReaction(species, "death", "")
}

// Predation creates a rule where a predator removes one prey.
func Predation(predator, prey string) *ReactionBuilder {
	return newReaction(predator, "predation", prey)
}

// PredationBirth creates a rule where a predator removes one prey and
// produces one offspring of its own species.
func PredationBirth(predator, prey string) *ReactionBuilder {
	return newReaction(predator, "predation_birth", prey)
}

// Rate sets the rule's rate. A rule fires for an occupant within one step
// with probability 1 - exp(-rate). The default is 1.0.
func (rb *ReactionBuilder) Rate(rate float64) *ReactionBuilder {
	rb.rate = rate
	return rb
}

// Species returns the acting species of the rule.
func (rb *ReactionBuilder) Species() string {
	return rb.species
}

// Build converts the builder to a ReactionConfig.
func (rb *ReactionBuilder) Build() popsim.ReactionConfig {
	return popsim.ReactionConfig{
		Kind: rb.kind,
		Prey: rb.prey,
		Rate: rb.rate,
	}
}

// NotificationBuilder provides a fluent API for building notification configurations.
// Notifications push step events to webhooks or WebSocket clients.
type NotificationBuilder struct {
	enabled   bool
	notifiers []string
	every     int64
}

// NewNotification creates a new notification builder with notifications
// enabled by default.
func NewNotification() *NotificationBuilder {
	return &NotificationBuilder{
		enabled:   true,
		notifiers: make([]string, 0),
	}
}

// Enabled sets whether notifications are enabled for the world.
func (nb *NotificationBuilder) Enabled(enabled bool) *NotificationBuilder {
	nb.enabled = enabled
	return nb
}

// Notifier adds a notifier ID to the list of notifiers to use.
// Notifiers must be registered with the server separately.
func (nb *NotificationBuilder) Notifier(id string) *NotificationBuilder {
	nb.notifiers = append(nb.notifiers, id)
	return nb
}

// Notifiers adds multiple notifier IDs to the list.
func (nb *NotificationBuilder) Notifiers(ids ...string) *NotificationBuilder {
	nb.notifiers = append(nb.notifiers, ids...)
	return nb
}

// Every emits one event per n steps instead of one per step.
func (nb *NotificationBuilder) Every(n int64) *NotificationBuilder {
	nb.every = n
	return nb
}

// Build converts the builder to a NotificationConfig.
func (nb *NotificationBuilder) Build() *popsim.NotificationConfig {
	return &popsim.NotificationConfig{
		Enabled:   nb.enabled,
		Notifiers: nb.notifiers,
		Every:     nb.every,
	}
}

// ApplyWorld sends the world configuration to a popsim server, creating the
// world or replacing an existing one with the same ID.
// The baseURL is the server's base URL (e.g., "http://localhost:8080").
func ApplyWorld(ctx context.Context, baseURL, worldID string, world *WorldBuilder) error {
	return New(baseURL).ApplyWorld(ctx, worldID, world)
}

// Client talks to the HTTP API of a popsim server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// ArraysResponse is the per-species occupancy of a world.
type ArraysResponse struct {
	WorldID popsim.WorldID                     `json:"world_id"`
	Step    int64                              `json:"step"`
	Species []popsim.SpeciesName               `json:"species"`
	Arrays  map[popsim.SpeciesName]popsim.Grid `json:"arrays"`
}

// ApplyWorld creates or replaces the world with the given ID.
func (c *Client) ApplyWorld(ctx context.Context, worldID string, world *WorldBuilder) error {
	return c.do(ctx, http.MethodPost, nil, world.Build(), nil, "world", worldID, "config")
}

// ListWorlds returns the IDs of the worlds hosted by the server.
func (c *Client) ListWorlds(ctx context.Context) ([]string, error) {
	var resp struct {
		Worlds []string `json:"worlds"`
	}
	if err := c.do(ctx, http.MethodGet, nil, nil, &resp, "worlds"); err != nil {
		return nil, err
	}
	return resp.Worlds, nil
}

// DeleteWorld stops and removes a world.
func (c *Client) DeleteWorld(ctx context.Context, worldID string) error {
	return c.do(ctx, http.MethodDelete, nil, nil, nil, "world", worldID)
}

// CreateOccupant places one occupant of species at (x, y).
func (c *Client) CreateOccupant(ctx context.Context, worldID, species string, x, y int) error {
	body := map[string]any{"species": species, "x": x, "y": y}
	return c.do(ctx, http.MethodPost, nil, body, nil, "world", worldID, "occupant")
}

// Step advances the world by n steps and returns its status afterwards.
func (c *Client) Step(ctx context.Context, worldID string, n int) (popsim.StepEvent, error) {
	var ev popsim.StepEvent
	q := url.Values{"n": {strconv.Itoa(n)}}
	err := c.do(ctx, http.MethodPost, q, nil, &ev, "world", worldID, "step")
	return ev, err
}

// Start makes the server step the world every interval.
func (c *Client) Start(ctx context.Context, worldID string, interval time.Duration) error {
	q := url.Values{"interval": {strconv.FormatInt(interval.Milliseconds(), 10)}}
	return c.do(ctx, http.MethodPost, q, nil, nil, "world", worldID, "start")
}

// Stop halts automatic stepping.
func (c *Client) Stop(ctx context.Context, worldID string) error {
	return c.do(ctx, http.MethodPost, nil, nil, nil, "world", worldID, "stop")
}

// Abundances returns the world's current step and per-species totals.
func (c *Client) Abundances(ctx context.Context, worldID string) (popsim.StepEvent, error) {
	var ev popsim.StepEvent
	err := c.do(ctx, http.MethodGet, nil, nil, &ev, "world", worldID, "abundances")
	return ev, err
}

// Arrays returns the per-species occupancy grids of the world.
func (c *Client) Arrays(ctx context.Context, worldID string) (ArraysResponse, error) {
	var resp ArraysResponse
	err := c.do(ctx, http.MethodGet, nil, nil, &resp, "world", worldID, "arrays")
	return resp, err
}

// SaveSnapshot asks the server to write the world's snapshot to its
// snapshot directory and returns the file path.
func (c *Client) SaveSnapshot(ctx context.Context, worldID string) (string, error) {
	var resp map[string]string
	if err := c.do(ctx, http.MethodPost, nil, nil, &resp, "world", worldID, "snapshot"); err != nil {
		return "", err
	}
	return resp["path"], nil
}

// Snapshot fetches the last saved snapshot of the world.
func (c *Client) Snapshot(ctx context.Context, worldID string) (popsim.Snapshot, error) {
	var snap popsim.Snapshot
	err := c.do(ctx, http.MethodGet, nil, nil, &snap, "world", worldID, "snapshot")
	return snap, err
}

// Restore loads the last saved snapshot back into the world.
func (c *Client) Restore(ctx context.Context, worldID string) error {
	return c.do(ctx, http.MethodPost, nil, nil, nil, "world", worldID, "restore")
}

// RegisterWebhook registers a webhook notifier that receives step events.
// When worlds are given only their events are delivered.
func (c *Client) RegisterWebhook(ctx context.Context, id, webhookURL string, headers map[string]string, worlds ...string) error {
	config := map[string]any{"url": webhookURL}
	if len(headers) > 0 {
		config["headers"] = headers
	}
	if len(worlds) > 0 {
		config["worlds"] = worlds
	}
	body := map[string]any{"type": "webhook", "id": id, "config": config}
	return c.do(ctx, http.MethodPost, nil, body, nil, "notifiers")
}

// UnregisterNotifier removes a notifier from the server.
func (c *Client) UnregisterNotifier(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, nil, nil, nil, "notifiers", id)
}

// do sends one request. A non-nil in is sent as JSON and a non-nil out is
// decoded from a JSON response.
func (c *Client) do(ctx context.Context, method string, query url.Values, in, out any, path ...string) error {
	u, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.Code, e.Body)
}
