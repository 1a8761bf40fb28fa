package notifiers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/daniacca/popsim/internal/popsim"
)

// Headers set on every webhook delivery so receivers can route and
// deduplicate without decoding the body.
const (
	HeaderWorld = "X-Popsim-World"
	HeaderStep  = "X-Popsim-Step"
)

// WebhookNotifier posts step events as JSON to a URL. It can be restricted
// to a set of worlds; events from other worlds are dropped without a request.
type WebhookNotifier struct {
	id     string
	url    string
	client *http.Client

	mu     sync.RWMutex
	header http.Header
	worlds []popsim.WorldID
}

func NewWebhookNotifier(id, url string) *WebhookNotifier {
	return &WebhookNotifier{
		id:     id,
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		header: make(http.Header),
	}
}

// SetHeader adds a custom header to every delivery.
func (wn *WebhookNotifier) SetHeader(key, value string) {
	wn.mu.Lock()
	defer wn.mu.Unlock()
	wn.header.Set(key, value)
}

// WatchWorlds restricts deliveries to events of the given worlds. With no
// IDs every world is delivered.
func (wn *WebhookNotifier) WatchWorlds(ids ...popsim.WorldID) {
	wn.mu.Lock()
	defer wn.mu.Unlock()
	wn.worlds = slices.Clone(ids)
	slices.Sort(wn.worlds)
	wn.worlds = slices.Compact(wn.worlds)
}

// Worlds returns the watched world IDs, nil when every world is delivered.
func (wn *WebhookNotifier) Worlds() []popsim.WorldID {
	wn.mu.RLock()
	defer wn.mu.RUnlock()
	return slices.Clone(wn.worlds)
}

// Watches reports whether events of world are delivered.
func (wn *WebhookNotifier) Watches(world popsim.WorldID) bool {
	wn.mu.RLock()
	defer wn.mu.RUnlock()
	if len(wn.worlds) == 0 {
		return true
	}
	_, found := slices.BinarySearch(wn.worlds, world)
	return found
}

func (wn *WebhookNotifier) ID() string {
	return wn.id
}

func (wn *WebhookNotifier) Type() string {
	return "webhook"
}

// URL returns the endpoint events are posted to.
func (wn *WebhookNotifier) URL() string {
	return wn.url
}

// Notify posts event unless its world is filtered out. Any non-2xx response
// is an error so the notification manager retries it.
func (wn *WebhookNotifier) Notify(ctx context.Context, event popsim.StepEvent) error {
	if !wn.Watches(event.WorldID) {
		return nil
	}
	body, err := event.JSON()
	if err != nil {
		return fmt.Errorf("failed to marshal step event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wn.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	wn.mu.RLock()
	req.Header = wn.header.Clone()
	wn.mu.RUnlock()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderWorld, string(event.WorldID))
	req.Header.Set(HeaderStep, strconv.FormatInt(event.Step, 10))

	resp, err := wn.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver step %d of %s: %w", event.Step, event.WorldID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status %d for step %d", wn.id, resp.StatusCode, event.Step)
	}
	return nil
}

// Close is a no-op; deliveries hold no open connections between events.
func (wn *WebhookNotifier) Close() error {
	return nil
}
