package popsim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// StepEvent describes the state of a world right after a step completed.
type StepEvent struct {
	WorldID    WorldID                `json:"world_id"`
	Step       int64                  `json:"step"`
	Timestamp  int64                  `json:"timestamp"`
	Abundances map[SpeciesName]uint64 `json:"abundances"`
	Occupants  uint64                 `json:"occupants"`
}

// JSON returns the event as JSON bytes.
func (ev StepEvent) JSON() ([]byte, error) {
	return json.Marshal(ev)
}

// Notifier is the interface that all notification channels must implement
type Notifier interface {
	// ID returns a unique identifier for this notifier
	ID() string

	// Type returns the type of notifier (e.g., "webhook", "websocket")
	Type() string

	// Notify delivers one step event. The context bounds the delivery.
	Notify(ctx context.Context, event StepEvent) error

	// Close closes the notifier and releases any resources
	Close() error
}

// NotificationConfig selects the notifiers a world reports to and how often.
type NotificationConfig struct {
	Enabled   bool     `json:"enabled"`
	Notifiers []string `json:"notifiers"`
	// Every emits one event per Every steps; values below 1 mean every step.
	Every int64 `json:"every,omitempty"`
}

type notificationJob struct {
	Event       StepEvent
	NotifierIDs []string
}

// NotificationManager owns the registered notifiers and delivers events to
// them asynchronously with retry and exponential backoff.
type NotificationManager struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	jobs      chan notificationJob
	closed    bool
	wg        sync.WaitGroup
	logger    Logger

	maxRetries int
	backoff    time.Duration
}

// NewNotificationManager creates a manager with one delivery worker.
func NewNotificationManager() *NotificationManager {
	return NewNotificationManagerWithLogger(NewNoOpLogger())
}

// NewNotificationManagerWithLogger creates a manager that reports delivery
// failures to logger.
func NewNotificationManagerWithLogger(logger Logger) *NotificationManager {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	nm := &NotificationManager{
		notifiers:  make(map[string]Notifier),
		jobs:       make(chan notificationJob, 1024),
		logger:     logger,
		maxRetries: 3,
		backoff:    100 * time.Millisecond,
	}
	nm.startWorkers(1)
	return nm
}

// RegisterNotifier registers a notifier with the manager
func (nm *NotificationManager) RegisterNotifier(notifier Notifier) error {
	if notifier == nil {
		return errors.New("notifier cannot be nil")
	}
	id := notifier.ID()
	if id == "" {
		return errors.New("notifier ID cannot be empty")
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()
	if _, exists := nm.notifiers[id]; exists {
		return fmt.Errorf("notifier with ID %s already exists", id)
	}
	nm.notifiers[id] = notifier
	return nil
}

// UnregisterNotifier closes and removes a notifier.
func (nm *NotificationManager) UnregisterNotifier(id string) error {
	nm.mu.Lock()
	notifier, exists := nm.notifiers[id]
	delete(nm.notifiers, id)
	nm.mu.Unlock()

	if !exists {
		return fmt.Errorf("notifier with ID %s not found", id)
	}
	if err := notifier.Close(); err != nil {
		return fmt.Errorf("error closing notifier %s: %w", id, err)
	}
	return nil
}

// GetNotifier retrieves a notifier by ID
func (nm *NotificationManager) GetNotifier(id string) (Notifier, bool) {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	notifier, exists := nm.notifiers[id]
	return notifier, exists
}

// ListNotifiers returns a list of all registered notifier IDs
func (nm *NotificationManager) ListNotifiers() []string {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	ids := make([]string, 0, len(nm.notifiers))
	for id := range nm.notifiers {
		ids = append(ids, id)
	}
	return ids
}

// Enqueue hands an event to the delivery worker without blocking. Events are
// dropped when the queue is full or the manager is closed.
func (nm *NotificationManager) Enqueue(event StepEvent, notifierIDs []string) {
	if len(notifierIDs) == 0 {
		return
	}
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	if nm.closed {
		return
	}
	select {
	case nm.jobs <- notificationJob{Event: event, NotifierIDs: notifierIDs}:
	default:
		nm.logger.Warnf("notification queue full, dropping event: world_id=%s step=%d", event.WorldID, event.Step)
	}
}

func (nm *NotificationManager) startWorkers(n int) {
	for range n {
		nm.wg.Add(1)
		go nm.worker()
	}
}

func (nm *NotificationManager) worker() {
	defer nm.wg.Done()
	for job := range nm.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		for _, id := range job.NotifierIDs {
			nm.notifyWithRetry(ctx, id, job.Event)
		}
		cancel()
	}
}

func (nm *NotificationManager) notifyWithRetry(ctx context.Context, notifierID string, event StepEvent) {
	notifier, ok := nm.GetNotifier(notifierID)
	if !ok {
		nm.logger.Warnf("notification failed: notifier=%s error=notifier not found", notifierID)
		return
	}

	backoff := nm.backoff
	for attempt := 0; attempt <= nm.maxRetries; attempt++ {
		err := notifier.Notify(ctx, event)
		if err == nil {
			return
		}
		nm.logger.Warnf("notification failed: notifier=%s attempt=%d error=%v", notifierID, attempt+1, err)
		if attempt == nm.maxRetries {
			nm.logger.Errorf("notification failed after %d attempts: notifier=%s", nm.maxRetries+1, notifierID)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// Notify delivers an event synchronously to the given notifiers and joins
// every failure into the returned error.
func (nm *NotificationManager) Notify(ctx context.Context, event StepEvent, notifierIDs []string) error {
	var errs []error
	for _, id := range notifierIDs {
		notifier, exists := nm.GetNotifier(id)
		if !exists {
			errs = append(errs, fmt.Errorf("notifier %s not found", id))
			continue
		}
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("notifier %s failed: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Close drains the queue, stops the worker and closes every notifier.
func (nm *NotificationManager) Close() error {
	nm.mu.Lock()
	if nm.closed {
		nm.mu.Unlock()
		return nil
	}
	nm.closed = true
	close(nm.jobs)
	nm.mu.Unlock()

	nm.wg.Wait()

	nm.mu.Lock()
	defer nm.mu.Unlock()
	var errs []error
	for id, notifier := range nm.notifiers {
		if err := notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing notifier %s: %w", id, err))
		}
	}
	nm.notifiers = make(map[string]Notifier)
	return errors.Join(errs...)
}

// SetNotificationManager attaches a manager and the notifiers this world
// reports its steps to.
func (w *World) SetNotificationManager(nm *NotificationManager, cfg NotificationConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notifier = nm
	w.notifyCfg = cfg
}

// Status returns the world's current step and abundances in the shape of a
// step event.
func (w *World) Status() StepEvent {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stepEventLocked()
}

func (w *World) stepEventLocked() StepEvent {
	ev := StepEvent{
		WorldID:    w.id,
		Step:       w.steps,
		Timestamp:  time.Now().Unix(),
		Abundances: w.abundancesLocked(),
	}
	for _, a := range w.lattice.abundance {
		ev.Occupants += a
	}
	return ev
}

// afterStep runs the out-of-band work of a completed step: notifications and
// periodic snapshots. It runs without holding the world lock.
func (w *World) afterStep(ev StepEvent) {
	w.mu.RLock()
	nm, cfg := w.notifier, w.notifyCfg
	dir, every := w.snapshotDir, w.snapshotEvery
	logger := w.logger
	w.mu.RUnlock()

	if nm != nil && cfg.Enabled && (cfg.Every <= 1 || ev.Step%cfg.Every == 0) {
		nm.Enqueue(ev, cfg.Notifiers)
	}
	if dir != "" && every > 0 && ev.Step%every == 0 {
		if err := w.SaveSnapshot(); err != nil {
			logger.Errorf("periodic snapshot failed: world_id=%s step=%d error=%v", ev.WorldID, ev.Step, err)
		}
	}
}

// NotificationSettings returns the notification config the world was built
// or last configured with.
func (w *World) NotificationSettings() NotificationConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.notifyCfg
}
