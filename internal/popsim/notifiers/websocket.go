package notifiers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/daniacca/popsim/internal/popsim"
	"github.com/gorilla/websocket"
)

// WebSocketNotifier streams step events to connected WebSocket clients. A
// client may subscribe to a single world with the "world" query parameter.
type WebSocketNotifier struct {
	id         string
	mu         sync.RWMutex
	clients    map[*websocket.Conn]popsim.WorldID
	upgrader   websocket.Upgrader
	broadcast  chan popsim.StepEvent
	register   chan subscription
	unregister chan *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

type subscription struct {
	conn  *websocket.Conn
	world popsim.WorldID
}

// NewWebSocketNotifier creates a new WebSocket notifier
func NewWebSocketNotifier(id string) *WebSocketNotifier {
	notifier := &WebSocketNotifier{
		id:         id,
		clients:    make(map[*websocket.Conn]popsim.WorldID),
		broadcast:  make(chan popsim.StepEvent, 256),
		register:   make(chan subscription),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	notifier.wg.Add(1)
	go notifier.run()

	return notifier
}

// ID returns the notifier ID
func (wsn *WebSocketNotifier) ID() string {
	return wsn.id
}

// Type returns the notifier type
func (wsn *WebSocketNotifier) Type() string {
	return "websocket"
}

// RegisterClient subscribes conn to the events of world, or of every world
// when world is empty.
func (wsn *WebSocketNotifier) RegisterClient(conn *websocket.Conn, world popsim.WorldID) {
	select {
	case wsn.register <- subscription{conn: conn, world: world}:
	case <-wsn.done:
	}
}

// UnregisterClient unregisters and closes a WebSocket client connection
func (wsn *WebSocketNotifier) UnregisterClient(conn *websocket.Conn) {
	select {
	case wsn.unregister <- conn:
	case <-wsn.done:
	}
}

// ClientCount returns the number of connected clients.
func (wsn *WebSocketNotifier) ClientCount() int {
	wsn.mu.RLock()
	defer wsn.mu.RUnlock()
	return len(wsn.clients)
}

// ServeHTTP upgrades the request to a WebSocket and keeps the client
// subscribed until it disconnects.
func (wsn *WebSocketNotifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := wsn.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		return
	}
	wsn.RegisterClient(conn, popsim.WorldID(r.URL.Query().Get("world")))

	// Drain control frames until the peer goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			wsn.UnregisterClient(conn)
			return
		}
	}
}

// Notify queues the event for every subscribed client
func (wsn *WebSocketNotifier) Notify(ctx context.Context, event popsim.StepEvent) error {
	select {
	case <-wsn.done:
		return fmt.Errorf("notifier %s is closed", wsn.id)
	default:
	}
	select {
	case wsn.broadcast <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(1 * time.Second):
		return fmt.Errorf("notification queue full")
	}
}

func (wsn *WebSocketNotifier) run() {
	defer wsn.wg.Done()
	for {
		select {
		case <-wsn.done:
			return

		case sub := <-wsn.register:
			if sub.conn == nil {
				continue
			}
			wsn.mu.Lock()
			wsn.clients[sub.conn] = sub.world
			wsn.mu.Unlock()

		case conn := <-wsn.unregister:
			if conn == nil {
				continue
			}
			wsn.mu.Lock()
			if _, ok := wsn.clients[conn]; ok {
				delete(wsn.clients, conn)
				conn.Close()
			}
			wsn.mu.Unlock()

		case event := <-wsn.broadcast:
			wsn.send(event)
		}
	}
}

func (wsn *WebSocketNotifier) send(event popsim.StepEvent) {
	jsonData, err := event.JSON()
	if err != nil {
		return
	}

	// Collect connections first so writes happen outside the lock
	wsn.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(wsn.clients))
	for conn, world := range wsn.clients {
		if world == "" || world == event.WorldID {
			conns = append(conns, conn)
		}
	}
	wsn.mu.RUnlock()

	var toRemove []*websocket.Conn
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
			toRemove = append(toRemove, conn)
			conn.Close()
		}
	}

	if len(toRemove) > 0 {
		wsn.mu.Lock()
		for _, conn := range toRemove {
			delete(wsn.clients, conn)
		}
		wsn.mu.Unlock()
	}
}

// Close closes all WebSocket connections and stops the goroutine
func (wsn *WebSocketNotifier) Close() error {
	wsn.closeOnce.Do(func() {
		close(wsn.done)
		wsn.wg.Wait()

		wsn.mu.Lock()
		for conn := range wsn.clients {
			conn.Close()
			delete(wsn.clients, conn)
		}
		wsn.mu.Unlock()
	})
	return nil
}

// GetUpgrader returns the WebSocket upgrader for HTTP handlers
func (wsn *WebSocketNotifier) GetUpgrader() websocket.Upgrader {
	return wsn.upgrader
}
