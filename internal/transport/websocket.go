// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"warp/internal/log"
)

// WebSocketTransport broadcasts engine events to connected clients, with
// rate limiting so a burst of per-segment progress updates cannot flood
// the network.
type WebSocketTransport struct {
	clients      map[*websocket.Conn]bool
	clientsMutex sync.Mutex
	upgrader     websocket.Upgrader
	server       *http.Server

	lastSend        time.Time
	minSendInterval time.Duration
}

// newHandlerTransport builds the transport without a listening server.
// Tests serve the handler through httptest instead of a real port.
func newHandlerTransport() *WebSocketTransport {
	return &WebSocketTransport{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		minSendInterval: 50 * time.Millisecond,
	}
}

// handler serves websocket upgrades at /events.
func (t *WebSocketTransport) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", t.handleWebSocket)
	return mux
}

// NewWebSocketTransport starts an HTTP server on the given port serving
// websocket upgrades at /events.
func NewWebSocketTransport(port string) *WebSocketTransport {
	t := newHandlerTransport()
	t.server = &http.Server{Addr: ":" + port, Handler: t.handler()}

	go func() {
		log.Infof("Transport: websocket event server listening on :%s", port)
		if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("Transport: websocket server error: %v", err)
		}
	}()

	return t
}

func (t *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Transport: websocket upgrade error: %v", err)
		return
	}

	t.clientsMutex.Lock()
	t.clients[conn] = true
	t.clientsMutex.Unlock()

	// Drain reads until the client goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				t.clientsMutex.Lock()
				delete(t.clients, conn)
				t.clientsMutex.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

// Send broadcasts the event to every connected client. Terminal state
// events always go out; intermediate progress is rate limited.
func (t *WebSocketTransport) Send(ev Event) error {
	t.clientsMutex.Lock()
	now := time.Now()
	if ev.Type == "progress" && now.Sub(t.lastSend) < t.minSendInterval {
		t.clientsMutex.Unlock()
		return nil
	}
	t.lastSend = now
	t.clientsMutex.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	t.clientsMutex.Lock()
	for client := range t.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			client.Close()
			delete(t.clients, client)
		}
	}
	t.clientsMutex.Unlock()
	return nil
}

// Close shuts down the server and disconnects all clients. Idempotent.
func (t *WebSocketTransport) Close() error {
	t.clientsMutex.Lock()
	for client := range t.clients {
		client.Close()
		delete(t.clients, client)
	}
	t.clientsMutex.Unlock()
	if t.server != nil {
		return t.server.Close()
	}
	return nil
}

var _ Transport = (*WebSocketTransport)(nil)
