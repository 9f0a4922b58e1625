// Package hub provides connection management for WebSocket subscribers.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/callassist/orchestrator/internal/domain"
)

var (
	// ErrBufferFull is returned when a send buffer is full.
	ErrBufferFull = errors.New("send buffer full")
	// ErrConnectionClosed is returned when sending to an unregistered connection.
	ErrConnectionClosed = errors.New("connection closed")
)

// CallLister supplies the calls replayed to a newly registered connection.
type CallLister interface {
	GetActiveCalls() []domain.Call
}

// Connection represents a single WebSocket connection.
type Connection struct {
	ID string
	// CallID limits the connection to one call; empty receives every call.
	CallID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu     sync.Mutex
	sendMu sync.Mutex
	closed bool

	// replayed holds call ids sent as a call_start snapshot on registration.
	// Only the Run goroutine touches it.
	replayed map[string]bool
}

// Message is one serialized event for fan-out.
type Message struct {
	Type   domain.EventType
	CallID string
	Data   []byte
}

type registration struct {
	conn  *Connection
	calls CallLister
}

// Hub manages all WebSocket connections.
type Hub struct {
	// Connections indexed by connection ID
	connections map[string]*Connection

	// Calls maps call_id to the connections bound to it
	calls map[string]map[string]bool

	register   chan registration
	unregister chan *Connection
	broadcast  chan *Message
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		calls:       make(map[string]map[string]bool),
		register:    make(chan registration),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *Message, 256),
		done:        make(chan struct{}),
	}
}

// Run starts the hub's main loop and closes every connection when ctx ends.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, conn := range h.connections {
				h.remove(id, conn)
			}
			h.mu.Unlock()
			return

		case reg := <-h.register:
			conn := reg.conn
			h.mu.Lock()
			h.connections[conn.ID] = conn
			if conn.CallID != "" {
				if h.calls[conn.CallID] == nil {
					h.calls[conn.CallID] = make(map[string]bool)
				}
				h.calls[conn.CallID][conn.ID] = true
			}
			h.mu.Unlock()
			if reg.calls != nil {
				h.replay(conn, reg.calls)
			}
			log.Printf("Connection registered: %s (call: %s)", conn.ID, conn.CallID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				h.remove(conn.ID, conn)
			}
			h.mu.Unlock()
			log.Printf("Connection unregistered: %s", conn.ID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for id, conn := range h.connections {
				if conn.CallID != "" && conn.CallID != msg.CallID {
					continue
				}
				if conn.skipReplayed(msg) {
					continue
				}
				if err := conn.trySend(msg.Data); err != nil {
					log.Printf("Connection %s buffer full, closing", id)
					go h.Unregister(conn)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// replay sends a call_start snapshot of every active call to conn. It runs on
// the Run goroutine, so the snapshot reaches conn before any later broadcast.
func (h *Hub) replay(conn *Connection, calls CallLister) {
	for _, call := range calls.GetActiveCalls() {
		if conn.CallID != "" && call.ID != conn.CallID {
			continue
		}
		data, err := json.Marshal(domain.NewCallStartEvent(call))
		if err != nil {
			log.Printf("WARN: replay of call %s to %s failed: %v", call.ID, conn.ID, err)
			continue
		}
		if err := conn.trySend(data); err != nil {
			log.Printf("WARN: replay to %s failed: %v", conn.ID, err)
			return
		}
		if conn.replayed == nil {
			conn.replayed = make(map[string]bool)
		}
		conn.replayed[call.ID] = true
	}
}

// remove drops conn from every index. Callers hold h.mu.
func (h *Hub) remove(id string, conn *Connection) {
	delete(h.connections, id)
	if conn.CallID != "" && h.calls[conn.CallID] != nil {
		delete(h.calls[conn.CallID], id)
		if len(h.calls[conn.CallID]) == 0 {
			delete(h.calls, conn.CallID)
		}
	}
	conn.close()
}

// NewConnection creates a new connection, optionally bound to callID.
func (h *Hub) NewConnection(ws *websocket.Conn, callID string) *Connection {
	return &Connection{
		ID:     uuid.New().String(),
		CallID: callID,
		Conn:   ws,
		Send:   make(chan []byte, 256),
	}
}

// Register registers a connection with the hub.
func (h *Hub) Register(conn *Connection) {
	h.RegisterWithReplay(conn, nil)
}

// RegisterWithReplay registers conn and first sends it a call_start snapshot
// of every call calls reports as active.
func (h *Hub) RegisterWithReplay(conn *Connection, calls CallLister) {
	select {
	case h.register <- registration{conn: conn, calls: calls}:
	case <-h.done:
		conn.close()
	}
}

// Unregister unregisters a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Handle queues a bus event for every interested connection. It never blocks.
func (h *Hub) Handle(ev domain.CallEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- &Message{Type: ev.Type, CallID: ev.CallID, Data: data}:
		return nil
	default:
		return ErrBufferFull
	}
}

// SendToConnection sends a message to a specific connection.
func (h *Hub) SendToConnection(conn *Connection, data []byte) error {
	return conn.trySend(data)
}

// GetConnectionCount returns the number of active connections.
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// GetCallCount returns the number of calls with bound connections.
func (h *Hub) GetCallCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.calls)
}

// skipReplayed reports whether msg is a call_start the connection already got
// as a snapshot. Events published before the snapshot can still be queued
// behind it. A call_end clears the mark so a reused id starts fresh.
func (c *Connection) skipReplayed(msg *Message) bool {
	if !c.replayed[msg.CallID] {
		return false
	}
	switch msg.Type {
	case domain.EventTypeCallStart:
		delete(c.replayed, msg.CallID)
		return true
	case domain.EventTypeCallEnd:
		delete(c.replayed, msg.CallID)
	}
	return false
}

func (c *Connection) trySend(data []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.Send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

func (c *Connection) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline for the connection.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
