package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 8 << 10
)

// Hub tracks live WebSocket connections and the room each one is watching.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection            // connection_id -> connection
	rooms       map[uuid.UUID]map[uuid.UUID]struct{} // room_id -> connection_ids
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*Connection),
		rooms:       make(map[uuid.UUID]map[uuid.UUID]struct{}),
		logger:      logger,
	}
}

// RegisterConnection adds a connection under its ID.
func (h *Hub) RegisterConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[conn.ID()] = conn
	activeConnections.Inc()
	h.logger.Debug().Str("connection_id", conn.ID().String()).Msg("connection registered")
}

// UnregisterConnection closes and forgets a connection.
func (h *Hub) UnregisterConnection(connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, exists := h.connections[connID]
	if !exists {
		return
	}
	conn.Close()
	delete(h.connections, connID)
	activeConnections.Dec()
	for roomID, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.logger.Debug().Str("connection_id", connID.String()).Msg("connection unregistered")
}

// JoinRoom records that a connection is watching roomID. A connection watches
// at most one room.
func (h *Hub) JoinRoom(roomID, connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, members := range h.rooms {
		if id == roomID {
			continue
		}
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, id)
		}
	}
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[uuid.UUID]struct{})
		h.rooms[roomID] = members
	}
	members[connID] = struct{}{}
}

// LeaveRoom removes a connection from a room.
func (h *Hub) LeaveRoom(roomID, connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[roomID]
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// RoomConnections reports how many connections are watching roomID.
func (h *Hub) RoomConnections(roomID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// BroadcastAll sends a message to every connected client.
func (h *Hub) BroadcastAll(msg Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var firstErr error
	for connID, conn := range h.connections {
		if err := conn.Send(msg); err != nil && firstErr == nil {
			firstErr = err
			h.logger.Warn().Err(err).Str("connection_id", connID.String()).Msg("broadcast_all_send_failed")
		}
	}
	return firstErr
}

// SendTo delivers a message to one connection.
func (h *Hub) SendTo(connID uuid.UUID, msg Message) error {
	h.mu.RLock()
	conn, exists := h.connections[connID]
	h.mu.RUnlock()

	if !exists {
		return ErrConnectionNotFound
	}
	return conn.Send(msg)
}

// Count reports the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// CloseAll closes every connection.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.connections {
		conn.Close()
		delete(h.connections, id)
		activeConnections.Dec()
	}
	h.rooms = make(map[uuid.UUID]map[uuid.UUID]struct{})
}

// wsConn is the subset of *websocket.Conn a Connection uses.
type wsConn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	ReadJSON(v any) error
	WriteJSON(v any) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Connection represents a WebSocket connection with send queue.
type Connection struct {
	id     uuid.UUID
	conn   wsConn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return newConnection(conn, logger)
}

func newConnection(conn wsConn, logger zerolog.Logger) *Connection {
	id := uuid.New()
	return &Connection{
		id:     id,
		conn:   conn,
		sendCh: make(chan Message, 256),
		logger: logger.With().Str("connection_id", id.String()).Logger(),
	}
}

// ID identifies the connection within the hub.
func (c *Connection) ID() uuid.UUID {
	return c.id
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		droppedMessages.Inc()
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	_ = c.conn.Close()
}

// WritePump sends queued messages and keeps the connection alive with pings.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warn().Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump receives messages and calls the handler until the peer goes away.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			break
		}

		if err := handler(msg); err != nil {
			c.logger.Warn().Err(err).Str("type", msg.Type).Msg("message handler error")
		}
	}
}

var (
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "Connection not found"}
	ErrConnectionClosed   = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull      = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
