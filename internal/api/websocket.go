package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"midiautomate/internal/protocol"
	"midiautomate/internal/runner"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

// WSManager handles WebSocket connections and broadcasting
type WSManager struct {
	server     *Server
	clients    map[*WebSocketClient]bool
	clientsMu  sync.RWMutex
	broadcast  chan protocol.Message
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	shutdown   chan struct{}
}

// WebSocketClient represents a connected status viewer
type WebSocketClient struct {
	manager *WSManager
	conn    *websocket.Conn
	send    chan []byte
	ip      string
}

func newWSManager(s *Server) *WSManager {
	return &WSManager{
		server:     s,
		clients:    make(map[*WebSocketClient]bool),
		broadcast:  make(chan protocol.Message, 256),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
		shutdown:   make(chan struct{}),
	}
}

func (m *WSManager) start() {
	for {
		select {
		case client := <-m.register:
			m.clientsMu.Lock()
			m.clients[client] = true
			m.clientsMu.Unlock()

			// New clients start from the current state
			snapshot, _ := json.Marshal(protocol.Message{Type: protocol.TypeState, Payload: m.server.statusPayload()})
			client.send <- snapshot

		case client := <-m.unregister:
			m.clientsMu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
			}
			m.clientsMu.Unlock()

		case message := <-m.broadcast:
			m.broadcastMessage(message)

		case <-m.shutdown:
			return
		}
	}
}

func (m *WSManager) broadcastMessage(message protocol.Message) {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		log.Printf("WS: Failed to marshal broadcast message: %v", err)
		return
	}

	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()

	for client := range m.clients {
		select {
		case client.send <- jsonMsg:
		default:
			close(client.send)
			delete(m.clients, client)
		}
	}
}

// forward converts runner events into stream messages
func (m *WSManager) forward(ev runner.Event) {
	var msg protocol.Message
	switch ev.Kind {
	case runner.EventProgress:
		msg = protocol.Message{Type: protocol.TypeProgress, Payload: protocol.ProgressPayload{Text: ev.Text}}
	case runner.EventDone:
		msg = protocol.Message{Type: protocol.TypeOutcome, Payload: protocol.NewOutcome(ev.Outcome)}
	case runner.EventState:
		p := m.server.statusPayload()
		p.State = string(ev.State)
		msg = protocol.Message{Type: protocol.TypeState, Payload: p}
	default:
		return
	}
	m.broadcast <- msg
}

func (m *WSManager) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WS: Failed to upgrade connection: %v", err)
		return
	}

	client := &WebSocketClient{
		manager: m,
		conn:    conn,
		send:    make(chan []byte, 256),
		ip:      r.RemoteAddr,
	}

	// Register client
	m.register <- client

	// Start pump goroutines
	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.manager.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS: Read error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(50 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WebSocketClient) handleMessage(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("WS: Invalid message format: %v", err)
		return
	}

	switch msg.Type {
	case protocol.TypeAbort:
		log.Printf("WS: Received abort from %s", c.ip)
		c.manager.server.runner.Abort()
	}
}
