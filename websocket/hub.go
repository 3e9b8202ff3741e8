package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

type Client struct {
	Hub            *Hub
	Conn           *websocket.Conn
	Send           chan []byte
	SessionID      string
	MessageHandler func(*Client, []byte) // Set by the transport handler before ReadPump starts
	CloseHandler   func(*Client)

	mu      sync.RWMutex
	strikes int
}

// Frame is the wire message exchanged with the assessment frontend. Incoming
// frames carry candidate input; outgoing frames carry agent responses, stage
// updates, and transcriptions.
type Frame struct {
	Type        string `json:"type"` // "message", "audio", "end", "ready", "typing", "response", "transcription", "status", "stage_change", "error", "session_ended"
	Content     string `json:"content,omitempty"`
	Message     string `json:"message,omitempty"`
	Agent       string `json:"agent,omitempty"`
	Stage       string `json:"stage,omitempty"`
	Text        string `json:"text,omitempty"`
	AudioBase64 string `json:"audio_base64,omitempty"`
	AvatarState string `json:"avatar_state,omitempty"` // "idle", "listening", "thinking", "speaking"
	IsComplete  bool   `json:"is_complete,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			slog.Info("Client registered", "session_id", client.SessionID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			if client.CloseHandler != nil {
				client.CloseHandler(client)
			}
			slog.Info("Client unregistered", "session_id", client.SessionID)
		}
	}
}

// RegisterClient attaches a connection to the hub for an existing assessment
// session.
func (h *Hub) RegisterClient(conn *websocket.Conn, sessionID string) *Client {
	client := &Client{
		Hub:       h,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		SessionID: sessionID,
	}

	h.register <- client
	return client
}

// SessionClients returns the connected clients for a session.
func (h *Hub) SessionClients(sessionID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Client
	for client := range h.clients {
		if client.SessionID == sessionID {
			out = append(out, client)
		}
	}
	return out
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(10 * 1024 * 1024) // 10MB limit for large audio recordings
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err, "session_id", c.SessionID)
			}
			break
		}

		if c.MessageHandler != nil {
			// Handlers serialize per session through the turn pipeline, so a
			// goroutine per frame keeps the read loop responsive to pings.
			go c.MessageHandler(c, messageBytes)
		} else {
			slog.Warn("No message handler attached", "session_id", c.SessionID)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendFrame marshals and queues an outgoing frame. Frames to a slow client
// are dropped with the connection rather than blocking the turn pipeline.
func (c *Client) SendFrame(frame Frame) {
	frame.SessionID = c.SessionID
	data, err := json.Marshal(frame)
	if err != nil {
		slog.Error("Failed to marshal frame", "error", err, "type", frame.Type)
		return
	}

	select {
	case c.Send <- data:
	default:
		slog.Warn("Client send buffer full, dropping frame", "session_id", c.SessionID, "type", frame.Type)
	}
}

// Strikes reports how many consecutive empty inputs the client has sent.
func (c *Client) Strikes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.strikes
}

// AddStrike increments the empty-input counter and returns the new count.
func (c *Client) AddStrike() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strikes++
	return c.strikes
}

// ResetStrikes clears the empty-input counter after a meaningful input.
func (c *Client) ResetStrikes() {
	c.mu.Lock()
	c.strikes = 0
	c.mu.Unlock()
}
