package websocket

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	SessionID string
}

// Envelope is one message pushed to a form session.
type Envelope struct {
	SessionID string `json:"-"`
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
}

// Hub routes envelopes to the browser of each form session. A session has at
// most one client; a newer connection replaces the older one.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Envelope
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Envelope, 256),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues a message for sessionID. Messages for sessions without a
// connected client are dropped.
func (h *Hub) Publish(sessionID, kind string, payload any) {
	select {
	case h.broadcast <- Envelope{SessionID: sessionID, Type: kind, Payload: payload}:
	case <-h.done:
	}
}

// Run serves the hub until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer func() {
		close(h.done)
		for id, client := range h.clients {
			close(client.Send)
			delete(h.clients, id)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.register:
			if old, ok := h.clients[client.SessionID]; ok && old != client {
				close(old.Send)
			}
			h.clients[client.SessionID] = client
			log.Debug().Str("session_id", client.SessionID).Msg("WebSocket client registered")

		case client := <-h.unregister:
			if cur, ok := h.clients[client.SessionID]; ok && cur == client {
				delete(h.clients, client.SessionID)
				close(client.Send)
				log.Debug().Str("session_id", client.SessionID).Msg("WebSocket client unregistered")
			}

		case env := <-h.broadcast:
			client, ok := h.clients[env.SessionID]
			if !ok {
				continue
			}

			data, err := json.Marshal(env)
			if err != nil {
				log.Error().Err(err).Str("type", env.Type).Msg("Failed to marshal websocket message")
				continue
			}

			select {
			case client.Send <- data:
			default:
				log.Warn().Str("session_id", env.SessionID).Msg("WebSocket client too slow, dropping connection")
				close(client.Send)
				delete(h.clients, env.SessionID)
			}
		}
	}
}
