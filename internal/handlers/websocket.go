package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"donation-form/internal/session"
	ws "donation-form/internal/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler connects a page to the deferred updates of its session.
type WebSocketHandler struct {
	Hub      *ws.Hub
	Tokens   *session.Tokens
	Sessions *session.Store
}

func NewWebSocketHandler(hub *ws.Hub, tokens *session.Tokens, sessions *session.Store) *WebSocketHandler {
	return &WebSocketHandler{Hub: hub, Tokens: tokens, Sessions: sessions}
}

func (h *WebSocketHandler) ServerWs(c *gin.Context) {
	sessionID, err := h.Tokens.Parse(c.Param("token"))
	if err != nil {
		log.Debug().Err(err).Msg("Invalid websocket token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	ctrl, err := h.Sessions.Get(sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Form session expired, please reload the page"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to upgrade to websocket")
		return
	}

	client := &ws.Client{
		Hub:       h.Hub,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		SessionID: sessionID,
	}
	client.Hub.Register(client)

	// Bring a reconnecting page up to date.
	h.Hub.Publish(sessionID, session.KindView, ctrl.View())

	go h.writePump(client)
	go h.readPump(client)
}

func (h *WebSocketHandler) writePump(client *ws.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the connection going away; the page talks to
// the server over HTTP.
func (h *WebSocketHandler) readPump(client *ws.Client) {
	defer func() {
		client.Hub.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("session_id", client.SessionID).Msg("Websocket read error")
			}
			break
		}
	}
}
