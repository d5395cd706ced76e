package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"donation-form/internal/middleware"
	"donation-form/internal/notify"
	"donation-form/internal/session"
)

// SessionHandler opens and closes form sessions.
type SessionHandler struct {
	Sessions *session.Store
	Tokens   *session.Tokens
	Notifier *notify.Center
}

func NewSessionHandler(sessions *session.Store, tokens *session.Tokens, notifier *notify.Center) *SessionHandler {
	return &SessionHandler{Sessions: sessions, Tokens: tokens, Notifier: notifier}
}

// Create is called once per page load. The token it returns authorizes the
// form requests and the websocket of this page view.
func (h *SessionHandler) Create(c *gin.Context) {
	ctrl, view := h.Sessions.Create()

	token, err := h.Tokens.Issue(ctrl.ID())
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue session token")
		h.Sessions.Remove(ctrl.ID())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": ctrl.ID(),
		"token":      token,
		"view":       view,
	})
}

// Close ends the session when the page is left.
func (h *SessionHandler) Close(c *gin.Context) {
	id := c.GetString(middleware.SessionIDKey)
	h.Sessions.Remove(id)
	if h.Notifier != nil {
		h.Notifier.Forget(id)
	}
	c.Status(http.StatusNoContent)
}
