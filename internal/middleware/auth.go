package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"donation-form/internal/models"
	"donation-form/internal/session"
)

const (
	SessionIDKey  = "sessionID"
	ControllerKey = "controller"
)

type TokenParser interface {
	Parse(token string) (sessionID string, err error)
}

type SessionFinder interface {
	Get(id string) (*session.Controller, error)
}

// SessionAuth resolves the bearer token to a live form session.
func SessionAuth(tokens TokenParser, sessions SessionFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get Authorization Header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		sessionID, err := tokens.Parse(parts[1])
		if err != nil {
			log.Debug().Err(err).Msg("Session token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		ctrl, err := sessions.Get(sessionID)
		if err != nil {
			if errors.Is(err, models.ErrSessionNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Form session expired, please reload the page"})
				return
			}
			log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to load form session")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
			return
		}

		c.Set(SessionIDKey, sessionID)
		c.Set(ControllerKey, ctrl)
		c.Next()
	}
}

// Controller returns the session resolved by SessionAuth.
func Controller(c *gin.Context) (*session.Controller, bool) {
	v, exists := c.Get(ControllerKey)
	if !exists {
		return nil, false
	}
	ctrl, ok := v.(*session.Controller)
	return ctrl, ok
}
