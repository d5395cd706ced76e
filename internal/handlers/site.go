package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"donation-form/internal/middleware"
	"donation-form/internal/notify"
)

const (
	MsgContactIncomplete = "Por favor, preencha todos os campos obrigatórios."
	MsgContactSent       = "Formulário enviado com sucesso! Entraremos em contato em breve."
)

// SiteHandler serves the parts of the page around the donation form.
type SiteHandler struct {
	Notifier *notify.Center
}

func NewSiteHandler(notifier *notify.Center) *SiteHandler {
	return &SiteHandler{Notifier: notifier}
}

type ClipboardRequest struct {
	OK *bool `json:"ok" binding:"required"`
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required,notblank"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required,notblank,max=2000"`
}

// Clipboard reports whether the browser managed to copy the PIX key. The
// toast is pushed over the websocket and also returned.
func (h *SiteHandler) Clipboard(c *gin.Context) {
	var req ClipboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sessionID := c.GetString(middleware.SessionIDKey)
	n := h.Notifier.CopyResult(sessionID, *req.OK)
	c.JSON(http.StatusOK, gin.H{"notification": n})
}

func (h *SiteHandler) Contact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		n := notify.New(notify.KindError, MsgContactIncomplete)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"notification": n,
			"fields":       invalidFields(err),
		})
		return
	}

	// The message itself is not logged.
	domain := req.Email[strings.LastIndex(req.Email, "@")+1:]
	log.Info().Str("email_domain", domain).Int("length", len(req.Message)).Msg("Contact message received")

	c.JSON(http.StatusOK, gin.H{"notification": notify.New(notify.KindSuccess, MsgContactSent)})
}

func (h *SiteHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func invalidFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fields
}
