package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"donation-form/internal/middleware"
	"donation-form/internal/models"
	"donation-form/internal/session"
	"donation-form/internal/validation"
)

// FormHandler forwards the page's DOM events to its form session. Every
// reply carries the view the page must apply.
type FormHandler struct{}

func NewFormHandler() *FormHandler {
	return &FormHandler{}
}

type PresetRequest struct {
	Amount json.Number `json:"amount" binding:"required"`
}

// ValueRequest carries the full current value of an input. Empty is valid.
type ValueRequest struct {
	Value string `json:"value"`
}

type PaymentRequest struct {
	Method string `json:"method" binding:"required,payment_method"`
}

type KeyRequest struct {
	Key string `json:"key" binding:"required"`
}

func (h *FormHandler) GetView(c *gin.Context) {
	ctrl, ok := controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": ctrl.View()})
}

func (h *FormHandler) SelectPreset(c *gin.Context) {
	ctrl, ok := controller(c)
	if !ok {
		return
	}

	var req PresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}

	view, err := ctrl.SelectPreset(amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": view})
}

func (h *FormHandler) InputCustomAmount(c *gin.Context) {
	ctrl, ok := controller(c)
	if !ok {
		return
	}

	var req ValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": ctrl.InputCustomAmount(req.Value)})
}

func (h *FormHandler) BlurCustomAmount(c *gin.Context) {
	ctrl, ok := controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": ctrl.BlurCustomAmount()})
}

func (h *FormHandler) SelectPaymentMethod(c *gin.Context) {
	ctrl, ok := controller(c)
	if !ok {
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	// payment_method already checked the value.
	method, _ := models.ParsePaymentMethod(req.Method)

	c.JSON(http.StatusOK, gin.H{"view": ctrl.SelectPaymentMethod(method)})
}

func (h *FormHandler) InputDonorField(c *gin.Context) {
	ctrl, ok := controller(c)
	if !ok {
		return
	}

	var req ValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	view, err := ctrl.InputDonorField(models.Field(c.Param("field")), req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": view})
}

func (h *FormHandler) BlurDonorField(c *gin.Context) {
	ctrl, ok := controller(c)
	if !ok {
		return
	}

	view, err := ctrl.BlurDonorField(models.Field(c.Param("field")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": view})
}

// FilterKey tells the page whether a keystroke may reach the field.
func (h *FormHandler) FilterKey(c *gin.Context) {
	field, err := models.ParseField(c.Param("field"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req KeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"allowed": validation.AllowKey(field, req.Key)})
}

func (h *FormHandler) Submit(c *gin.Context) {
	ctrl, ok := controller(c)
	if !ok {
		return
	}

	outcome, view := ctrl.Submit(c.Request.Context(), session.SubmitInput{
		UserAgent: c.Request.UserAgent(),
	})
	c.JSON(submitStatus(outcome), gin.H{"outcome": outcome, "view": view})
}

func submitStatus(o session.Outcome) int {
	switch o {
	case session.OutcomeAccepted:
		return http.StatusAccepted
	case session.OutcomeCooldown:
		return http.StatusTooManyRequests
	default:
		return http.StatusUnprocessableEntity
	}
}

// controller fetches the session SessionAuth put in the context.
func controller(c *gin.Context) (*session.Controller, bool) {
	ctrl, ok := middleware.Controller(c)
	if !ok {
		log.Error().Msg("Form session not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error: session not found"})
		return nil, false
	}
	return ctrl, true
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrUnknownPreset):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Amount is not one of the preset values"})
	case errors.Is(err, models.ErrUnknownField):
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown form field"})
	case errors.Is(err, models.ErrUnknownPaymentMethod):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown payment method"})
	case errors.Is(err, models.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Form session expired, please reload the page"})
	default:
		log.Error().Err(err).Msg("Unexpected form error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
	}
}
