package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"donation-form/internal/form"
	"donation-form/internal/notify"
	"donation-form/internal/ratelimit"
	"donation-form/internal/render"
	"donation-form/internal/session"
	"donation-form/internal/validation"
	ws "donation-form/internal/websocket"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type testEnv struct {
	router *gin.Engine
	store  *session.Store
	tokens *session.Tokens
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	renderer, err := render.NewRenderer(render.PanelContent{BankName: "Banco do Brasil", PixKey: "doacoes@example.org"})
	require.NoError(t, err)

	limiter := ratelimit.NewMemory(ratelimit.DefaultCooldown)
	hub := ws.NewHub()
	opts := session.Options{
		SubmitDelay:   time.Hour,
		ErrorFade:     time.Hour,
		MessageTTL:    time.Hour,
		AnnounceDelay: time.Hour,
	}
	store := session.NewStore(validation.MustDefaultRules(), session.Deps{
		Renderer:  renderer,
		Limiter:   limiter,
		Publisher: hub,
	}, opts, time.Hour)
	notifier := notify.NewCenter(hub, session.KindNotification, time.Hour)
	tokens := session.NewTokens("test-secret", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	storeDone := make(chan struct{})
	go func() { _ = hub.Run(ctx); close(hubDone) }()
	go func() { _ = store.Run(ctx); close(storeDone) }()
	t.Cleanup(func() {
		cancel()
		<-hubDone
		<-storeDone
		notifier.Stop()
		limiter.Close()
	})

	return &testEnv{
		router: NewRouter(RouterDeps{
			Sessions:    store,
			Tokens:      tokens,
			Hub:         hub,
			Notifier:    notifier,
			CORSOrigins: []string{"*"},
		}),
		store:  store,
		tokens: tokens,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type sessionResponse struct {
	SessionID string      `json:"session_id"`
	Token     string      `json:"token"`
	View      render.View `json:"view"`
}

type viewResponse struct {
	Outcome session.Outcome `json:"outcome"`
	View    render.View     `json:"view"`
}

func (e *testEnv) open(t *testing.T) sessionResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/form/sessions", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) viewResponse {
	t.Helper()
	var resp viewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestDonationFlow(t *testing.T) {
	env := newTestEnv(t)
	s := env.open(t)

	assert.NotEmpty(t, s.SessionID)
	assert.Equal(t, 1, s.View.Step)
	assert.Equal(t, form.PhaseIncomplete, s.View.Phase)
	assert.Len(t, s.View.AmountButtons, 4)

	rec := env.do(t, http.MethodPost, "/api/form/amount/preset", s.Token, gin.H{"amount": 50})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decodeView(t, rec).View.Step)

	rec = env.do(t, http.MethodPost, "/api/form/payment", s.Token, gin.H{"method": "pix"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decodeView(t, rec).View
	assert.Equal(t, 3, v.Step)
	assert.Contains(t, v.PaymentPanel, "doacoes@example.org")

	rec = env.do(t, http.MethodPost, "/api/form/donor/name", s.Token, gin.H{"value": "Maria Silva"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/form/donor/email", s.Token, gin.H{"value": "maria@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	v = decodeView(t, rec).View
	assert.Equal(t, 4, v.Step)
	assert.True(t, v.IsValid)
	assert.Equal(t, form.PhaseReady, v.Phase)

	rec = env.do(t, http.MethodPost, "/api/form/submit", s.Token, nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	resp := decodeView(t, rec)
	assert.Equal(t, session.OutcomeAccepted, resp.Outcome)
	assert.Equal(t, form.PhaseSubmitting, resp.View.Phase)
	assert.True(t, resp.View.DonateButton.Disabled)

	// Still in flight.
	rec = env.do(t, http.MethodPost, "/api/form/submit", s.Token, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, session.OutcomeCooldown, decodeView(t, rec).Outcome)
}

func TestSubmitIncomplete(t *testing.T) {
	env := newTestEnv(t)
	s := env.open(t)

	rec := env.do(t, http.MethodPost, "/api/form/submit", s.Token, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeView(t, rec)
	assert.Equal(t, session.OutcomeIncomplete, resp.Outcome)
	assert.Contains(t, resp.View.Message, form.MsgIncomplete)
}

func TestCustomAmount(t *testing.T) {
	env := newTestEnv(t)
	s := env.open(t)

	rec := env.do(t, http.MethodPost, "/api/form/amount/custom", s.Token, gin.H{"value": "2"})
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeView(t, rec).View
	assert.Equal(t, "error", v.CustomAmount.Class)
	assert.Equal(t, "Doação abaixo do valor mínimo R$5,00", v.CustomAmount.Error.Text)
	assert.True(t, v.CustomAmount.Error.Visible)

	rec = env.do(t, http.MethodPost, "/api/form/amount/custom", s.Token, gin.H{"value": "75"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/form/amount/custom/blur", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decodeView(t, rec).View
	assert.Equal(t, "valid", v.CustomAmount.Class)
	assert.Equal(t, "R$ 75,00", v.CustomAmount.Value)
	assert.Equal(t, 2, v.Step)
}

func TestAuthErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/form", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/form", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/form", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	s := env.open(t)
	rec = env.do(t, http.MethodGet, "/api/form", s.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/form", s.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, env.store.Len())

	rec = env.do(t, http.MethodGet, "/api/form", s.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBadRequests(t *testing.T) {
	env := newTestEnv(t)
	s := env.open(t)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"unknown preset", "/api/form/amount/preset", gin.H{"amount": 7}, http.StatusUnprocessableEntity},
		{"missing preset", "/api/form/amount/preset", gin.H{}, http.StatusBadRequest},
		{"unknown payment method", "/api/form/payment", gin.H{"method": "cash"}, http.StatusBadRequest},
		{"unknown donor field", "/api/form/donor/address", gin.H{"value": "x"}, http.StatusNotFound},
		{"unknown blur field", "/api/form/donor/amount/blur", nil, http.StatusNotFound},
		{"unknown key field", "/api/form/keys/address", gin.H{"key": "a"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, s.Token, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestFilterKey(t *testing.T) {
	env := newTestEnv(t)
	s := env.open(t)

	tests := []struct {
		field   string
		key     string
		allowed bool
	}{
		{"amount", "5", true},
		{"amount", "a", false},
		{"phone", "(", true},
		{"phone", "x", false},
		{"name", "é", true},
		{"name", "1", false},
		{"email", "@", true},
	}

	for _, tt := range tests {
		t.Run(tt.field+"/"+tt.key, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/form/keys/"+tt.field, s.Token, gin.H{"key": tt.key})
			require.Equal(t, http.StatusOK, rec.Code)

			var resp struct {
				Allowed bool `json:"allowed"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.allowed, resp.Allowed)
		})
	}
}

type notificationResponse struct {
	Notification notify.Notification `json:"notification"`
	Fields       []string            `json:"fields"`
}

func TestContact(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/contact", "", gin.H{"name": "Ana", "email": "not-an-email"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var bad notificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bad))
	assert.Equal(t, notify.KindError, bad.Notification.Kind)
	assert.Equal(t, MsgContactIncomplete, bad.Notification.Message)
	assert.ElementsMatch(t, []string{"email", "message"}, bad.Fields)

	rec = env.do(t, http.MethodPost, "/api/contact", "", gin.H{"name": "   ", "email": "a@b.com", "message": "  "})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var blank notificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blank))
	assert.Equal(t, MsgContactIncomplete, blank.Notification.Message)
	assert.ElementsMatch(t, []string{"name", "message"}, blank.Fields)

	rec = env.do(t, http.MethodPost, "/api/contact", "", gin.H{
		"name":    "Ana",
		"email":   "ana@example.com",
		"message": "Gostaria de ser voluntária.",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var ok notificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.Equal(t, notify.KindSuccess, ok.Notification.Kind)
	assert.Equal(t, MsgContactSent, ok.Notification.Message)
	assert.True(t, ok.Notification.Visible)
}

func TestClipboard(t *testing.T) {
	env := newTestEnv(t)
	s := env.open(t)

	rec := env.do(t, http.MethodPost, "/api/site/clipboard", s.Token, gin.H{"ok": true})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp notificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, notify.MsgCopied, resp.Notification.Message)

	rec = env.do(t, http.MethodPost, "/api/site/clipboard", s.Token, gin.H{"ok": false})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, notify.MsgCopyFailed, resp.Notification.Message)
	assert.Equal(t, notify.KindError, resp.Notification.Kind)

	rec = env.do(t, http.MethodPost, "/api/site/clipboard", s.Token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWebSocketReceivesView(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	s := env.open(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + s.Token

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type    string      `json:"type"`
		Payload render.View `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, session.KindView, msg.Type)
	assert.Equal(t, 1, msg.Payload.Step)

	rec := env.do(t, http.MethodPost, "/api/site/clipboard", s.Token, gin.H{"ok": true})
	require.Equal(t, http.StatusOK, rec.Code)

	var note struct {
		Type    string              `json:"type"`
		Payload notify.Notification `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&note))
	assert.Equal(t, session.KindNotification, note.Type)
	assert.Equal(t, notify.MsgCopied, note.Payload.Message)
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
