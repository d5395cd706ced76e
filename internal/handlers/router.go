package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"donation-form/internal/middleware"
	"donation-form/internal/notify"
	"donation-form/internal/session"
	ws "donation-form/internal/websocket"
)

type RouterDeps struct {
	Sessions    *session.Store
	Tokens      *session.Tokens
	Hub         *ws.Hub
	Notifier    *notify.Center
	CORSOrigins []string
}

func NewRouter(d RouterDeps) *gin.Engine {
	RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	if len(d.CORSOrigins) == 0 || (len(d.CORSOrigins) == 1 && d.CORSOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = d.CORSOrigins
	}
	corsConfig.AddAllowHeaders("Authorization")
	r.Use(cors.New(corsConfig))

	sessionHandler := NewSessionHandler(d.Sessions, d.Tokens, d.Notifier)
	formHandler := NewFormHandler()
	siteHandler := NewSiteHandler(d.Notifier)
	wsHandler := NewWebSocketHandler(d.Hub, d.Tokens, d.Sessions)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/health", siteHandler.Health)
	r.GET("/ws/:token", wsHandler.ServerWs)

	api := r.Group("/api")
	{
		api.POST("/form/sessions", sessionHandler.Create)
		api.POST("/contact", siteHandler.Contact)

		protected := api.Group("/")
		protected.Use(middleware.SessionAuth(d.Tokens, d.Sessions))
		{
			protected.GET("/form", formHandler.GetView)
			protected.DELETE("/form", sessionHandler.Close)

			protected.POST("/form/amount/preset", formHandler.SelectPreset)
			protected.POST("/form/amount/custom", formHandler.InputCustomAmount)
			protected.POST("/form/amount/custom/blur", formHandler.BlurCustomAmount)
			protected.POST("/form/payment", formHandler.SelectPaymentMethod)
			protected.POST("/form/donor/:field", formHandler.InputDonorField)
			protected.POST("/form/donor/:field/blur", formHandler.BlurDonorField)
			protected.POST("/form/keys/:field", formHandler.FilterKey)
			protected.POST("/form/submit", formHandler.Submit)

			protected.POST("/site/clipboard", siteHandler.Clipboard)
		}
	}

	return r
}
