// Package web serves the PatternLab pages.
package web

import (
	"html/template"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/patternlab/internal/platform/logger"
	"github.com/yungbote/patternlab/internal/web/handlers"
	webMW "github.com/yungbote/patternlab/internal/web/middleware"
)

type RouterConfig struct {
	Log            *logger.Logger
	Templates      *template.Template
	AllowedOrigins []string
	// TracingService enables otelgin spans under this service name.
	TracingService string

	Guard *webMW.SessionGuard

	HealthHandler   *handlers.HealthHandler
	AuthHandler     *handlers.AuthHandler
	HomeHandler     *handlers.HomeHandler
	PracticeHandler *handlers.PracticeHandler
	DailyHandler    *handlers.EditorHandler
	HistoryHandler  *handlers.HistoryHandler
	EventsHandler   *handlers.EventsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(webMW.AttachTraceContext())
	r.Use(webMW.RequestLogger(cfg.Log))
	r.Use(webMW.CORS(cfg.AllowedOrigins))
	if cfg.Templates != nil {
		r.SetHTMLTemplate(cfg.Templates)
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}

	// Auth (public)
	if cfg.AuthHandler != nil {
		public := r.Group("/")
		if cfg.Guard != nil {
			public.Use(cfg.Guard.RedirectIfAuthenticated(handlers.HomePath))
		}
		public.GET("/login", cfg.AuthHandler.LoginForm)
		public.POST("/login", cfg.AuthHandler.Login)
		public.GET("/signup", cfg.AuthHandler.SignupForm)
		public.POST("/signup", cfg.AuthHandler.Signup)
	}

	protected := r.Group("/")
	{
		if cfg.Guard != nil {
			protected.Use(cfg.Guard.RequireSession())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		// Realtime (SSE)
		if cfg.EventsHandler != nil {
			protected.GET("/events", cfg.EventsHandler.Stream)
		}

		if cfg.HomeHandler != nil {
			protected.GET("/", cfg.HomeHandler.Dashboard)
		}

		// Practice
		if h := cfg.PracticeHandler; h != nil {
			protected.GET("/practice", h.Show)
			protected.GET("/practice/results", h.Results)
			protected.POST("/practice/pattern", h.SelectPattern)
			protected.POST("/practice/language", h.SelectLanguage)
			protected.POST("/practice/code", h.EditCode)
			protected.POST("/practice/generate", h.Generate)
			protected.POST("/practice/submit", h.Submit)
		}

		// Daily challenge
		if h := cfg.DailyHandler; h != nil {
			protected.GET("/daily-challenge", h.Show)
			protected.GET("/daily-challenge/results", h.Results)
			protected.POST("/daily-challenge/pattern", h.SelectPattern)
			protected.POST("/daily-challenge/language", h.SelectLanguage)
			protected.POST("/daily-challenge/code", h.EditCode)
			protected.POST("/daily-challenge/submit", h.Submit)
		}

		// History
		if cfg.HistoryHandler != nil {
			protected.GET("/challenges", cfg.HistoryHandler.List)
			protected.GET("/challenges/:id/submission", cfg.HistoryHandler.Submission)
		}
	}

	return r
}
