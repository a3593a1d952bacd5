package app

import (
	"fmt"
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/patternlab/internal/config"
	"github.com/yungbote/patternlab/internal/platform/logger"
	"github.com/yungbote/patternlab/internal/web"
	webMW "github.com/yungbote/patternlab/internal/web/middleware"
	"github.com/yungbote/patternlab/internal/web/views"
)

type Middleware struct {
	Guard *webMW.SessionGuard
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	return Middleware{Guard: webMW.NewSessionGuard(log, s.Sessions)}
}

func loadTemplates() (*template.Template, error) {
	t, err := views.Parse()
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}
	return t, nil
}

func wireRouter(log *logger.Logger, cfg *config.Config, templates *template.Template, h Handlers, mw Middleware) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	var tracingService string
	if cfg.Tracing.Enabled {
		tracingService = cfg.Tracing.ServiceName
	}
	return web.NewRouter(web.RouterConfig{
		Log:             log,
		Templates:       templates,
		AllowedOrigins:  cfg.HTTP.AllowedOrigins,
		TracingService:  tracingService,
		Guard:           mw.Guard,
		HealthHandler:   h.Health,
		AuthHandler:     h.Auth,
		HomeHandler:     h.Home,
		PracticeHandler: h.Practice,
		DailyHandler:    h.Daily,
		HistoryHandler:  h.History,
		EventsHandler:   h.Events,
	})
}
