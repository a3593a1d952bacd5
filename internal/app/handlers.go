package app

import (
	"github.com/yungbote/patternlab/internal/platform/logger"
	"github.com/yungbote/patternlab/internal/realtime"
	"github.com/yungbote/patternlab/internal/web/handlers"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Home     *handlers.HomeHandler
	Practice *handlers.PracticeHandler
	Daily    *handlers.EditorHandler
	History  *handlers.HistoryHandler
	Events   *handlers.EventsHandler
}

func wireHandlers(log *logger.Logger, s Services, hub *realtime.Hub) Handlers {
	render := handlers.NewRenderer(log, s.Messages, s.Sessions)
	return Handlers{
		Health:   handlers.NewHealthHandler(),
		Auth:     handlers.NewAuthHandler(log, render, s.Messages, s.Sessions, hub),
		Home:     handlers.NewHomeHandler(render, s.Home),
		Practice: handlers.NewPracticeHandler(render, s.Practice, s.Catalog),
		Daily:    handlers.NewDailyHandler(render, s.Daily, s.Catalog),
		History:  handlers.NewHistoryHandler(render, s.History),
		Events:   handlers.NewEventsHandler(log, hub),
	}
}
