package app

import (
	"fmt"

	"github.com/yungbote/patternlab/internal/catalog"
	"github.com/yungbote/patternlab/internal/client"
	"github.com/yungbote/patternlab/internal/config"
	"github.com/yungbote/patternlab/internal/draft"
	"github.com/yungbote/patternlab/internal/errmsg"
	"github.com/yungbote/patternlab/internal/platform/logger"
	"github.com/yungbote/patternlab/internal/services"
	"github.com/yungbote/patternlab/internal/session"
	"github.com/yungbote/patternlab/internal/store"
)

type Services struct {
	Sessions *session.Manager
	API      *client.Client
	Catalog  *catalog.Catalog
	Messages *errmsg.Formatter

	Practice *services.PracticeService
	Daily    *services.DailyService
	History  *services.HistoryService
	Home     *services.HomeService
}

func wireServices(log *logger.Logger, cfg *config.Config, st store.Store) (Services, error) {
	log.Info("Wiring services...")

	cat, err := catalog.Default()
	if err != nil {
		return Services{}, fmt.Errorf("load pattern catalog: %w", err)
	}
	msgs, err := errmsg.New(cfg.Locale)
	if err != nil {
		return Services{}, fmt.Errorf("load message catalog: %w", err)
	}

	// The anonymous client serves login and signup; the session-bound copy
	// carries the bearer token and reports 403s back to the session.
	anon, err := client.New(client.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout.Duration,
		Log:     log,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init api client: %w", err)
	}
	sessions := session.NewManager(session.Options{Store: st, Auth: anon, Log: log})
	api := anon.WithSession(sessions, sessions.HandleForbidden)

	drafts := draft.NewRepo(st, log)
	return Services{
		Sessions: sessions,
		API:      api,
		Catalog:  cat,
		Messages: msgs,
		Practice: services.NewPracticeService(api, sessions, drafts, cat, log),
		Daily:    services.NewDailyService(api, sessions, cat, log),
		History:  services.NewHistoryService(api, sessions, log),
		Home:     services.NewHomeService(api, sessions, log),
	}, nil
}
