// Package app wires configuration, storage, the session and the web layer
// into a runnable process.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/patternlab/internal/config"
	"github.com/yungbote/patternlab/internal/observability"
	"github.com/yungbote/patternlab/internal/platform/logger"
	"github.com/yungbote/patternlab/internal/realtime"
	"github.com/yungbote/patternlab/internal/session"
	"github.com/yungbote/patternlab/internal/store"
	"github.com/yungbote/patternlab/internal/web"
)

type App struct {
	Log      *logger.Logger
	Cfg      *config.Config
	Store    store.Store
	Sessions *session.Manager
	Hub      *realtime.Hub
	Services Services
	Server   *web.Server

	shutdownTracing func(context.Context) error
	unsubscribe     func()
	closeOnce       sync.Once
}

// New builds the app from the environment. The caller must Close it.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return NewWithConfig(ctx, log, cfg)
}

// NewWithConfig wires every component from cfg.
func NewWithConfig(ctx context.Context, log *logger.Logger, cfg *config.Config) (*App, error) {
	log.Info("starting patternlab", "env", cfg.Env, "api", cfg.API.BaseURL, "storage", cfg.Storage.Driver)

	shutdownTracing := observability.InitTracing(ctx, log, cfg.Tracing, cfg.Env)

	st, err := store.Open(ctx, cfg.Storage, log)
	if err != nil {
		_ = shutdownTracing(ctx)
		log.Sync()
		return nil, fmt.Errorf("open store: %w", err)
	}

	hub := realtime.NewHub(log)
	serviceset, err := wireServices(log, cfg, st)
	if err != nil {
		_ = st.Close()
		_ = shutdownTracing(ctx)
		log.Sync()
		return nil, err
	}
	unsubscribe := forwardExpiry(serviceset, hub)

	templates, err := loadTemplates()
	if err != nil {
		unsubscribe()
		_ = st.Close()
		_ = shutdownTracing(ctx)
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(log, serviceset, hub)
	router := wireRouter(log, cfg, templates, handlerset, wireMiddleware(log, serviceset))
	server := web.NewServer(cfg.HTTP, router, log)
	server.OnShutdown(hub.Close)

	return &App{
		Log:             log,
		Cfg:             cfg,
		Store:           st,
		Sessions:        serviceset.Sessions,
		Hub:             hub,
		Services:        serviceset,
		Server:          server,
		shutdownTracing: shutdownTracing,
		unsubscribe:     unsubscribe,
	}, nil
}

// forwardExpiry pushes every expiry notice to open pages.
func forwardExpiry(s Services, hub *realtime.Hub) func() {
	text := s.Messages.Text("session.expired_notice")
	return s.Sessions.Subscribe(func(n session.Notice) {
		hub.Broadcast(realtime.Message{
			Event:    realtime.EventSessionExpired,
			Redirect: "/login",
			Text:     text,
			Data:     map[string]any{"reason": string(n.Reason), "epoch": n.Epoch},
		})
	})
}

// Run restores any persisted session, starts the expiry watcher and serves
// until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	if err := a.Sessions.Restore(ctx); err != nil {
		a.Log.Warn("restore session failed", "error", err)
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go a.Sessions.Watch(watchCtx, a.Cfg.Session.CheckInterval.Duration)

	return a.Server.Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.closeOnce.Do(func() {
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
		if a.Hub != nil {
			a.Hub.Close()
		}
		if a.Store != nil {
			if err := a.Store.Close(); err != nil {
				a.Log.Warn("close store failed", "error", err)
			}
		}
		if a.shutdownTracing != nil {
			if err := a.shutdownTracing(context.Background()); err != nil {
				a.Log.Warn("tracing shutdown failed", "error", err)
			}
		}
		a.Log.Sync()
	})
}
