package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/exp/slog"

	"sitekeeper/internal/app/client/config"
	"sitekeeper/internal/app/client/outbox"
	"sitekeeper/internal/app/client/transport"
)

// App holds the process-wide client state: one transport, one outbox
// store, one remap table, one reachability monitor and one sync
// engine, created once at startup and shared by the facade and the
// CLI. There are no ambient globals; everything flows through this
// context object.
type App struct {
	config    *config.Config
	log       *slog.Logger
	transport *transport.Client
	store     *outbox.Store
	remap     *outbox.Table
	monitor   *outbox.Monitor
	engine    *outbox.Engine
	cache     *Cache
	facade    *Facade
	notifier  outbox.Notifier

	login string
}

type session struct {
	Login       string `json:"login"`
	AccessToken string `json:"accessToken"`
}

// New creates the application context. A failure to open local
// storage disables offline capability for the session but never
// prevents startup: mutations then fail live with no queueing
// fallback.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	app := &App{
		config:    cfg,
		log:       log,
		transport: transport.New(cfg, log),
		notifier:  ConsoleNotifier{},
		monitor:   outbox.NewMonitor(true),
	}

	store, err := outbox.NewStore(cfg.DatabasePath)
	if err != nil {
		if !errors.Is(err, outbox.ErrStorageUnavailable) {
			return nil, err
		}
		log.Warn("offline capability disabled", "error", err)
	} else {
		app.store = store

		remap, err := outbox.OpenTable(cfg.RemapPath)
		if err != nil {
			return nil, err
		}
		app.remap = remap

		app.cache = NewCache(store.DB(), time.Duration(cfg.CacheTTLHours)*time.Hour)
		app.engine = outbox.NewEngine(store, remap, app.monitor, app.transport, app.notifier, log)
	}

	app.facade = NewFacade(app.transport, app.store, app.engine, app.monitor, app.cache, app.notifier, log)

	if err := app.restoreSession(); err != nil {
		log.Debug("no stored session", "error", err)
	}

	return app, nil
}

// Start probes connectivity and arms the sync engine. When entries
// are already pending and the server is reachable, a drain starts
// immediately.
func (a *App) Start(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.transport.HealthCheck(probeCtx); err != nil {
		a.log.Debug("server unreachable at startup", "error", err)
		a.monitor.SetOnline(false)
	}

	if a.engine != nil {
		a.engine.Start(ctx)
	}
}

func (a *App) Facade() *Facade {
	return a.facade
}

func (a *App) Engine() *outbox.Engine {
	return a.engine
}

func (a *App) Monitor() *outbox.Monitor {
	return a.monitor
}

func (a *App) Store() *outbox.Store {
	return a.store
}

// OfflineCapable reports whether local durable storage is available.
func (a *App) OfflineCapable() bool {
	return a.store != nil
}

// Login authenticates against the server and persists the session.
func (a *App) Login(ctx context.Context, login, password string) error {
	token, err := a.transport.Login(ctx, login, password)
	if err != nil {
		return err
	}

	a.login = login
	a.facade.SetScope(login)

	data, err := json.MarshalIndent(session{Login: login, AccessToken: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	if err := os.WriteFile(a.config.TokenPath, data, 0600); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	return nil
}

// Logout drops the stored session.
func (a *App) Logout() error {
	a.transport.SetToken("")
	a.login = ""
	a.facade.SetScope("")

	if err := os.Remove(a.config.TokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a bearer credential is loaded.
func (a *App) IsAuthenticated() bool {
	return a.transport.Token() != ""
}

// Login name of the acting identity, empty when logged out.
func (a *App) LoginName() string {
	return a.login
}

func (a *App) restoreSession() error {
	data, err := os.ReadFile(a.config.TokenPath)
	if err != nil {
		return err
	}

	var sess session
	if err := json.Unmarshal(data, &sess); err != nil {
		return fmt.Errorf("failed to parse stored session: %w", err)
	}

	a.transport.SetToken(sess.AccessToken)
	a.login = sess.Login
	a.facade.SetScope(sess.Login)
	return nil
}

func (a *App) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Error("failed to close store", "error", err)
		}
	}
}
