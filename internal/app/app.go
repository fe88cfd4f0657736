// Package app assembles the bot: configuration in, a runnable Telegram
// application out.
package app

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/photobot/core/bootstrap"
	tg "github.com/m3rciful/photobot/core/telegram"
	"github.com/m3rciful/photobot/core/telegram/middleware"
	"github.com/m3rciful/photobot/core/telegram/router"
	"github.com/m3rciful/photobot/core/telegram/state"
	"github.com/m3rciful/photobot/internal/archive"
	"github.com/m3rciful/photobot/internal/config"
	"github.com/m3rciful/photobot/internal/dialog"
	"github.com/m3rciful/photobot/internal/disk"
	"github.com/m3rciful/photobot/internal/journal"
	"github.com/m3rciful/photobot/internal/search"
	"github.com/m3rciful/photobot/internal/staging"
)

// App holds the assembled components of the bot.
type App struct {
	cfg        *config.Config
	db         *sqlx.DB
	sessions   *state.Manager[dialog.Payload]
	controller *dialog.Controller
}

// New runs the bootstrap pipeline (logger, optional database with
// migrations) and wires the application graph.
func New(cfg *config.Config) (*App, error) {
	boot, err := bootstrap.Run(bootstrap.Options{
		Config:       cfg.CoreConfig(),
		WithDatabase: cfg.Journal.Enabled,
		Database:     cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	diskClient := disk.NewClient(disk.Options{
		Token:   cfg.Disk.Token,
		BaseURL: cfg.Disk.BaseURL,
	})

	store, err := staging.NewStore(cfg.Staging.Dir)
	if err != nil {
		return nil, err
	}

	var (
		recorder archive.Recorder
		jrnl     dialog.Journal
	)
	if boot.DB != nil {
		js := journal.NewStore(boot.DB)
		recorder = archive.RecorderFunc(js.Record)
		jrnl = js
	}

	svc := archive.NewService(archive.Options{
		Disk:     diskClient,
		Staging:  store,
		Recorder: recorder,
		Root:     cfg.Disk.Root,
	})

	engine := search.New(diskClient, search.Options{
		MaxDepth: cfg.Search.MaxDepth,
		CacheTTL: cfg.Search.CacheTTL(),
	})

	sessions := state.NewManager[dialog.Payload]()
	controller := dialog.NewController(dialog.Options{
		Config:   cfg,
		Sessions: sessions,
		Archive:  svc,
		Finder:   engine,
		Journal:  jrnl,
	})

	return &App{
		cfg:        cfg,
		db:         boot.DB,
		sessions:   sessions,
		controller: controller,
	}, nil
}

// TelegramRunOptions builds the bot wiring: registry, middleware chain,
// and routes for commands, callbacks, and conversation messages.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	a.controller.Register(reg)

	mws := tg.DefaultMiddlewares(a.cfg.CoreConfig(), nil)
	// Session state is read-modify-write, so updates for one chat must
	// not interleave.
	mws = append(mws, tg.Middleware{
		Name: "serialize",
		Use:  middleware.SerializeByChat(middleware.NewChatSerializer()),
	})

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Core.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.MessageRoutes(a.sessions, reg, router.MessageOptions{
		UnknownText:     a.controller.UnknownText,
		UnknownPhoto:    a.controller.UnknownPhoto,
		UnknownDocument: a.controller.UnknownText,
	})...)

	opts := tg.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: mws,
		Routes:      routes,
	}
	if a.db != nil {
		opts.OnStop = func(context.Context, tg.Runtime) error {
			return a.db.Close()
		}
	}
	return opts, nil
}
