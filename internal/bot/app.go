// Package bot wires the Telegram application: configuration, services,
// handlers and the weekly scheduler.
package bot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"partybot/core/bootstrap"
	"partybot/core/logger"
	coretelegram "partybot/core/telegram"
	"partybot/core/telegram/router"
	"partybot/internal/broadcast"
	"partybot/internal/carousel"
	"partybot/internal/media"
	"partybot/internal/membership"
	"partybot/internal/registration"
	"partybot/internal/session"
	"partybot/internal/storage"
	"partybot/internal/wizard"
)

// App is the assembled bot application.
type App struct {
	cfg      *Config
	store    *storage.Store
	sessions *session.Store
	media    *media.Store
	loc      *time.Location

	reg     *registration.Service
	wiz     *wizard.Service
	car     *carousel.Service
	bcast   *broadcast.Service
	members *membership.Checker
	sched   *broadcast.Scheduler

	botRef atomic.Pointer[tele.Bot]

	// flowLocks serializes dialogue updates per user. Telebot handles every
	// update in its own goroutine, so without it two quick messages could
	// both observe the same step before either submission lands.
	flowLocks sync.Map // int64 -> *sync.Mutex
}

// New bootstraps infrastructure and assembles the application.
func New(cfg *Config) (*App, error) {
	boot, err := bootstrap.Run(bootstrap.Options{
		Config:   &cfg.Core,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	mediaStore, err := media.NewStore(cfg.Storage.PostersDir)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		store:    storage.New(boot.DB),
		sessions: session.NewStore(cfg.Core.Telegram.AdminIDs()),
		media:    mediaStore,
		loc:      loc,
	}

	a.reg = registration.New(a.store, a.sessions)
	a.wiz = wizard.New(a.store, a.media, a.sessions)
	a.car = carousel.New(a.store, a.media, a.sessions)
	a.bcast = broadcast.New(a.sessions, a.store, &notifier{app: a}, broadcast.Options{
		ReengageText:  cfg.Broadcast.ReengageText,
		MissThreshold: cfg.Broadcast.MissThreshold,
	})
	a.members = membership.NewChecker(lazyChatAPI{app: a}, membership.Targets{
		Channel:  cfg.Channels.Channel,
		Channel2: cfg.Channels.Channel2,
		Chat:     cfg.Channels.Chat,
	})

	a.sched = broadcast.NewScheduler(
		time.Weekday(cfg.Broadcast.Weekday),
		cfg.Broadcast.Hour,
		cfg.Broadcast.Minute,
		loc,
	)
	a.sched.Add("weekly_broadcast", a.runWeeklyBroadcast)
	a.sched.Add("reengage", a.runReengage)

	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := bootstrap.RunSeeders(seedCtx, boot.DB, bootstrap.SeederFunc(a.seed)); err != nil {
		return nil, err
	}

	return a, nil
}

// seed warms the session caches from storage at startup.
func (a *App) seed(ctx context.Context, _ *sqlx.DB) error {
	ids, err := a.store.ListAllUserIDs(ctx)
	if err != nil {
		return err
	}
	a.sessions.SetKnownUsers(ids)

	posters, err := a.store.ListActivePosters(ctx)
	if err != nil {
		return err
	}
	a.sessions.SetPosters(posters)

	logger.SEED.Info("caches warmed",
		slog.String("event", "seed"),
		slog.Int("known_users", len(ids)),
		slog.Int("posters", len(posters)),
	)
	return nil
}

// TelegramRunOptions builds the run options consumed by the shared runner.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	a.registerCallbacks(reg)
	reg.SetCallbackNotFound(a.UnknownCallback())

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		IsAdmin: a.sessions.IsAdmin,
		OnAdminReject: func(c tele.Context) error {
			return c.Send(textNotPermitted)
		},
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(flowRouter{app: a}, reg, router.TextOptions{
		UnknownText:  a.UnknownText(),
		UnknownPhoto: a.UnknownPhoto(),
	})...)

	return coretelegram.RunOptions{
		Config:      &a.cfg.Core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Core, nil),
		Routes:      routes,
		OnStart:     a.onStart,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	a.botRef.Store(rt.Bot)
	go a.sched.Run(ctx)
	return nil
}

func (a *App) bot() *tele.Bot {
	return a.botRef.Load()
}

func (a *App) runWeeklyBroadcast(ctx context.Context) {
	rep, ok := a.bcast.BroadcastLatest(ctx)
	if !ok {
		return
	}
	a.notifyAdmin(fmt.Sprintf(
		"Weekly broadcast finished: %d sent, %d blocked, %d failed.",
		rep.Sent, rep.Blocked, rep.Failed,
	))
}

func (a *App) runReengage(ctx context.Context) {
	rep := a.bcast.Reengage(ctx, time.Now().In(a.loc))
	if rep.Sent == 0 && rep.Failed == 0 {
		return
	}
	a.notifyAdmin(fmt.Sprintf(
		"Re-engagement finished: %d nudged, %d failed.",
		rep.Sent, rep.Failed,
	))
}

func (a *App) notifyAdmin(text string) {
	bot := a.bot()
	adminID := a.cfg.Core.Telegram.AdminID
	if bot == nil || adminID == 0 {
		return
	}
	if _, err := bot.Send(tele.ChatID(adminID), text); err != nil {
		logger.SVCBroadcast.Warn("admin.notify_failed",
			slog.String("event", "notify"),
			slog.Int64("user_id", adminID),
			slog.String("err", err.Error()),
		)
	}
}

// lazyChatAPI defers bot resolution because the bot instance only exists
// once the runner has started.
type lazyChatAPI struct {
	app *App
}

func (l lazyChatAPI) ChatByUsername(name string) (*tele.Chat, error) {
	bot := l.app.bot()
	if bot == nil {
		return nil, fmt.Errorf("bot: not started yet")
	}
	return bot.ChatByUsername(name)
}

func (l lazyChatAPI) ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error) {
	bot := l.app.bot()
	if bot == nil {
		return nil, fmt.Errorf("bot: not started yet")
	}
	return bot.ChatMemberOf(chat, user)
}
