package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	coredatabase "partybot/core/database"
	"partybot/core/logger"
	coretelegram "partybot/core/telegram"
	"partybot/internal/api"
	"partybot/internal/bot"
	"partybot/internal/storage"

	"log/slog"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := bot.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("api: failed to load config: %v", err)
	}
	if err := logger.InitLogger(&cfg.Core); err != nil {
		log.Fatalf("api: logger init failed: %v", err)
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	db, err := coredatabase.Connect(cfg.Database)
	if err != nil {
		logger.API.Error("database connect failed",
			slog.String("event", "startup"),
			slog.String("err", err.Error()),
		)
		os.Exit(1)
	}
	defer db.Close()

	app := api.NewApp(api.Options{
		Gateway:   storage.New(db),
		Photos:    api.NewPhotoProxy(cfg.Core.Telegram.Token, coretelegram.BuildHTTPClient()),
		StaticDir: cfg.Storage.PostersDir,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.API.Info("shutting down...",
			slog.String("event", "shutdown"),
		)
		_ = app.Shutdown()
	}()

	logger.API.Info("listening",
		slog.String("event", "startup"),
		slog.String("listen", cfg.API.Listen),
	)
	if err := app.Listen(cfg.API.Listen); err != nil {
		logger.API.Error("server stopped",
			slog.String("event", "shutdown"),
			slog.String("err", err.Error()),
		)
		os.Exit(1)
	}
}
