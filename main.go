package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmhodges/clock"
	"github.com/joho/godotenv"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"telegram-mood-calendar/internal/config"
	"telegram-mood-calendar/internal/guard"
	"telegram-mood-calendar/internal/handlers"
	"telegram-mood-calendar/internal/messages"
	"telegram-mood-calendar/internal/models"
	"telegram-mood-calendar/internal/scheduler"
	"telegram-mood-calendar/internal/storage"
	"telegram-mood-calendar/internal/store"
	"telegram-mood-calendar/internal/timezone"
	"telegram-mood-calendar/internal/utils"
)

func main() {
	_ = godotenv.Load() // TELEGRAM_BOT_TOKEN etc.

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.Debug)
	utils.Must(err)
	defer logger.Sync()
	log := logger.Sugar()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalw("connect to telegram", "err", err)
	}
	bot.Debug = cfg.Debug
	log.Infow("authorized", "username", bot.Self.UserName)

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalw("open storage", "path", cfg.DBPath, "err", err)
	}
	defer db.Close()

	st := store.New(db, log)
	clk := clock.New()

	tz, err := timezone.NewResolver()
	if err != nil {
		log.Fatalw("load timezone table", "err", err)
	}

	cat := messages.New(cfg.DefaultLocale)

	notifier, err := scheduler.New(bot, st, cat, clk, log, scheduler.Options{
		DefaultTimezone: cfg.DefaultTimezone,
		DefaultLocale:   cfg.DefaultLocale,
		Cooldown:        cfg.SendCooldown,
	})
	if err != nil {
		log.Fatalw("create scheduler", "err", err)
	}
	st.OnMoodConfigChange(func(mc *models.MoodConfig) {
		if err := notifier.Sync(mc); err != nil {
			log.Errorw("sync reminder", "user_id", mc.UserID, "err", err)
		}
	})

	h := &handlers.Handler{
		Bot:   bot,
		Store: st,
		Guard: guard.New(clk, cfg.FloodWindow, cfg.Admins),
		Cat:   cat,
		TZ:    tz,
		Cfg:   cfg,
		Clk:   clk,
		Log:   log,
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout)
	offset := st.DrainOffline(drainCtx, bot)
	cancel()

	notifier.Restore(context.Background())
	notifier.Start()
	defer func() {
		if err := notifier.Shutdown(); err != nil {
			log.Errorw("shut down scheduler", "err", err)
		}
	}()

	updateConfig := tgbotapi.NewUpdate(offset)
	updateConfig.Timeout = 60
	updates := bot.GetUpdatesChan(updateConfig)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Infow("shutting down")
		bot.StopReceivingUpdates()
	}()

	wg := conc.NewWaitGroup()
	for upd := range updates {
		upd := upd
		wg.Go(func() { h.HandleUpdate(upd) })
	}
	wg.Wait()
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
