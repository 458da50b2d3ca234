// Package scheduler owns the daily mood reminders. The live cron triggers
// are process-local; the durable truth is the notify_jobs table, which is
// what survives restarts and feeds the misfire recovery in Restore.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"telegram-mood-calendar/internal/callback"
	"telegram-mood-calendar/internal/messages"
	"telegram-mood-calendar/internal/models"
	"telegram-mood-calendar/internal/mood"
	"telegram-mood-calendar/internal/store"
)

const (
	jobKeyPrefix = "mood_notify:"
	dateLayout   = "2006-01-02"
)

// botAPI is the slice of the bot client delivery needs.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

type Options struct {
	DefaultTimezone string
	DefaultLocale   string
	// pause after each delivery into the same chat
	Cooldown time.Duration
	// a job overdue by more than this at startup loses its missed fire
	MisfireGrace time.Duration
}

func (o *Options) withDefaults() {
	if o.Cooldown <= 0 {
		o.Cooldown = 3 * time.Second
	}
	if o.MisfireGrace <= 0 {
		o.MisfireGrace = 7 * 24 * time.Hour
	}
}

// Notifier keeps exactly one live trigger per user. Sync is the only way
// triggers appear or disappear, so replace is always remove + add.
type Notifier struct {
	bot   botAPI
	store *store.Store
	cat   *messages.Catalog
	clk   clock.Clock
	log   *zap.SugaredLogger
	opts  Options

	sched gocron.Scheduler

	mu   sync.Mutex
	jobs map[string]gocron.Job // job key -> live trigger

	chatMu    sync.Mutex
	chatLocks map[int64]*sync.Mutex
	notBefore map[int64]time.Time
}

func New(bot botAPI, st *store.Store, cat *messages.Catalog, clk clock.Clock, log *zap.SugaredLogger, opts Options) (*Notifier, error) {
	opts.withDefaults()

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.Wrap(err, "create scheduler")
	}

	return &Notifier{
		bot:       bot,
		store:     st,
		cat:       cat,
		clk:       clk,
		log:       log,
		opts:      opts,
		sched:     sched,
		jobs:      make(map[string]gocron.Job),
		chatLocks: make(map[int64]*sync.Mutex),
		notBefore: make(map[int64]time.Time),
	}, nil
}

func (n *Notifier) Start() { n.sched.Start() }

func (n *Notifier) Shutdown() error { return n.sched.Shutdown() }

func jobKey(userID int64) string { return fmt.Sprintf("%s%d", jobKeyPrefix, userID) }

// Sync reconciles the trigger and the job row with cfg. Always removes
// first, so calling it twice in a row is harmless.
func (n *Notifier) Sync(cfg *models.MoodConfig) error {
	key := jobKey(cfg.UserID)
	n.removeTrigger(key)

	if !cfg.NotifyState {
		return errors.Wrap(n.store.DeleteNotifyJob(key), "delete job row")
	}

	user, err := n.store.GetUser(cfg.UserID)
	if err != nil {
		return errors.Wrap(err, "load user")
	}
	loc := user.Location(n.opts.DefaultTimezone)

	hour, minute, err := parseHHMM(cfg.NotifyTime)
	if err != nil {
		return err
	}

	fireAt := nextFire(n.clk.Now().In(loc), hour, minute)
	row := &models.NotifyJob{
		JobKey:     key,
		UserID:     cfg.UserID,
		TargetDate: targetDate(fireAt, cfg.NotifyCurrentDay),
		CurrentDay: cfg.NotifyCurrentDay,
		NextFire:   fireAt.Unix(),
	}
	if err := n.store.UpsertNotifyJob(row); err != nil {
		return errors.Wrap(err, "upsert job row")
	}

	crontab := fmt.Sprintf("CRON_TZ=%s %d %d * * *", loc.String(), minute, hour)
	job, err := n.sched.NewJob(
		gocron.CronJob(crontab, false),
		gocron.NewTask(func() { n.fire(key) }),
		gocron.WithName(key),
	)
	if err != nil {
		return errors.Wrapf(err, "schedule %s", crontab)
	}

	n.mu.Lock()
	n.jobs[key] = job
	n.mu.Unlock()
	return nil
}

func (n *Notifier) removeTrigger(key string) {
	n.mu.Lock()
	job, ok := n.jobs[key]
	if ok {
		delete(n.jobs, key)
	}
	n.mu.Unlock()
	if !ok {
		return
	}
	if err := n.sched.RemoveJob(job.ID()); err != nil {
		n.log.Warnw("remove trigger", "job", key, "err", err)
	}
}

// Restore rebuilds triggers from the job rows at startup. A fire missed
// while the process was down is delivered once if it is within the grace
// window, silently skipped otherwise; either way the schedule continues
// from now.
func (n *Notifier) Restore(ctx context.Context) {
	rows, err := n.store.ListNotifyJobs()
	if err != nil {
		n.log.Errorw("list notify jobs", "err", err)
		return
	}

	now := n.clk.Now()
	for i := range rows {
		if ctx.Err() != nil {
			return
		}
		row := &rows[i]

		cfg, err := n.store.GetMoodConfig(row.UserID)
		if err != nil {
			n.log.Errorw("restore job", "job", row.JobKey, "err", err)
			continue
		}
		if !cfg.NotifyState {
			if err := n.store.DeleteNotifyJob(row.JobKey); err != nil {
				n.log.Errorw("drop stale job row", "job", row.JobKey, "err", err)
			}
			continue
		}

		overdue := now.Sub(time.Unix(row.NextFire, 0))
		if overdue > 0 && overdue <= n.opts.MisfireGrace {
			n.deliver(cfg, row.TargetDate)
		} else if overdue > n.opts.MisfireGrace {
			n.log.Infow("skipping missed reminder", "job", row.JobKey, "overdue", overdue)
		}

		if err := n.Sync(cfg); err != nil {
			n.log.Errorw("restore job", "job", row.JobKey, "err", err)
		}
	}
}

// fire runs on the cron trigger. The job row is advanced before delivery:
// a crash mid-send loses at most one reminder, it never replays one.
func (n *Notifier) fire(key string) {
	row, err := n.store.GetNotifyJob(key)
	if err != nil {
		n.log.Errorw("load job row", "job", key, "err", err)
		return
	}
	if row == nil {
		n.removeTrigger(key)
		return
	}

	cfg, err := n.store.GetMoodConfig(row.UserID)
	if err != nil {
		n.log.Errorw("load mood config", "job", key, "err", err)
		return
	}
	if !cfg.NotifyState {
		n.removeTrigger(key)
		if err := n.store.DeleteNotifyJob(key); err != nil {
			n.log.Errorw("delete job row", "job", key, "err", err)
		}
		return
	}

	if err := n.advance(row, cfg); err != nil {
		n.log.Errorw("advance job row", "job", key, "err", err)
		return
	}

	n.deliver(cfg, row.TargetDate)
}

func (n *Notifier) advance(row *models.NotifyJob, cfg *models.MoodConfig) error {
	user, err := n.store.GetUser(cfg.UserID)
	if err != nil {
		return err
	}
	loc := user.Location(n.opts.DefaultTimezone)

	hour, minute, err := parseHHMM(cfg.NotifyTime)
	if err != nil {
		return err
	}

	fireAt := nextFire(n.clk.Now().In(loc), hour, minute)
	next := *row
	next.TargetDate = targetDate(fireAt, cfg.NotifyCurrentDay)
	next.CurrentDay = cfg.NotifyCurrentDay
	next.NextFire = fireAt.Unix()
	return n.store.UpsertNotifyJob(&next)
}

// deliver sends the reminder about date (YYYY-MM-DD). The configured chat
// is tried first; if it is gone the config is repointed at the private
// chat, and if even that fails reminders are switched off.
func (n *Notifier) deliver(cfg *models.MoodConfig, date string) {
	user, err := n.store.GetUser(cfg.UserID)
	if err != nil {
		n.log.Errorw("load user", "user_id", cfg.UserID, "err", err)
		return
	}

	day, err := time.Parse(dateLayout, date)
	if err != nil {
		n.log.Errorw("bad target date", "user_id", cfg.UserID, "date", date, "err", err)
		return
	}

	chatID := cfg.NotifyChatID
	topicID := cfg.NotifyChatTopic
	if chatID != 0 {
		_, err := n.bot.GetChat(tgbotapi.ChatInfoConfig{
			ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
		})
		if err != nil {
			n.log.Warnw("reminder chat unreachable, repointing to pm",
				"user_id", cfg.UserID, "chat_id", chatID, "err", err)
			cfg.NotifyChatID = 0
			cfg.NotifyChatTopic = 0
			if err := n.store.MergeMoodConfig(cfg); err != nil {
				n.log.Errorw("repoint reminder chat", "user_id", cfg.UserID, "err", err)
			}
			chatID, topicID = 0, 0
		}
	}
	if chatID == 0 {
		chatID = cfg.UserID
	}

	msg := n.reminderMessage(user, cfg, day, chatID, topicID)
	if err := n.send(chatID, msg); err == nil {
		return
	} else if chatID == cfg.UserID {
		n.disable(cfg, err)
		return
	} else {
		n.log.Warnw("reminder delivery failed, falling back to pm",
			"user_id", cfg.UserID, "chat_id", chatID, "err", err)
	}

	msg = n.reminderMessage(user, cfg, day, cfg.UserID, 0)
	if err := n.send(cfg.UserID, msg); err != nil {
		n.disable(cfg, err)
	}
}

func (n *Notifier) disable(cfg *models.MoodConfig, cause error) {
	n.log.Warnw("reminder undeliverable, disabling", "user_id", cfg.UserID, "err", cause)
	cfg.NotifyState = false
	if err := n.store.MergeMoodConfig(cfg); err != nil {
		n.log.Errorw("disable reminders", "user_id", cfg.UserID, "err", err)
	}
}

// send serializes deliveries per chat and spaces them by the cool-down.
func (n *Notifier) send(chatID int64, msg tgbotapi.MessageConfig) error {
	n.chatMu.Lock()
	lock, ok := n.chatLocks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		n.chatLocks[chatID] = lock
	}
	n.chatMu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	n.chatMu.Lock()
	wait := n.notBefore[chatID].Sub(n.clk.Now())
	n.chatMu.Unlock()
	if wait > 0 {
		n.clk.Sleep(wait)
	}

	_, err := n.bot.Send(msg)

	n.chatMu.Lock()
	n.notBefore[chatID] = n.clk.Now().Add(n.opts.Cooldown)
	n.chatMu.Unlock()
	return err
}

func (n *Notifier) reminderMessage(user *models.UserConfig, cfg *models.MoodConfig, day time.Time, chatID int64, topicID int) tgbotapi.MessageConfig {
	locale := user.Locale
	if locale == "" {
		locale = n.opts.DefaultLocale
	}

	dayWord := "notify.yesterday"
	if cfg.NotifyCurrentDay {
		dayWord = "notify.today"
	}
	text := n.cat.Get(locale, "notify.reminder", messages.P(
		"name", fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, user.UserID, user.Name()),
		"day", n.cat.Get(locale, dayWord, nil),
		"weekday", n.cat.Weekday(locale, isoWeekday(day.Weekday())),
		"date", day.Format(dateLayout),
	))

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = n.reminderKeyboard(user.UserID, day)

	if chatID != user.UserID {
		if last, err := n.store.GetLastMessage(chatID, user.UserID, topicID); err == nil && last != nil {
			msg.ReplyToMessageID = last.MessageID
			msg.AllowSendingWithoutReply = true
		}
	}
	return msg
}

// reminderKeyboard carries six mark buttons for the target day, each
// re-rendering the reminder in place, plus a close row.
func (n *Notifier) reminderKeyboard(userID int64, day time.Time) tgbotapi.InlineKeyboardMarkup {
	open := callback.OpenDay{
		MonthNav: callback.MonthNav{
			Owned:  callback.Owned{UserID: userID},
			Year:   day.Year(),
			Month:  day.Month(),
			Marker: -1,
		},
		Day: day.Day(),
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, v := range mood.Values() {
		mark := callback.MarkDay{OpenDay: open, Value: v, Dest: callback.DestNotify}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(v.Emoji(), callback.Encode(mark)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	closeBtn := tgbotapi.NewInlineKeyboardButtonData(
		n.cat.Get(n.opts.DefaultLocale, "common.close", nil),
		callback.Encode(callback.DeleteMessage{Owned: callback.Owned{UserID: userID}}),
	)
	rows = append(rows, []tgbotapi.InlineKeyboardButton{closeBtn})

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ---------- time helpers ----------------------------------------------------

func parseHHMM(s string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, errors.Wrapf(err, "parse notify time %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, errors.Errorf("notify time %q out of range", s)
	}
	return hour, minute, nil
}

// nextFire returns the next occurrence of hour:minute strictly after now,
// in now's location.
func nextFire(now time.Time, hour, minute int) time.Time {
	fireAt := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !fireAt.After(now) {
		fireAt = fireAt.AddDate(0, 0, 1)
	}
	return fireAt
}

// targetDate is the day a reminder firing at fireAt asks about.
func targetDate(fireAt time.Time, currentDay bool) string {
	day := fireAt
	if !currentDay {
		day = day.AddDate(0, 0, -1)
	}
	return day.Format(dateLayout)
}

func isoWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}
