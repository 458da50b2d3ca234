package handlers

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-mood-calendar/internal/callback"
	"telegram-mood-calendar/internal/messages"
)

func (h *Handler) HandleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.cmdStart(msg)
	case "mood":
		h.cmdMood(msg)
	case "notify":
		h.cmdNotify(msg)
	case "tz":
		h.cmdTimezone(msg)
	}
}

func (h *Handler) cmdStart(msg *tgbotapi.Message) {
	u := h.user(msg.From.ID)
	text := h.Cat.Get(h.locale(u), "command.start", messages.P("name", u.Name()))
	h.send(tgbotapi.NewMessage(msg.Chat.ID, text))
}

func (h *Handler) cmdMood(msg *tgbotapi.Message) {
	u := h.user(msg.From.ID)
	now := h.Clk.Now().In(u.Location(h.Cfg.DefaultTimezone))

	nav := callback.MonthNav{
		Owned:  callback.Owned{UserID: u.UserID},
		Year:   now.Year(),
		Month:  now.Month(),
		Marker: -1,
	}
	text, kb, err := h.monthPanel(u, nav)
	if err != nil {
		h.Log.Errorw("render month panel", "user_id", u.UserID, "err", err)
		return
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyMarkup = kb
	h.send(out)
}

func (h *Handler) cmdNotify(msg *tgbotapi.Message) {
	u := h.user(msg.From.ID)
	cfg, err := h.Store.GetMoodConfig(u.UserID)
	if err != nil {
		h.Log.Errorw("load mood config", "user_id", u.UserID, "err", err)
		return
	}

	text, kb := h.notifyPanel(u, cfg, msg.Chat.ID)
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyMarkup = kb
	h.send(out)
}

func (h *Handler) cmdTimezone(msg *tgbotapi.Message) {
	u := h.user(msg.From.ID)
	locale := h.locale(u)

	query := msg.CommandArguments()
	if query == "" {
		h.reply(msg.Chat.ID, msg.MessageID, h.Cat.Get(locale, "tz.usage", nil), nil)
		return
	}

	zone, ok := h.TZ.Resolve(query)
	if !ok {
		h.reply(msg.Chat.ID, msg.MessageID, h.Cat.Get(locale, "tz.not_found", nil), nil)
		return
	}

	h.setTimezone(msg, u.UserID, zone)
}

// handleLocation resolves a shared location to the nearest zone.
func (h *Handler) handleLocation(msg *tgbotapi.Message) {
	zone := h.TZ.Nearest(msg.Location.Latitude, msg.Location.Longitude)
	h.setTimezone(msg, msg.From.ID, zone)
}

// setTimezone stores the zone and resyncs the reminder trigger, which
// follows the user's local time.
func (h *Handler) setTimezone(msg *tgbotapi.Message, userID int64, zone string) {
	u := h.user(userID)
	u.Timezone = zone
	if err := h.Store.SaveUser(u); err != nil {
		h.Log.Errorw("save timezone", "user_id", userID, "err", err)
		return
	}

	cfg, err := h.Store.GetMoodConfig(userID)
	if err == nil && cfg.NotifyState {
		if err := h.Store.MergeMoodConfig(cfg); err != nil {
			h.Log.Errorw("resync reminder", "user_id", userID, "err", err)
		}
	}

	h.reply(msg.Chat.ID, msg.MessageID,
		h.Cat.Get(h.locale(u), "tz.updated", messages.P("zone", zone)), nil)
}
