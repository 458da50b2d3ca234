package handlers

import (
	"fmt"
	"regexp"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"telegram-mood-calendar/internal/callback"
	"telegram-mood-calendar/internal/messages"
	"telegram-mood-calendar/internal/models"
	"telegram-mood-calendar/internal/mood"
)

var timeInputRx = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

// HandleText feeds free text into whatever input flow the conversation is
// in. Text outside any flow is ignored.
func (h *Handler) HandleText(msg *tgbotapi.Message) {
	p, err := h.Store.GetPendingInput(msg.Chat.ID, msg.From.ID)
	if err != nil {
		h.Log.Errorw("load pending input", "chat_id", msg.Chat.ID, "err", err)
		return
	}
	if p == nil || p.State == models.StateNone {
		return
	}

	switch p.State {
	case models.StateEditNote, models.StateExtendNote:
		h.noteInput(msg, p)
	case models.StateSetTime:
		h.timeInput(msg, p)
	}
}

func (h *Handler) noteInput(msg *tgbotapi.Message, p *models.PendingInput) {
	cb, ok := callback.Decode(p.Payload)
	open, isDay := cb.(callback.OpenDay)
	if !ok || !isDay {
		h.clearPending(p)
		return
	}

	u := h.user(open.UserID)
	locale := h.locale(u)

	m, err := h.Store.GetMoodMonth(open.UserID, open.Year, open.Month)
	if err != nil {
		h.Log.Errorw("load mood month", "user_id", open.UserID, "err", err)
		return
	}

	if p.State == models.StateEditNote {
		err = m.SetNote(open.Day, msg.Text)
	} else {
		err = m.AppendNote(open.Day, msg.Text)
	}

	var tooLong *mood.NoteTooLongError
	if errors.As(err, &tooLong) {
		// state stays: the user can retry with shorter text
		kb := h.closeKeyboard(msg.From.ID, locale)
		h.reply(msg.Chat.ID, msg.MessageID, h.Cat.Get(locale, "mood_day.note_too_long", messages.P(
			"length", strconv.Itoa(tooLong.Length),
			"limit", strconv.Itoa(mood.NoteLimit),
		)), &kb)
		return
	}
	if err != nil {
		h.Log.Errorw("save note", "user_id", open.UserID, "err", err)
		return
	}

	if err := h.Store.MergeMoodMonth(m); err != nil {
		h.Log.Errorw("merge mood month", "user_id", open.UserID, "err", err)
		return
	}
	h.clearPending(p)

	text, kb := h.dayPanel(u, m, open)
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyMarkup = kb
	h.send(out)
}

func (h *Handler) timeInput(msg *tgbotapi.Message, p *models.PendingInput) {
	u := h.user(msg.From.ID)
	locale := h.locale(u)

	match := timeInputRx.FindStringSubmatch(msg.Text)
	if match == nil {
		h.reply(msg.Chat.ID, msg.MessageID, h.Cat.Get(locale, "notify.pick_time", nil), nil)
		return
	}
	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])

	cfg, err := h.Store.GetMoodConfig(msg.From.ID)
	if err != nil {
		h.Log.Errorw("load mood config", "user_id", msg.From.ID, "err", err)
		return
	}
	cfg.NotifyTime = fmt.Sprintf("%02d:%02d", hour, minute)
	if err := h.Store.MergeMoodConfig(cfg); err != nil {
		h.Log.Errorw("merge mood config", "user_id", msg.From.ID, "err", err)
		return
	}
	h.clearPending(p)

	text, kb := h.notifyPanel(u, cfg, msg.Chat.ID)
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyMarkup = kb
	h.send(out)
}

func (h *Handler) clearPending(p *models.PendingInput) {
	if err := h.Store.ClearPendingInput(p.ChatID, p.UserID); err != nil {
		h.Log.Errorw("clear pending input", "chat_id", p.ChatID, "err", err)
	}
}

func (h *Handler) closeKeyboard(userID int64, locale string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(
			h.Cat.Get(locale, "common.close", nil),
			callback.Encode(callback.DeleteMessage{Owned: callback.Owned{UserID: userID}}),
		),
	))
}
