// Package handlers routes Telegram updates to the mood calendar logic.
// Commands send fresh panels, callbacks edit them in place, plain text
// feeds whatever input flow the conversation is in.
package handlers

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	"telegram-mood-calendar/internal/config"
	"telegram-mood-calendar/internal/guard"
	"telegram-mood-calendar/internal/messages"
	"telegram-mood-calendar/internal/models"
	"telegram-mood-calendar/internal/store"
	"telegram-mood-calendar/internal/timezone"
)

// botAPI is the slice of the bot client the handlers need.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

type Handler struct {
	Bot   botAPI
	Store *store.Store
	Guard *guard.Guard
	Cat   *messages.Catalog
	TZ    *timezone.Resolver
	Cfg   *config.Config
	Clk   clock.Clock
	Log   *zap.SugaredLogger
}

// HandleUpdate is the per-update entry point, one goroutine each. Guard
// rejections drop the update silently.
func (h *Handler) HandleUpdate(upd tgbotapi.Update) {
	h.Store.SaveUsers(upd)

	chatID, userID, topicID, ok := conversation(&upd)
	if !ok {
		return
	}

	release, err := h.Guard.Admit(chatID, userID, topicID)
	if err != nil {
		h.Log.Debugw("update dropped", "chat_id", chatID, "user_id", userID, "err", err)
		if upd.CallbackQuery != nil {
			h.answer(upd.CallbackQuery.ID, "", false)
		}
		return
	}
	defer release()

	switch {
	case upd.CallbackQuery != nil:
		h.HandleCallback(upd.CallbackQuery)
	case upd.Message != nil:
		h.Store.SaveLastMessage(upd.Message, topicID)
		switch {
		case upd.Message.IsCommand():
			h.HandleCommand(upd.Message)
		case upd.Message.Location != nil:
			h.handleLocation(upd.Message)
		case upd.Message.Text != "":
			h.HandleText(upd.Message)
		}
	}
}

// conversation extracts the guard key. Updates without an actionable
// message or callback are not conversations at all.
func conversation(upd *tgbotapi.Update) (chatID, userID int64, topicID int, ok bool) {
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil:
		cq := upd.CallbackQuery
		return cq.Message.Chat.ID, cq.From.ID, 0, true
	case upd.Message != nil && upd.Message.From != nil:
		return upd.Message.Chat.ID, upd.Message.From.ID, 0, true
	}
	return 0, 0, 0, false
}

func (h *Handler) user(userID int64) *models.UserConfig {
	u, err := h.Store.GetUser(userID)
	if err != nil {
		h.Log.Errorw("load user", "user_id", userID, "err", err)
		return &models.UserConfig{UserID: userID}
	}
	return u
}

func (h *Handler) locale(u *models.UserConfig) string {
	if u.Locale != "" {
		return u.Locale
	}
	return h.Cfg.DefaultLocale
}

// answer acknowledges a callback query, optionally with a toast.
func (h *Handler) answer(callbackID, text string, alert bool) {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	if _, err := h.Bot.Request(cb); err != nil {
		h.Log.Debugw("answer callback", "err", err)
	}
}

func (h *Handler) send(msg tgbotapi.Chattable) {
	if _, err := h.Bot.Send(msg); err != nil {
		h.Log.Errorw("send message", "err", err)
	}
}

// edit replaces a panel message in place.
func (h *Handler) edit(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.Bot.Send(msg); err != nil {
		h.Log.Debugw("edit message", "chat_id", chatID, "message_id", messageID, "err", err)
	}
}

func (h *Handler) reply(chatID int64, replyTo int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = replyTo
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	h.send(msg)
}
