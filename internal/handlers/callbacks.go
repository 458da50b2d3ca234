package handlers

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-mood-calendar/internal/callback"
	"telegram-mood-calendar/internal/messages"
	"telegram-mood-calendar/internal/models"
	"telegram-mood-calendar/internal/mood"
)

// HandleCallback decodes a button press and dispatches it. Anything that
// fails to decode, an out-of-range day included, answers with the expired
// toast and changes nothing.
func (h *Handler) HandleCallback(cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		h.answer(cq.ID, "", false)
		return
	}

	presser := h.user(cq.From.ID)
	locale := h.locale(presser)

	cb, ok := callback.Decode(cq.Data)
	if !ok {
		h.answer(cq.ID, h.Cat.Get(locale, "error.expired", nil), false)
		return
	}

	if own, owned := cb.(callback.Ownable); owned {
		if own.Owner() != cq.From.ID && !h.Cfg.IsAdmin(cq.From.ID) {
			h.answer(cq.ID, h.Cat.Get(locale, "error.not_yours", nil), true)
			return
		}
	}

	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID

	pend, err := h.Store.GetPendingInput(chatID, cq.From.ID)
	if err != nil {
		h.Log.Errorw("load pending input", "chat_id", chatID, "err", err)
		h.answer(cq.ID, "", false)
		return
	}
	if !inputAllows(pend.State, cb) {
		// an open input flow owns the conversation; buttons from unrelated
		// panels are dropped so they cannot wipe the entry
		h.answer(cq.ID, "", false)
		return
	}
	if pend.State != models.StateNone {
		switch cb.(type) {
		case callback.OpenDay, callback.NotifySetTime:
			// these resolve the flow; the rest either re-arm it or leave it
			if err := h.Store.ClearPendingInput(chatID, cq.From.ID); err != nil {
				h.Log.Errorw("clear pending input", "chat_id", chatID, "err", err)
			}
		}
	}

	switch c := cb.(type) {
	case callback.Nop:
		h.answer(cq.ID, "", false)

	case callback.DeleteMessage:
		if _, err := h.Bot.Request(tgbotapi.NewDeleteMessage(chatID, msgID)); err != nil {
			h.Log.Debugw("delete message", "chat_id", chatID, "err", err)
		}
		h.answer(cq.ID, "", false)

	case callback.MonthNav:
		h.onMonthNav(cq, chatID, msgID, c)

	case callback.OpenDay:
		h.onOpenDay(cq, chatID, msgID, c)

	case callback.MarkDay:
		h.onMarkDay(cq, chatID, msgID, c)

	case callback.DayNote:
		h.onDayNote(cq, chatID, msgID, c)

	case callback.NotifySwitchState:
		h.mutateNotify(cq, chatID, msgID, c.UserID, func(cfg *models.MoodConfig) {
			cfg.NotifyState = !cfg.NotifyState
		})

	case callback.NotifySwitchDayType:
		h.mutateNotify(cq, chatID, msgID, c.UserID, func(cfg *models.MoodConfig) {
			cfg.NotifyCurrentDay = !cfg.NotifyCurrentDay
		})

	case callback.NotifySetChat:
		h.mutateNotify(cq, chatID, msgID, c.UserID, func(cfg *models.MoodConfig) {
			cfg.NotifyChatID = c.ChatID
			cfg.NotifyChatTopic = c.TopicID
		})

	case callback.NotifySetTime:
		h.mutateNotify(cq, chatID, msgID, c.UserID, func(cfg *models.MoodConfig) {
			cfg.NotifyTime = c.HHMM()
		})

	case callback.NotifyChoiceTime:
		h.onChoiceTime(cq, chatID, msgID, c)
	}
}

// inputAllows reports whether a callback may run while the conversation
// waits for typed input. An open flow only accepts its own buttons.
func inputAllows(state models.InputState, cb callback.Callback) bool {
	switch state {
	case models.StateEditNote, models.StateExtendNote:
		switch cb.(type) {
		case callback.OpenDay, callback.DayNote, callback.DeleteMessage, callback.Nop:
			return true
		}
	case models.StateSetTime:
		switch cb.(type) {
		case callback.NotifySetTime, callback.NotifyChoiceTime, callback.DeleteMessage, callback.Nop:
			return true
		}
	default:
		return true
	}
	return false
}

func (h *Handler) onMonthNav(cq *tgbotapi.CallbackQuery, chatID int64, msgID int, c callback.MonthNav) {
	owner := h.user(c.UserID)
	text, kb, err := h.monthPanel(owner, c)
	if err != nil {
		h.Log.Errorw("render month panel", "user_id", c.UserID, "err", err)
		h.answer(cq.ID, "", false)
		return
	}
	h.edit(chatID, msgID, text, kb)

	toast := ""
	if c.Alert {
		marker := h.Cat.Get(h.locale(owner), "mood.unset", nil)
		if c.Marker != -1 {
			marker = h.moodLabel(h.locale(owner), mood.Value(c.Marker))
		}
		toast = h.Cat.Get(h.locale(owner), "mood_month.marker_selected", messages.P("marker", marker))
	}
	h.answer(cq.ID, toast, false)
}

func (h *Handler) onOpenDay(cq *tgbotapi.CallbackQuery, chatID int64, msgID int, c callback.OpenDay) {
	owner, m, ok := h.loadDay(cq, c)
	if !ok {
		return
	}
	text, kb := h.dayPanel(owner, m, c)
	h.edit(chatID, msgID, text, kb)
	h.answer(cq.ID, "", false)
}

func (h *Handler) onMarkDay(cq *tgbotapi.CallbackQuery, chatID int64, msgID int, c callback.MarkDay) {
	owner, m, ok := h.loadDay(cq, c.OpenDay)
	if !ok {
		return
	}

	m.SetMood(c.Day, c.Value)
	if err := h.Store.MergeMoodMonth(m); err != nil {
		h.Log.Errorw("merge mood month", "user_id", c.UserID, "err", err)
		h.answer(cq.ID, "", false)
		return
	}

	switch c.Dest {
	case callback.DestMonth:
		text, kb, err := h.monthPanel(owner, c.MonthNav)
		if err != nil {
			h.Log.Errorw("render month panel", "user_id", c.UserID, "err", err)
			break
		}
		h.edit(chatID, msgID, text, kb)
	default: // day panel, from the reminder too
		text, kb := h.dayPanel(owner, m, c.OpenDay)
		h.edit(chatID, msgID, text, kb)
	}
	h.answer(cq.ID, "", false)
}

func (h *Handler) onDayNote(cq *tgbotapi.CallbackQuery, chatID int64, msgID int, c callback.DayNote) {
	owner, m, ok := h.loadDay(cq, c.OpenDay)
	if !ok {
		return
	}
	locale := h.locale(owner)
	date := m.Date(c.Day)
	header := messages.P(
		"weekday", h.Cat.Weekday(locale, isoWeekday(date.Weekday())),
		"date", h.formatDate(locale, date),
	)

	switch c.Action {
	case callback.NoteEdit, callback.NoteExtend:
		state := models.StateEditNote
		prompt := "mood_day.edit_prompt"
		if c.Action == callback.NoteExtend {
			state = models.StateExtendNote
			prompt = "mood_day.extend_prompt"
		}
		err := h.Store.SetPendingInput(&models.PendingInput{
			ChatID:  chatID,
			UserID:  cq.From.ID,
			State:   state,
			Payload: callback.Encode(c.OpenDay),
		})
		if err != nil {
			h.Log.Errorw("set pending input", "chat_id", chatID, "err", err)
			h.answer(cq.ID, "", false)
			return
		}
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				h.Cat.Get(locale, "common.cancel", nil), callback.Encode(c.OpenDay)),
		))
		h.edit(chatID, msgID, h.Cat.Get(locale, prompt, header), kb)
		h.answer(cq.ID, "", false)

	case callback.NoteDeleteWarn:
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				h.Cat.Get(locale, "mood_day.delete_note", nil),
				callback.Encode(callback.DayNote{OpenDay: c.OpenDay, Action: callback.NoteDelete})),
			tgbotapi.NewInlineKeyboardButtonData(
				h.Cat.Get(locale, "common.cancel", nil), callback.Encode(c.OpenDay)),
		))
		h.edit(chatID, msgID, h.Cat.Get(locale, "mood_day.delete_warning", header), kb)
		h.answer(cq.ID, "", false)

	case callback.NoteDelete:
		m.DeleteNote(c.Day)
		if err := h.Store.MergeMoodMonth(m); err != nil {
			h.Log.Errorw("merge mood month", "user_id", c.UserID, "err", err)
			h.answer(cq.ID, "", false)
			return
		}
		text, kb := h.dayPanel(owner, m, c.OpenDay)
		h.edit(chatID, msgID, text, kb)
		h.answer(cq.ID, h.Cat.Get(locale, "mood_day.note_deleted", nil), false)
	}
}

func (h *Handler) onChoiceTime(cq *tgbotapi.CallbackQuery, chatID int64, msgID int, c callback.NotifyChoiceTime) {
	owner := h.user(c.UserID)
	cfg, err := h.Store.GetMoodConfig(c.UserID)
	if err != nil {
		h.Log.Errorw("load mood config", "user_id", c.UserID, "err", err)
		h.answer(cq.ID, "", false)
		return
	}

	err = h.Store.SetPendingInput(&models.PendingInput{
		ChatID: chatID,
		UserID: cq.From.ID,
		State:  models.StateSetTime,
	})
	if err != nil {
		h.Log.Errorw("set pending input", "chat_id", chatID, "err", err)
	}

	text, kb := h.timeGrid(owner, cfg)
	h.edit(chatID, msgID, text, kb)
	h.answer(cq.ID, "", false)
}

// mutateNotify applies one settings change, persists it (which resyncs the
// reminder trigger) and re-renders the panel.
func (h *Handler) mutateNotify(cq *tgbotapi.CallbackQuery, chatID int64, msgID int, userID int64, mutate func(cfg *models.MoodConfig)) {
	owner := h.user(userID)
	cfg, err := h.Store.GetMoodConfig(userID)
	if err != nil {
		h.Log.Errorw("load mood config", "user_id", userID, "err", err)
		h.answer(cq.ID, "", false)
		return
	}

	mutate(cfg)
	if err := h.Store.MergeMoodConfig(cfg); err != nil {
		h.Log.Errorw("merge mood config", "user_id", userID, "err", err)
		h.answer(cq.ID, "", false)
		return
	}

	text, kb := h.notifyPanel(owner, cfg, chatID)
	h.edit(chatID, msgID, text, kb)
	h.answer(cq.ID, "", false)
}

// loadDay fetches the owner and month behind a day-scoped callback,
// rejecting days the month does not have (a stale button from a longer
// month).
func (h *Handler) loadDay(cq *tgbotapi.CallbackQuery, c callback.OpenDay) (*models.UserConfig, *mood.Month, bool) {
	owner := h.user(c.UserID)
	if c.Day > mood.DaysIn(c.Year, c.Month) {
		h.answer(cq.ID, h.Cat.Get(h.locale(owner), "error.expired", nil), false)
		return nil, nil, false
	}
	m, err := h.Store.GetMoodMonth(c.UserID, c.Year, c.Month)
	if err != nil {
		h.Log.Errorw("load mood month", "user_id", c.UserID, "err", err)
		h.answer(cq.ID, "", false)
		return nil, nil, false
	}
	return owner, m, true
}
