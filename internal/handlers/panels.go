package handlers

import (
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-mood-calendar/internal/callback"
	"telegram-mood-calendar/internal/messages"
	"telegram-mood-calendar/internal/models"
	"telegram-mood-calendar/internal/mood"
)

const daysPerRow = 5

// monthPanel renders the calendar grid for nav's month. With an active
// marker the day buttons write that mood directly; without one they open
// the day panel.
func (h *Handler) monthPanel(u *models.UserConfig, nav callback.MonthNav) (string, tgbotapi.InlineKeyboardMarkup, error) {
	locale := h.locale(u)
	nav.Alert = false

	m, err := h.Store.GetMoodMonth(nav.UserID, nav.Year, nav.Month)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}

	text := h.Cat.Get(locale, "mood_month.title", messages.P(
		"month", h.Cat.Month(locale, int(nav.Month)),
		"year", strconv.Itoa(nav.Year),
	))
	if nav.Marker != -1 {
		text += "\n" + h.Cat.Get(locale, "mood_month.marker_selected",
			messages.P("marker", h.moodLabel(locale, mood.Value(nav.Marker))))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for day := 1; day <= mood.DaysIn(nav.Year, nav.Month); day++ {
		label := strconv.Itoa(day)
		if v := m.Mood(day); v != mood.Unset {
			label = fmt.Sprintf("%d.%s", day, v.Emoji())
		}

		open := callback.OpenDay{MonthNav: nav, Day: day}
		var data string
		if nav.Marker == -1 {
			data = callback.Encode(open)
		} else {
			data = callback.Encode(callback.MarkDay{
				OpenDay: open,
				Value:   mood.Value(nav.Marker),
				Dest:    callback.DestMonth,
			})
		}

		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, data))
		if len(row) == daysPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	// soft-hyphen fillers keep the last row rectangular; whitespace-only
	// labels get trimmed away by the transport
	for len(row) > 0 && len(row) < daysPerRow {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("\u00ad", callback.Encode(callback.Nop{})))
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	prev := nav
	prev.Year, prev.Month = addMonth(nav.Year, nav.Month, -1)
	next := nav
	next.Year, next.Month = addMonth(nav.Year, nav.Month, 1)

	markerBtn := nav
	markerBtn.Marker = cycleMarker(nav.Marker)
	markerBtn.Alert = true
	markerLabel := "🖍"
	if nav.Marker != -1 {
		markerLabel = mood.Value(nav.Marker).Emoji()
	}

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("«", callback.Encode(prev)),
		tgbotapi.NewInlineKeyboardButtonData(markerLabel, callback.Encode(markerBtn)),
		tgbotapi.NewInlineKeyboardButtonData("»", callback.Encode(next)),
	})

	return text, tgbotapi.NewInlineKeyboardMarkup(rows...), nil
}

// cycleMarker advances the marker button: disabled, then each mood in
// order, then disabled again. Unset is skipped, it has no emoji to paint.
func cycleMarker(marker int) int {
	switch marker {
	case -1:
		return int(mood.Awesome)
	case int(mood.Terrible):
		return -1
	default:
		return marker + 1
	}
}

func addMonth(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, delta, 0)
	return t.Year(), t.Month()
}

// dayPanel renders a single day: mood toggles, the note row and
// day-by-day navigation.
func (h *Handler) dayPanel(u *models.UserConfig, m *mood.Month, open callback.OpenDay) (string, tgbotapi.InlineKeyboardMarkup) {
	locale := h.locale(u)
	open.Alert = false

	current := m.Mood(open.Day)
	note := m.Note(open.Day)

	noteText := h.Cat.Get(locale, "mood_day.no_note", nil)
	if note != "" {
		noteText = tgbotapi.EscapeText(tgbotapi.ModeHTML, note)
	}
	date := m.Date(open.Day)
	text := h.Cat.Get(locale, "mood_day.title", messages.P(
		"weekday", h.Cat.Weekday(locale, isoWeekday(date.Weekday())),
		"date", h.formatDate(locale, date),
		"mood", h.moodLabel(locale, current),
		"note", noteText,
	))

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, v := range mood.Values() {
		label := v.Emoji()
		if v == current {
			label = "✓" + label
		}
		mark := callback.MarkDay{OpenDay: open, Value: v, Dest: callback.DestDay}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, callback.Encode(mark)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}

	noteBtn := func(key string, action callback.NoteAction) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(
			h.Cat.Get(locale, key, nil),
			callback.Encode(callback.DayNote{OpenDay: open, Action: action}),
		)
	}
	if note == "" {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{noteBtn("mood_day.add_note", callback.NoteEdit)})
	} else {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			noteBtn("mood_day.edit_note", callback.NoteEdit),
			tgbotapi.NewInlineKeyboardButtonData("🗑",
				callback.Encode(callback.DayNote{OpenDay: open, Action: callback.NoteDeleteWarn})),
			noteBtn("mood_day.extend_note", callback.NoteExtend),
		})
	}

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("«", callback.Encode(shiftDay(open, -1))),
		tgbotapi.NewInlineKeyboardButtonData(h.Cat.Get(locale, "common.back", nil), callback.Encode(open.MonthNav)),
		tgbotapi.NewInlineKeyboardButtonData("»", callback.Encode(shiftDay(open, 1))),
	})

	return text, tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// shiftDay moves the day panel one day over, rolling across month edges.
func shiftDay(open callback.OpenDay, delta int) callback.OpenDay {
	t := time.Date(open.Year, open.Month, open.Day, 12, 0, 0, 0, time.UTC).AddDate(0, 0, delta)
	out := open
	out.Year, out.Month, out.Day = t.Year(), t.Month(), t.Day()
	return out
}

// notifyPanel renders the reminder settings. chatID is the chat the panel
// lives in, which is what "send here" targets.
func (h *Handler) notifyPanel(u *models.UserConfig, cfg *models.MoodConfig, chatID int64) (string, tgbotapi.InlineKeyboardMarkup) {
	locale := h.locale(u)
	owned := callback.Owned{UserID: u.UserID}

	if !cfg.NotifyState {
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				h.Cat.Get(locale, "notify.turn_on", nil),
				callback.Encode(callback.NotifySwitchState{Owned: owned})),
		))
		return h.Cat.Get(locale, "notify.disabled", nil), kb
	}

	chat := h.Cat.Get(locale, "notify.pm", nil)
	if cfg.NotifyChatID != 0 {
		chat = h.chatTitle(cfg.NotifyChatID)
	}
	dayWord := "notify.yesterday"
	if cfg.NotifyCurrentDay {
		dayWord = "notify.today"
	}

	loc := u.Location(h.Cfg.DefaultTimezone)
	text := h.Cat.Get(locale, "notify.enabled", messages.P(
		"chat", chat,
		"time", cfg.NotifyTime+" (UTC"+h.Clk.Now().In(loc).Format("-07:00")+")",
		"day", h.Cat.Get(locale, dayWord, nil),
	))

	var rows [][]tgbotapi.InlineKeyboardButton
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(
			h.Cat.Get(locale, "notify.turn_off", nil),
			callback.Encode(callback.NotifySwitchState{Owned: owned})),
	})

	var targets []tgbotapi.InlineKeyboardButton
	if chatID != u.UserID && chatID != cfg.NotifyChatID {
		targets = append(targets, tgbotapi.NewInlineKeyboardButtonData(
			h.Cat.Get(locale, "notify.send_here", nil),
			callback.Encode(callback.NotifySetChat{Owned: owned, ChatID: chatID})))
	}
	if cfg.NotifyChatID != 0 {
		targets = append(targets, tgbotapi.NewInlineKeyboardButtonData(
			h.Cat.Get(locale, "notify.send_pm", nil),
			callback.Encode(callback.NotifySetChat{Owned: owned})))
	}
	if len(targets) > 0 {
		rows = append(rows, targets)
	}

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(
			cfg.NotifyTime+" ("+h.Cat.Get(locale, "common.change", nil)+")",
			callback.Encode(callback.NotifyChoiceTime{Owned: owned})),
		tgbotapi.NewInlineKeyboardButtonData(
			h.Cat.Get(locale, dayWord, nil)+" ("+h.Cat.Get(locale, "common.change", nil)+")",
			callback.Encode(callback.NotifySwitchDayType{Owned: owned})),
	})

	return text, tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// timeGrid renders the 24-hour picker. Odd times can be typed instead,
// the conversation is left in time-input state by the caller.
func (h *Handler) timeGrid(u *models.UserConfig, cfg *models.MoodConfig) (string, tgbotapi.InlineKeyboardMarkup) {
	locale := h.locale(u)
	owned := callback.Owned{UserID: u.UserID}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for hour := 0; hour < 24; hour++ {
		set := callback.NotifySetTime{Owned: owned, Minutes: hour * 60}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(set.HHMM(), callback.Encode(set)))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	// cancel re-submits the current time, which ends the flow unchanged
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(
			h.Cat.Get(locale, "common.cancel", nil),
			callback.Encode(callback.NotifySetTime{Owned: owned, Minutes: minutesOf(cfg.NotifyTime)})),
	})

	return h.Cat.Get(locale, "notify.pick_time", nil), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (h *Handler) chatTitle(chatID int64) string {
	chat, err := h.Bot.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return strconv.FormatInt(chatID, 10)
	}
	return chat.Title
}

func (h *Handler) moodLabel(locale string, v mood.Value) string {
	if v == mood.Unset {
		return h.Cat.Get(locale, "mood.unset", nil)
	}
	return v.Emoji() + " " + h.Cat.Get(locale, "mood."+v.Name(), nil)
}

// minutesOf converts a stored "HH:MM" into minutes since midnight.
func minutesOf(hhmm string) int {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

func (h *Handler) formatDate(locale string, t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), h.Cat.Month(locale, int(t.Month())), t.Year())
}

func isoWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}
