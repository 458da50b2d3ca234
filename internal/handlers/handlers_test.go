package handlers

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"telegram-mood-calendar/internal/callback"
	"telegram-mood-calendar/internal/config"
	"telegram-mood-calendar/internal/guard"
	"telegram-mood-calendar/internal/messages"
	"telegram-mood-calendar/internal/models"
	"telegram-mood-calendar/internal/mood"
	"telegram-mood-calendar/internal/storage"
	"telegram-mood-calendar/internal/store"
	"telegram-mood-calendar/internal/timezone"
)

type fakeBot struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: 99}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error) {
	return tgbotapi.Chat{ID: config.ChatID, Title: "Test Chat"}, nil
}

func (f *fakeBot) lastAnswer(t *testing.T) tgbotapi.CallbackConfig {
	t.Helper()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if cb, ok := f.requests[i].(tgbotapi.CallbackConfig); ok {
			return cb
		}
	}
	t.Fatal("no callback answer recorded")
	return tgbotapi.CallbackConfig{}
}

func newTestHandler(t *testing.T) (*Handler, *fakeBot, clock.FakeClock) {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tz, err := timezone.NewResolver()
	require.NoError(t, err)

	clk := clock.NewFake()
	bot := &fakeBot{}
	h := &Handler{
		Bot:   bot,
		Store: store.New(db, zap.NewNop().Sugar()),
		Guard: guard.New(clk, guard.DefaultWindow, nil),
		Cat:   messages.New("en"),
		TZ:    tz,
		Cfg:   &config.Config{DefaultTimezone: "UTC", DefaultLocale: "en"},
		Clk:   clk,
		Log:   zap.NewNop().Sugar(),
	}
	return h, bot, clk
}

func query(userID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb",
		From: &tgbotapi.User{ID: userID, FirstName: "Test"},
		Message: &tgbotapi.Message{
			MessageID: 5,
			Chat:      &tgbotapi.Chat{ID: userID, Type: "private"},
		},
		Data: data,
	}
}

func monthNav(userID int64, year int, month time.Month) callback.MonthNav {
	return callback.MonthNav{
		Owned:  callback.Owned{UserID: userID},
		Year:   year,
		Month:  month,
		Marker: -1,
	}
}

func TestMonthPanelGridShape(t *testing.T) {
	h, _, _ := newTestHandler(t)
	u := &models.UserConfig{UserID: 1}

	_, kb, err := h.monthPanel(u, monthNav(1, 2025, time.February))
	require.NoError(t, err)

	// 28 days over rows of five, fillers padding the sixth, one nav row
	require.Len(t, kb.InlineKeyboard, 7)
	for _, row := range kb.InlineKeyboard[:6] {
		assert.Len(t, row, 5)
	}
	last := kb.InlineKeyboard[5]
	assert.Equal(t, "nop", *last[3].CallbackData)
	assert.Equal(t, "nop", *last[4].CallbackData)
	assert.Len(t, kb.InlineKeyboard[6], 3)
}

func TestMonthPanelMarkerTurnsDaysIntoMarks(t *testing.T) {
	h, _, _ := newTestHandler(t)
	u := &models.UserConfig{UserID: 1}

	nav := monthNav(1, 2025, time.June)
	nav.Marker = int(mood.Good)
	_, kb, err := h.monthPanel(u, nav)
	require.NoError(t, err)

	cb, ok := callback.Decode(*kb.InlineKeyboard[0][0].CallbackData)
	require.True(t, ok)
	mark, ok := cb.(callback.MarkDay)
	require.True(t, ok)
	assert.Equal(t, mood.Good, mark.Value)
	assert.Equal(t, callback.DestMonth, mark.Dest)
	assert.Equal(t, 1, mark.Day)
}

func TestCycleMarker(t *testing.T) {
	assert.Equal(t, 1, cycleMarker(-1))
	assert.Equal(t, 2, cycleMarker(1))
	assert.Equal(t, -1, cycleMarker(int(mood.Terrible)))
}

func TestShiftDayAcrossMonthEdge(t *testing.T) {
	open := callback.OpenDay{MonthNav: monthNav(1, 2025, time.June), Day: 30}
	next := shiftDay(open, 1)
	assert.Equal(t, time.July, next.Month)
	assert.Equal(t, 1, next.Day)

	open.Day = 1
	prev := shiftDay(open, -1)
	assert.Equal(t, time.May, prev.Month)
	assert.Equal(t, 31, prev.Day)
}

func TestMarkDayWritesAndRerenders(t *testing.T) {
	h, bot, _ := newTestHandler(t)

	mark := callback.MarkDay{
		OpenDay: callback.OpenDay{MonthNav: monthNav(1, 2025, time.June), Day: 15},
		Value:   mood.Great,
		Dest:    callback.DestDay,
	}
	h.HandleCallback(query(1, callback.Encode(mark)))

	m, err := h.Store.GetMoodMonth(1, 2025, time.June)
	require.NoError(t, err)
	assert.Equal(t, mood.Great, m.Mood(15))

	require.NotEmpty(t, bot.sent)
	_, isEdit := bot.sent[len(bot.sent)-1].(tgbotapi.EditMessageTextConfig)
	assert.True(t, isEdit, "panel must be edited in place")
}

func TestMarkDayToggleClears(t *testing.T) {
	h, _, _ := newTestHandler(t)

	mark := callback.MarkDay{
		OpenDay: callback.OpenDay{MonthNav: monthNav(1, 2025, time.June), Day: 15},
		Value:   mood.Great,
		Dest:    callback.DestDay,
	}
	h.HandleCallback(query(1, callback.Encode(mark)))
	h.HandleCallback(query(1, callback.Encode(mark)))

	m, err := h.Store.GetMoodMonth(1, 2025, time.June)
	require.NoError(t, err)
	assert.Equal(t, mood.Unset, m.Mood(15))
}

func TestForeignButtonRejected(t *testing.T) {
	h, bot, _ := newTestHandler(t)

	nav := monthNav(1, 2025, time.June)
	h.HandleCallback(query(2, callback.Encode(nav)))

	assert.Empty(t, bot.sent, "no panel render for a foreign presser")
	answer := bot.lastAnswer(t)
	assert.Equal(t, "This button is not yours", answer.Text)
	assert.True(t, answer.ShowAlert)
}

func TestAdminMayPressForeignButton(t *testing.T) {
	h, bot, _ := newTestHandler(t)
	h.Cfg.Admins = []int64{2}

	nav := monthNav(1, 2025, time.June)
	h.HandleCallback(query(2, callback.Encode(nav)))

	assert.NotEmpty(t, bot.sent)
}

func TestGarbledCallbackAnswersExpired(t *testing.T) {
	h, bot, _ := newTestHandler(t)

	h.HandleCallback(query(1, "monthnav:1:2025:13:-1:0"))

	assert.Empty(t, bot.sent)
	assert.Equal(t, "This button has expired", bot.lastAnswer(t).Text)
}

func TestStaleDayRejected(t *testing.T) {
	h, bot, _ := newTestHandler(t)

	// day 30 from a stale button, but February has no such day
	open := callback.OpenDay{MonthNav: monthNav(1, 2025, time.February), Day: 30}
	h.HandleCallback(query(1, callback.Encode(open)))

	assert.Empty(t, bot.sent)
	assert.Equal(t, "This button has expired", bot.lastAnswer(t).Text)
}

func TestNoteFlowSavesNote(t *testing.T) {
	h, bot, _ := newTestHandler(t)

	open := callback.OpenDay{MonthNav: monthNav(1, 2025, time.June), Day: 3}
	edit := callback.DayNote{OpenDay: open, Action: callback.NoteEdit}
	h.HandleCallback(query(1, callback.Encode(edit)))

	p, err := h.Store.GetPendingInput(1, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, models.StateEditNote, p.State)

	h.HandleText(&tgbotapi.Message{
		MessageID: 7,
		From:      &tgbotapi.User{ID: 1},
		Chat:      &tgbotapi.Chat{ID: 1, Type: "private"},
		Text:      "slept badly",
	})

	m, err := h.Store.GetMoodMonth(1, 2025, time.June)
	require.NoError(t, err)
	assert.Equal(t, "slept badly", m.Note(3))

	p, err = h.Store.GetPendingInput(1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StateNone, p.State, "input state must be cleared after the save")
	assert.NotEmpty(t, bot.sent)
}

func TestNoteTooLongKeepsState(t *testing.T) {
	h, bot, _ := newTestHandler(t)

	open := callback.OpenDay{MonthNav: monthNav(1, 2025, time.June), Day: 3}
	h.HandleCallback(query(1, callback.Encode(callback.DayNote{OpenDay: open, Action: callback.NoteEdit})))
	bot.sent = nil

	h.HandleText(&tgbotapi.Message{
		MessageID: 7,
		From:      &tgbotapi.User{ID: 1},
		Chat:      &tgbotapi.Chat{ID: 1, Type: "private"},
		Text:      strings.Repeat("x", mood.NoteLimit+1),
	})

	m, err := h.Store.GetMoodMonth(1, 2025, time.June)
	require.NoError(t, err)
	assert.Empty(t, m.Note(3), "over-limit note must not be saved")

	p, err := h.Store.GetPendingInput(1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StateEditNote, p.State, "state survives a rejected save")

	require.Len(t, bot.sent, 1)
	reply := bot.sent[0].(tgbotapi.MessageConfig)
	assert.Contains(t, reply.Text, "3001")
}

func TestCancelButtonEndsNoteEntry(t *testing.T) {
	h, _, _ := newTestHandler(t)

	open := callback.OpenDay{MonthNav: monthNav(1, 2025, time.June), Day: 3}
	h.HandleCallback(query(1, callback.Encode(callback.DayNote{OpenDay: open, Action: callback.NoteEdit})))
	h.HandleCallback(query(1, callback.Encode(open)))

	p, err := h.Store.GetPendingInput(1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StateNone, p.State)
}

func TestNoteEntrySurvivesUnrelatedCallback(t *testing.T) {
	h, bot, _ := newTestHandler(t)

	open := callback.OpenDay{MonthNav: monthNav(1, 2025, time.June), Day: 3}
	h.HandleCallback(query(1, callback.Encode(callback.DayNote{OpenDay: open, Action: callback.NoteEdit})))
	bot.sent = nil

	// a button from some other panel must neither run nor end the entry
	h.HandleCallback(query(1, callback.Encode(callback.NotifySwitchState{Owned: callback.Owned{UserID: 1}})))

	assert.Empty(t, bot.sent, "dropped callback must not render")
	cfg, err := h.Store.GetMoodConfig(1)
	require.NoError(t, err)
	assert.False(t, cfg.NotifyState)

	p, err := h.Store.GetPendingInput(1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StateEditNote, p.State)

	h.HandleText(&tgbotapi.Message{
		MessageID: 7,
		From:      &tgbotapi.User{ID: 1},
		Chat:      &tgbotapi.Chat{ID: 1, Type: "private"},
		Text:      "still here",
	})
	m, err := h.Store.GetMoodMonth(1, 2025, time.June)
	require.NoError(t, err)
	assert.Equal(t, "still here", m.Note(3))
}

func TestNotifyToggleAndTimeGrid(t *testing.T) {
	h, bot, _ := newTestHandler(t)

	h.HandleCallback(query(1, callback.Encode(callback.NotifySwitchState{Owned: callback.Owned{UserID: 1}})))

	cfg, err := h.Store.GetMoodConfig(1)
	require.NoError(t, err)
	assert.True(t, cfg.NotifyState)

	bot.sent = nil
	h.HandleCallback(query(1, callback.Encode(callback.NotifyChoiceTime{Owned: callback.Owned{UserID: 1}})))
	require.Len(t, bot.sent, 1)
	grid := bot.sent[0].(tgbotapi.EditMessageTextConfig)
	// 24 hours in rows of four plus the cancel row
	assert.Len(t, grid.ReplyMarkup.InlineKeyboard, 7)

	// press the rendered 21:00 button, not a hand-built payload
	btn := grid.ReplyMarkup.InlineKeyboard[5][1]
	assert.Equal(t, "21:00", btn.Text)
	h.HandleCallback(query(1, *btn.CallbackData))

	cfg, err = h.Store.GetMoodConfig(1)
	require.NoError(t, err)
	assert.Equal(t, "21:00", cfg.NotifyTime)

	p, err := h.Store.GetPendingInput(1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StateNone, p.State, "picking a time ends the input flow")
}

func TestMonthPanelButtonsNeverBlank(t *testing.T) {
	h, _, _ := newTestHandler(t)
	u := &models.UserConfig{UserID: 1}

	markers := []int{-1}
	for _, v := range mood.Values() {
		markers = append(markers, int(v))
	}
	for _, marker := range markers {
		nav := monthNav(1, 2025, time.February)
		nav.Marker = marker
		_, kb, err := h.monthPanel(u, nav)
		require.NoError(t, err)
		for _, row := range kb.InlineKeyboard {
			for _, btn := range row {
				assert.NotEmpty(t, strings.TrimSpace(btn.Text), "marker %d", marker)
			}
		}
	}
}

func TestTypedTimeInput(t *testing.T) {
	h, _, _ := newTestHandler(t)

	h.HandleCallback(query(1, callback.Encode(callback.NotifyChoiceTime{Owned: callback.Owned{UserID: 1}})))
	h.HandleText(&tgbotapi.Message{
		MessageID: 7,
		From:      &tgbotapi.User{ID: 1},
		Chat:      &tgbotapi.Chat{ID: 1, Type: "private"},
		Text:      "9:45",
	})

	cfg, err := h.Store.GetMoodConfig(1)
	require.NoError(t, err)
	assert.Equal(t, "09:45", cfg.NotifyTime)
}

func TestTimezoneCommand(t *testing.T) {
	h, bot, _ := newTestHandler(t)

	msg := &tgbotapi.Message{
		MessageID: 3,
		From:      &tgbotapi.User{ID: 1},
		Chat:      &tgbotapi.Chat{ID: 1, Type: "private"},
		Text:      "/tz Berlin",
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 3}},
	}
	h.HandleCommand(msg)

	u, err := h.Store.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", u.Timezone)

	require.NotEmpty(t, bot.sent)
	reply := bot.sent[len(bot.sent)-1].(tgbotapi.MessageConfig)
	assert.Contains(t, reply.Text, "Europe/Berlin")
}

func TestFloodedUpdateDropped(t *testing.T) {
	h, bot, _ := newTestHandler(t)

	upd := func() tgbotapi.Update {
		return tgbotapi.Update{Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: 1},
			Chat:      &tgbotapi.Chat{ID: 1, Type: "private"},
			Text:      "/start",
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
		}}
	}
	h.HandleUpdate(upd())
	first := len(bot.sent)
	h.HandleUpdate(upd()) // inside the flood window

	assert.Equal(t, first, len(bot.sent), "second update must be dropped")
}
