package callback

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-mood-calendar/internal/mood"
)

func TestRoundTripAllVariants(t *testing.T) {
	nav := MonthNav{Owned: Owned{42}, Year: 2025, Month: time.December, Marker: -1}
	day := OpenDay{MonthNav: nav, Day: 31}

	cases := []Callback{
		Nop{},
		DeleteMessage{Owned{42}},
		nav,
		MonthNav{Owned: Owned{42}, Year: 2025, Month: time.January, Marker: 3, Alert: true},
		day,
		MarkDay{OpenDay: day, Value: mood.Terrible, Dest: DestMonth},
		MarkDay{OpenDay: day, Value: mood.Awesome, Dest: DestNotify},
		DayNote{OpenDay: day, Action: NoteExtend},
		DayNote{OpenDay: day, Action: NoteDelete},
		NotifySetTime{Owned{42}, 9*60 + 30},
		NotifySwitchState{Owned{42}},
		NotifySwitchDayType{Owned{42}},
		NotifySetChat{Owned: Owned{42}, ChatID: -1001234567890, TopicID: 17},
		NotifyChoiceTime{Owned{42}},
	}

	for _, c := range cases {
		payload := Encode(c)
		got, ok := Decode(payload)
		require.True(t, ok, "payload %q", payload)
		assert.Equal(t, c, got, "payload %q", payload)
	}
}

func TestNotifySetTimeWireForm(t *testing.T) {
	// minutes since midnight: a "HH:MM" field would smuggle the delimiter
	// into the payload and shift the arity
	c := NotifySetTime{Owned{42}, 9*60 + 30}
	payload := Encode(c)
	assert.Equal(t, "notifysettime:42:570", payload)

	got, ok := Decode(payload)
	require.True(t, ok)
	assert.Equal(t, c, got)
	assert.Equal(t, "09:30", got.(NotifySetTime).HHMM())
}

func TestPayloadBudget(t *testing.T) {
	// widest realistic payload: maximal telegram ids and field values
	worst := MarkDay{
		OpenDay: OpenDay{
			MonthNav: MonthNav{Owned: Owned{9999999999999}, Year: 2099, Month: time.December, Marker: -1, Alert: true},
			Day:      31,
		},
		Value: mood.Terrible,
		Dest:  DestNotify,
	}
	assert.LessOrEqual(t, len(Encode(worst)), 64)

	chat := NotifySetChat{Owned: Owned{9999999999999}, ChatID: -1009999999999999, TopicID: 999999}
	assert.LessOrEqual(t, len(Encode(chat)), 64)
}

func TestDecodeNoMatch(t *testing.T) {
	nav := MonthNav{Owned: Owned{42}, Year: 2025, Month: time.May, Marker: -1}
	valid := Encode(nav)

	bad := []string{
		"",
		"bogus",
		"bogus:1:2",
		valid + ":extra",                        // arity mismatch
		strings.TrimSuffix(valid, ":0"),         // truncated
		"monthnav:42:2025:13:-1:0",              // month out of range
		"monthnav:42:2025:5:9:0",                // marker out of range
		"monthnav:x:2025:5:-1:0",                // type mismatch
		"monthnav:42:2025:5:0:0",                // unset marker
		"markday:42:2025:5:-1:0:31:7:0",         // invalid mood ordinal
		"daynote:42:2025:5:-1:0:31:4",           // invalid action
		"notifysettime:42:09:30",                // display text, not minutes
		"notifysettime:42:1440",                 // minutes out of range
		"notifysettime:42:24h",                  // not a number
		"openday:42:2025:5:-1:0:32",             // day out of range
	}
	for _, payload := range bad {
		got, ok := Decode(payload)
		assert.False(t, ok, "payload %q", payload)
		assert.Nil(t, got, "payload %q", payload)
	}
}

func TestOwnership(t *testing.T) {
	var c Callback = MarkDay{OpenDay: OpenDay{MonthNav: MonthNav{Owned: Owned{42}}}}
	owned, ok := c.(Ownable)
	require.True(t, ok)
	assert.EqualValues(t, 42, owned.Owner())

	_, ok = Callback(Nop{}).(Ownable)
	assert.False(t, ok, "Nop has no owner")
}

func TestMergeByCopy(t *testing.T) {
	// "merge" is a struct copy plus overrides; everything else carries over
	nav := MonthNav{Owned: Owned{42}, Year: 2025, Month: time.January, Marker: 2}
	next := nav
	next.Month = time.February

	assert.Equal(t, nav.UserID, next.UserID)
	assert.Equal(t, nav.Marker, next.Marker)
	assert.Equal(t, time.February, next.Month)

	got, ok := Decode(Encode(next))
	require.True(t, ok)
	assert.Equal(t, next, got)
}
