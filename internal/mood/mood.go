package mood

import (
	"fmt"
	"time"
)

// Value is a recorded mood for a single day. Zero means the day has not
// been filled in.
type Value int

const (
	Unset Value = iota
	Awesome
	Great
	Good
	Okay
	Bad
	Terrible
)

var emojis = [...]string{"", "💜", "💙", "🩵", "💛", "🧡", "💀"}
var names = [...]string{"unset", "awesome", "great", "good", "okay", "bad", "terrible"}

// Values lists every settable mood, i.e. everything except Unset.
func Values() []Value {
	return []Value{Awesome, Great, Good, Okay, Bad, Terrible}
}

func (v Value) Valid() bool { return v >= Unset && v <= Terrible }

// Emoji returns the marker shown on calendar buttons, empty for Unset.
func (v Value) Emoji() string {
	if !v.Valid() {
		panic(fmt.Sprintf("mood: invalid value %d", int(v)))
	}
	return emojis[v]
}

// Name returns the lookup-key fragment used by the message catalog.
func (v Value) Name() string {
	if !v.Valid() {
		panic(fmt.Sprintf("mood: invalid value %d", int(v)))
	}
	return names[v]
}

// DaysIn returns the number of calendar days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
