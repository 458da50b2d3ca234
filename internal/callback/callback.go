// Package callback packs typed button actions into short opaque strings
// and back. Payloads ride inside inline-keyboard buttons across process
// restarts, so they carry everything a handler needs: no server-side
// session is involved. The wire form is ASCII,
// "discriminator:field:field:...", and must stay within Telegram's
// 64-byte button budget.
package callback

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"telegram-mood-calendar/internal/mood"
)

const sep = ":"

// Callback is the closed set of button actions. Implementations are plain
// value structs; "merging" an instance with overrides is a struct copy
// plus field assignment at the call site.
type Callback interface {
	fields() []string
	parse(f []string) (Callback, bool)
}

// Ownable is implemented by every callback that belongs to a user. The
// dispatcher rejects a decoded callback whose owner is not the presser
// (admins excepted) before any handler logic runs.
type Ownable interface {
	Owner() int64
}

// Owned is embedded by user-bound variants.
type Owned struct {
	UserID int64
}

func (o Owned) Owner() int64 { return o.UserID }

var (
	parsers = map[string]Callback{}     // discriminator -> prototype
	discs   = map[reflect.Type]string{} // type -> discriminator
)

// register derives the discriminator from the type's name and installs the
// prototype. Collisions are a wiring bug and panic at init.
func register(proto Callback) {
	t := reflect.TypeOf(proto)
	disc := strings.ToLower(t.Name())
	if _, dup := parsers[disc]; dup {
		panic(fmt.Sprintf("callback: discriminator %q registered twice", disc))
	}
	parsers[disc] = proto
	discs[t] = disc
}

func init() {
	register(Nop{})
	register(DeleteMessage{})
	register(MonthNav{})
	register(OpenDay{})
	register(MarkDay{})
	register(DayNote{})
	register(NotifySetTime{})
	register(NotifySwitchState{})
	register(NotifySwitchDayType{})
	register(NotifySetChat{})
	register(NotifyChoiceTime{})
}

// Encode renders c as its wire string. Unregistered types are a wiring
// bug and panic.
func Encode(c Callback) string {
	disc, ok := discs[reflect.TypeOf(c)]
	if !ok {
		panic(fmt.Sprintf("callback: unregistered type %T", c))
	}
	f := c.fields()
	if len(f) == 0 {
		return disc
	}
	return disc + sep + strings.Join(f, sep)
}

// Decode parses a wire payload back into its variant. Unknown
// discriminators, arity mismatches and field parse failures all yield
// (nil, false), never a partially populated value, so a garbled or stale
// payload simply matches nothing.
func Decode(payload string) (Callback, bool) {
	parts := strings.Split(payload, sep)
	proto, ok := parsers[parts[0]]
	if !ok {
		return nil, false
	}
	return proto.parse(parts[1:])
}

// ---------- field helpers ---------------------------------------------------

func fInt64(v int64) string { return strconv.FormatInt(v, 10) }
func fInt(v int) string     { return strconv.Itoa(v) }

func fBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func pInt64(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

func pInt(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	return v, err == nil
}

func pBool(s string) (bool, bool) {
	switch s {
	case "0":
		return false, true
	case "1":
		return true, true
	}
	return false, false
}

// ---------- variants --------------------------------------------------------

// Nop is the filler button padding calendar rows; pressing it only
// answers the query.
type Nop struct{}

func (Nop) fields() []string { return nil }

func (Nop) parse(f []string) (Callback, bool) {
	if len(f) != 0 {
		return nil, false
	}
	return Nop{}, true
}

// DeleteMessage removes the message the button is attached to.
type DeleteMessage struct {
	Owned
}

func (c DeleteMessage) fields() []string { return []string{fInt64(c.UserID)} }

func (DeleteMessage) parse(f []string) (Callback, bool) {
	if len(f) != 1 {
		return nil, false
	}
	uid, ok := pInt64(f[0])
	if !ok {
		return nil, false
	}
	return DeleteMessage{Owned{uid}}, true
}

// MonthNav opens (or re-renders) the month panel. Marker is the mood
// being painted by the marker button, -1 when disabled and never Unset;
// Alert asks the handler to toast the newly selected marker.
type MonthNav struct {
	Owned
	Year   int
	Month  time.Month
	Marker int
	Alert  bool
}

func (c MonthNav) fields() []string {
	return []string{fInt64(c.UserID), fInt(c.Year), fInt(int(c.Month)), fInt(c.Marker), fBool(c.Alert)}
}

func (MonthNav) parse(f []string) (Callback, bool) {
	if len(f) != 5 {
		return nil, false
	}
	c, ok := parseMonthNav(f)
	if !ok {
		return nil, false
	}
	return c, true
}

func parseMonthNav(f []string) (MonthNav, bool) {
	var c MonthNav
	var ok bool
	if c.UserID, ok = pInt64(f[0]); !ok {
		return c, false
	}
	var m int
	if c.Year, ok = pInt(f[1]); !ok {
		return c, false
	}
	if m, ok = pInt(f[2]); !ok || m < 1 || m > 12 {
		return c, false
	}
	c.Month = time.Month(m)
	if c.Marker, ok = pInt(f[3]); !ok || c.Marker < -1 || c.Marker == int(mood.Unset) || c.Marker > int(mood.Terrible) {
		return c, false
	}
	if c.Alert, ok = pBool(f[4]); !ok {
		return c, false
	}
	return c, true
}

// OpenDay opens the day panel for one calendar cell.
type OpenDay struct {
	MonthNav
	Day int
}

func (c OpenDay) fields() []string { return append(c.MonthNav.fields(), fInt(c.Day)) }

func (OpenDay) parse(f []string) (Callback, bool) {
	if len(f) != 6 {
		return nil, false
	}
	c, ok := parseOpenDay(f)
	if !ok {
		return nil, false
	}
	return c, true
}

func parseOpenDay(f []string) (OpenDay, bool) {
	var c OpenDay
	var ok bool
	if c.MonthNav, ok = parseMonthNav(f[:5]); !ok {
		return c, false
	}
	if c.Day, ok = pInt(f[5]); !ok || c.Day < 1 || c.Day > 31 {
		return c, false
	}
	return c, true
}

// Dest tells MarkDay which panel to re-render after the write.
type Dest int

const (
	DestDay Dest = iota
	DestMonth
	DestNotify
)

// MarkDay writes a mood value into a day cell.
type MarkDay struct {
	OpenDay
	Value mood.Value
	Dest  Dest
}

func (c MarkDay) fields() []string {
	return append(c.OpenDay.fields(), fInt(int(c.Value)), fInt(int(c.Dest)))
}

func (MarkDay) parse(f []string) (Callback, bool) {
	if len(f) != 8 {
		return nil, false
	}
	var c MarkDay
	var ok bool
	if c.OpenDay, ok = parseOpenDay(f[:6]); !ok {
		return nil, false
	}
	var v, d int
	if v, ok = pInt(f[6]); !ok || !mood.Value(v).Valid() {
		return nil, false
	}
	c.Value = mood.Value(v)
	if d, ok = pInt(f[7]); !ok || d < int(DestDay) || d > int(DestNotify) {
		return nil, false
	}
	c.Dest = Dest(d)
	return c, true
}

// NoteAction selects what a DayNote button does.
type NoteAction int

const (
	NoteEdit NoteAction = iota
	NoteExtend
	NoteDeleteWarn
	NoteDelete
)

// DayNote starts or resolves a note flow on a day.
type DayNote struct {
	OpenDay
	Action NoteAction
}

func (c DayNote) fields() []string { return append(c.OpenDay.fields(), fInt(int(c.Action))) }

func (DayNote) parse(f []string) (Callback, bool) {
	if len(f) != 7 {
		return nil, false
	}
	var c DayNote
	var ok bool
	if c.OpenDay, ok = parseOpenDay(f[:6]); !ok {
		return nil, false
	}
	var a int
	if a, ok = pInt(f[6]); !ok || a < int(NoteEdit) || a > int(NoteDelete) {
		return nil, false
	}
	c.Action = NoteAction(a)
	return c, true
}

// NotifySetTime stores a new reminder time-of-day. The time rides the
// wire as minutes since midnight: "HH:MM" would carry the field
// delimiter and break the payload apart.
type NotifySetTime struct {
	Owned
	Minutes int
}

// HHMM renders the carried time in the form the config stores.
func (c NotifySetTime) HHMM() string {
	return fmt.Sprintf("%02d:%02d", c.Minutes/60, c.Minutes%60)
}

func (c NotifySetTime) fields() []string { return []string{fInt64(c.UserID), fInt(c.Minutes)} }

func (NotifySetTime) parse(f []string) (Callback, bool) {
	if len(f) != 2 {
		return nil, false
	}
	uid, ok := pInt64(f[0])
	if !ok {
		return nil, false
	}
	m, ok := pInt(f[1])
	if !ok || m < 0 || m >= 24*60 {
		return nil, false
	}
	return NotifySetTime{Owned{uid}, m}, true
}

// NotifySwitchState toggles reminders on/off.
type NotifySwitchState struct {
	Owned
}

func (c NotifySwitchState) fields() []string { return []string{fInt64(c.UserID)} }

func (NotifySwitchState) parse(f []string) (Callback, bool) {
	if len(f) != 1 {
		return nil, false
	}
	uid, ok := pInt64(f[0])
	if !ok {
		return nil, false
	}
	return NotifySwitchState{Owned{uid}}, true
}

// NotifySwitchDayType flips whether the reminder references today or
// yesterday.
type NotifySwitchDayType struct {
	Owned
}

func (c NotifySwitchDayType) fields() []string { return []string{fInt64(c.UserID)} }

func (NotifySwitchDayType) parse(f []string) (Callback, bool) {
	if len(f) != 1 {
		return nil, false
	}
	uid, ok := pInt64(f[0])
	if !ok {
		return nil, false
	}
	return NotifySwitchDayType{Owned{uid}}, true
}

// NotifySetChat targets reminder delivery at a chat (0 = private chat).
type NotifySetChat struct {
	Owned
	ChatID  int64
	TopicID int
}

func (c NotifySetChat) fields() []string {
	return []string{fInt64(c.UserID), fInt64(c.ChatID), fInt(c.TopicID)}
}

func (NotifySetChat) parse(f []string) (Callback, bool) {
	if len(f) != 3 {
		return nil, false
	}
	var c NotifySetChat
	var ok bool
	if c.UserID, ok = pInt64(f[0]); !ok {
		return nil, false
	}
	if c.ChatID, ok = pInt64(f[1]); !ok {
		return nil, false
	}
	if c.TopicID, ok = pInt(f[2]); !ok {
		return nil, false
	}
	return c, true
}

// NotifyChoiceTime opens the 24-hour time grid.
type NotifyChoiceTime struct {
	Owned
}

func (c NotifyChoiceTime) fields() []string { return []string{fInt64(c.UserID)} }

func (NotifyChoiceTime) parse(f []string) (Callback, bool) {
	if len(f) != 1 {
		return nil, false
	}
	uid, ok := pInt64(f[0])
	if !ok {
		return nil, false
	}
	return NotifyChoiceTime{Owned{uid}}, true
}
