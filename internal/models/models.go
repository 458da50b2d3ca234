package models

import "time"

// UserConfig holds per-user identity and settings. Created lazily on the
// first sighting of a user, never deleted. The authoritative copy lives in
// the users table; a cached copy is kept in memory keyed by UserID.
type UserConfig struct {
	UserID    int64  `db:"user_id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Username  string `db:"username"`
	Locale    string `db:"locale"`   // empty -> app default
	Timezone  string `db:"timezone"` // IANA zone name, empty -> app default
	Gender    string `db:"gender"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

// Name returns a display name, falling back to the username and finally
// the numeric id.
func (u *UserConfig) Name() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		name = u.Username
	}
	return name
}

// Location resolves the user's zone, falling back to def when unset or
// unparsable.
func (u *UserConfig) Location(def string) *time.Location {
	for _, tz := range []string{u.Timezone, def} {
		if tz == "" {
			continue
		}
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.UTC
}

// MoodConfig is the per-user reminder configuration. Every merge of this
// record triggers a scheduler resync.
type MoodConfig struct {
	UserID           int64  `db:"user_id"`
	NotifyState      bool   `db:"notify_state"`
	NotifyChatID     int64  `db:"notify_chat_id"` // 0 -> deliver to private chat
	NotifyChatTopic  int    `db:"notify_chat_topic_id"`
	NotifyTime       string `db:"notify_time"` // "HH:MM", local to the user zone
	NotifyCurrentDay bool   `db:"notify_current_day"`
}

// UserLastMessage points at the most recent message a user authored in a
// chat thread; reminders are threaded as replies to it.
type UserLastMessage struct {
	ChatID    int64 `db:"chat_id"`
	UserID    int64 `db:"user_id"`
	TopicID   int   `db:"topic_id"`
	MessageID int   `db:"message_id"`
}

// NotifyJob is the durable record behind a scheduled reminder, the source
// of truth for the schedule across restarts.
type NotifyJob struct {
	JobKey     string `db:"job_key"`
	UserID     int64  `db:"user_id"`
	TargetDate string `db:"target_date"` // YYYY-MM-DD, the day the reminder is about
	CurrentDay bool   `db:"current_day"`
	NextFire   int64  `db:"next_fire_unix"`
}
