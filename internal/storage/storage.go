package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"telegram-mood-calendar/internal/models"
	"telegram-mood-calendar/internal/mood"
)

//go:embed schema.sql
var ddl embed.FS

type DB struct{ *sql.DB }

// New opens (or creates) the sqlite database and applies the schema.
// A connection failure here is fatal to the caller: the process must not
// serve traffic against an unreachable store.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping database")
	}
	if err = migrate(db); err != nil {
		return nil, errors.Wrap(err, "apply schema")
	}
	return &DB{db}, nil
}

func migrate(db *sql.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

// ---------- users -----------------------------------------------------------

func (d *DB) UpsertUser(u *models.UserConfig) error {
	now := time.Now().Unix()
	if u.CreatedAt == 0 {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	_, err := d.Exec(`
        INSERT INTO users (user_id, first_name, last_name, username, locale, timezone, gender, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?)
        ON CONFLICT(user_id) DO UPDATE SET
            first_name=excluded.first_name,
            last_name=excluded.last_name,
            username=excluded.username,
            locale=excluded.locale,
            timezone=excluded.timezone,
            gender=excluded.gender,
            updated_at=excluded.updated_at
    `, u.UserID, u.FirstName, u.LastName, u.Username, u.Locale, u.Timezone, u.Gender, u.CreatedAt, u.UpdatedAt)
	return err
}

// GetUser returns nil, nil when the user has never been stored.
func (d *DB) GetUser(userID int64) (*models.UserConfig, error) {
	var u models.UserConfig
	err := d.QueryRow(`
        SELECT user_id, first_name, last_name, username, locale, timezone, gender, created_at, updated_at
        FROM users WHERE user_id=?`, userID,
	).Scan(&u.UserID, &u.FirstName, &u.LastName, &u.Username, &u.Locale, &u.Timezone, &u.Gender, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ---------- mood months -----------------------------------------------------

// GetMoodMonth returns nil, nil when no row exists; the caller constructs
// the default grid.
func (d *DB) GetMoodMonth(userID int64, year int, month time.Month) (*mood.Month, error) {
	var daysRaw, notesRaw string
	err := d.QueryRow(`
        SELECT days, days_notes FROM mood_months
        WHERE user_id=? AND year=? AND month=?`, userID, year, int(month),
	).Scan(&daysRaw, &notesRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	m := &mood.Month{UserID: userID, Year: year, Month: month}
	if err := json.Unmarshal([]byte(daysRaw), &m.Days); err != nil {
		return nil, errors.Wrapf(err, "mood_months days for %d %d-%02d", userID, year, month)
	}
	if err := json.Unmarshal([]byte(notesRaw), &m.Notes); err != nil {
		return nil, errors.Wrapf(err, "mood_months notes for %d %d-%02d", userID, year, month)
	}
	if want := mood.DaysIn(year, month); len(m.Days) != want || len(m.Notes) != want {
		return nil, errors.Errorf("mood_months row for %d %d-%02d has %d/%d cells, want %d",
			userID, year, month, len(m.Days), len(m.Notes), want)
	}
	return m, nil
}

// MergeMoodMonth upserts the grid in a transaction and removes the row
// again when every cell is at its default, so no empty-month rows persist.
func (d *DB) MergeMoodMonth(m *mood.Month) error {
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if m.Empty() {
		if _, err := tx.Exec(
			`DELETE FROM mood_months WHERE user_id=? AND year=? AND month=?`,
			m.UserID, m.Year, int(m.Month),
		); err != nil {
			return err
		}
		return tx.Commit()
	}

	days, err := json.Marshal(m.Days)
	if err != nil {
		return err
	}
	notes, err := json.Marshal(m.Notes)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`
        INSERT INTO mood_months (user_id, year, month, days, days_notes)
        VALUES (?,?,?,?,?)
        ON CONFLICT(user_id, year, month) DO UPDATE SET
            days=excluded.days,
            days_notes=excluded.days_notes
    `, m.UserID, m.Year, int(m.Month), string(days), string(notes)); err != nil {
		return err
	}
	return tx.Commit()
}

// ---------- mood configs ----------------------------------------------------

func (d *DB) GetMoodConfig(userID int64) (*models.MoodConfig, error) {
	var c models.MoodConfig
	err := d.QueryRow(`
        SELECT user_id, notify_state, notify_chat_id, notify_chat_topic_id, notify_time, notify_current_day
        FROM mood_configs WHERE user_id=?`, userID,
	).Scan(&c.UserID, &c.NotifyState, &c.NotifyChatID, &c.NotifyChatTopic, &c.NotifyTime, &c.NotifyCurrentDay)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *DB) UpsertMoodConfig(c *models.MoodConfig) error {
	_, err := d.Exec(`
        INSERT INTO mood_configs (user_id, notify_state, notify_chat_id, notify_chat_topic_id, notify_time, notify_current_day)
        VALUES (?,?,?,?,?,?)
        ON CONFLICT(user_id) DO UPDATE SET
            notify_state=excluded.notify_state,
            notify_chat_id=excluded.notify_chat_id,
            notify_chat_topic_id=excluded.notify_chat_topic_id,
            notify_time=excluded.notify_time,
            notify_current_day=excluded.notify_current_day
    `, c.UserID, c.NotifyState, c.NotifyChatID, c.NotifyChatTopic, c.NotifyTime, c.NotifyCurrentDay)
	return err
}

// ---------- last messages ---------------------------------------------------

func (d *DB) UpsertLastMessage(lm *models.UserLastMessage) error {
	_, err := d.Exec(`
        INSERT INTO user_last_messages (chat_id, user_id, topic_id, message_id)
        VALUES (?,?,?,?)
        ON CONFLICT(chat_id, user_id, topic_id) DO UPDATE SET
            message_id=excluded.message_id
    `, lm.ChatID, lm.UserID, lm.TopicID, lm.MessageID)
	return err
}

func (d *DB) GetLastMessage(chatID, userID int64, topicID int) (*models.UserLastMessage, error) {
	var lm models.UserLastMessage
	err := d.QueryRow(`
        SELECT chat_id, user_id, topic_id, message_id FROM user_last_messages
        WHERE chat_id=? AND user_id=? AND topic_id=?`, chatID, userID, topicID,
	).Scan(&lm.ChatID, &lm.UserID, &lm.TopicID, &lm.MessageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lm, nil
}

// ---------- pending input (fsm) ---------------------------------------------

func (d *DB) SetPendingInput(p *models.PendingInput) error {
	_, err := d.Exec(`
        INSERT INTO user_states (chat_id, user_id, state, payload)
        VALUES (?,?,?,?)
        ON CONFLICT(chat_id, user_id) DO UPDATE SET
            state=excluded.state,
            payload=excluded.payload
    `, p.ChatID, p.UserID, string(p.State), p.Payload)
	return err
}

func (d *DB) GetPendingInput(chatID, userID int64) (*models.PendingInput, error) {
	p := models.PendingInput{ChatID: chatID, UserID: userID}
	var state string
	err := d.QueryRow(`
        SELECT state, payload FROM user_states WHERE chat_id=? AND user_id=?`,
		chatID, userID,
	).Scan(&state, &p.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return &p, nil
	}
	if err != nil {
		return nil, err
	}
	p.State = models.InputState(state)
	return &p, nil
}

func (d *DB) ClearPendingInput(chatID, userID int64) error {
	_, err := d.Exec(`DELETE FROM user_states WHERE chat_id=? AND user_id=?`, chatID, userID)
	return err
}

// ---------- notify jobs -----------------------------------------------------

func (d *DB) UpsertNotifyJob(j *models.NotifyJob) error {
	_, err := d.Exec(`
        INSERT INTO notify_jobs (job_key, user_id, target_date, current_day, next_fire_unix)
        VALUES (?,?,?,?,?)
        ON CONFLICT(job_key) DO UPDATE SET
            user_id=excluded.user_id,
            target_date=excluded.target_date,
            current_day=excluded.current_day,
            next_fire_unix=excluded.next_fire_unix
    `, j.JobKey, j.UserID, j.TargetDate, j.CurrentDay, j.NextFire)
	return err
}

func (d *DB) GetNotifyJob(jobKey string) (*models.NotifyJob, error) {
	var j models.NotifyJob
	err := d.QueryRow(`
        SELECT job_key, user_id, target_date, current_day, next_fire_unix
        FROM notify_jobs WHERE job_key=?`, jobKey,
	).Scan(&j.JobKey, &j.UserID, &j.TargetDate, &j.CurrentDay, &j.NextFire)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// DeleteNotifyJob is idempotent: removing a missing job is not an error.
func (d *DB) DeleteNotifyJob(jobKey string) error {
	_, err := d.Exec(`DELETE FROM notify_jobs WHERE job_key=?`, jobKey)
	return err
}

func (d *DB) ListNotifyJobs() ([]models.NotifyJob, error) {
	rows, err := d.Query(`SELECT job_key, user_id, target_date, current_day, next_fire_unix FROM notify_jobs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []models.NotifyJob
	for rows.Next() {
		var j models.NotifyJob
		if err := rows.Scan(&j.JobKey, &j.UserID, &j.TargetDate, &j.CurrentDay, &j.NextFire); err != nil {
			return nil, err
		}
		res = append(res, j)
	}
	return res, rows.Err()
}
