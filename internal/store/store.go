// Package store is the single access point to durable state. It fronts
// the sqlite layer with an in-memory user cache that never diverges from
// storage under concurrent access: loads are serialized per user through
// a bounded mutex pool, writes go through a single coarse save lock, and
// callers only ever see private snapshots of cached entries.
package store

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"telegram-mood-calendar/internal/models"
	"telegram-mood-calendar/internal/mood"
	"telegram-mood-calendar/internal/storage"
)

const lockShards = 64

type Store struct {
	db  *storage.DB
	log *zap.SugaredLogger

	cacheMu sync.RWMutex
	users   map[int64]*models.UserConfig

	// bounded pool of per-user load locks; user ids hash into it, so two
	// users may share a mutex but one user never loads twice concurrently
	shards [lockShards]sync.Mutex

	saveMu sync.Mutex

	// fired after every MoodConfig merge; the scheduler registers itself
	onMoodConfig func(cfg *models.MoodConfig)
}

func New(db *storage.DB, log *zap.SugaredLogger) *Store {
	return &Store{
		db:    db,
		log:   log,
		users: make(map[int64]*models.UserConfig),
	}
}

// OnMoodConfigChange registers the resync hook fired after every
// MoodConfig merge. Must be called before traffic is served.
func (s *Store) OnMoodConfigChange(fn func(cfg *models.MoodConfig)) {
	s.onMoodConfig = fn
}

func (s *Store) shard(userID int64) *sync.Mutex {
	h := fnv.New64a()
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(userID >> (8 * i))
	}
	h.Write(buf[:])
	return &s.shards[h.Sum64()%lockShards]
}

// cached hands out a copy, never the cached pointer: entries are replaced
// wholesale under cacheMu and must not be written to in place.
func (s *Store) cached(userID int64) (*models.UserConfig, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, false
	}
	cp := *u
	return &cp, true
}

func (s *Store) install(cfg *models.UserConfig) {
	cp := *cfg
	s.cacheMu.Lock()
	s.users[cfg.UserID] = &cp
	s.cacheMu.Unlock()
}

// GetUser returns a snapshot of the cached config, loading it from
// storage at most once no matter how many callers race. An absent row
// yields a fresh default that is cached but not persisted until the first
// save. Mutations of the snapshot stay private until SaveUser.
func (s *Store) GetUser(userID int64) (*models.UserConfig, error) {
	if u, ok := s.cached(userID); ok {
		return u, nil
	}

	mu := s.shard(userID)
	mu.Lock()
	defer mu.Unlock()

	// double-checked: another caller may have loaded while we waited
	if u, ok := s.cached(userID); ok {
		return u, nil
	}

	u, err := s.db.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		u = &models.UserConfig{UserID: userID}
	}
	s.install(u)
	return u, nil
}

// SaveUsers extracts every user identity embedded in the updates,
// de-duplicates them and upserts their profiles. It runs under one global
// save mutex: writes are small and rare next to reads, and many events in
// one tick often reference the same user. Failures are logged and
// swallowed; profile saving must never break the event pipeline.
func (s *Store) SaveUsers(updates ...tgbotapi.Update) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	seen := make(map[int64]*tgbotapi.User)
	for i := range updates {
		for _, tu := range usersFromUpdate(&updates[i]) {
			seen[tu.ID] = tu
		}
	}

	for id, tu := range seen {
		cfg, err := s.GetUser(id)
		if err != nil {
			s.log.Errorw("load user for save", "user_id", id, "err", err)
			continue
		}
		cfg.FirstName = tu.FirstName
		cfg.LastName = tu.LastName
		cfg.Username = tu.UserName
		if tu.LanguageCode != "" {
			cfg.Locale = tu.LanguageCode
		}
		if err := s.db.UpsertUser(cfg); err != nil {
			s.log.Errorw("save user", "user_id", id, "err", err)
			continue
		}
		s.install(cfg)
	}
}

// SaveUser persists an explicitly mutated snapshot (timezone, gender) and
// makes it the cached profile.
func (s *Store) SaveUser(cfg *models.UserConfig) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if err := s.db.UpsertUser(cfg); err != nil {
		return err
	}
	s.install(cfg)
	return nil
}

// ---------- ledger & config -------------------------------------------------

// GetMoodMonth never yields nil: an absent row is a fresh default grid,
// not persisted until the first merge.
func (s *Store) GetMoodMonth(userID int64, year int, month time.Month) (*mood.Month, error) {
	m, err := s.db.GetMoodMonth(userID, year, month)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = mood.NewMonth(userID, year, month)
	}
	return m, nil
}

// MergeMoodMonth persists the grid, dropping the row when it is empty.
func (s *Store) MergeMoodMonth(m *mood.Month) error {
	return s.db.MergeMoodMonth(m)
}

func (s *Store) GetMoodConfig(userID int64) (*models.MoodConfig, error) {
	c, err := s.db.GetMoodConfig(userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = &models.MoodConfig{UserID: userID, NotifyTime: "00:00"}
	}
	return c, nil
}

// MergeMoodConfig upserts the config and fires the scheduler resync hook.
func (s *Store) MergeMoodConfig(cfg *models.MoodConfig) error {
	if err := s.db.UpsertMoodConfig(cfg); err != nil {
		return err
	}
	if s.onMoodConfig != nil {
		s.onMoodConfig(cfg)
	}
	return nil
}

func (s *Store) GetLastMessage(chatID, userID int64, topicID int) (*models.UserLastMessage, error) {
	return s.db.GetLastMessage(chatID, userID, topicID)
}

// SaveLastMessage records the reply-threading pointer for group messages.
// Private chats are skipped: a reminder there needs no threading.
func (s *Store) SaveLastMessage(m *tgbotapi.Message, topicID int) {
	if m.From == nil || m.Chat == nil || m.Chat.IsPrivate() {
		return
	}
	err := s.db.UpsertLastMessage(&models.UserLastMessage{
		ChatID:    m.Chat.ID,
		UserID:    m.From.ID,
		TopicID:   topicID,
		MessageID: m.MessageID,
	})
	if err != nil {
		s.log.Errorw("save last message", "chat_id", m.Chat.ID, "user_id", m.From.ID, "err", err)
	}
}

// ---------- pending input ---------------------------------------------------

func (s *Store) GetPendingInput(chatID, userID int64) (*models.PendingInput, error) {
	return s.db.GetPendingInput(chatID, userID)
}

func (s *Store) SetPendingInput(p *models.PendingInput) error {
	return s.db.SetPendingInput(p)
}

func (s *Store) ClearPendingInput(chatID, userID int64) error {
	return s.db.ClearPendingInput(chatID, userID)
}

// ---------- notify jobs (owned by the scheduler) ----------------------------

func (s *Store) GetNotifyJob(jobKey string) (*models.NotifyJob, error) { return s.db.GetNotifyJob(jobKey) }
func (s *Store) UpsertNotifyJob(j *models.NotifyJob) error            { return s.db.UpsertNotifyJob(j) }
func (s *Store) DeleteNotifyJob(jobKey string) error                  { return s.db.DeleteNotifyJob(jobKey) }
func (s *Store) ListNotifyJobs() ([]models.NotifyJob, error)          { return s.db.ListNotifyJobs() }

// ---------- offline updates -------------------------------------------------

// updatesAPI is the slice of the bot client the drain needs.
type updatesAPI interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// DrainOffline pages through updates the transport buffered while the
// process was down, saves the user profiles they carry, then drops the
// backlog. Bounded by ctx; every failure is logged and swallowed, a bad
// drain must not block startup. Returns the offset the live update loop
// should start from.
func (s *Store) DrainOffline(ctx context.Context, bot updatesAPI) int {
	offset := 0
	for {
		select {
		case <-ctx.Done():
			s.log.Warnw("offline drain timed out", "err", ctx.Err())
			return s.dropBacklog(bot, offset)
		default:
		}

		updates, err := bot.GetUpdates(tgbotapi.UpdateConfig{Offset: offset, Limit: 100})
		if err != nil {
			s.log.Errorw("offline drain", "err", err)
			return s.dropBacklog(bot, offset)
		}
		if len(updates) == 0 {
			break
		}

		s.SaveUsers(updates...)
		offset = updates[len(updates)-1].UpdateID + 1
		s.log.Infow("handled offline updates", "count", len(updates))

		if len(updates) < 100 {
			break
		}
	}
	return s.dropBacklog(bot, offset)
}

func (s *Store) dropBacklog(bot updatesAPI, offset int) int {
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		s.log.Errorw("delete webhook", "err", err)
	}
	return offset
}
