package config

import (
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"
)

const tokenSecretPath = "/run/secrets/telegram_bot_token"

type Config struct {
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`

	DBPath string `env:"DB_PATH" env-default:"data/mood.db"`

	// user ids exempt from flood control and ownership checks
	Admins []int64 `env:"ADMINS" env-separator:","`

	DefaultTimezone string `env:"DEFAULT_TIMEZONE" env-default:"UTC"`
	DefaultLocale   string `env:"DEFAULT_LOCALE" env-default:"en"`

	FloodWindow  time.Duration `env:"FLOOD_WINDOW" env-default:"500ms"`
	DrainTimeout time.Duration `env:"DRAIN_TIMEOUT" env-default:"15s"`
	SendCooldown time.Duration `env:"SEND_COOLDOWN" env-default:"3s"`

	Debug bool `env:"DEBUG" env-default:"false"`
}

// Load reads the environment into a Config. The bot token may arrive as a
// Docker secret instead of an environment variable; the secret wins.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, errors.Wrap(err, "read environment")
	}

	if data, err := os.ReadFile(tokenSecretPath); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			cfg.TelegramToken = token
		}
	}
	if cfg.TelegramToken == "" {
		return nil, errors.New("bot token is missing: set TELEGRAM_BOT_TOKEN or mount the secret")
	}

	return &cfg, nil
}

// IsAdmin reports whether the user is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admins {
		if id == userID {
			return true
		}
	}
	return false
}
