package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overlays environment variables on cfg. Integer seconds variables
// become duration strings.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	seconds := func(key string, dst *string) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: want a positive number of seconds, got %q", key, v)
		}
		*dst = strconv.Itoa(n) + "s"
		return nil
	}
	integer := func(key string, dst *int) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", key, v)
		}
		*dst = n
		return nil
	}

	str("TELEGRAM_BOT_TOKEN", &cfg.Telegram.Token)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("REMOTE_BASE_URL", &cfg.Remote.BaseURL)
	str("DATA_FILE", &cfg.Storage.Path)
	str("STORAGE_DRIVER", &cfg.Storage.Driver)
	str("REDIS_ADDR", &cfg.Storage.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Storage.Redis.Password)

	var errs []error
	errs = append(errs,
		seconds("POLL_SECONDS", &cfg.Monitor.PollInterval),
		seconds("NOTIFY_FORCE_SECONDS", &cfg.Monitor.ForceInterval),
		seconds("REQUEST_TIMEOUT_SECONDS", &cfg.Remote.Timeout),
		integer("REDIS_DB", &cfg.Storage.Redis.DB),
	)
	if v := strings.TrimSpace(getenv("ADMIN_CHAT_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("ADMIN_CHAT_ID: invalid chat id %q", v))
		} else {
			cfg.Telegram.AdminChatID = id
		}
	}
	return errors.Join(errs...)
}
