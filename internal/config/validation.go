package config

import (
	"fmt"
	"strings"
	"time"
)

func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Cache.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("app.log_level must be one of debug/info/warn/error, got %s", a.LogLevel)
	}
}

func (c *CacheConfig) validate() error {
	if c.MaxAgeSeconds < 1 || c.MaxAgeSeconds > 3600 {
		return fmt.Errorf("cache.max_age_seconds must be in [1,3600]")
	}
	if c.MinRefreshIntervalSeconds < 0 {
		return fmt.Errorf("cache.min_refresh_interval_seconds must be >= 0")
	}
	if c.MinRefreshIntervalSeconds > c.MaxAgeSeconds {
		return fmt.Errorf("cache.min_refresh_interval_seconds cannot exceed cache.max_age_seconds")
	}
	if c.RefreshWaitMillis <= 0 || c.RefreshWaitMillis > 60000 {
		return fmt.Errorf("cache.refresh_wait_ms must be in (0,60000]")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Telegram.Enabled {
		if n.Telegram.BotToken == "" || n.Telegram.ChatID == "" {
			return fmt.Errorf("telegram notification enabled but missing bot_token or chat_id")
		}
	}
	return nil
}

// MaxAge returns the staleness bound as a duration.
func (c CacheConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeSeconds) * time.Second
}

// MinRefreshInterval returns the refresh floor as a duration.
func (c CacheConfig) MinRefreshInterval() time.Duration {
	return time.Duration(c.MinRefreshIntervalSeconds) * time.Second
}

// RefreshWait returns how long a request blocks on a refresh before
// falling back to the stale snapshot.
func (c CacheConfig) RefreshWait() time.Duration {
	return time.Duration(c.RefreshWaitMillis) * time.Millisecond
}
