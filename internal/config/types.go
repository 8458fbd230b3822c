package config

import "strings"

// Config is the main configuration carrier for tradelog.
type Config struct {
	App     AppConfig     `toml:"app"`
	Sheets  SheetsConfig  `toml:"sheets"`
	Cache   CacheConfig   `toml:"cache"`
	Journal JournalConfig `toml:"journal"`
	Notify  NotifyConfig  `toml:"notify"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// SheetsConfig describes access to the remote spreadsheet API. Credentials
// may be absent: the service still starts and reports store errors per
// request instead.
type SheetsConfig struct {
	APIURL         string `toml:"api_url"`
	SpreadsheetID  string `toml:"spreadsheet_id"`
	APIToken       string `toml:"api_token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	LayoutPath     string `toml:"layout_path"`
}

// CacheConfig bounds snapshot staleness and refresh pressure.
type CacheConfig struct {
	MaxAgeSeconds             int `toml:"max_age_seconds"`
	MinRefreshIntervalSeconds int `toml:"min_refresh_interval_seconds"`
	RefreshWaitMillis         int `toml:"refresh_wait_ms"`
}

type JournalConfig struct {
	AuditDBPath  string `toml:"audit_db_path"`
	AuditEnabled bool   `toml:"audit_enabled"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// keySet tracks which field paths the config file set explicitly.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault describes the default rule for a single field.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
