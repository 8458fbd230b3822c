package config

import "strings"

const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppHTTPAddr     = ":8080"
	defaultAppLogPath      = "data/logs/tradelog.log"
	defaultSheetsTimeout   = 15
	defaultSheetsLayout    = "configs/layout.yaml"
	defaultCacheMaxAge     = 30
	defaultCacheMinRefresh = 0
	defaultCacheWaitMillis = 2000
	defaultAuditDBPath     = "data/db/tradelog.db"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Sheets.applyDefaults(keys)
	c.Cache.applyDefaults(keys)
	c.Journal.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (s *SheetsConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "sheets.timeout_seconds",
			need:  func() bool { return s.TimeoutSeconds <= 0 },
			apply: func() { s.TimeoutSeconds = defaultSheetsTimeout },
		},
		stringFieldDefault("sheets.layout_path", &s.LayoutPath, defaultSheetsLayout),
	)
}

func (c *CacheConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "cache.max_age_seconds",
			need:  func() bool { return c.MaxAgeSeconds <= 0 },
			apply: func() { c.MaxAgeSeconds = defaultCacheMaxAge },
		},
		fieldDefault{
			key:   "cache.min_refresh_interval_seconds",
			need:  func() bool { return c.MinRefreshIntervalSeconds < 0 },
			apply: func() { c.MinRefreshIntervalSeconds = defaultCacheMinRefresh },
		},
		fieldDefault{
			key:   "cache.refresh_wait_ms",
			need:  func() bool { return c.RefreshWaitMillis <= 0 },
			apply: func() { c.RefreshWaitMillis = defaultCacheWaitMillis },
		},
	)
}

func (j *JournalConfig) applyDefaults(keys keySet) {
	if j == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("journal.audit_db_path", &j.AuditDBPath, defaultAuditDBPath),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
