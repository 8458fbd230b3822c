// Package config loads the service configuration from YAML with
// env-var overrides for secrets. A missing config file is not an
// error; every field has a default and credentials degrade to
// per-request store failures.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads the config at path. An empty path or absent file yields
// the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setKeys := make(keySet)
	if strings.TrimSpace(path) != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
			}
			collectSettingsKeys(v.AllSettings(), setKeys)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyEnvOverrides()
	cfg.applyDefaults(setKeys)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides lets secrets and deploy-specific values come from
// the environment instead of the file.
func (c *Config) applyEnvOverrides() {
	envOverride(&c.App.HTTPAddr, "TRADELOG_HTTP_ADDR")
	envOverride(&c.App.LogLevel, "TRADELOG_LOG_LEVEL")
	envOverride(&c.Sheets.APIURL, "TRADELOG_SHEETS_API_URL")
	envOverride(&c.Sheets.SpreadsheetID, "TRADELOG_SHEETS_SPREADSHEET_ID")
	envOverride(&c.Sheets.APIToken, "TRADELOG_SHEETS_API_TOKEN")
	envOverride(&c.Notify.Telegram.BotToken, "TRADELOG_TELEGRAM_BOT_TOKEN")
	envOverride(&c.Notify.Telegram.ChatID, "TRADELOG_TELEGRAM_CHAT_ID")
}

func envOverride(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func collectSettingsKeys(settings map[string]any, dest keySet) {
	if dest == nil || len(settings) == 0 {
		return
	}
	flattenConfigKeys("", settings, dest)
}

func flattenConfigKeys(prefix string, node any, dest keySet) {
	switch val := node.(type) {
	case map[string]any:
		for k, v := range val {
			next := strings.ToLower(strings.TrimSpace(k))
			if next == "" {
				continue
			}
			if prefix != "" {
				next = prefix + "." + next
			}
			flattenConfigKeys(next, v, dest)
		}
	case []any:
		if prefix != "" {
			dest.mark(prefix)
		}
		for _, item := range val {
			flattenConfigKeys(prefix, item, dest)
		}
	default:
		if prefix != "" {
			dest.mark(prefix)
		}
	}
}
