package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"tradelog/internal/logger"
)

// WatchLogLevel re-applies app.log_level when the config file changes
// on disk, so verbosity can be raised on a live service. Other fields
// stay fixed until restart.
func WatchLogLevel(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			logger.Warnf("config reload failed: %v", err)
			return
		}
		level := strings.TrimSpace(v.GetString("app.log_level"))
		if level == "" {
			return
		}
		logger.SetLevel(level)
		logger.Infof("log level switched to %s", level)
	})
	v.WatchConfig()
}
