// Package config loads the runtime's own settings (mailbox quota,
// worker pool size, scheduler tick) from an optional RIKER_CONF file,
// and exposes an opaque APP_CONF handle for the embedding application's
// own settings. Both files are optional: a missing file falls back to
// defaults, never an error, matching the original runtime's
// File::with_name(...).required(false) behavior.
package config

import (
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Logging holds the subset of keys the `logger` package consumes to
// build its default structured sink.
type Logging struct {
	Level      string
	Format     string
	DateFormat string
	TimeFormat string
}

// Settings is the runtime-level configuration loaded from RIKER_CONF,
// plus an opaque handle onto APP_CONF for the embedding application.
type Settings struct {
	Debug bool
	Log   Logging

	MsgProcessLimit      int
	DispatcherPoolSize   int
	SchedulerFrequency   time.Duration

	// App is the embedding application's own settings, read from
	// APP_CONF. The runtime never inspects its contents.
	App *viper.Viper

	mu        sync.RWMutex
	onReload  []func(Settings)
	runtimeV  *viper.Viper
}

func defaults(v *viper.Viper) {
	v.SetDefault("debug", true)
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.log_format", "text")
	v.SetDefault("log.date_format", "2006-01-02")
	v.SetDefault("log.time_format", "15:04:05")
	v.SetDefault("mailbox.msg_process_limit", 1000)
	v.SetDefault("dispatcher.pool_size", 4)
	v.SetDefault("scheduler.frequency_millis", 50)
}

// Load reads RIKER_CONF (default "config/riker") for runtime settings
// and APP_CONF (default "config/app") for the application's own
// settings. Neither file needs to exist.
func Load() (*Settings, error) {
	runtimeV := viper.New()
	defaults(runtimeV)
	runtimeV.SetConfigName(configNameOr("RIKER_CONF", "config/riker"))
	runtimeV.AddConfigPath(".")
	if err := runtimeV.ReadInConfig(); err != nil {
		if !isConfigNotFound(err) {
			return nil, err
		}
	}

	appV := viper.New()
	appV.SetConfigName(configNameOr("APP_CONF", "config/app"))
	appV.AddConfigPath(".")
	if err := appV.ReadInConfig(); err != nil {
		if !isConfigNotFound(err) {
			return nil, err
		}
	}

	s := fromViper(runtimeV)
	s.App = appV
	s.runtimeV = runtimeV
	return s, nil
}

func configNameOr(envVar, fallback string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return fallback
}

func isConfigNotFound(err error) bool {
	_, ok := err.(viper.ConfigFileNotFoundError)
	return ok
}

func fromViper(v *viper.Viper) *Settings {
	return &Settings{
		Debug: v.GetBool("debug"),
		Log: Logging{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.log_format"),
			DateFormat: v.GetString("log.date_format"),
			TimeFormat: v.GetString("log.time_format"),
		},
		MsgProcessLimit:    v.GetInt("mailbox.msg_process_limit"),
		DispatcherPoolSize: v.GetInt("dispatcher.pool_size"),
		SchedulerFrequency: time.Duration(v.GetInt("scheduler.frequency_millis")) * time.Millisecond,
	}
}

// OnReload registers a callback invoked whenever WatchReload applies a
// hot-reloaded change to debug/log.level. Pool size and mailbox quota
// are read once at boot and are never hot-reloaded: changing them after
// the worker pool has started would require tearing it down.
func (s *Settings) OnReload(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = append(s.onReload, fn)
}

// WatchReload watches the RIKER_CONF file for changes and applies
// updates to debug and log.level only, notifying every OnReload
// callback. It is a no-op if Load found no config file to watch.
func (s *Settings) WatchReload() {
	if s.runtimeV == nil || s.runtimeV.ConfigFileUsed() == "" {
		return
	}
	s.runtimeV.OnConfigChange(func(fsnotify.Event) {
		s.mu.Lock()
		s.Debug = s.runtimeV.GetBool("debug")
		s.Log.Level = s.runtimeV.GetString("log.level")
		callbacks := append([]func(Settings){}, s.onReload...)
		snapshot := *s
		s.mu.Unlock()

		for _, cb := range callbacks {
			cb(snapshot)
		}
	})
	s.runtimeV.WatchConfig()
}
