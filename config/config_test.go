package config

import "testing"

func TestLoadAppliesDefaultsWhenNoFilesPresent(t *testing.T) {
	t.Setenv("RIKER_CONF", "config/does-not-exist-riker")
	t.Setenv("APP_CONF", "config/does-not-exist-app")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !s.Debug {
		t.Error("expected debug default true")
	}
	if s.Log.Level != "debug" {
		t.Errorf("expected default log level debug, got %q", s.Log.Level)
	}
	if s.MsgProcessLimit != 1000 {
		t.Errorf("expected default msg_process_limit 1000, got %d", s.MsgProcessLimit)
	}
	if s.DispatcherPoolSize != 4 {
		t.Errorf("expected default pool size 4, got %d", s.DispatcherPoolSize)
	}
	if s.SchedulerFrequency.Milliseconds() != 50 {
		t.Errorf("expected default scheduler frequency 50ms, got %v", s.SchedulerFrequency)
	}
	if s.App == nil {
		t.Error("expected App viper handle to be non-nil even when APP_CONF is absent")
	}
}

func TestWatchReloadNoopsWithoutAConfigFile(t *testing.T) {
	t.Setenv("RIKER_CONF", "config/does-not-exist-riker")
	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Must not panic even though no file backs s.runtimeV.
	s.WatchReload()
}
