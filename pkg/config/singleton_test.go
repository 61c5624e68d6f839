package config

import "testing"

func resetPublished(t *testing.T) {
	t.Helper()
	prev := GetConfig()
	SetConfig(nil)
	t.Cleanup(func() { SetConfig(prev) })
}

func TestGetConfig_NothingPublished(t *testing.T) {
	resetPublished(t)

	if GetConfig() != nil {
		t.Error("expected nil before anything is published")
	}
	if got := ChatDefaultModel(); got != DefaultChatModel {
		t.Errorf("ChatDefaultModel() = %q, want %q", got, DefaultChatModel)
	}
}

func TestReloadConfig(t *testing.T) {
	resetPublished(t)
	SetConfig(Default())

	bad := writeConfig(t, "storage:\n  backend: postgres\n")
	if _, err := ReloadConfig(bad); err == nil {
		t.Fatal("expected reload error")
	}
	if GetConfig().Storage.Backend != DefaultStorageBackend {
		t.Error("failed reload replaced configuration")
	}

	good := writeConfig(t, "storage:\n  backend: memory\nchat:\n  default_model: gpt-4o\n")
	cfg, err := ReloadConfig(good)
	if err != nil {
		t.Fatalf("ReloadConfig() failed: %v", err)
	}
	if GetConfig() != cfg {
		t.Error("reload did not publish the loaded configuration")
	}
	if got := ChatDefaultModel(); got != "gpt-4o" {
		t.Errorf("ChatDefaultModel() = %q, want gpt-4o", got)
	}
}
