package config

import (
	"testing"
)

func TestLoadReturnsDefaultsWhenMissing(t *testing.T) {
	t.Setenv("WXARCHIVE_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TimeBiasSeconds != 13*60*60 {
		t.Fatalf("TimeBiasSeconds=%d", cfg.TimeBiasSeconds)
	}
	if cfg.GraphThresholdMinutes != 1 || cfg.MergeWindowMinutes != 10 {
		t.Fatalf("thresholds=%d,%d", cfg.GraphThresholdMinutes, cfg.MergeWindowMinutes)
	}
	if cfg.Folders.Emoticon != "emoticon1" {
		t.Fatalf("Folders.Emoticon=%q", cfg.Folders.Emoticon)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("WXARCHIVE_CONFIG_DIR", t.TempDir())

	cfg := Default()
	cfg.ChatTable = "Chat_28228f7a9f1a43c84f9045374383c8a4"
	cfg.Owner = Owner{Name: "xue", ID: "wxid_mknhwpgccdz312"}
	cfg.GraphThresholdMinutes = 2

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ChatTable != cfg.ChatTable {
		t.Fatalf("ChatTable=%q", got.ChatTable)
	}
	if got.Owner != cfg.Owner {
		t.Fatalf("Owner=%+v", got.Owner)
	}
	if got.GraphThresholdMinutes != 2 {
		t.Fatalf("GraphThresholdMinutes=%d", got.GraphThresholdMinutes)
	}
}

func TestStorePath(t *testing.T) {
	cfg := Default()
	cfg.InputDir = "/data/export"
	if got := cfg.StorePath(); got != "/data/export/DB/MM.sqlite" {
		t.Fatalf("StorePath=%q", got)
	}
}
