package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if Exists() {
		t.Error("Exists() = true before any save")
	}
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.General.OutputDir = "/tmp/recaps"
	cfg.General.SQLiteExport = false
	cfg.Outputs.Charts = false
	cfg.Story.TopConversations = 12
	cfg.Server.LogFile = "/tmp/gptrecap.log"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after save")
	}
	if filepath.Base(filepath.Dir(Path())) != "gptrecap" {
		t.Errorf("Path() = %q, want a gptrecap dir", Path())
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[outputs]\nstory = false\n\n[server]\naddr = \"0.0.0.0:9000\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Outputs.Story {
		t.Error("outputs.story = true, want false from file")
	}
	if !cfg.Outputs.CSV {
		t.Error("outputs.csv = false, want default true")
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("server.addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.DebounceMS != 500 {
		t.Errorf("server.debounce_ms = %d, want 500", cfg.Server.DebounceMS)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[general\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile accepted invalid TOML")
	}
}

func TestOutputDir_EnvWins(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv("GPTRECAP_OUTPUT_DIR", "")
	if got := OutputDir(cfg); got != "outputs" {
		t.Errorf("OutputDir = %q, want outputs", got)
	}
	t.Setenv("GPTRECAP_OUTPUT_DIR", "/elsewhere")
	if got := OutputDir(cfg); got != "/elsewhere" {
		t.Errorf("OutputDir = %q, want /elsewhere", got)
	}
}

func TestOutputDir_OverrideBeatsEnv(t *testing.T) {
	t.Setenv("GPTRECAP_OUTPUT_DIR", "/elsewhere")
	cfg := DefaultConfig()
	cfg.OutputOverride = "/from-flag"
	if got := OutputDir(cfg); got != "/from-flag" {
		t.Errorf("OutputDir = %q, want /from-flag", got)
	}
	if got := os.Getenv("GPTRECAP_OUTPUT_DIR"); got != "/elsewhere" {
		t.Errorf("env = %q, want it left untouched", got)
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveFile(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.OutputOverride != "" {
		t.Errorf("OutputOverride = %q, want it not persisted", loaded.OutputOverride)
	}
}
