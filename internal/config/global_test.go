package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGlobalConfigPath(t *testing.T) {
	orig := os.Getenv("XDG_CONFIG_HOME")
	defer os.Setenv("XDG_CONFIG_HOME", orig)

	os.Setenv("XDG_CONFIG_HOME", "/custom/config")
	path := GlobalConfigPath()
	want := "/custom/config/citer/config.yml"
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}

	os.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	path = GlobalConfigPath()
	want = filepath.Join(home, ".config", "citer", "config.yml")
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	orig := os.Getenv("XDG_CONFIG_HOME")
	defer os.Setenv("XDG_CONFIG_HOME", orig)

	os.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadGlobalConfig() returned nil")
	}
	if cfg.Language != "" {
		t.Errorf("Language = %q, want empty", cfg.Language)
	}
}

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, "citer")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	return tmpDir
}

func TestLoadGlobalConfig_Valid(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	orig := os.Getenv("XDG_CONFIG_HOME")
	defer os.Setenv("XDG_CONFIG_HOME", orig)

	tmpDir := writeConfig(t, `
user_agent: test-agent/1.0
language: fa
timeout_seconds: 20
cache_size: 64
bib_file: ~/refs/library.bib
default_endpoint: dnb
endpoints:
  gvk:
    name: GVK
    url: https://sru.k10plus.de/gvk
    schema: marcxml
`)
	os.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}

	if cfg.UserAgent != "test-agent/1.0" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.Language != "fa" {
		t.Errorf("Language = %q", cfg.Language)
	}
	if cfg.TimeoutSeconds != 20 {
		t.Errorf("TimeoutSeconds = %d", cfg.TimeoutSeconds)
	}

	home, _ := os.UserHomeDir()
	wantBib := filepath.Join(home, "refs/library.bib")
	if cfg.BibFile != wantBib {
		t.Errorf("BibFile = %q, want %q (tilde expanded)", cfg.BibFile, wantBib)
	}

	ep, ok := cfg.Endpoints["gvk"]
	if !ok {
		t.Fatal("endpoint gvk missing")
	}
	if ep.URL != "https://sru.k10plus.de/gvk" || ep.Schema != "marcxml" {
		t.Errorf("endpoint = %+v", ep)
	}
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	orig := os.Getenv("XDG_CONFIG_HOME")
	defer os.Setenv("XDG_CONFIG_HOME", orig)

	os.Setenv("XDG_CONFIG_HOME", writeConfig(t, "language: [unclosed"))

	if _, err := LoadGlobalConfig(); err == nil {
		t.Error("LoadGlobalConfig() should return error for invalid YAML")
	}
}

func TestGetLanguage_EnvOverride(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	origLang := os.Getenv("CITER_LANG")
	origXDG := os.Getenv("XDG_CONFIG_HOME")
	defer func() {
		os.Setenv("CITER_LANG", origLang)
		os.Setenv("XDG_CONFIG_HOME", origXDG)
	}()

	os.Setenv("XDG_CONFIG_HOME", writeConfig(t, "language: de"))

	os.Setenv("CITER_LANG", "fa")
	if got := GetLanguage(); got != "fa" {
		t.Errorf("GetLanguage() = %q, want fa (env wins)", got)
	}

	os.Setenv("CITER_LANG", "")
	if got := GetLanguage(); got != "de" {
		t.Errorf("GetLanguage() = %q, want de (config)", got)
	}
}

func TestGetTimeout(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	orig := os.Getenv("XDG_CONFIG_HOME")
	defer os.Setenv("XDG_CONFIG_HOME", orig)

	os.Setenv("XDG_CONFIG_HOME", writeConfig(t, "timeout_seconds: 45"))
	if got := GetTimeout(); got != 45*time.Second {
		t.Errorf("GetTimeout() = %v, want 45s", got)
	}

	ResetGlobalConfigCache()
	os.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if got := GetTimeout(); got != 0 {
		t.Errorf("GetTimeout() = %v, want 0 when unconfigured", got)
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/refs.bib", filepath.Join(home, "refs.bib")},
		{"/abs/path", "/abs/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandTilde(tt.input); got != tt.want {
			t.Errorf("ExpandTilde(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestGlobalConfigCache(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	orig := os.Getenv("XDG_CONFIG_HOME")
	defer os.Setenv("XDG_CONFIG_HOME", orig)

	tmpDir := writeConfig(t, "language: de")
	os.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg1, _ := LoadGlobalConfig()
	if cfg1.Language != "de" {
		t.Errorf("first load Language = %q", cfg1.Language)
	}

	configFile := filepath.Join(tmpDir, "citer", "config.yml")
	os.WriteFile(configFile, []byte("language: fr"), 0644)

	cfg2, _ := LoadGlobalConfig()
	if cfg2.Language != "de" {
		t.Errorf("second load should be cached, Language = %q", cfg2.Language)
	}

	ResetGlobalConfigCache()
	cfg3, _ := LoadGlobalConfig()
	if cfg3.Language != "fr" {
		t.Errorf("after reset Language = %q, want fr", cfg3.Language)
	}
}

func TestHelpfulConfigMessage(t *testing.T) {
	msg := HelpfulConfigMessage()
	if msg == "" {
		t.Error("HelpfulConfigMessage() returned empty string")
	}
	if len(msg) < 50 {
		t.Error("HelpfulConfigMessage() seems too short")
	}
}
