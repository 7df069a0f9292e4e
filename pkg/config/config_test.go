package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vanderheijden86/logview/pkg/tree"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Addr != ":8089" {
		t.Errorf("expected default addr ':8089', got %q", cfg.Server.Addr)
	}
	if cfg.UI.SplitRatio != 0.35 {
		t.Errorf("expected split ratio 0.35, got %f", cfg.UI.SplitRatio)
	}
	if cfg.DebounceDelay() != 300*time.Millisecond {
		t.Errorf("expected 300ms debounce, got %v", cfg.DebounceDelay())
	}
	if !cfg.LiveReloadEnabled() {
		t.Error("live reload should default on")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Server.Addr != ":8089" {
		t.Errorf("expected default config, got addr %q", cfg.Server.Addr)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
sources:
  - name: app
    root: ~/logs/app
  - name: prod
    url: http://logs.internal:8089
default: prod

search:
  policy: case-sensitive
  match_prop: key
  debounce_ms: 150
  keep_matched_subtree: true

ui:
  split_ratio: 0.5
  live_reload: false

download:
  dir: ~/Downloads
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}
	// Root should have ~ expanded
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "logs/app"); cfg.Sources[0].Root != want {
		t.Errorf("expected expanded root %q, got %q", want, cfg.Sources[0].Root)
	}
	if want := filepath.Join(home, "Downloads"); cfg.Download.Dir != want {
		t.Errorf("expected expanded download dir %q, got %q", want, cfg.Download.Dir)
	}

	src, ok := cfg.DefaultSource()
	if !ok || src.Name != "prod" || !src.IsRemote() {
		t.Errorf("expected remote default source 'prod', got %+v", src)
	}
	if cfg.DebounceDelay() != 150*time.Millisecond {
		t.Errorf("expected 150ms, got %v", cfg.DebounceDelay())
	}
	if cfg.LiveReloadEnabled() {
		t.Error("live_reload: false should disable reload")
	}
	// Unset fields keep their defaults
	if cfg.Server.Addr != ":8089" {
		t.Errorf("expected default addr to survive, got %q", cfg.Server.Addr)
	}

	var o tree.Options
	for _, opt := range cfg.FilterOptions() {
		opt(&o)
	}
	if o.Policy != tree.CaseSensitive || o.MatchProp != tree.MatchKey || !o.KeepMatchedSubtree {
		t.Errorf("unexpected filter options %+v", o)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{{invalid"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"split ratio", func(c *Config) { c.UI.SplitRatio = 0.9 }},
		{"match prop", func(c *Config) { c.Search.MatchProp = "size" }},
		{"negative debounce", func(c *Config) { c.Search.DebounceMS = -1 }},
		{"source without location", func(c *Config) { c.Sources = []Source{{Name: "x"}} }},
		{"source with both", func(c *Config) { c.Sources = []Source{{Name: "x", Root: "/a", URL: "http://b"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Sources = []Source{{Name: "local", Root: "/var/log/app"}}
	cfg.Default = "local"
	cfg.Search.Policy = tree.CaseSensitive.String()

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if len(loaded.Sources) != 1 || loaded.Sources[0].Root != "/var/log/app" {
		t.Errorf("sources not round-tripped: %+v", loaded.Sources)
	}
	if loaded.Search.Policy != "case-sensitive" {
		t.Errorf("policy not round-tripped: %q", loaded.Search.Policy)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LV_ROOT":               "/srv/logs",
		"LV_ADDR":               "127.0.0.1:9000",
		"LV_SEARCH_DEBOUNCE_MS": "50",
		"LV_LOG_LEVEL":          "debug",
	}
	cfg := DefaultConfig()
	cfg.Sources = []Source{{Name: "other", URL: "http://x"}}
	cfg.Default = "other"

	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}

	src, ok := cfg.DefaultSource()
	if !ok || src.Root != "/srv/logs" {
		t.Errorf("LV_ROOT should become the default source, got %+v", src)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Search.DebounceMS != 50 || cfg.Log.Level != "debug" {
		t.Errorf("env not applied: %+v", cfg)
	}

	bad := DefaultConfig()
	if err := bad.ApplyEnv(func(k string) string {
		if k == "LV_SEARCH_DEBOUNCE_MS" {
			return "soon"
		}
		return ""
	}); err == nil {
		t.Error("expected error for non-numeric debounce")
	}
}

func TestUseSource(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sources = []Source{{Name: "App", Root: "/a"}, {Name: "db", Root: "/b"}}

	if _, ok := cfg.DefaultSource(); ok {
		t.Error("two sources and no default should be ambiguous")
	}

	cfg.UseSource("app")
	if src, _ := cfg.DefaultSource(); src.Root != "/a" {
		t.Errorf("lookup by name should be case-insensitive, got %+v", src)
	}

	cfg.UseSource("https://logs.example.com")
	if src, _ := cfg.DefaultSource(); src.URL != "https://logs.example.com" {
		t.Errorf("expected URL source, got %+v", src)
	}

	cfg.UseSource("/var/log")
	src, _ := cfg.DefaultSource()
	if src.Root != "/var/log" || src.URL != "" {
		t.Errorf("ad hoc source should be replaced, got %+v", src)
	}
	if len(cfg.Sources) != 3 {
		t.Errorf("expected one ad hoc source, got %+v", cfg.Sources)
	}
}

func TestXDGDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")

	if got := ConfigPath(); got != "/tmp/xdg-config/lv/config.yaml" {
		t.Errorf("ConfigPath = %q", got)
	}
	if got := DefaultAuditDB(); got != "/tmp/xdg-data/lv/audit.db" {
		t.Errorf("DefaultAuditDB = %q", got)
	}
	if got := StateDir(); got != "/tmp/xdg-state/lv" {
		t.Errorf("StateDir = %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		input    string
		expected string
	}{
		{"~/logs", filepath.Join(home, "logs")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := expandHome(tt.input); got != tt.expected {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
