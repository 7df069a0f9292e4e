// Package config handles loading and saving lv configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/lv/config.yaml
//   - Data:    ~/.local/share/lv/ (audit journal)
//   - State:   ~/.local/state/lv/ (tree expansion state per source)
//
// Environment variables (LV_*) override the file; command-line flags
// override both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/logview/pkg/tree"
	"github.com/vanderheijden86/logview/pkg/viewer"
)

// Source is a named log source: a local directory or a remote `lv serve`.
type Source struct {
	Name string `yaml:"name"`
	Root string `yaml:"root,omitempty"`
	URL  string `yaml:"url,omitempty"`
}

// IsRemote reports whether the source is served over HTTP.
func (s Source) IsRemote() bool { return s.URL != "" }

// ServerConfig configures `lv serve`.
type ServerConfig struct {
	Addr    string `yaml:"addr,omitempty"`
	AuditDB string `yaml:"audit_db,omitempty"` // "" disables the journal
}

// SearchConfig controls the filter engine.
type SearchConfig struct {
	Policy             string `yaml:"policy,omitempty"`     // case-insensitive, case-sensitive
	MatchProp          string `yaml:"match_prop,omitempty"` // title, key
	DebounceMS         int    `yaml:"debounce_ms,omitempty"`
	KeepMatchedSubtree bool   `yaml:"keep_matched_subtree,omitempty"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	SplitRatio float64 `yaml:"split_ratio,omitempty"` // tree pane share of the width (0.2-0.8)
	ShowHidden bool    `yaml:"show_hidden,omitempty"` // list dot-files in local sources
	LiveReload *bool   `yaml:"live_reload,omitempty"` // re-list on filesystem changes (default on)
}

// DownloadConfig controls where downloads are written.
type DownloadConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	File  string `yaml:"file,omitempty"`
}

// Config is the top-level configuration for lv.
type Config struct {
	Sources  []Source       `yaml:"sources,omitempty"`
	Default  string         `yaml:"default,omitempty"` // name of the source used when none is given
	Server   ServerConfig   `yaml:"server,omitempty"`
	Search   SearchConfig   `yaml:"search,omitempty"`
	UI       UIConfig       `yaml:"ui,omitempty"`
	Download DownloadConfig `yaml:"download,omitempty"`
	Log      LogConfig      `yaml:"log,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":8089",
		},
		Search: SearchConfig{
			Policy:     tree.CaseInsensitive.String(),
			MatchProp:  string(tree.MatchTitle),
			DebounceMS: int(viewer.DefaultKeywordDelay / time.Millisecond),
		},
		UI: UIConfig{
			SplitRatio: 0.35,
		},
		Download: DownloadConfig{
			Dir: ".",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the XDG config directory for lv.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "lv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "lv")
}

// DataDir returns the XDG data directory for lv.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "lv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "lv")
}

// StateDir returns the XDG state directory for lv.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "lv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "lv")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// DefaultAuditDB returns the default journal location, or "" when no data
// directory can be determined.
func DefaultAuditDB() string {
	dir := DataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "audit.db")
}

// Load reads the config file from the XDG config directory and applies
// environment overrides. Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFrom(path); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.ApplyEnv(os.Getenv)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	for i := range cfg.Sources {
		cfg.Sources[i].Root = expandHome(cfg.Sources[i].Root)
	}
	cfg.Download.Dir = expandHome(cfg.Download.Dir)
	cfg.Server.AuditDB = expandHome(cfg.Server.AuditDB)
	cfg.Log.File = expandHome(cfg.Log.File)

	return cfg, cfg.Validate()
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from LV_* variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("LV_ROOT"); v != "" {
		c.addAdhoc(Source{Root: expandHome(v)})
	}
	if v := getenv("LV_URL"); v != "" {
		c.addAdhoc(Source{URL: v})
	}
	if v := getenv("LV_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("LV_AUDIT_DB"); v != "" {
		c.Server.AuditDB = expandHome(v)
	}
	if v := getenv("LV_SEARCH_POLICY"); v != "" {
		c.Search.Policy = v
	}
	if v := getenv("LV_SEARCH_DEBOUNCE_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LV_SEARCH_DEBOUNCE_MS: %w", err)
		}
		c.Search.DebounceMS = n
	}
	if v := getenv("LV_DOWNLOAD_DIR"); v != "" {
		c.Download.Dir = expandHome(v)
	}
	if v := getenv("LV_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("LV_LOG_FILE"); v != "" {
		c.Log.File = expandHome(v)
	}
	return c.Validate()
}

// adhocName names the source created from LV_ROOT, LV_URL or a CLI argument.
const adhocName = "default"

func (c *Config) addAdhoc(s Source) {
	s.Name = adhocName
	if existing := c.FindSource(adhocName); existing != nil {
		*existing = s
	} else {
		c.Sources = append(c.Sources, s)
	}
	c.Default = adhocName
}

// UseSource makes target the default source. target is a configured source
// name, an http(s) URL or a directory path.
func (c *Config) UseSource(target string) {
	if s := c.FindSource(target); s != nil {
		c.Default = s.Name
		return
	}
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		c.addAdhoc(Source{URL: target})
		return
	}
	c.addAdhoc(Source{Root: expandHome(target)})
}

// Validate checks values that would otherwise fail later and far away.
func (c Config) Validate() error {
	switch tree.MatchProp(c.Search.MatchProp) {
	case "", tree.MatchTitle, tree.MatchKey:
	default:
		return fmt.Errorf("search.match_prop: unknown property %q", c.Search.MatchProp)
	}
	if c.Search.DebounceMS < 0 {
		return fmt.Errorf("search.debounce_ms must not be negative")
	}
	if r := c.UI.SplitRatio; r != 0 && (r < 0.2 || r > 0.8) {
		return fmt.Errorf("ui.split_ratio %.2f out of range 0.2-0.8", r)
	}
	for _, s := range c.Sources {
		if (s.Root == "") == (s.URL == "") {
			return fmt.Errorf("source %q: exactly one of root and url must be set", s.Name)
		}
	}
	return nil
}

// FindSource returns the source with the given name, or nil.
func (c *Config) FindSource(name string) *Source {
	for i := range c.Sources {
		if strings.EqualFold(c.Sources[i].Name, name) {
			return &c.Sources[i]
		}
	}
	return nil
}

// DefaultSource returns the source to open when none is named: Default if
// set, else the only configured source.
func (c *Config) DefaultSource() (Source, bool) {
	if c.Default != "" {
		if s := c.FindSource(c.Default); s != nil {
			return *s, true
		}
	}
	if len(c.Sources) == 1 {
		return c.Sources[0], true
	}
	return Source{}, false
}

// FilterOptions converts the search section into filter engine options.
// Unknown policies fall back to case-insensitive matching.
func (c Config) FilterOptions() []tree.Option {
	opts := []tree.Option{tree.WithPolicy(tree.ParseMatchPolicy(c.Search.Policy))}
	if c.Search.MatchProp != "" {
		opts = append(opts, tree.WithMatchProp(tree.MatchProp(c.Search.MatchProp)))
	}
	if c.Search.KeepMatchedSubtree {
		opts = append(opts, tree.WithKeepMatchedSubtree(true))
	}
	return opts
}

// DebounceDelay returns the keyword debounce interval.
func (c Config) DebounceDelay() time.Duration {
	if c.Search.DebounceMS <= 0 {
		return viewer.DefaultKeywordDelay
	}
	return time.Duration(c.Search.DebounceMS) * time.Millisecond
}

// LiveReloadEnabled reports whether local sources are watched for changes.
func (c Config) LiveReloadEnabled() bool {
	return c.UI.LiveReload == nil || *c.UI.LiveReload
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
