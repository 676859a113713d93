package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"rwm/internal/domain"

	"gopkg.in/yaml.v3"
)

const fileName = "config.yaml"

// DownloadConfig bounds steamcmd retries
type DownloadConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`    // 0 retries until success
	AttemptTimeout time.Duration `yaml:"attempt_timeout"` // 0 disables the per-attempt deadline
	AdminAttempts  int           `yaml:"admin_attempts"`
}

// CatalogConfig controls the workshop search cache
type CatalogConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"` // 0 disables caching
}

// HooksConfig groups hook scripts by command
type HooksConfig struct {
	Install domain.HookConfig `yaml:"install"`
}

// Config holds global application settings
type Config struct {
	GamePath      string            `yaml:"game_path"`
	SteamCmdPath  string            `yaml:"steamcmd_path"`
	WorkshopDir   string            `yaml:"workshop_dir"`
	UsePager      bool              `yaml:"use_pager"`
	Pager         string            `yaml:"pager"`
	LinkMethod    domain.LinkMethod `yaml:"-"`
	LinkMethodStr string            `yaml:"link_method"`
	Download      DownloadConfig    `yaml:"download"`
	Catalog       CatalogConfig     `yaml:"catalog"`
	Hooks         HooksConfig       `yaml:"hooks"`
	HookTimeout   time.Duration     `yaml:"hook_timeout"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		UsePager:    false,
		Pager:       "less",
		LinkMethod:  domain.LinkSymlink,
		Download:    DownloadConfig{AdminAttempts: 5},
		Catalog:     CatalogConfig{CacheTTL: time.Hour},
		HookTimeout: 60 * time.Second,
	}
}

// Load reads configuration from the given directory
func Load(configDir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(configDir, fileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // Return defaults
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.LinkMethodStr != "" {
		cfg.LinkMethod = domain.ParseLinkMethod(cfg.LinkMethodStr)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values the rest of the program cannot use
func (c *Config) Validate() error {
	if c.Download.MaxAttempts < 0 {
		return fmt.Errorf("%w: download.max_attempts must not be negative", domain.ErrInvalidConfig)
	}
	if c.Download.AdminAttempts < 0 {
		return fmt.Errorf("%w: download.admin_attempts must not be negative", domain.ErrInvalidConfig)
	}
	if c.Download.AttemptTimeout < 0 || c.Catalog.CacheTTL < 0 || c.HookTimeout < 0 {
		return fmt.Errorf("%w: durations must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}

// Save writes configuration to the given directory
func (c *Config) Save(configDir string) error {
	c.LinkMethodStr = c.LinkMethod.String()

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, fileName), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ModsPath returns the game's Mods directory
func (c *Config) ModsPath() (string, error) {
	if c.GamePath == "" {
		return "", domain.ErrGameNotConfigured
	}
	return filepath.Join(c.GamePath, "Mods"), nil
}

type setting struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// aliases map the names accepted on the command line to keys
var aliases = map[string]string{
	"path":       "game_path",
	"game-path":  "game_path",
	"paging":     "pager",
	"use-pager":  "use_pager",
	"use-paging": "use_pager",
}

var settings = map[string]setting{
	"game_path": {
		get: func(c *Config) string { return c.GamePath },
		set: func(c *Config, v string) error { c.GamePath = ExpandHome(v); return nil },
	},
	"steamcmd_path": {
		get: func(c *Config) string { return c.SteamCmdPath },
		set: func(c *Config, v string) error { c.SteamCmdPath = ExpandHome(v); return nil },
	},
	"workshop_dir": {
		get: func(c *Config) string { return c.WorkshopDir },
		set: func(c *Config, v string) error { c.WorkshopDir = ExpandHome(v); return nil },
	},
	"pager": {
		get: func(c *Config) string { return c.Pager },
		set: func(c *Config, v string) error { c.Pager = v; return nil },
	},
	"use_pager": {
		get: func(c *Config) string { return strconv.FormatBool(c.UsePager) },
		set: func(c *Config, v string) error { return parseBool(v, &c.UsePager) },
	},
	"link_method": {
		get: func(c *Config) string { return c.LinkMethod.String() },
		set: func(c *Config, v string) error {
			switch v {
			case "symlink", "hardlink", "copy":
				c.LinkMethod = domain.ParseLinkMethod(v)
				return nil
			}
			return fmt.Errorf("%w: link_method must be symlink, hardlink or copy", domain.ErrInvalidConfig)
		},
	},
	"download.max_attempts": {
		get: func(c *Config) string { return strconv.Itoa(c.Download.MaxAttempts) },
		set: func(c *Config, v string) error { return parseCount(v, &c.Download.MaxAttempts) },
	},
	"download.admin_attempts": {
		get: func(c *Config) string { return strconv.Itoa(c.Download.AdminAttempts) },
		set: func(c *Config, v string) error { return parseCount(v, &c.Download.AdminAttempts) },
	},
	"download.attempt_timeout": {
		get: func(c *Config) string { return c.Download.AttemptTimeout.String() },
		set: func(c *Config, v string) error { return parseDuration(v, &c.Download.AttemptTimeout) },
	},
	"catalog.cache_ttl": {
		get: func(c *Config) string { return c.Catalog.CacheTTL.String() },
		set: func(c *Config, v string) error { return parseDuration(v, &c.Catalog.CacheTTL) },
	},
	"hook_timeout": {
		get: func(c *Config) string { return c.HookTimeout.String() },
		set: func(c *Config, v string) error { return parseDuration(v, &c.HookTimeout) },
	},
	"hooks.install.before_all": {
		get: func(c *Config) string { return c.Hooks.Install.BeforeAll },
		set: func(c *Config, v string) error { c.Hooks.Install.BeforeAll = ExpandHome(v); return nil },
	},
	"hooks.install.after_each": {
		get: func(c *Config) string { return c.Hooks.Install.AfterEach },
		set: func(c *Config, v string) error { c.Hooks.Install.AfterEach = ExpandHome(v); return nil },
	},
	"hooks.install.after_all": {
		get: func(c *Config) string { return c.Hooks.Install.AfterAll },
		set: func(c *Config, v string) error { c.Hooks.Install.AfterAll = ExpandHome(v); return nil },
	},
}

// Keys returns every settable key, sorted
func Keys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CanonicalKey resolves an alias. Unknown keys are returned unchanged.
func CanonicalKey(key string) string {
	key = strings.ToLower(key)
	if k, ok := aliases[key]; ok {
		return k
	}
	return key
}

// Get returns the string form of a setting
func (c *Config) Get(key string) (string, error) {
	s, ok := settings[CanonicalKey(key)]
	if !ok {
		return "", fmt.Errorf("%w: unknown key %q", domain.ErrInvalidConfig, key)
	}
	return s.get(c), nil
}

// Set updates a setting from its string form
func (c *Config) Set(key, value string) error {
	s, ok := settings[CanonicalKey(key)]
	if !ok {
		return fmt.Errorf("%w: unknown key %q", domain.ErrInvalidConfig, key)
	}
	return s.set(c, value)
}

func parseBool(v string, dst *bool) error {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		*dst = true
	case "false", "0", "no", "off":
		*dst = false
	default:
		return fmt.Errorf("%w: %q is not a boolean", domain.ErrInvalidConfig, v)
	}
	return nil
}

func parseCount(v string, dst *int) error {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fmt.Errorf("%w: %q is not a non-negative integer", domain.ErrInvalidConfig, v)
	}
	*dst = n
	return nil
}

func parseDuration(v string, dst *time.Duration) error {
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return fmt.Errorf("%w: %q is not a duration", domain.ErrInvalidConfig, v)
	}
	*dst = d
	return nil
}
