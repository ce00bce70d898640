package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Category constants for feed subscriptions and skill profiles.
const (
	CategoryArticles = "articles"
	CategoryYouTube  = "youtube"
	CategoryPodcasts = "podcasts"
)

// Categories returns all valid feed categories in canonical order.
func Categories() []string {
	return []string{CategoryArticles, CategoryYouTube, CategoryPodcasts}
}

// Config is the curator configuration, loaded from YAML.
type Config struct {
	DataDir string       `yaml:"data_dir"`
	Vault   VaultConfig  `yaml:"vault"`
	Folders Folders      `yaml:"folders"`
	Process ProcessTimes `yaml:"processing"`
	Claude  ClaudeConfig `yaml:"claude"`
}

// VaultConfig locates the destination vault.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Folders maps note kinds to vault-relative output folders.
type Folders struct {
	Article   string `yaml:"article"`
	YouTube   string `yaml:"youtube"`
	Clippings string `yaml:"clippings"`
}

// ProcessTimes holds per-category skill timeouts in seconds.
type ProcessTimes struct {
	ArticleTimeout int `yaml:"article_timeout"`
	YouTubeTimeout int `yaml:"youtube_timeout"`
	PodcastTimeout int `yaml:"podcast_timeout"`
}

// ClaudeConfig controls how the external agent is invoked.
type ClaudeConfig struct {
	Bin       string `yaml:"bin"`
	MCPConfig string `yaml:"mcp_config"` // optional --mcp-config path
}

// SkillProfile describes how to process one category of entry.
type SkillProfile struct {
	Skill   string
	Timeout time.Duration
	Folder  string // vault-relative output folder
}

// Default returns the built-in configuration. User YAML is unmarshalled on
// top of it, so absent keys keep their defaults.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir: filepath.Join(home, ".curator"),
		Vault:   VaultConfig{},
		Folders: Folders{
			Article:   "Clippings/Article extractions",
			YouTube:   "Clippings/Youtube extractions",
			Clippings: "Clippings",
		},
		Process: ProcessTimes{
			ArticleTimeout: 300,
			YouTubeTimeout: 600,
			PodcastTimeout: 900,
		},
		Claude: ClaudeConfig{Bin: "claude"},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".curator", "config.yaml")
}

// Load reads the config file at path on top of the defaults. A missing file
// is not an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.DataDir = ExpandHome(cfg.DataDir)
	cfg.Vault.Path = ExpandHome(cfg.Vault.Path)
	return cfg, nil
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// VaultPath returns the expanded vault path, erroring when unset.
func (c *Config) VaultPath() (string, error) {
	if c.Vault.Path == "" {
		return "", fmt.Errorf("vault path not configured; set vault.path in %s", DefaultPath())
	}
	return ExpandHome(c.Vault.Path), nil
}

// ProfileFor returns the skill profile for a feed category.
func (c *Config) ProfileFor(category string) (SkillProfile, error) {
	switch category {
	case CategoryArticles:
		return SkillProfile{
			Skill:   "article",
			Timeout: time.Duration(c.Process.ArticleTimeout) * time.Second,
			Folder:  c.Folders.Article,
		}, nil
	case CategoryYouTube:
		return SkillProfile{
			Skill:   "youtube",
			Timeout: time.Duration(c.Process.YouTubeTimeout) * time.Second,
			Folder:  c.Folders.YouTube,
		}, nil
	case CategoryPodcasts:
		return SkillProfile{
			Skill:   "podcast",
			Timeout: time.Duration(c.Process.PodcastTimeout) * time.Second,
			Folder:  c.Folders.Clippings,
		}, nil
	default:
		return SkillProfile{}, fmt.Errorf("unknown category: %s", category)
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}
	return path
}

// SkillsDir returns the Claude Code skills directory.
func SkillsDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", "skills")
}
