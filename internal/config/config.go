package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/photobot/core/config"
	coredatabase "github.com/m3rciful/photobot/core/database"
)

// Category describes one archive destination selectable from the menu.
// Key is the stable callback identifier, Title the button label, and
// Folder the directory name directly under the disk root.
type Category struct {
	Key    string `yaml:"key"`
	Title  string `yaml:"title"`
	Folder string `yaml:"folder"`
}

// DiskConfig holds Yandex.Disk API settings.
type DiskConfig struct {
	Token   string `yaml:"token" envconfig:"DISK_TOKEN"`
	BaseURL string `yaml:"base_url" envconfig:"DISK_BASE_URL"`
	// Root is the remote path prefix all categories live under, e.g. "disk:".
	Root string `yaml:"root" envconfig:"DISK_ROOT"`
}

// StagingConfig holds local staging settings for transient photo copies.
type StagingConfig struct {
	Dir string `yaml:"dir" envconfig:"STAGING_DIR"`
}

// SearchConfig tunes the remote tree search.
type SearchConfig struct {
	// PreviewLimit is the largest result count still presented as photo
	// previews; anything above it becomes a text listing.
	PreviewLimit int `yaml:"preview_limit" envconfig:"SEARCH_PREVIEW_LIMIT"`
	// MaxDepth bounds how many directory levels below a category root the
	// search descends into; 0 disables the bound.
	MaxDepth int `yaml:"max_depth" envconfig:"SEARCH_MAX_DEPTH"`
	// CacheTTLSeconds enables a TTL cache of directory listings when > 0.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" envconfig:"SEARCH_CACHE_TTL_SECONDS"`
}

// JournalConfig toggles the optional postgres-backed archive journal.
type JournalConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"JOURNAL_ENABLED"`
}

// Config aggregates the bot configuration on top of the reusable core.
type Config struct {
	Core coreconfig.Config `yaml:",inline"`

	Disk       DiskConfig          `yaml:"disk"`
	Categories []Category          `yaml:"categories"`
	Staging    StagingConfig       `yaml:"staging"`
	Search     SearchConfig        `yaml:"search"`
	Journal    JournalConfig       `yaml:"journal"`
	Database   coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core configuration for the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// CategoryByKey resolves a category by its callback key.
func (c *Config) CategoryByKey(key string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.Key == key {
			return cat, true
		}
	}
	return Category{}, false
}

// CacheTTL returns the listing cache TTL as a duration; zero disables caching.
func (s SearchConfig) CacheTTL() time.Duration {
	if s.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Disk.Token) == "" {
		return fmt.Errorf("disk.token is required")
	}
	if strings.TrimSpace(cfg.Disk.BaseURL) == "" {
		cfg.Disk.BaseURL = "https://cloud-api.yandex.net/v1/disk"
	}
	cfg.Disk.BaseURL = strings.TrimRight(cfg.Disk.BaseURL, "/")
	if strings.TrimSpace(cfg.Disk.Root) == "" {
		cfg.Disk.Root = "disk:"
	}
	cfg.Disk.Root = strings.TrimRight(cfg.Disk.Root, "/")

	if len(cfg.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	seen := make(map[string]struct{}, len(cfg.Categories))
	for i, cat := range cfg.Categories {
		key := strings.TrimSpace(cat.Key)
		if key == "" {
			return fmt.Errorf("categories[%d].key is required", i)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate category key %q", key)
		}
		seen[key] = struct{}{}
		if strings.TrimSpace(cat.Folder) == "" {
			return fmt.Errorf("categories[%d].folder is required", i)
		}
		if strings.TrimSpace(cat.Title) == "" {
			cfg.Categories[i].Title = cat.Folder
		}
		cfg.Categories[i].Key = key
	}

	if strings.TrimSpace(cfg.Staging.Dir) == "" {
		cfg.Staging.Dir = "images"
	}

	if cfg.Search.PreviewLimit <= 0 {
		cfg.Search.PreviewLimit = 10
	}
	if cfg.Search.MaxDepth < 0 {
		return fmt.Errorf("search.max_depth must be >= 0")
	}
	if cfg.Search.CacheTTLSeconds < 0 {
		return fmt.Errorf("search.cache_ttl_seconds must be >= 0")
	}

	if cfg.Journal.Enabled {
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("journal.enabled requires database.host and database.name")
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 4
		}
	}

	return nil
}
