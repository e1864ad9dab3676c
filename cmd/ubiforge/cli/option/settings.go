package option

import (
	"os"
	"path/filepath"
	"time"

	"github.com/anchore/ubiforge"
	"github.com/anchore/ubiforge/internal/cache"
)

var (
	_ ubiforge.ConfigProvider = (*Settings)(nil)
	_ ubiforge.Toolset        = (*Settings)(nil)
)

// Settings are the user settings shared by every backend (e.g. UBIFORGE_EXPERIMENTAL=true).
type Settings struct {
	Experimental bool              `json:"experimental" yaml:"experimental" mapstructure:"experimental"`
	Environment  map[string]string `json:"env" yaml:"env" mapstructure:"env"`
	Paths        []string          `json:"paths" yaml:"paths" mapstructure:"paths"`
	CacheDir     string            `json:"cache-dir" yaml:"cache-dir" mapstructure:"cache-dir"`
	// CacheTTL expires cached release listings; zero keeps them until cleared.
	CacheTTL time.Duration `json:"cache-ttl" yaml:"cache-ttl" mapstructure:"cache-ttl"`
}

func DefaultSettings() Settings {
	return Settings{
		CacheDir: defaultCacheDir(),
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		return filepath.Join(".tool", ".cache")
	}
	return filepath.Join(dir, "ubiforge")
}

func (o Settings) Env() map[string]string {
	return o.Environment
}

func (o Settings) ExperimentalEnabled() bool {
	return o.Experimental
}

func (o Settings) ListPaths() []string {
	return o.Paths
}

func (o Settings) CacheOptions() []cache.Option {
	if o.CacheTTL <= 0 {
		return nil
	}
	return []cache.Option{cache.WithFreshDuration(o.CacheTTL)}
}
