package ubi

import (
	"github.com/hashicorp/go-retryablehttp"

	"github.com/anchore/ubiforge"
	"github.com/anchore/ubiforge/internal/cache"
)

var _ ubiforge.Backend = (*Backend)(nil)

// Backend lists releases of a tool and installs them with the ubi installer.
type Backend struct {
	name string
	*VersionResolver
	*Installer
}

type Config struct {
	Name       string
	Parameters InstallerParameters
	// CacheDir holds this backend's cache files; it must not be shared with other identifiers.
	CacheDir     string
	Settings     ubiforge.ConfigProvider
	Client       *retryablehttp.Client
	CacheOptions []cache.Option
}

func New(cfg Config) *Backend {
	if cfg.Parameters.Identifier == "" {
		cfg.Parameters.Identifier = cfg.Name
	}

	resolver := NewVersionResolver(
		VersionResolutionParameters{Identifier: cfg.Parameters.Identifier},
		cfg.CacheDir,
		cfg.Client,
		cfg.CacheOptions...,
	)

	return &Backend{
		name:            cfg.Name,
		VersionResolver: resolver,
		Installer:       NewInstaller(cfg.Parameters, cfg.Settings, resolver),
	}
}

func (b Backend) Name() string {
	return b.name
}

func (b Backend) Identifier() string {
	return b.VersionResolver.config.Identifier
}
