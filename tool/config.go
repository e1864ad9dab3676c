package tool

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/mitchellh/hashstructure/v2"

	"github.com/anchore/ubiforge"
	"github.com/anchore/ubiforge/internal/cache"
	"github.com/anchore/ubiforge/tool/ubi"
)

type Config struct {
	Name       string
	Method     string
	Parameters any
}

// Environment holds what every backend shares regardless of the tool being managed.
type Environment struct {
	Settings     ubiforge.ConfigProvider
	CacheRoot    string
	Client       *retryablehttp.Client
	CacheOptions []cache.Option
}

func Methods() []string {
	return []string{
		ubi.InstallMethod,
	}
}

func (t *Config) normalize() {
	if t.Method == "" {
		t.Method = ubi.InstallMethod
	}
	if t.Parameters == nil {
		t.Parameters = ubi.InstallerParameters{Identifier: t.Name}
	}
}

func New(t Config, env Environment) (ubiforge.Backend, error) {
	t.normalize()

	switch {
	case ubi.IsInstallMethod(t.Method):
		params, ok := t.Parameters.(ubi.InstallerParameters)
		if !ok {
			return nil, fmt.Errorf("invalid ubi install parameters for tool %q", t.Name)
		}
		if params.Identifier == "" {
			params.Identifier = t.Name
		}

		cacheDir, err := CacheDir(env.CacheRoot, ubi.ResolveMethod, params.Identifier)
		if err != nil {
			return nil, err
		}

		return ubi.New(ubi.Config{
			Name:         t.Name,
			Parameters:   params,
			CacheDir:     cacheDir,
			Settings:     env.Settings,
			Client:       env.Client,
			CacheOptions: env.CacheOptions,
		}), nil
	}

	return nil, fmt.Errorf("unsupported install method %q for tool %q (supported: %s)", t.Method, t.Name, strings.Join(Methods(), ", "))
}

// CacheDir is the directory holding the cached release listing of a single identifier. Distinct identifiers
// never share a directory, while the same identifier maps to the same directory across runs.
func CacheDir(root, method, identifier string) (string, error) {
	key := struct {
		Method     string
		Identifier string
	}{
		Method:     method,
		Identifier: identifier,
	}

	f, err := hashstructure.Hash(key, hashstructure.FormatV2, &hashstructure.HashOptions{
		ZeroNil: true,
	})
	if err != nil {
		return "", fmt.Errorf("could not hash cache key for %q: %w", identifier, err)
	}

	return filepath.Join(root, method, fmt.Sprintf("%016x", f)), nil
}
