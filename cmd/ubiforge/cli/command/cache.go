package command

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anchore/clio"
	"github.com/anchore/ubiforge/cmd/ubiforge/cli/option"
	"github.com/anchore/ubiforge/internal/log"
)

type cacheClearer interface {
	ClearCache() error
}

type CacheConfig struct {
	Config      string `json:"config" yaml:"config" mapstructure:"config"`
	option.Core `json:"" yaml:",inline" mapstructure:",squash"`
}

func Cache(app clio.Application) *cobra.Command {
	cmd := app.SetupCommand(&cobra.Command{
		Use:   "cache",
		Short: "Manage cached release listings",
	})

	cmd.AddCommand(CacheClear(app))

	return cmd
}

func CacheClear(app clio.Application) *cobra.Command {
	cfg := &CacheConfig{
		Core: option.DefaultCore(),
	}

	return app.SetupCommand(&cobra.Command{
		Use:   "clear [NAME...]",
		Short: "Remove cached release listings (all listings when no names are given)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear(*cfg, args)
		},
	}, cfg)
}

func runCacheClear(cfg CacheConfig, names []string) error {
	if strings.TrimSpace(cfg.CacheDir) == "" {
		return fmt.Errorf("no cache directory configured")
	}

	if len(names) == 0 {
		log.WithFields("dir", cfg.CacheDir).Info("clearing cache")
		if err := os.RemoveAll(cfg.CacheDir); err != nil {
			return fmt.Errorf("unable to clear cache %q: %w", cfg.CacheDir, err)
		}
		return nil
	}

	env := toolEnvironment(cfg.Core)
	for _, name := range names {
		backend, _, err := cfg.Tools.GetOrAdHoc(name).ToBackend(env)
		if err != nil {
			return err
		}

		clearer, ok := backend.(cacheClearer)
		if !ok {
			continue
		}

		log.WithFields("tool", name).Info("clearing cache")
		if err := clearer.ClearCache(); err != nil {
			return err
		}
	}
	return nil
}
