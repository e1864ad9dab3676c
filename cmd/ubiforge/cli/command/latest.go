package command

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/anchore/clio"
	"github.com/anchore/ubiforge"
	"github.com/anchore/ubiforge/cmd/ubiforge/cli/option"
)

type LatestConfig struct {
	Config      string `json:"config" yaml:"config" mapstructure:"config"`
	option.Core `json:"" yaml:",inline" mapstructure:",squash"`
}

func Latest(app clio.Application) *cobra.Command {
	cfg := &LatestConfig{
		Core: option.DefaultCore(),
	}

	return app.SetupCommand(&cobra.Command{
		Use:   "latest NAME",
		Short: "Show the latest stable release of a tool (configured name, owner/repo, or URL)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLatest(cmd.Context(), cmd.OutOrStdout(), *cfg, args[0])
		},
	}, cfg)
}

func runLatest(ctx context.Context, out io.Writer, cfg LatestConfig, name string) error {
	backend, _, err := cfg.Tools.GetOrAdHoc(name).ToBackend(toolEnvironment(cfg.Core))
	if err != nil {
		return err
	}

	latest, ok, err := backend.LatestStableVersion(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: tool %q has no releases", ubiforge.ErrNotFound, name)
	}

	_, err = fmt.Fprintln(out, latest)
	return err
}
