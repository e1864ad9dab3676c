package command

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/anchore/clio"
	"github.com/anchore/ubiforge/cmd/ubiforge/cli/option"
)

type LsRemoteConfig struct {
	Config        string `json:"config" yaml:"config" mapstructure:"config"`
	option.Format `json:"" yaml:",inline" mapstructure:",squash"`
	option.Core   `json:"" yaml:",inline" mapstructure:",squash"`
}

func LsRemote(app clio.Application) *cobra.Command {
	cfg := &LsRemoteConfig{
		Format: option.Format{
			Output:           textOutput,
			AllowableFormats: []string{textOutput, jsonOutput, yamlOutput},
		},
		Core: option.DefaultCore(),
	}

	return app.SetupCommand(&cobra.Command{
		Use:   "ls-remote NAME",
		Short: "List all release tags available upstream for a tool (configured name, owner/repo, or URL)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLsRemote(cmd.Context(), cmd.OutOrStdout(), *cfg, args[0])
		},
	}, cfg)
}

type remoteVersions struct {
	Name     string   `json:"name" yaml:"name"`
	Versions []string `json:"versions" yaml:"versions"`
}

func runLsRemote(ctx context.Context, out io.Writer, cfg LsRemoteConfig, name string) error {
	backend, _, err := cfg.Tools.GetOrAdHoc(name).ToBackend(toolEnvironment(cfg.Core))
	if err != nil {
		return err
	}

	versions, err := backend.ListRemoteVersions(ctx)
	if err != nil {
		return err
	}

	return present(out, cfg.Format, remoteVersions{Name: name, Versions: versions}, func(w io.Writer) error {
		for _, v := range versions {
			if _, err := fmt.Fprintln(w, v); err != nil {
				return err
			}
		}
		return nil
	})
}
